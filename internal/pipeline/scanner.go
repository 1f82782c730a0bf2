package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// StopMarker ends scanning: once a page's text contains it, that page and
// everything after are out of scope.
const StopMarker = "Anniversary List"

// Literal lines consumed without affecting the date context.
var titleLines = map[string]struct{}{
	"":                   {},
	"Client Name Status": {},
	"Birthday List":      {},
}

// Header forms, tried in order. Numeric dates in headers read day-first.
var (
	leapHeaderRe  = regexp.MustCompile(`(?i)^Leap\s+Year\s*[-–]\s*(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})`)
	wordHeaderRe  = regexp.MustCompile(`^([A-Za-z]+)\s*[-–]\s*(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})`)
	bareHeaderRe  = regexp.MustCompile(`^(\d{1,2})([/\-.])(\d{1,2})[/\-.](\d{4})$`)
	monthHeaderRe = regexp.MustCompile(`(?i)^([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})$`)
	dayMonthRe    = regexp.MustCompile(`(?i)^(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})$`)
)

// SectionScanner tracks the birthday date currently in effect and the stop
// boundary. It owns the date context: header lines mutate it, everything
// else reads it.
type SectionScanner struct {
	current string // ISO date, empty until the first header
	stopped bool
}

func NewSectionScanner() *SectionScanner {
	return &SectionScanner{}
}

// Stopped reports whether the stop marker has been seen.
func (s *SectionScanner) Stopped() bool { return s.stopped }

// CurrentDate returns the ISO date in effect, or "" before any header.
func (s *SectionScanner) CurrentDate() string { return s.current }

// ObservePage transitions to the terminal state when the page text carries
// the stop marker. Returns true if scanning may continue on this page.
func (s *SectionScanner) ObservePage(pageText string) bool {
	if s.stopped {
		return false
	}
	if strings.Contains(pageText, StopMarker) {
		s.stopped = true
		return false
	}
	return true
}

// Consume inspects one reconstructed line. consumed is true when the line
// is a date header or a title/blank line and must not flow downstream;
// header is true only for a matched date header, which also updates the
// date context. Header-shaped lines that fail every pattern fall through
// as ordinary content.
func (s *SectionScanner) Consume(lineText string) (consumed, header bool) {
	trimmed := strings.TrimSpace(lineText)
	if _, ok := titleLines[trimmed]; ok {
		return true, false
	}
	if iso, ok := parseHeaderDate(trimmed); ok {
		s.current = iso
		return true, true
	}
	return false, false
}

func parseHeaderDate(line string) (string, bool) {
	for _, re := range []*regexp.Regexp{leapHeaderRe, wordHeaderRe} {
		if m := re.FindStringSubmatch(line); m != nil {
			// m[1] is the leading word for wordHeaderRe; day/month/year
			// occupy the trailing three groups in both forms.
			g := m[len(m)-3:]
			if iso, ok := dayFirstISO(g[0], g[1], g[2]); ok {
				return iso, true
			}
		}
	}
	if m := bareHeaderRe.FindStringSubmatch(line); m != nil {
		if iso, ok := dayFirstISO(m[1], m[3], m[4]); ok {
			return iso, true
		}
	}
	if m := monthHeaderRe.FindStringSubmatch(line); m != nil {
		if month, ok := monthNumbers[strings.ToLower(m[1])]; ok {
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if plausibleMonthDay(month, day) {
				return isoDate(year, month, day), true
			}
		}
	}
	if m := dayMonthRe.FindStringSubmatch(line); m != nil {
		if month, ok := monthNumbers[strings.ToLower(m[2])]; ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			if plausibleMonthDay(month, day) {
				return isoDate(year, month, day), true
			}
		}
	}
	return "", false
}

func dayFirstISO(dayStr, monthStr, yearStr string) (string, bool) {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	year, _ := strconv.Atoi(yearStr)
	if !plausibleMonthDay(month, day) {
		return "", false
	}
	return isoDate(year, month, day), true
}
