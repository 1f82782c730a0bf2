package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const minBirthYear = 1900

// futureYears is the acceptance window for dates past the reference time.
// The fallback finder tolerates that much future slack; the normalizer
// narrows the year bound back to the reference year.
const futureYears = 5

var monthNumbers = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may":  5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

var (
	numericDateRe   = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})\b`)
	shortYearDateRe = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2})\b`)
	monthDayYearRe  = regexp.MustCompile(`(?i)\b([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})\b`)
	dayMonthYearRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})\b`)
	isoDateRe       = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	isoStrictRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func isoDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func plausibleMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// parseFreeDate parses a date-shaped substring into an ISO date. Textual
// and four-digit-year numeric forms go through dateparse (month-first for
// ambiguous numerics, as the source data reads); two-digit years pivot at
// 50. Accepts years in [1900, reference_year+futureYears].
func parseFreeDate(s string, now time.Time) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if m := shortYearDateRe.FindStringSubmatch(s); m != nil && shortYearDateRe.FindString(s) == s {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
		if plausibleMonthDay(month, day) && yearInWindow(year, now) {
			return isoDate(year, month, day), true
		}
		return "", false
	}

	parsed, err := dateparse.ParseAny(s)
	if err != nil {
		return "", false
	}
	if !yearInWindow(parsed.Year(), now) {
		return "", false
	}
	return isoDate(parsed.Year(), int(parsed.Month()), parsed.Day()), true
}

func yearInWindow(year int, now time.Time) bool {
	return year >= minBirthYear && year <= now.Year()+futureYears
}

// findDatesInText returns every date-shaped substring of line as an ISO
// date, ordered by position within the line, duplicates removed. Position
// order matters: the co-occurrence pairing downstream is positional, so a
// date appearing earlier in the line must come first even when its format
// is scanned by a later pattern.
func findDatesInText(line string, now time.Time) []string {
	type dateMatch struct {
		start int
		iso   string
	}
	var found []dateMatch

	for _, re := range []*regexp.Regexp{numericDateRe, shortYearDateRe} {
		for _, idx := range re.FindAllStringIndex(line, -1) {
			if iso, ok := parseFreeDate(line[idx[0]:idx[1]], now); ok {
				found = append(found, dateMatch{idx[0], iso})
			}
		}
	}
	for _, idx := range monthDayYearRe.FindAllStringSubmatchIndex(line, -1) {
		month, ok := monthNumbers[strings.ToLower(line[idx[2]:idx[3]])]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(line[idx[4]:idx[5]])
		year, _ := strconv.Atoi(line[idx[6]:idx[7]])
		if plausibleMonthDay(month, day) && yearInWindow(year, now) {
			found = append(found, dateMatch{idx[0], isoDate(year, month, day)})
		}
	}
	for _, idx := range dayMonthYearRe.FindAllStringSubmatchIndex(line, -1) {
		month, ok := monthNumbers[strings.ToLower(line[idx[4]:idx[5]])]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(line[idx[2]:idx[3]])
		year, _ := strconv.Atoi(line[idx[6]:idx[7]])
		if plausibleMonthDay(month, day) && yearInWindow(year, now) {
			found = append(found, dateMatch{idx[0], isoDate(year, month, day)})
		}
	}
	for _, idx := range isoDateRe.FindAllStringSubmatchIndex(line, -1) {
		year, _ := strconv.Atoi(line[idx[2]:idx[3]])
		month, _ := strconv.Atoi(line[idx[4]:idx[5]])
		day, _ := strconv.Atoi(line[idx[6]:idx[7]])
		if plausibleMonthDay(month, day) && yearInWindow(year, now) {
			found = append(found, dateMatch{idx[0], isoDate(year, month, day)})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].start < found[j].start })

	var out []string
	seen := map[string]struct{}{}
	for _, m := range found {
		if _, ok := seen[m.iso]; ok {
			continue
		}
		seen[m.iso] = struct{}{}
		out = append(out, m.iso)
	}
	return out
}
