package pipeline

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"rostersync/internal"
)

// RawLine is one plain-text line handed to the fallback parser when the
// positional pass produced nothing document-wide.
type RawLine struct {
	Text   string
	Number int
	Page   int
}

var statusKeywords = map[string]internal.Status{
	"active":   internal.StatusActive,
	"dropout":  internal.StatusDropout,
	"na":       internal.StatusNA,
	"inactive": internal.StatusNA,
}

var (
	isoTokenRe       = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}`)
	tableHeaderWords = []string{"name", "date", "status"}
	guardWords       = []string{"client name", "status", "page", "total", "summary"}

	twoTokenStatusRe   = regexp.MustCompile(`(?i)^([A-Za-z][a-z'\-]*)\s+([A-Za-z][a-z'\-]*)\s+(Active|Dropout|NA|Inactive)$`)
	threeTokenStatusRe = regexp.MustCompile(`(?i)^([A-Za-z][a-z'\-]*)\s+([A-Za-z][a-z'\-]*)\s+([A-Za-z][a-z'\-]*)\s+(Active|Dropout|NA|Inactive)$`)

	firstLastRe       = regexp.MustCompile(`\b([A-Z][a-z]+)\s+([A-Z][a-z]+)\b`)
	lastCommaFirstRe  = regexp.MustCompile(`\b([A-Z][a-z]+),\s*([A-Z][a-z]+)\b`)
	firstMiddleLastRe = regexp.MustCompile(`\b([A-Z][a-z]+)\s+([A-Z][a-z]+)\s+([A-Z][a-z]+)\b`)
)

var nameFalsePositives = map[string]struct{}{
	"Date Born": {}, "Birth Date": {}, "Client Name": {}, "Full Name": {},
	"First Last": {}, "Name Date": {}, "Page Number": {}, "Date Time": {},
}

// lineStrategy inspects one line and either claims it (ok=true, zero or
// more records) or declines it for the next strategy.
type lineStrategy func(line string, lineNo, page int, now time.Time) ([]internal.CandidateRecord, bool)

var fallbackStrategies = []lineStrategy{
	threeFieldStrategy,
	nameStatusStrategy,
	cooccurrenceStrategy,
}

// ParseFallbackLines runs the strategy cascade over plain text lines.
// Each line belongs to the first strategy that accepts it.
func ParseFallbackLines(lines []RawLine, now time.Time, stats *internal.RunStats) []internal.CandidateRecord {
	var out []internal.CandidateRecord
	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		stats.LinesSeen++
		if text == "" {
			continue
		}
		if isTableHeaderLine(text) {
			stats.HeadersFound++
			continue
		}

		claimed := false
		for _, strategy := range fallbackStrategies {
			records, ok := strategy(text, line.Number, line.Page, now)
			if !ok {
				continue
			}
			out = append(out, records...)
			claimed = true
			break
		}
		if !claimed {
			stats.LinesSkipped++
		}
	}
	return out
}

func isTableHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	for _, w := range tableHeaderWords {
		if !strings.Contains(lower, w) {
			return false
		}
	}
	return true
}

// threeFieldStrategy handles "Name parts... YYYY-M-D Status" rows: the
// first token starting with an ISO-shaped date splits name from status.
// Trailing punctuation on the date token ("2025-01-11,") is tolerated.
func threeFieldStrategy(line string, lineNo, page int, _ time.Time) ([]internal.CandidateRecord, bool) {
	words := strings.Fields(line)
	if len(words) < 3 {
		return nil, false
	}

	dateIdx := -1
	dateText := ""
	for i, w := range words {
		if m := isoTokenRe.FindString(w); m != "" {
			dateIdx = i
			dateText = m
			break
		}
	}
	if dateIdx <= 0 || dateIdx == len(words)-1 {
		return nil, false
	}

	name := strings.Join(words[:dateIdx], " ")
	if !containsLetter(name) || len(name) < 2 {
		return nil, false
	}

	statusText := strings.ToLower(strings.Join(words[dateIdx+1:], " "))
	status := internal.StatusUnknown
	for keyword, s := range statusKeywords {
		if strings.HasPrefix(statusText, keyword) {
			status = s
			break
		}
	}

	return []internal.CandidateRecord{{
		FullName:   name,
		ShortName:  ShortName(name),
		Birthday:   internal.StringPtr(dateText),
		Status:     status,
		Confidence: internal.ConfidenceHigh,
		RawLine:    line,
		SourceLine: lineNo,
		SourcePage: page,
		Source:     internal.SourceFallback,
	}}, true
}

// nameStatusStrategy matches bare name rows, strictest form first: a two-
// or three-token capitalized name with a required status word (high), then
// two plain name tokens with an optional status (medium), then a single
// leftover token kept as a partial name (low). Header-ish lines decline.
func nameStatusStrategy(line string, lineNo, page int, _ time.Time) ([]internal.CandidateRecord, bool) {
	lower := strings.ToLower(line)
	for _, guard := range guardWords {
		if strings.Contains(lower, guard) {
			return nil, false
		}
	}

	if m := twoTokenStatusRe.FindStringSubmatch(line); m != nil {
		name := capitalizeWords(m[1] + " " + m[2])
		return []internal.CandidateRecord{fallbackRecord(name, nil, keywordStatus(m[3]), internal.ConfidenceHigh, line, lineNo, page)}, true
	}
	if m := threeTokenStatusRe.FindStringSubmatch(line); m != nil {
		name := capitalizeWords(m[1] + " " + m[2] + " " + m[3])
		return []internal.CandidateRecord{fallbackRecord(name, nil, keywordStatus(m[4]), internal.ConfidenceHigh, line, lineNo, page)}, true
	}

	words := strings.Fields(line)
	if len(words) >= 2 && isAlphaWord(words[0], 2) && isAlphaWord(words[1], 2) {
		name := capitalizeWords(words[0] + " " + words[1])
		status := internal.StatusUnknown
		if len(words) >= 3 {
			if s, ok := statusKeywords[strings.ToLower(words[2])]; ok {
				status = s
			}
		}
		return []internal.CandidateRecord{fallbackRecord(name, nil, status, internal.ConfidenceMedium, line, lineNo, page)}, true
	}
	if len(words) == 1 && isAlphaWord(words[0], 3) {
		name := capitalizeWords(words[0])
		return []internal.CandidateRecord{fallbackRecord(name, nil, internal.StatusUnknown, internal.ConfidenceLow, line, lineNo, page)}, true
	}

	return nil, false
}

// cooccurrenceStrategy pairs name-shaped and date-shaped substrings found
// independently in the same line: equal counts pair positionally (high),
// unequal counts pair only the first of each (medium), names without any
// date carry a null birthday (low).
func cooccurrenceStrategy(line string, lineNo, page int, now time.Time) ([]internal.CandidateRecord, bool) {
	dates := findDatesInText(line, now)
	names := findNamesInText(line)
	if len(names) == 0 {
		return nil, false
	}

	var out []internal.CandidateRecord
	switch {
	case len(dates) == 0:
		for _, name := range names {
			out = append(out, fallbackRecord(name, nil, internal.StatusUnknown, internal.ConfidenceLow, line, lineNo, page))
		}
	case len(names) == len(dates):
		for i, name := range names {
			out = append(out, fallbackRecord(name, internal.StringPtr(dates[i]), internal.StatusUnknown, internal.ConfidenceHigh, line, lineNo, page))
		}
	default:
		out = append(out, fallbackRecord(names[0], internal.StringPtr(dates[0]), internal.StatusUnknown, internal.ConfidenceMedium, line, lineNo, page))
	}
	return out, true
}

// findNamesInText returns capitalized 2-3 word name-shaped substrings,
// ordered by position within the line, duplicates removed. "Last, First"
// is flipped. Position order keeps the co-occurrence pairing positional
// regardless of which pattern matched each name.
func findNamesInText(line string) []string {
	type nameMatch struct {
		start int
		name  string
	}
	var found []nameMatch

	for _, idx := range firstLastRe.FindAllStringSubmatchIndex(line, -1) {
		found = append(found, nameMatch{idx[0], line[idx[2]:idx[3]] + " " + line[idx[4]:idx[5]]})
	}
	for _, idx := range lastCommaFirstRe.FindAllStringSubmatchIndex(line, -1) {
		found = append(found, nameMatch{idx[0], line[idx[4]:idx[5]] + " " + line[idx[2]:idx[3]]})
	}
	for _, idx := range firstMiddleLastRe.FindAllStringSubmatchIndex(line, -1) {
		found = append(found, nameMatch{idx[0], line[idx[2]:idx[3]] + " " + line[idx[4]:idx[5]] + " " + line[idx[6]:idx[7]]})
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].start < found[j].start })

	var out []string
	seen := map[string]struct{}{}
	for _, m := range found {
		if !isNameShaped(m.name) {
			continue
		}
		if _, ok := seen[m.name]; ok {
			continue
		}
		seen[m.name] = struct{}{}
		out = append(out, m.name)
	}
	return out
}

func isNameShaped(name string) bool {
	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 3 {
		return false
	}
	for _, w := range words {
		if len(w) < 2 || !isAlphaWord(w, 2) || !unicode.IsUpper(rune(w[0])) {
			return false
		}
	}
	_, falsePositive := nameFalsePositives[name]
	return !falsePositive
}

func fallbackRecord(name string, birthday *string, status internal.Status, conf internal.Confidence, line string, lineNo, page int) internal.CandidateRecord {
	return internal.CandidateRecord{
		FullName:   name,
		ShortName:  ShortName(name),
		Birthday:   birthday,
		Status:     status,
		Confidence: conf,
		RawLine:    line,
		SourceLine: lineNo,
		SourcePage: page,
		Source:     internal.SourceFallback,
	}
}

func keywordStatus(word string) internal.Status {
	if s, ok := statusKeywords[strings.ToLower(word)]; ok {
		return s
	}
	return internal.StatusUnknown
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isAlphaWord(w string, minLen int) bool {
	if len(w) < minLen {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func capitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
