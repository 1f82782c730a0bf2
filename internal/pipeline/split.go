package pipeline

import (
	"strings"

	"rostersync/internal"
)

var splitStatuses = map[string]internal.Status{
	"Active":  internal.StatusActive,
	"Dropout": internal.StatusDropout,
	"NA":      internal.StatusNA,
}

// SplitColumns separates a content line into name and status using the
// largest horizontal gap between consecutive token left edges (ties go to
// the first maximal gap). A record is emitted only when the right side is
// exactly a known status and a date context is in effect. The heuristic
// can misplace the boundary inside 3+ token names when the widest visual
// gap falls mid-name; that behavior is kept as observed in real rosters.
func SplitColumns(line Line, currentDate string, lineNo int) (internal.CandidateRecord, bool) {
	toks := line.Tokens
	if len(toks) < 2 {
		return internal.CandidateRecord{}, false
	}

	splitIdx := 1
	widest := toks[1].X0 - toks[0].X0
	for i := 2; i < len(toks); i++ {
		gap := toks[i].X0 - toks[i-1].X0
		if gap > widest {
			widest = gap
			splitIdx = i
		}
	}

	nameParts := make([]string, 0, splitIdx)
	for _, t := range toks[:splitIdx] {
		nameParts = append(nameParts, t.Text)
	}
	statusParts := make([]string, 0, len(toks)-splitIdx)
	for _, t := range toks[splitIdx:] {
		statusParts = append(statusParts, t.Text)
	}

	statusText := strings.TrimSpace(strings.Join(statusParts, " "))
	status, known := splitStatuses[statusText]
	if !known || currentDate == "" {
		return internal.CandidateRecord{}, false
	}

	fullName := strings.TrimSpace(strings.Join(nameParts, " "))
	return internal.CandidateRecord{
		FullName:   fullName,
		ShortName:  ShortName(fullName),
		Birthday:   internal.StringPtr(currentDate),
		Status:     status,
		Confidence: internal.ConfidenceHigh,
		RawLine:    line.Text(),
		SourceLine: lineNo,
		SourcePage: toks[0].Page,
		Source:     internal.SourcePositional,
	}, true
}

// ShortName is the first name token plus the initial of the last token;
// single-token names are returned whole.
func ShortName(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) < 2 {
		return fullName
	}
	last := parts[len(parts)-1]
	return parts[0] + " " + string([]rune(last)[:1])
}
