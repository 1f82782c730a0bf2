package pipeline

import (
	"strings"
	"time"

	"rostersync/internal"
)

// TokenSource supplies the document, page by page, as positioned tokens
// plus each page's plain text. Read-only, one shot.
type TokenSource interface {
	Pages() ([]internal.PageTokens, error)
}

// Result carries the final records together with the run diagnostics.
type Result struct {
	Records []internal.FinalRecord
	Stats   internal.RunStats
}

// Extract runs the full pipeline against a document. Pages are processed
// strictly in order because the date context carries across page
// boundaries; scanning halts entirely at the first page containing the
// stop marker. The fallback text parser runs only when the positional pass
// produced zero candidates document-wide. The reference time governs every
// current-year and age computation.
//
// Per-line problems are absorbed into the stats; the only error returned
// is a whole-document failure from the source.
func Extract(src TokenSource, now time.Time) (Result, error) {
	pages, err := src.Pages()
	if err != nil {
		return Result{}, err
	}

	var stats internal.RunStats
	scanner := NewSectionScanner()

	var candidates []internal.CandidateRecord
	var inScope []internal.PageTokens

	lineNo := 0
	for _, page := range pages {
		if !scanner.ObservePage(page.Text) {
			break
		}
		inScope = append(inScope, page)
		stats.PagesScanned++

		for _, line := range ReconstructLines(page.Tokens) {
			lineNo++
			stats.LinesSeen++
			consumed, header := scanner.Consume(line.Text())
			if consumed {
				if header {
					stats.HeadersFound++
				}
				continue
			}

			rec, ok := SplitColumns(line, scanner.CurrentDate(), lineNo)
			if !ok {
				stats.LinesSkipped++
				continue
			}
			candidates = append(candidates, rec)
			stats.RecordsExtracted++
		}
	}

	if emptyDocument(inScope) {
		stats.ExtractionEmpty = true
		return Result{Records: []internal.FinalRecord{}, Stats: stats}, nil
	}

	if len(candidates) == 0 {
		stats.FallbackUsed = true
		// The fallback re-reads the same document as plain text, so the
		// line-level counters restart to describe the pass that actually
		// produced the records.
		stats.LinesSeen, stats.HeadersFound, stats.LinesSkipped = 0, 0, 0
		candidates = ParseFallbackLines(rawLines(inScope), now, &stats)
		stats.RecordsExtracted = len(candidates)
	}

	records := NormalizeRecords(candidates, now, &stats)
	records = DedupeRecords(records)
	SortRecords(records)

	return Result{Records: records, Stats: stats}, nil
}

func emptyDocument(pages []internal.PageTokens) bool {
	for _, p := range pages {
		if len(p.Tokens) > 0 || strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

func rawLines(pages []internal.PageTokens) []RawLine {
	var out []RawLine
	lineNo := 0
	for _, page := range pages {
		for _, text := range strings.Split(strings.ReplaceAll(page.Text, "\r\n", "\n"), "\n") {
			lineNo++
			out = append(out, RawLine{Text: text, Number: lineNo, Page: page.Number})
		}
	}
	return out
}
