package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"rostersync/internal"
)

type fakeSource struct {
	pages []internal.PageTokens
	err   error
}

func (f fakeSource) Pages() ([]internal.PageTokens, error) { return f.pages, f.err }

func rosterPage(number int, lines ...[]internal.Token) internal.PageTokens {
	page := internal.PageTokens{Number: number, Text: "roster"}
	y := 10.0
	for _, line := range lines {
		for i := range line {
			line[i].Y0 = y
			line[i].Y1 = y + 10
			line[i].Page = number
		}
		page.Tokens = append(page.Tokens, line...)
		y += 20
	}
	return page
}

func words(texts []string, xs []float64) []internal.Token {
	out := make([]internal.Token, len(texts))
	for i, text := range texts {
		out[i] = internal.Token{Text: text, X0: xs[i], X1: xs[i] + 10}
	}
	return out
}

func TestExtractPositional(t *testing.T) {
	src := fakeSource{pages: []internal.PageTokens{
		rosterPage(1,
			words([]string{"Birthday", "List"}, []float64{10, 60}),
			words([]string{"Friday", "-", "14/3/2025"}, []float64{10, 50, 60}),
			words([]string{"Client", "Name", "Status"}, []float64{10, 45, 300}),
			words([]string{"Robyn", "K", "Active"}, []float64{10, 45, 300}),
			words([]string{"Brian", "Adams", "Dropout"}, []float64{10, 45, 300}),
		),
		// No header here: the date context carries across the page break.
		rosterPage(2,
			words([]string{"Carol", "Jones", "NA"}, []float64{10, 45, 300}),
		),
	}}

	result, err := Extract(src, refTime)
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	names := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		names = append(names, rec.FullName)
		if rec.Birthday == nil || *rec.Birthday != "2025-03-14" {
			t.Fatalf("%s: birthday=%v", rec.FullName, rec.Birthday)
		}
		if rec.Age == nil || *rec.Age != 0 {
			t.Fatalf("%s: age=%v", rec.FullName, rec.Age)
		}
	}
	want := []string{"Robyn K", "Brian Adams", "Carol Jones"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("names=%v want %v", names, want)
	}

	stats := result.Stats
	if stats.PagesScanned != 2 || stats.HeadersFound != 1 || stats.RecordsExtracted != 3 {
		t.Fatalf("stats=%+v", stats)
	}
	if stats.FallbackUsed || stats.ExtractionEmpty {
		t.Fatalf("stats=%+v", stats)
	}
	// "Client Name Status" and "Birthday List" are consumed as titles.
	if stats.LinesSkipped != 0 {
		t.Fatalf("skipped=%d", stats.LinesSkipped)
	}
}

func TestExtractStopMarkerExcludesLaterPages(t *testing.T) {
	stopPage := rosterPage(2,
		words([]string{"Saturday", "-", "15/3/2025"}, []float64{10, 50, 60}),
		words([]string{"Zed", "Late", "Active"}, []float64{10, 45, 300}),
	)
	stopPage.Text = "Anniversary List"

	src := fakeSource{pages: []internal.PageTokens{
		rosterPage(1,
			words([]string{"Friday", "-", "14/3/2025"}, []float64{10, 50, 60}),
			words([]string{"Robyn", "K", "Active"}, []float64{10, 45, 300}),
		),
		stopPage,
		rosterPage(3,
			words([]string{"Also", "Gone", "Active"}, []float64{10, 45, 300}),
		),
	}}

	result, err := Extract(src, refTime)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(result.Records) != 1 || result.Records[0].FullName != "Robyn K" {
		t.Fatalf("records=%+v", result.Records)
	}
	if result.Stats.PagesScanned != 1 {
		t.Fatalf("pagesScanned=%d", result.Stats.PagesScanned)
	}
}

func TestExtractFallbackWhenNoPositionalCandidates(t *testing.T) {
	src := fakeSource{pages: []internal.PageTokens{
		{Number: 1, Text: "Birthday List\njohn smith Active\nMary Ann Smith 2025-03-05 Dropout\nPage 1 of 1"},
	}}

	result, err := Extract(src, refTime)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !result.Stats.FallbackUsed {
		t.Fatalf("fallback not used: %+v", result.Stats)
	}

	if len(result.Records) != 2 {
		t.Fatalf("records=%+v", result.Records)
	}
	if result.Records[0].FullName != "John Smith" || result.Records[0].Status != internal.StatusActive {
		t.Fatalf("rec0=%+v", result.Records[0])
	}
	if result.Records[1].FullName != "Mary Ann Smith" || result.Records[1].Status != internal.StatusDropout {
		t.Fatalf("rec1=%+v", result.Records[1])
	}
	if result.Records[1].Birthday == nil || *result.Records[1].Birthday != "2025-03-05" {
		t.Fatalf("birthday=%v", result.Records[1].Birthday)
	}
}

// When the fallback runs, the line counters describe the fallback's plain
// text view only, not the positional pass stacked on top of it.
func TestExtractFallbackLineCountsSinglePass(t *testing.T) {
	page := rosterPage(1, words([]string{"john", "smith", "Active"}, []float64{10, 45, 300}))
	page.Text = "john smith Active\nPage 1 of 1"
	src := fakeSource{pages: []internal.PageTokens{page}}

	result, err := Extract(src, refTime)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !result.Stats.FallbackUsed {
		t.Fatalf("stats=%+v", result.Stats)
	}
	if result.Stats.LinesSeen != 2 {
		t.Fatalf("linesSeen=%d want 2", result.Stats.LinesSeen)
	}
	if result.Stats.LinesSkipped != 1 {
		t.Fatalf("linesSkipped=%d", result.Stats.LinesSkipped)
	}
	if len(result.Records) != 1 || result.Records[0].FullName != "John Smith" {
		t.Fatalf("records=%+v", result.Records)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	src := fakeSource{pages: []internal.PageTokens{{Number: 1}, {Number: 2, Text: "  \n "}}}
	result, err := Extract(src, refTime)
	if err != nil {
		t.Fatalf("empty document must not fail: %v", err)
	}
	if !result.Stats.ExtractionEmpty {
		t.Fatalf("stats=%+v", result.Stats)
	}
	if result.Records == nil || len(result.Records) != 0 {
		t.Fatalf("records=%v", result.Records)
	}
}

func TestExtractStopOnFirstPage(t *testing.T) {
	src := fakeSource{pages: []internal.PageTokens{{Number: 1, Text: "Anniversary List"}}}
	result, err := Extract(src, refTime)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !result.Stats.ExtractionEmpty || len(result.Records) != 0 {
		t.Fatalf("result=%+v", result)
	}
}

func TestExtractSourceErrorIsFatal(t *testing.T) {
	wantErr := errors.New("corrupt document")
	if _, err := Extract(fakeSource{err: wantErr}, refTime); !errors.Is(err, wantErr) {
		t.Fatalf("err=%v", err)
	}
}

func TestExtractDeterministic(t *testing.T) {
	src := fakeSource{pages: []internal.PageTokens{
		rosterPage(1,
			words([]string{"Friday", "-", "14/3/2025"}, []float64{10, 50, 60}),
			words([]string{"Robyn", "K", "Active"}, []float64{10, 45, 300}),
			words([]string{"Brian", "Adams", "Dropout"}, []float64{10, 45, 300}),
		),
	}}

	first, err := Extract(src, refTime)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	second, err := Extract(src, refTime)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("extraction is not deterministic")
	}
}
