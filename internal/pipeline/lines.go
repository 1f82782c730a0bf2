package pipeline

import (
	"sort"
	"strings"

	"rostersync/internal"
)

// yTolerance is the vertical band within which tokens are considered to be
// on the same line, in layout units.
const yTolerance = 2.0

// Line is an ordered left-to-right run of tokens sharing a vertical band.
type Line struct {
	Tokens []internal.Token
	Y      float64
}

// Text joins the line's token texts with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Tokens))
	for _, t := range l.Tokens {
		parts = append(parts, t.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// ReconstructLines clusters one page's tokens into lines ordered top to
// bottom. Tokens are sorted by (top, left) and greedily assigned to the
// first bucket whose anchor Y is within yTolerance; otherwise a new bucket
// opens at the token's Y. The anchor is fixed at first assignment, so a
// bucket can drift across a long line; that is a known limitation carried
// over from the source data this was tuned on.
func ReconstructLines(tokens []internal.Token) []Line {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]internal.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y0 != sorted[j].Y0 {
			return sorted[i].Y0 < sorted[j].Y0
		}
		return sorted[i].X0 < sorted[j].X0
	})

	buckets := make([]Line, 0)
	for _, tok := range sorted {
		assigned := false
		for i := range buckets {
			if abs(tok.Y0-buckets[i].Y) <= yTolerance {
				buckets[i].Tokens = append(buckets[i].Tokens, tok)
				assigned = true
				break
			}
		}
		if !assigned {
			buckets = append(buckets, Line{Y: tok.Y0, Tokens: []internal.Token{tok}})
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].Y < buckets[j].Y })
	for i := range buckets {
		toks := buckets[i].Tokens
		sort.SliceStable(toks, func(a, b int) bool { return toks[a].X0 < toks[b].X0 })
	}
	return buckets
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
