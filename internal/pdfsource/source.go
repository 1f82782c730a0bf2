// Package pdfsource adapts a PDF file into the pipeline's token stream:
// per page, positioned word tokens in top-origin coordinates plus the
// page's plain text for stop-marker checks and the fallback pass.
package pdfsource

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"rostersync/internal"
)

// letterHeight stands in when a page carries no usable MediaBox.
const letterHeight = 792.0

// Content chunks on the same baseline closer than this are glued into one
// word token.
const wordGap = 1.0

const baselineTolerance = 2.0

type Source struct {
	reader *pdf.Reader
}

// Open reads a PDF from disk. An unreadable document is the one fatal
// error in this system.
func Open(path string) (*Source, error) {
	_, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &Source{reader: reader}, nil
}

// FromBytes reads a PDF from memory.
func FromBytes(blob []byte) (*Source, error) {
	reader, err := pdf.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return &Source{reader: reader}, nil
}

// Pages yields every page's tokens and plain text in page order. Pages
// whose content cannot be decoded come back empty rather than failing the
// document.
func (s *Source) Pages() ([]internal.PageTokens, error) {
	out := make([]internal.PageTokens, 0, s.reader.NumPage())
	for i := 1; i <= s.reader.NumPage(); i++ {
		page := s.reader.Page(i)
		pt := internal.PageTokens{Number: i}
		if page.V.IsNull() {
			out = append(out, pt)
			continue
		}

		if text, err := page.GetPlainText(nil); err == nil {
			pt.Text = text
		}
		pt.Tokens = pageTokens(page, i)
		out = append(out, pt)
	}
	return out, nil
}

func pageTokens(page pdf.Page, number int) []internal.Token {
	height := pageHeight(page)

	var raw []internal.Token
	for _, chunk := range page.Content().Text {
		text := strings.TrimSpace(chunk.S)
		if text == "" {
			continue
		}
		raw = append(raw, internal.Token{
			Text: text,
			X0:   chunk.X,
			Y0:   height - chunk.Y - chunk.FontSize,
			X1:   chunk.X + chunk.W,
			Y1:   height - chunk.Y,
			Page: number,
		})
	}
	return mergeWords(raw)
}

// mergeWords glues per-glyph-run chunks into word tokens: consecutive
// chunks on the same baseline whose horizontal gap is under wordGap become
// one token.
func mergeWords(tokens []internal.Token) []internal.Token {
	if len(tokens) == 0 {
		return nil
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Y0 != tokens[j].Y0 {
			return tokens[i].Y0 < tokens[j].Y0
		}
		return tokens[i].X0 < tokens[j].X0
	})

	out := make([]internal.Token, 0, len(tokens))
	current := tokens[0]
	for _, tok := range tokens[1:] {
		sameBaseline := tok.Y0-current.Y0 <= baselineTolerance && current.Y0-tok.Y0 <= baselineTolerance
		if sameBaseline && tok.X0-current.X1 <= wordGap && tok.X0 >= current.X0 {
			current.Text += tok.Text
			if tok.X1 > current.X1 {
				current.X1 = tok.X1
			}
			if tok.Y1 > current.Y1 {
				current.Y1 = tok.Y1
			}
			continue
		}
		out = append(out, current)
		current = tok
	}
	return append(out, current)
}

func pageHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.IsNull() || box.Len() < 4 {
		return letterHeight
	}
	height := box.Index(3).Float64() - box.Index(1).Float64()
	if height <= 0 {
		return letterHeight
	}
	return height
}
