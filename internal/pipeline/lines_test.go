package pipeline

import (
	"math/rand"
	"reflect"
	"testing"

	"rostersync/internal"
)

func tok(text string, x, y float64) internal.Token {
	return internal.Token{Text: text, X0: x, Y0: y, X1: x + 10, Y1: y + 10, Page: 1}
}

func TestReconstructLines(t *testing.T) {
	tokens := []internal.Token{
		tok("Smith", 60, 30.5),
		tok("Active", 300, 29.8),
		tok("Birthday", 10, 10),
		tok("John", 10, 30),
		tok("List", 55, 11.2),
	}
	lines := ReconstructLines(tokens)
	if len(lines) != 2 {
		t.Fatalf("lines=%d", len(lines))
	}
	if lines[0].Text() != "Birthday List" {
		t.Fatalf("line0=%q", lines[0].Text())
	}
	if lines[1].Text() != "John Smith Active" {
		t.Fatalf("line1=%q", lines[1].Text())
	}
}

func TestReconstructLinesTolerance(t *testing.T) {
	tokens := []internal.Token{
		tok("a", 10, 10),
		tok("b", 20, 12),   // within 2.0 of the anchor
		tok("c", 30, 12.5), // outside, new line
	}
	lines := ReconstructLines(tokens)
	if len(lines) != 2 {
		t.Fatalf("lines=%d", len(lines))
	}
	if lines[0].Text() != "a b" || lines[1].Text() != "c" {
		t.Fatalf("split=%q / %q", lines[0].Text(), lines[1].Text())
	}
}

func TestReconstructLinesOrderIndependent(t *testing.T) {
	tokens := []internal.Token{
		tok("John", 10, 30), tok("Smith", 60, 30), tok("Active", 300, 30),
		tok("Jane", 10, 50), tok("Doe", 60, 50), tok("Dropout", 300, 50),
		tok("Birthday", 10, 10), tok("List", 55, 10),
	}
	want := ReconstructLines(tokens)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]internal.Token, len(tokens))
		copy(shuffled, tokens)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := ReconstructLines(shuffled)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("trial %d: reconstruction depends on input order", trial)
		}
	}
}

func TestReconstructLinesEmpty(t *testing.T) {
	if lines := ReconstructLines(nil); lines != nil {
		t.Fatalf("expected nil, got %v", lines)
	}
}
