package pipeline

import (
	"reflect"
	"testing"
	"time"
)

var refTime = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestParseFreeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"3/14/1990", "1990-03-14", true}, // ambiguous numerics read month-first
		{"3/14/90", "1990-03-14", true},
		{"1/2/25", "2025-01-02", true}, // two-digit years pivot at 50
		{"1/2/49", "", false},          // 2049 is past the future window
		{"March 14, 1990", "1990-03-14", true},
		{"2025-03-05", "2025-03-05", true},
		{"14/25/1990", "", false},
		{"5/5/1899", "", false},
		{"", "", false},
		{"not a date", "", false},
	}
	for _, tc := range cases {
		got, ok := parseFreeDate(tc.in, refTime)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseFreeDate(%q)=(%q,%v) want (%q,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFindDatesInText(t *testing.T) {
	line := "born 14 March 1990, seen 2025-03-05, again 14 March 1990"
	got := findDatesInText(line, refTime)
	want := []string{"1990-03-14", "2025-03-05"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dates=%v want %v", got, want)
	}
}

func TestFindDatesInTextPositionOrder(t *testing.T) {
	got := findDatesInText("2025-03-05 before 3/14/1990", refTime)
	want := []string{"2025-03-05", "1990-03-14"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dates=%v want %v", got, want)
	}
}

func TestFindDatesInTextNone(t *testing.T) {
	if got := findDatesInText("no dates here", refTime); len(got) != 0 {
		t.Fatalf("dates=%v", got)
	}
}
