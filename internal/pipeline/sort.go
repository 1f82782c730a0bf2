package pipeline

import (
	"sort"
	"strings"

	"rostersync/internal"
)

// StatusPriority orders statuses for the final table: Active first,
// Dropout second, NA third, anything else last.
func StatusPriority(status internal.Status) int {
	switch status {
	case internal.StatusActive:
		return 1
	case internal.StatusDropout:
		return 2
	case internal.StatusNA:
		return 3
	default:
		return 4
	}
}

// SortRecords orders records by (status priority, lowercased name)
// ascending. The sort is stable: equal keys keep input order.
func SortRecords(records []internal.FinalRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		pi, pj := StatusPriority(records[i].Status), StatusPriority(records[j].Status)
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(records[i].FullName) < strings.ToLower(records[j].FullName)
	})
}
