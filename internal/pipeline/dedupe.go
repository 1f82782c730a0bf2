package pipeline

import (
	"rostersync/internal"
)

// DedupeRecords collapses records sharing a normalized name key. Members
// merge pairwise in encounter order: a present, valid birthday beats an
// absent one; high confidence beats lower tiers and carries its source
// line; the longer name string wins as more complete. Ties keep the
// first-seen value.
func DedupeRecords(records []internal.FinalRecord) []internal.FinalRecord {
	out := make([]internal.FinalRecord, 0, len(records))
	indexByKey := map[string]int{}

	for _, rec := range records {
		key := NormalizeNameKey(rec.FullName)
		idx, seen := indexByKey[key]
		if !seen {
			indexByKey[key] = len(out)
			out = append(out, rec)
			continue
		}
		out[idx] = mergeRecords(out[idx], rec)
	}
	return out
}

func mergeRecords(base, next internal.FinalRecord) internal.FinalRecord {
	merged := base

	if !base.BirthdayValid && next.BirthdayValid {
		merged.Birthday = next.Birthday
		merged.BirthdayValid = true
		merged.Age = next.Age
	}

	if next.Confidence == internal.ConfidenceHigh && base.Confidence != internal.ConfidenceHigh {
		merged.Confidence = next.Confidence
		merged.RawLine = next.RawLine
		merged.SourceLine = next.SourceLine
	}

	if len(next.FullName) > len(base.FullName) {
		merged.FullName = next.FullName
		merged.ShortName = ShortName(next.FullName)
	}

	return merged
}
