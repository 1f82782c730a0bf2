package pipeline

import (
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"rostersync/internal"
)

var honorifics = map[string]struct{}{
	"Mr.": {}, "Mrs.": {}, "Ms.": {}, "Dr.": {}, "Prof.": {},
	"Jr.": {}, "Sr.": {}, "III": {}, "IV": {},
}

// Whole-name matches that are document furniture, never people.
var falsePositiveNames = map[string]struct{}{
	"Date Born": {}, "Birth Date": {}, "Client Name": {}, "Full Name": {},
	"First Last": {}, "Name Date": {}, "Page Number": {}, "Date Time": {},
	"Client List": {}, "Birthday List": {}, "Contact Info": {}, "Phone Number": {},
	"Email Address": {}, "Home Address": {}, "Work Phone": {}, "Cell Phone": {},
	"Emergency Contact": {}, "Next Appointment": {}, "Last Visit": {},
}

// Words that mark a line as contact/layout metadata rather than a name.
var telemetryWords = []string{"phone", "email", "address", "date", "page"}

var titleCaser = cases.Title(language.English)

// NormalizeRecords cleans and validates candidates against the reference
// time. Records failing name validity are discarded and counted; invalid
// birthdays are nulled, not fatal to the record.
func NormalizeRecords(candidates []internal.CandidateRecord, now time.Time, stats *internal.RunStats) []internal.FinalRecord {
	out := make([]internal.FinalRecord, 0, len(candidates))
	for _, c := range candidates {
		name := CleanName(c.FullName)
		if !validName(name, c.Source == internal.SourceFallback) {
			stats.RecordsRejected++
			continue
		}

		birthday := cleanBirthday(c.Birthday, now)
		status := c.Status
		if status == "" {
			status = internal.StatusUnknown
		}

		out = append(out, internal.FinalRecord{
			FullName:      name,
			ShortName:     ShortName(name),
			Birthday:      birthday,
			Status:        status,
			Confidence:    c.Confidence,
			RawLine:       c.RawLine,
			SourceLine:    c.SourceLine,
			Age:           ageAt(birthday, now),
			NameValid:     true,
			BirthdayValid: birthday != nil,
		})
	}
	return out
}

// CleanName collapses whitespace, strips honorific prefixes and suffixes,
// and title-cases alphabetic tokens.
func CleanName(name string) string {
	words := strings.Fields(name)
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		trimmed := strings.Trim(w, ".,;:-")
		if trimmed == "" {
			continue
		}
		if _, honorific := honorifics[trimmed]; honorific {
			continue
		}
		if _, honorific := honorifics[trimmed+"."]; honorific {
			continue
		}
		if isAlphaWord(trimmed, 1) {
			cleaned = append(cleaned, titleCaser.String(strings.ToLower(trimmed)))
		} else {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, " ")
}

// validName applies the name validity rules. The per-token minimum length
// of two applies only to fallback-sourced records: the positional pass
// legitimately yields single-letter tokens ("Robyn K") and the source data
// treats those as already structurally verified.
func validName(name string, strict bool) bool {
	if len(strings.TrimSpace(name)) < 2 {
		return false
	}
	if _, falsePositive := falsePositiveNames[name]; falsePositive {
		return false
	}

	words := strings.Fields(name)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if strict && len(w) < 2 {
			return false
		}
		if !containsLetter(w) {
			return false
		}
	}

	lower := strings.ToLower(name)
	for _, indicator := range telemetryWords {
		if strings.Contains(lower, indicator) {
			return false
		}
	}
	return true
}

// cleanBirthday validates or re-parses a birthday string into strict ISO
// form. Years outside [1900, reference_year] and dates more than five
// years past the reference are rejected; rejection nulls the date.
func cleanBirthday(birthday *string, now time.Time) *string {
	if birthday == nil || strings.TrimSpace(*birthday) == "" {
		return nil
	}

	var parsed time.Time
	value := strings.TrimSpace(*birthday)
	if isoStrictRe.MatchString(value) {
		t, err := time.Parse("2006-01-02", value)
		if err != nil {
			return nil
		}
		parsed = t
	} else {
		t, err := dateparse.ParseAny(value)
		if err != nil {
			return nil
		}
		parsed = t
	}

	if parsed.Year() < minBirthYear || parsed.Year() > now.Year() {
		return nil
	}
	if parsed.After(now.AddDate(futureYears, 0, 0)) {
		return nil
	}
	return internal.StringPtr(isoDate(parsed.Year(), int(parsed.Month()), parsed.Day()))
}

// ageAt returns whole years between the birthday and the reference time,
// accounting for whether the birthday has occurred yet this year.
func ageAt(birthday *string, now time.Time) *int {
	if birthday == nil {
		return nil
	}
	born, err := time.Parse("2006-01-02", *birthday)
	if err != nil {
		return nil
	}
	age := now.Year() - born.Year()
	if int(now.Month())*100+now.Day() < int(born.Month())*100+born.Day() {
		age--
	}
	return internal.IntPtr(age)
}

// NormalizeNameKey builds the dedup key: case-folded, punctuation
// stripped, whitespace collapsed.
func NormalizeNameKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
