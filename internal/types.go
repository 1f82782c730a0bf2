package internal

// Status is the client status tag carried on a roster row.
type Status string

const (
	StatusActive  Status = "Active"
	StatusDropout Status = "Dropout"
	StatusNA      Status = "NA"
	StatusUnknown Status = "Unknown"
)

// Confidence arbitrates which of two candidates wins during a merge.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// RecordSource tells which pass produced a candidate.
type RecordSource string

const (
	SourcePositional RecordSource = "positional"
	SourceFallback   RecordSource = "fallback"
)

// Token is one positioned word on a page. Coordinates are top-origin
// layout units: Y0 is the top edge, X0 the left edge.
type Token struct {
	Text string
	X0   float64
	Y0   float64
	X1   float64
	Y1   float64
	Page int
}

// PageTokens is everything the token source yields for one page.
type PageTokens struct {
	Number int
	Tokens []Token
	Text   string
}

// CandidateRecord is a provisional extracted row, mutable until merged.
type CandidateRecord struct {
	FullName   string
	ShortName  string
	Birthday   *string // ISO YYYY-MM-DD
	Status     Status
	Confidence Confidence
	RawLine    string
	SourceLine int
	SourcePage int
	Source     RecordSource
}

// FinalRecord is a validated, deduplicated, export-ready row.
type FinalRecord struct {
	FullName      string
	ShortName     string
	Birthday      *string // ISO YYYY-MM-DD
	Status        Status
	Confidence    Confidence
	RawLine       string
	SourceLine    int
	Age           *int
	NameValid     bool
	BirthdayValid bool
}

// RunStats is the diagnostics accumulator returned alongside the records.
// Per-line failures are absorbed into these counters, never propagated.
type RunStats struct {
	PagesScanned     int
	LinesSeen        int
	HeadersFound     int
	RecordsExtracted int
	LinesSkipped     int
	RecordsRejected  int
	FallbackUsed     bool
	ExtractionEmpty  bool
}

// DocumentRow is a stored source document.
type DocumentRow struct {
	ID        int
	Path      string
	Hash      string
	Pages     int
	Status    string
	CreatedAt string
}

func StringPtr(v string) *string { return &v }

func IntPtr(v int) *int { return &v }
