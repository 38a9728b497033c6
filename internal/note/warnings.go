package note

import "sort"

// WarningKind identifies a reportable condition found during a build.
type WarningKind string

const (
	// KindLoadError marks a source that could not be read or parsed.
	// The batch skips it and continues.
	KindLoadError WarningKind = "load_error"
	// KindMalformedCodeBlock marks a fence that was never closed. The
	// parser treats end-of-document as an implicit close.
	KindMalformedCodeBlock WarningKind = "malformed_code_block"
	// KindDanglingReference marks a relation to an identifier that is not
	// in the loaded set.
	KindDanglingReference WarningKind = "dangling_reference"
	// KindSelfReference marks a document relating to itself. The relation
	// is skipped.
	KindSelfReference WarningKind = "self_reference"
	// KindCodeSyntax marks a fenced snippet in a known language that does
	// not parse.
	KindCodeSyntax WarningKind = "code_syntax"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Warning is an aggregated, non-fatal finding. Library code returns warnings
// to the caller instead of printing them.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	Severity   Severity    `json:"severity"`
	DocumentID string      `json:"document_id,omitempty"`
	Target     string      `json:"target,omitempty"`
	Line       int         `json:"line,omitempty"`
	Message    string      `json:"message"`
}

// SeverityFor maps each warning kind to its batch-level severity.
func SeverityFor(kind WarningKind) Severity {
	switch kind {
	case KindLoadError, KindSelfReference:
		return SeverityError
	case KindMalformedCodeBlock:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// NewWarning builds a warning with the severity implied by its kind.
func NewWarning(kind WarningKind, docID, target string, line int, msg string) Warning {
	return Warning{
		Kind:       kind,
		Severity:   SeverityFor(kind),
		DocumentID: docID,
		Target:     target,
		Line:       line,
		Message:    msg,
	}
}

// SortWarnings orders warnings deterministically: document, line, kind, target.
func SortWarnings(ws []Warning) {
	sort.Slice(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Target < b.Target
	})
}

// CountBySeverity tallies warnings per severity level.
func CountBySeverity(ws []Warning) map[Severity]int {
	counts := make(map[Severity]int)
	for _, w := range ws {
		counts[w.Severity]++
	}
	return counts
}

// HasErrors reports whether any warning carries error severity.
func HasErrors(ws []Warning) bool {
	for _, w := range ws {
		if w.Severity == SeverityError {
			return true
		}
	}
	return false
}
