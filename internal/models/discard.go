package models

import "fmt"

// ReasonCode classifies why an input row was rejected
type ReasonCode string

const (
	ReasonColumnCount    ReasonCode = "column_count"
	ReasonTimestamp      ReasonCode = "timestamp"
	ReasonNumeric        ReasonCode = "numeric"
	ReasonLatitudeRange  ReasonCode = "latitude_range"
	ReasonLongitudeRange ReasonCode = "longitude_range"
	ReasonAltitudeRange  ReasonCode = "altitude_range"
	ReasonHDOP           ReasonCode = "hdop"
	ReasonSatellites     ReasonCode = "satellites"
	ReasonFixQuality     ReasonCode = "fix_quality"
	ReasonMissingField   ReasonCode = "missing_field"
	ReasonNoHeader       ReasonCode = "no_header"
	ReasonInvalidState   ReasonCode = "invalid_state"
)

// DiscardRecord is one entry in a parse call's discard ledger
type DiscardRecord struct {
	Stream StreamType `json:"stream"`
	Line   int        `json:"line"` // 1-based line number in the source file
	Reason ReasonCode `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// String implements fmt.Stringer
func (d DiscardRecord) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s line %d: %s", d.Stream, d.Line, d.Reason)
	}
	return fmt.Sprintf("%s line %d: %s (%s)", d.Stream, d.Line, d.Reason, d.Detail)
}

// DiscardLedger collects rejected rows for a single parse call. It only grows.
type DiscardLedger struct {
	stream  StreamType
	records []DiscardRecord
}

// NewDiscardLedger creates an empty ledger for the given stream
func NewDiscardLedger(stream StreamType) *DiscardLedger {
	return &DiscardLedger{stream: stream}
}

// Add appends a record for the given line
func (l *DiscardLedger) Add(line int, reason ReasonCode, detail string) {
	l.records = append(l.records, DiscardRecord{
		Stream: l.stream,
		Line:   line,
		Reason: reason,
		Detail: detail,
	})
}

// Addf appends a record with a formatted detail message
func (l *DiscardLedger) Addf(line int, reason ReasonCode, format string, args ...any) {
	l.Add(line, reason, fmt.Sprintf(format, args...))
}

// Records returns a copy of the ledger contents
func (l *DiscardLedger) Records() []DiscardRecord {
	out := make([]DiscardRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of discarded rows
func (l *DiscardLedger) Len() int {
	return len(l.records)
}
