// Package parser turns the raw bytes of one device log into typed samples and
// a discard ledger. Parsers never fail on bad rows: every rejected row lands
// in the ledger exactly once and parsing carries on.
package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sebasr/avt-ingest/internal/models"
	"github.com/sebasr/avt-ingest/internal/timeparse"
)

// Header holds the metadata found on a log's first line
type Header struct {
	Raw          string    `json:"raw"`
	BaseTime     time.Time `json:"baseTime"`
	BaseTimeOK   bool      `json:"baseTimeOk"` // false when BaseTime is the "now" fallback
	VehicleID    string    `json:"vehicleId,omitempty"`
	SessionLabel string    `json:"sessionLabel,omitempty"`
}

// Parsed is the output of parsing one file. Only the slice matching Stream is populated.
type Parsed struct {
	Stream      models.StreamType
	Header      Header
	GPS         []models.GPSample
	Inertial    []models.InertialSample
	Engine      []models.EngineSample
	Beacon      []models.BeaconSample
	Discards    []models.DiscardRecord
	Corrections map[Correction]int
	Anomalies   int
	Warnings    []string
}

// Len returns the number of accepted samples
func (p *Parsed) Len() int {
	switch p.Stream {
	case models.StreamGPS:
		return len(p.GPS)
	case models.StreamInertial:
		return len(p.Inertial)
	case models.StreamEngine:
		return len(p.Engine)
	case models.StreamBeacon:
		return len(p.Beacon)
	}
	return 0
}

// Timestamps returns the instants of all accepted samples in file order
func (p *Parsed) Timestamps() []time.Time {
	out := make([]time.Time, 0, p.Len())
	switch p.Stream {
	case models.StreamGPS:
		for _, s := range p.GPS {
			out = append(out, s.Timestamp)
		}
	case models.StreamInertial:
		for _, s := range p.Inertial {
			out = append(out, s.Timestamp)
		}
	case models.StreamEngine:
		for _, s := range p.Engine {
			out = append(out, s.Timestamp)
		}
	case models.StreamBeacon:
		for _, s := range p.Beacon {
			out = append(out, s.Timestamp)
		}
	}
	return out
}

// Span returns the earliest and latest sample instants. ok is false when
// the file produced no samples.
func (p *Parsed) Span() (models.TimeRange, bool) {
	return SpanOf(p.Timestamps())
}

// DiscardCounts aggregates the ledger by reason code
func (p *Parsed) DiscardCounts() map[models.ReasonCode]int {
	counts := make(map[models.ReasonCode]int)
	for _, d := range p.Discards {
		counts[d.Reason]++
	}
	return counts
}

// SpanOf returns the min/max of a set of instants
func SpanOf(ts []time.Time) (models.TimeRange, bool) {
	if len(ts) == 0 {
		return models.TimeRange{}, false
	}
	r := models.TimeRange{Start: ts[0], End: ts[0]}
	for _, t := range ts[1:] {
		if t.Before(r.Start) {
			r.Start = t
		}
		if t.After(r.End) {
			r.End = t
		}
	}
	return r, true
}

// Parser dispatches raw file contents to the per-stream parsers
type Parser struct {
	norm   *timeparse.Normalizer
	logger *slog.Logger
}

// New creates a Parser
func New(norm *timeparse.Normalizer, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{norm: norm, logger: logger}
}

// Parse parses data as the given stream
func (p *Parser) Parse(stream models.StreamType, data []byte) (*Parsed, error) {
	switch stream {
	case models.StreamGPS:
		return p.ParseGPS(data), nil
	case models.StreamInertial:
		return p.ParseInertial(data), nil
	case models.StreamEngine:
		return p.ParseEngine(data), nil
	case models.StreamBeacon:
		return p.ParseBeacon(data), nil
	}
	return nil, fmt.Errorf("no parser for stream %q", stream)
}

func newParsed(stream models.StreamType) *Parsed {
	return &Parsed{
		Stream:      stream,
		Corrections: make(map[Correction]int),
	}
}

func (p *Parser) finish(out *Parsed, ledger *models.DiscardLedger) *Parsed {
	out.Discards = ledger.Records()
	if n := ledger.Len(); n > 0 {
		p.logger.Debug("rows discarded", "stream", out.Stream, "count", n)
	}
	return out
}

// parseHeader reads "<TAG>;<date>;<vehicle>;<session>" style metadata. Fields
// are located by content rather than position because firmware revisions
// reorder them.
func (p *Parser) parseHeader(line string, stream models.StreamType, out *Parsed) {
	h := Header{Raw: line}
	var rest []string
	dateFound := false

	for _, f := range strings.Split(line, ";") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !dateFound {
			if _, err := p.norm.Normalize(f, stream); err == nil {
				h.BaseTime, h.BaseTimeOK = p.norm.BaseDate(f, stream)
				dateFound = true
				continue
			}
		}
		if label, ok := sessionLabel(f); ok {
			h.SessionLabel = label
			continue
		}
		if !isStreamTag(f) {
			rest = append(rest, f)
		}
	}

	if len(rest) > 0 {
		h.VehicleID = rest[0]
	}

	if !dateFound {
		h.BaseTime = p.norm.Now()
	}
	if !h.BaseTimeOK {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s header has no plausible base date, using current time", stream))
		p.logger.Warn("header base date unusable", "stream", stream, "header", line)
	}
	out.Header = h
}

func sessionLabel(f string) (string, bool) {
	lower := strings.ToLower(f)
	for _, prefix := range []string{"sesión:", "sesion:", "session:"} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(f[len(prefix):]), true
		}
	}
	return "", false
}

func isStreamTag(f string) bool {
	switch strings.ToUpper(f) {
	case "GPS", "ESTABILIDAD", "INERTIAL", "CAN", "ENGINE", "ROTATIVO", "BEACON":
		return true
	}
	return false
}

// splitLines splits file contents on newlines, dropping a UTF-8 BOM and
// carriage returns
func splitLines(data []byte) []string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	lines := strings.Split(string(data), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	// A trailing newline is not an extra line
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// splitFields splits a row on sep and trims every field
func splitFields(line string, sep string) []string {
	fields := strings.Split(line, sep)
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// detectDelimiter prefers a comma and falls back to a semicolon
func detectDelimiter(line string) string {
	if strings.Contains(line, ",") {
		return ","
	}
	return ";"
}

// sortedCorrections returns correction kinds in a stable order for logging
func sortedCorrections(m map[Correction]int) []Correction {
	keys := make([]Correction, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
