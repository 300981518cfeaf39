package parser

import (
	"strconv"
	"strings"

	"github.com/sebasr/avt-ingest/internal/models"
)

// engineHeaderScanLimit bounds how far into a decoder export the header may sit
const engineHeaderScanLimit = 20

var engineHeaderKeywords = []string{"timestamp", "fecha", "date", "time", "hora", "engine"}

type engineField struct {
	name     string
	synonyms []string
	required bool
}

// Fields are claimed in this order, so a column matched by an earlier field
// is not offered to later ones.
var engineFields = []engineField{
	{name: "timestamp", synonyms: []string{"timestamp", "datetime", "fecha", "date", "time", "hora"}, required: true},
	{name: "engine_rpm", synonyms: []string{"engine_rpm", "enginerpm", "engine rpm", "rpm", "revoluciones"}, required: true},
	{name: "vehicle_speed", synonyms: []string{"vehicle_speed", "vehiclespeed", "vehicle speed", "speed", "velocidad"}},
	{name: "fuel_system_status", synonyms: []string{"fuel_system_status", "fuelsystemstatus", "fuel system", "fuel", "combustible"}},
}

// ParseEngine parses a translated engine-bus export. The header row is
// searched for among the first lines because decoders prepend banners.
func (p *Parser) ParseEngine(data []byte) *Parsed {
	out := newParsed(models.StreamEngine)
	ledger := models.NewDiscardLedger(models.StreamEngine)
	lines := splitLines(data)

	headerIdx := -1
	for i := 0; i < len(lines) && i < engineHeaderScanLimit; i++ {
		if isEngineHeader(lines[i]) {
			headerIdx = i
			break
		}
	}

	if headerIdx < 0 {
		for i, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			ledger.Add(i+1, models.ReasonNoHeader, "no header within first lines")
		}
		p.logger.Warn("engine file has no header", "lines", len(lines))
		return p.finish(out, ledger)
	}

	delim := detectDelimiter(lines[headerIdx])
	columns := splitFields(lines[headerIdx], delim)
	index := locateEngineFields(columns)

	var missing []string
	for _, f := range engineFields {
		if f.required && index[f.name] < 0 {
			missing = append(missing, f.name)
		}
	}

	for i := headerIdx + 1; i < len(lines); i++ {
		lineNo := i + 1
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		fields := splitFields(line, delim)
		if len(fields) != len(columns) {
			ledger.Addf(lineNo, models.ReasonColumnCount, "column count mismatch: expected %d, found %d", len(columns), len(fields))
			continue
		}
		if len(missing) > 0 {
			ledger.Addf(lineNo, models.ReasonMissingField, "header lacks %s", strings.Join(missing, ", "))
			continue
		}

		rawTS := fields[index["timestamp"]]
		rawRPM := fields[index["engine_rpm"]]
		if rawTS == "" {
			ledger.Add(lineNo, models.ReasonMissingField, "empty timestamp")
			continue
		}
		if rawRPM == "" {
			ledger.Add(lineNo, models.ReasonMissingField, "empty engine_rpm")
			continue
		}

		ts, err := p.norm.Normalize(rawTS, models.StreamEngine)
		if err != nil {
			ledger.Add(lineNo, models.ReasonTimestamp, err.Error())
			continue
		}
		rpm, err := strconv.ParseFloat(rawRPM, 64)
		if err != nil {
			ledger.Addf(lineNo, models.ReasonNumeric, "invalid engine_rpm %q", rawRPM)
			continue
		}

		out.Engine = append(out.Engine, models.EngineSample{
			Timestamp:        ts.Time,
			EngineRPM:        rpm,
			VehicleSpeedKmh:  optionalFloat(fields, index["vehicle_speed"]),
			FuelSystemStatus: int(optionalFloat(fields, index["fuel_system_status"])),
		})
	}

	return p.finish(out, ledger)
}

func isEngineHeader(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range engineHeaderKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// locateEngineFields maps each logical field to a column index, -1 when absent
func locateEngineFields(columns []string) map[string]int {
	lower := make([]string, len(columns))
	for i, c := range columns {
		lower[i] = strings.ToLower(c)
	}

	claimed := make(map[int]bool)
	index := make(map[string]int, len(engineFields))
	for _, f := range engineFields {
		index[f.name] = -1
	synonyms:
		for _, syn := range f.synonyms {
			for i, col := range lower {
				if !claimed[i] && strings.Contains(col, syn) {
					index[f.name] = i
					claimed[i] = true
					break synonyms
				}
			}
		}
	}
	return index
}

// optionalFloat returns the field value, or 0 when the column is absent or unparsable
func optionalFloat(fields []string, idx int) float64 {
	if idx < 0 || idx >= len(fields) {
		return 0
	}
	v, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0
	}
	return v
}
