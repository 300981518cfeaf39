package parser

import (
	"strconv"
	"strings"

	"github.com/sebasr/avt-ingest/internal/models"
)

// ParseBeacon parses a beacon log: a metadata line, a column header line,
// then "timestamp<delim>state" rows.
func (p *Parser) ParseBeacon(data []byte) *Parsed {
	out := newParsed(models.StreamBeacon)
	ledger := models.NewDiscardLedger(models.StreamBeacon)

	lines := splitLines(data)
	if len(lines) == 0 {
		return p.finish(out, ledger)
	}
	p.parseHeader(lines[0], models.StreamBeacon, out)
	if len(lines) < 2 {
		return p.finish(out, ledger)
	}
	delim := detectDelimiter(lines[1])

	for i := 2; i < len(lines); i++ {
		lineNo := i + 1
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		fields := splitFields(line, delim)
		if len(fields) < 2 {
			ledger.Addf(lineNo, models.ReasonColumnCount, "column count mismatch: expected 2, found %d", len(fields))
			continue
		}

		ts, err := p.norm.Normalize(fields[0], models.StreamBeacon)
		if err != nil {
			ledger.Add(lineNo, models.ReasonTimestamp, err.Error())
			continue
		}

		state, err := strconv.Atoi(fields[1])
		if err != nil || (state != 0 && state != 1) {
			ledger.Addf(lineNo, models.ReasonInvalidState, "state %q", fields[1])
			continue
		}

		out.Beacon = append(out.Beacon, models.BeaconSample{
			Timestamp: ts.Time,
			State:     state,
		})
	}

	return p.finish(out, ledger)
}
