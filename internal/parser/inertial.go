package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sebasr/avt-ingest/internal/models"
)

// markerLine matches the bare clock the stability unit writes between sample runs
var markerLine = regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}\s*(?i:[ap]m)?$`)

var inertialRequired = []string{"ax", "ay", "az", "gx", "gy", "gz", "si"}

// markerRollover is how far a marker may jump backwards before it is taken
// to belong to the next day
const markerRollover = 12 * time.Hour

type inertialRow struct {
	ax, ay, az, gx, gy, gz float64
	si                     float64
	accmag                 float64
}

// inertialBlock is a run of accepted rows waiting for its closing marker
type inertialBlock struct {
	start time.Time
	rows  []inertialRow
}

// ParseInertial parses a stability log. Line 0 carries the base instant,
// line 1 the column names; the body mixes marker clocks with data rows that
// have no timestamp of their own.
func (p *Parser) ParseInertial(data []byte) *Parsed {
	out := newParsed(models.StreamInertial)
	ledger := models.NewDiscardLedger(models.StreamInertial)

	lines := splitLines(data)
	if len(lines) == 0 {
		return p.finish(out, ledger)
	}
	p.parseHeader(lines[0], models.StreamInertial, out)
	if len(lines) < 2 {
		return p.finish(out, ledger)
	}

	delim := ";"
	if !strings.Contains(lines[1], ";") {
		delim = ","
	}
	columns := splitFields(lines[1], delim)
	for len(columns) > 0 && columns[len(columns)-1] == "" {
		columns = columns[:len(columns)-1]
	}
	col := make(map[string]int, len(columns))
	for i, c := range columns {
		col[strings.ToLower(c)] = i
	}
	var missing []string
	for _, name := range inertialRequired {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	accmagIdx, hasAccmag := col["accmag"]

	base := out.Header.BaseTime
	loc := p.norm.Location()
	day := time.Date(base.In(loc).Year(), base.In(loc).Month(), base.In(loc).Day(), 0, 0, 0, 0, loc)
	last := base
	block := inertialBlock{start: base}

	for i := 2; i < len(lines); i++ {
		lineNo := i + 1
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if markerLine.MatchString(line) {
			tod, err := p.norm.TimeOfDay(line, models.StreamInertial)
			if err != nil {
				ledger.Add(lineNo, models.ReasonTimestamp, err.Error())
				continue
			}
			marker := day.Add(tod)
			for marker.Before(last.Add(-markerRollover)) {
				day = day.AddDate(0, 0, 1)
				marker = day.Add(tod)
			}
			next := marker
			if end := p.closeBlock(&block, marker, out); end.After(next) {
				next = end
			}
			block = inertialBlock{start: next}
			last = marker
			continue
		}

		fields := splitFields(line, delim)
		switch {
		case len(fields) == len(columns):
		case len(fields) == len(columns)+1 && fields[len(columns)] == "":
			fields = fields[:len(columns)]
		default:
			ledger.Addf(lineNo, models.ReasonColumnCount, "column count mismatch: expected %d, found %d", len(columns), len(fields))
			continue
		}
		if len(missing) > 0 {
			ledger.Addf(lineNo, models.ReasonMissingField, "header lacks %s", strings.Join(missing, ", "))
			continue
		}

		row, bad := parseInertialRow(fields, col)
		if bad != "" {
			ledger.Addf(lineNo, models.ReasonNumeric, "invalid %s", bad)
			continue
		}
		if hasAccmag {
			v, err := strconv.ParseFloat(fields[accmagIdx], 64)
			if err != nil {
				ledger.Add(lineNo, models.ReasonNumeric, "invalid accmag")
				continue
			}
			row.accmag = v
		} else {
			row.accmag = math.Sqrt(row.ax*row.ax + row.ay*row.ay + row.az*row.az)
		}
		block.rows = append(block.rows, row)
	}

	// The trailing block has no closing marker
	p.closeBlock(&block, time.Time{}, out)

	return p.finish(out, ledger)
}

// closeBlock timestamps the pending rows between block.start and end. A zero
// end, or one that is not after the start, is replaced by the nominal-rate end.
// It returns the end actually used; the next block must not start before it.
func (p *Parser) closeBlock(block *inertialBlock, end time.Time, out *Parsed) time.Time {
	n := len(block.rows)
	if n == 0 {
		return block.start
	}
	if end.IsZero() || !end.After(block.start) {
		if !end.IsZero() {
			p.logger.Debug("inertial marker not after block start, assuming nominal rate",
				"start", block.start, "marker", end, "rows", n)
		}
		end = SyntheticBlockEnd(block.start, n)
	}

	stamps := Interpolate(block.start, end, n)
	for i, r := range block.rows {
		out.Inertial = append(out.Inertial, models.InertialSample{
			Timestamp:      stamps[i],
			AX:             r.ax,
			AY:             r.ay,
			AZ:             r.az,
			GX:             r.gx,
			GY:             r.gy,
			GZ:             r.gz,
			StabilityIndex: models.ClampStability(r.si),
			AccelMagnitude: r.accmag,
		})
	}
	block.rows = nil
	return end
}

func parseInertialRow(fields []string, col map[string]int) (inertialRow, string) {
	var r inertialRow
	targets := []struct {
		name string
		dst  *float64
	}{
		{"ax", &r.ax}, {"ay", &r.ay}, {"az", &r.az},
		{"gx", &r.gx}, {"gy", &r.gy}, {"gz", &r.gz},
		{"si", &r.si},
	}
	for _, t := range targets {
		v, err := strconv.ParseFloat(fields[col[t.name]], 64)
		if err != nil {
			return r, t.name
		}
		*t.dst = v
	}
	return r, ""
}
