package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/sebasr/avt-ingest/internal/models"
)

// Correction identifies a repair applied to a GPS field before validation
type Correction string

const (
	CorrectionTimeSeparator    Correction = "time_separator"
	CorrectionLatitudePrefix   Correction = "latitude_prefix"
	CorrectionLongitudePrefix  Correction = "longitude_prefix"
	CorrectionLongitudeLiteral Correction = "longitude_literal"
)

const (
	gpsColumns        = 9
	gpsMinAltitude    = -1000.0
	gpsMaxAltitude    = 10000.0
	gpsMaxHDOP        = 50.0
	gpsMinSatellites  = 3
	gpsMaxSatellites  = 20
	gpsValidFix       = 1
	gpsAnomalousSpeed = 200.0
)

// Receivers with the truncation fault drop the leading digit of coordinates
// in the operating area (lat 40.x, lon -3.x).
const (
	latitudeRepairPrefix  = "40"
	longitudeRepairPrefix = "-3"
)

// corruptedLongitudes are fragments a faulty firmware writes in place of the
// longitude. Rows carrying one are pinned to referenceLongitude.
var corruptedLongitudes = []string{"-3.-3.", "-0.000000-"}

const referenceLongitude = "-3.703800"

// ParseGPS parses a GPS log: one metadata header, one format line, then
// comma-separated rows of date, time, lat, lon, altitude, hdop, fix,
// satellites, speed and an optional heading.
func (p *Parser) ParseGPS(data []byte) *Parsed {
	out := newParsed(models.StreamGPS)
	ledger := models.NewDiscardLedger(models.StreamGPS)

	lines := splitLines(data)
	if len(lines) == 0 {
		return p.finish(out, ledger)
	}
	p.parseHeader(lines[0], models.StreamGPS, out)

	for i := 2; i < len(lines); i++ {
		lineNo := i + 1
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		fields := splitFields(line, ",")
		if len(fields) < gpsColumns {
			ledger.Addf(lineNo, models.ReasonColumnCount, "column count mismatch: expected %d, found %d", gpsColumns, len(fields))
			continue
		}

		timeField := fields[1]
		if strings.Contains(timeField, ".") && strings.Count(timeField, ":") < 2 {
			timeField = strings.ReplaceAll(timeField, ".", ":")
			out.Corrections[CorrectionTimeSeparator]++
		}
		latField := correctLatitude(fields[2], out)
		lonField := correctLongitude(fields[3], out)

		var (
			lat, lon, alt, hdop, speed float64
			fix, sats                  int
			err                        error
		)
		numeric := []struct {
			name string
			raw  string
			dst  *float64
		}{
			{"latitude", latField, &lat},
			{"longitude", lonField, &lon},
			{"altitude", fields[4], &alt},
			{"hdop", fields[5], &hdop},
			{"speed", fields[8], &speed},
		}
		bad := ""
		for _, n := range numeric {
			if *n.dst, err = strconv.ParseFloat(n.raw, 64); err != nil {
				bad = n.name
				break
			}
		}
		if bad == "" {
			if fix, err = parseInt(fields[6]); err != nil {
				bad = "fix"
			} else if sats, err = parseInt(fields[7]); err != nil {
				bad = "satellites"
			}
		}
		if bad != "" {
			ledger.Addf(lineNo, models.ReasonNumeric, "invalid %s", bad)
			continue
		}

		ts, err := p.norm.Normalize(fields[0]+" "+timeField, models.StreamGPS)
		if err != nil {
			ledger.Add(lineNo, models.ReasonTimestamp, err.Error())
			continue
		}

		switch {
		case math.Abs(lat) > 90:
			ledger.Addf(lineNo, models.ReasonLatitudeRange, "latitude %.6f", lat)
			continue
		case math.Abs(lon) > 180:
			ledger.Addf(lineNo, models.ReasonLongitudeRange, "longitude %.6f", lon)
			continue
		case alt < gpsMinAltitude || alt > gpsMaxAltitude:
			ledger.Addf(lineNo, models.ReasonAltitudeRange, "altitude %.1f", alt)
			continue
		case hdop > gpsMaxHDOP:
			ledger.Addf(lineNo, models.ReasonHDOP, "hdop %.1f", hdop)
			continue
		case sats < gpsMinSatellites || sats > gpsMaxSatellites:
			ledger.Addf(lineNo, models.ReasonSatellites, "satellites %d", sats)
			continue
		case fix != gpsValidFix:
			ledger.Addf(lineNo, models.ReasonFixQuality, "fix %d", fix)
			continue
		}

		if speed > gpsAnomalousSpeed {
			out.Anomalies++
			p.logger.Debug("anomalous GPS speed accepted", "line", lineNo, "speed_kmh", speed)
		}

		sample := models.GPSample{
			Timestamp:  ts.Time,
			Latitude:   lat,
			Longitude:  lon,
			Altitude:   alt,
			SpeedKmh:   speed,
			Satellites: sats,
			HDOP:       hdop,
			FixQuality: fix,
		}
		if len(fields) > gpsColumns && fields[gpsColumns] != "" {
			if h, err := strconv.ParseFloat(fields[gpsColumns], 64); err == nil {
				sample.Heading = &h
			}
		}
		out.GPS = append(out.GPS, sample)
	}

	for _, kind := range sortedCorrections(out.Corrections) {
		if n := out.Corrections[kind]; n > 1 {
			p.logger.Info("GPS corrections applied", "kind", kind, "count", n)
		}
	}
	if out.Anomalies > 0 {
		p.logger.Warn("GPS rows above speed threshold", "count", out.Anomalies, "threshold_kmh", gpsAnomalousSpeed)
	}

	return p.finish(out, ledger)
}

func correctLatitude(raw string, out *Parsed) string {
	s := strings.TrimSpace(raw)
	if (strings.HasPrefix(s, "0.") || strings.HasPrefix(s, "4.")) && !strings.HasPrefix(s, "40.") {
		out.Corrections[CorrectionLatitudePrefix]++
		return latitudeRepairPrefix + s[1:]
	}
	return s
}

func correctLongitude(raw string, out *Parsed) string {
	s := strings.TrimSpace(raw)
	for _, lit := range corruptedLongitudes {
		if strings.Contains(s, lit) {
			out.Corrections[CorrectionLongitudeLiteral]++
			return referenceLongitude
		}
	}
	if strings.HasPrefix(s, "-0.") {
		out.Corrections[CorrectionLongitudePrefix]++
		return longitudeRepairPrefix + s[2:]
	}
	return s
}

// parseInt accepts integers written as floats ("8.0"), which some receivers emit
func parseInt(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, strconv.ErrSyntax
	}
	return int(f), nil
}
