// Package timeparse turns the ambiguous date/time strings written by the
// on-board devices into absolute instants.
package timeparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sebasr/avt-ingest/internal/clock"
	"github.com/sebasr/avt-ingest/internal/models"
)

var (
	// ErrUnrecognized is returned when no supported layout matches
	ErrUnrecognized = errors.New("unrecognized timestamp")

	// ErrOutOfRange is returned when a layout matches but a component is invalid
	ErrOutOfRange = errors.New("timestamp component out of range")
)

// Layout names the rule that produced a Result
type Layout string

const (
	LayoutCalendar    Layout = "calendar"
	LayoutSlash       Layout = "slash"
	LayoutSlash12h    Layout = "slash_12h"
	LayoutExtraGroups Layout = "extra_groups"
)

// maxBaseDateSkew bounds how far a file's base date may sit from now
const maxBaseDateSkew = 365 * 24 * time.Hour

var calendarLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// slashDate matches P1/P2/YYYY optionally followed by a clock. Devices
// separate date and clock with a space, a comma, a T or a dash.
var slashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:[\sT,\-]+(.*))?$`)

// Result is a successfully normalized timestamp plus how it was read
type Result struct {
	Time     time.Time
	Layout   Layout
	DayOrder DayOrder
	Wrapped  bool // a clock component overflowed and was wrapped (GPS only)
}

// Normalizer parses device timestamps in a fixed location
type Normalizer struct {
	loc   *time.Location
	clock clock.Clock
}

// New creates a Normalizer. A nil location means UTC, a nil clock the real one.
func New(loc *time.Location, c clock.Clock) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Normalizer{loc: loc, clock: c}
}

// Location returns the zone wall-clock readings are interpreted in
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Now returns the normalizer's notion of the current time
func (n *Normalizer) Now() time.Time {
	return n.clock.Now().In(n.loc)
}

// Normalize parses raw in the context of the given stream
func (n *Normalizer) Normalize(raw string, stream models.StreamType) (Result, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Result{}, fmt.Errorf("%w: empty input", ErrUnrecognized)
	}

	for _, layout := range calendarLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return Result{Time: t, Layout: LayoutCalendar}, nil
		}
	}

	m := slashDate.FindStringSubmatch(s)
	if m == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrUnrecognized, raw)
	}

	p1, _ := strconv.Atoi(m[1])
	p2, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	order := ResolveDayOrder(p1, p2, stream)
	if order == DayOrderInvalid {
		return Result{}, fmt.Errorf("%w: date %s/%s/%s", ErrOutOfRange, m[1], m[2], m[3])
	}
	day, month := dayMonth(p1, p2, order)

	c := clockParts{}
	if strings.TrimSpace(m[4]) != "" {
		var err error
		c, err = parseClock(m[4], stream)
		if err != nil {
			return Result{}, fmt.Errorf("%q: %w", raw, err)
		}
	}

	t := time.Date(year, time.Month(month), day, c.hour, c.minute, c.second, c.nanos, n.loc)
	if t.Day() != day || int(t.Month()) != month {
		return Result{}, fmt.Errorf("%w: no day %d in month %d", ErrOutOfRange, day, month)
	}

	layout := LayoutSlash
	switch {
	case c.extra:
		layout = LayoutExtraGroups
	case c.meridiem:
		layout = LayoutSlash12h
	}

	return Result{Time: t, Layout: layout, DayOrder: order, Wrapped: c.wrapped}, nil
}

// BaseDate parses a file header's base instant. Inputs that do not parse, or
// that lie more than a year away from now, fall back to now with ok=false.
func (n *Normalizer) BaseDate(raw string, stream models.StreamType) (time.Time, bool) {
	now := n.Now()
	r, err := n.Normalize(raw, stream)
	if err != nil {
		return now, false
	}
	skew := r.Time.Sub(now)
	if skew < 0 {
		skew = -skew
	}
	if skew > maxBaseDateSkew {
		return now, false
	}
	return r.Time, true
}

// TimeOfDay parses a bare clock such as a marker line and returns the offset
// from midnight.
func (n *Normalizer) TimeOfDay(raw string, stream models.StreamType) (time.Duration, error) {
	c, err := parseClock(raw, stream)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, err)
	}
	return time.Duration(c.hour)*time.Hour +
		time.Duration(c.minute)*time.Minute +
		time.Duration(c.second)*time.Second +
		time.Duration(c.nanos), nil
}

type clockParts struct {
	hour, minute, second, nanos int
	meridiem                    bool
	extra                       bool
	wrapped                     bool
}

// parseClock reads HH:MM[:SS[.fff]][AM|PM], with up to two trailing extra
// colon groups.
func parseClock(raw string, stream models.StreamType) (clockParts, error) {
	var c clockParts

	s := strings.TrimSpace(raw)
	upper := strings.ToUpper(s)
	pm := false
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		c.meridiem = true
		pm = strings.HasSuffix(upper, "PM")
		s = strings.TrimSpace(s[:len(s)-2])
	}

	groups := strings.Split(s, ":")
	if len(groups) < 2 || len(groups) > 5 {
		return c, fmt.Errorf("%w: clock %q", ErrUnrecognized, raw)
	}

	if len(groups) >= 3 {
		if sec, frac, ok := strings.Cut(groups[2], "."); ok {
			if len(groups) > 3 || !isDigits(frac) {
				return c, fmt.Errorf("%w: clock %q", ErrUnrecognized, raw)
			}
			groups[2] = sec
			c.nanos = fractionNanos(frac)
		}
	}

	nums := make([]int, len(groups))
	for i, g := range groups {
		if !isDigits(g) || len(g) > 3 {
			return c, fmt.Errorf("%w: clock %q", ErrUnrecognized, raw)
		}
		nums[i], _ = strconv.Atoi(g)
	}

	c.hour, c.minute = nums[0], nums[1]
	if len(nums) >= 3 {
		c.second = nums[2]
	}

	maxHour := 23
	if c.meridiem {
		maxHour = 12
	}

	if len(nums) > 3 {
		c.extra = true
		if c.hour > maxHour {
			return c, fmt.Errorf("%w: clock %q", ErrOutOfRange, raw)
		}
		for _, v := range nums[1:] {
			if v > 59 {
				return c, fmt.Errorf("%w: clock %q", ErrOutOfRange, raw)
			}
		}
	}

	if c.meridiem {
		if c.hour < 1 || c.hour > 12 {
			return c, fmt.Errorf("%w: 12h clock %q", ErrOutOfRange, raw)
		}
		switch {
		case pm && c.hour < 12:
			c.hour += 12
		case !pm && c.hour == 12:
			c.hour = 0
		}
	}

	if c.hour > 23 || c.minute > 59 || c.second > 59 {
		if stream != models.StreamGPS {
			return c, fmt.Errorf("%w: clock %q", ErrOutOfRange, raw)
		}
		c.hour %= 24
		c.minute %= 60
		c.second %= 60
		c.wrapped = true
	}

	return c, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// fractionNanos converts the digits after a decimal point into nanoseconds
func fractionNanos(frac string) int {
	if len(frac) > 9 {
		frac = frac[:9]
	}
	v, _ := strconv.Atoi(frac)
	for i := len(frac); i < 9; i++ {
		v *= 10
	}
	return v
}
