package timeparse

import "github.com/sebasr/avt-ingest/internal/models"

// DayOrder tells how the two leading numbers of a slash date are read
type DayOrder int

const (
	// DayOrderInvalid means no reading yields a valid day and month
	DayOrderInvalid DayOrder = iota
	// DayFirst reads P1/P2 as DD/MM
	DayFirst
	// MonthFirst reads P1/P2 as MM/DD
	MonthFirst
)

// String implements fmt.Stringer
func (o DayOrder) String() string {
	switch o {
	case DayFirst:
		return "DD/MM"
	case MonthFirst:
		return "MM/DD"
	default:
		return "invalid"
	}
}

// ResolveDayOrder decides the order of P1/P2 in a P1/P2/YYYY date.
//
// A component above 12 can only be a day, so it fixes the order. When both
// are 12 or below the date is ambiguous: engine-bus exports come from a
// decoder that writes US-style dates, every other device writes DD/MM.
func ResolveDayOrder(p1, p2 int, stream models.StreamType) DayOrder {
	if p1 < 1 || p2 < 1 || p1 > 31 || p2 > 31 {
		return DayOrderInvalid
	}
	switch {
	case p1 > 12 && p2 > 12:
		return DayOrderInvalid
	case p1 > 12:
		return DayFirst
	case p2 > 12:
		return MonthFirst
	case stream == models.StreamEngine:
		return MonthFirst
	default:
		return DayFirst
	}
}

// dayMonth applies a DayOrder to the raw components
func dayMonth(p1, p2 int, order DayOrder) (day, month int) {
	if order == MonthFirst {
		return p2, p1
	}
	return p1, p2
}
