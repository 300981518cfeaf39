package parser

import "time"

// nominalInertialRate is the sample spacing assumed when a block has no closing marker
const nominalInertialRate = time.Second

// Interpolate spreads n samples over [start, end) by centering each one in
// an equal slot: sample i lands at start + (end-start)/n * (i+0.5).
func Interpolate(start, end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	span := float64(end.Sub(start))
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		offset := span * (float64(i) + 0.5) / float64(n)
		out[i] = start.Add(time.Duration(offset))
	}
	return out
}

// SyntheticBlockEnd closes a block of n rows at the nominal 1 Hz rate
func SyntheticBlockEnd(start time.Time, n int) time.Time {
	return start.Add(time.Duration(n) * nominalInertialRate)
}
