package engine

import "time"

// =============================================================================
// INTERVAL - Half-open interval algebra [Start, End)
// =============================================================================
// This is the single place overlap comparisons live. Both the conflict
// checker and the workload aggregator go through it; an off-by-one here
// would silently break conflict detection AND billing totals.

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsValid reports whether the interval is well-formed: both endpoints
// present and Start strictly before End.
func (iv Interval) IsValid() bool {
	return !iv.Start.IsZero() && !iv.End.IsZero() && iv.Start.Before(iv.End)
}

// Overlaps reports whether two half-open intervals intersect:
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
// Touching boundaries (e1 == s2) do NOT overlap, so back-to-back
// bookings are legal.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Duration returns the interval length, clamped to zero for malformed
// inputs (missing endpoint or End <= Start). Malformed records degrade to
// a zero contribution rather than poisoning an aggregate.
func (iv Interval) Duration() time.Duration {
	if !iv.IsValid() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// BookingInterval extracts the [Start, End) range of a booking.
func BookingInterval(b ResourceBooking) Interval {
	return Interval{Start: b.Start, End: b.End}
}
