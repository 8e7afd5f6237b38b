/*
workload.go - Per-resource workload totals and overload warnings

PURPOSE:
  Sums booked hours per resource over a window and synthesizes one all-day
  warning marker for every resource whose rounded total exceeds the limit.

NUMERIC SEMANTICS:
  Totals are summed as exact second counts, converted to hours with
  decimal.Decimal, and rounded to ONE decimal place BEFORE the comparison.
  IsOver is strict: rounded > limit. A resource at exactly the limit is
  not over.

DETERMINISM:
  Warning IDs are "warning-{resourceID}-{windowStart epoch millis}", so
  regenerating the same window produces the same IDs and a calendar can
  upsert them idempotently. Warnings are returned sorted by resource.

SEE ALSO:
  - interval.go: Duration clamping for malformed records
  - schedule.go: Background-marker exclusion mirrors this file
*/
package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultWorkloadLimitHours is the facility default daily booking limit.
var DefaultWorkloadLimitHours = decimal.NewFromInt(8)

var secondsPerHour = decimal.NewFromInt(3600)

// AggregateWorkload sums booked duration per resource. Background markers
// and records missing both endpoints are ignored; a malformed (negative or
// half-missing) range contributes zero rather than subtracting.
func AggregateWorkload(bookings []ResourceBooking, limitHours decimal.Decimal) map[ResourceID]ResourceWorkloadTotal {
	seconds := make(map[ResourceID]int64)
	for _, b := range bookings {
		if b.IsBackground {
			continue
		}
		if b.Start.IsZero() && b.End.IsZero() {
			continue
		}
		seconds[b.ResourceID] += int64(BookingInterval(b).Duration() / time.Second)
	}

	totals := make(map[ResourceID]ResourceWorkloadTotal, len(seconds))
	for id, s := range seconds {
		hours := decimal.NewFromInt(s).Div(secondsPerHour).Round(1)
		totals[id] = ResourceWorkloadTotal{
			ResourceID: id,
			TotalHours: hours,
			IsOver:     hours.GreaterThan(limitHours),
		}
	}
	return totals
}

// GenerateWarnings synthesizes one all-day overload marker per over-limit
// resource, spanning [windowStart, windowEnd+1day). Results are ordered by
// resource ID so repeated generation is byte-for-byte stable.
func GenerateWarnings(totals map[ResourceID]ResourceWorkloadTotal, windowStart, windowEnd time.Time) []WarningEvent {
	var warnings []WarningEvent
	for id, t := range totals {
		if !t.IsOver {
			continue
		}
		warnings = append(warnings, WarningEvent{
			ID:           fmt.Sprintf("warning-%s-%d", id, windowStart.UnixMilli()),
			ResourceID:   id,
			Title:        fmt.Sprintf("Overload: %sh booked", t.TotalHours.StringFixed(1)),
			Start:        windowStart,
			End:          windowEnd.AddDate(0, 0, 1),
			AllDay:       true,
			IsBackground: true,
		})
	}
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].ResourceID < warnings[j].ResourceID
	})
	return warnings
}
