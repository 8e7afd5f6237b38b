/*
summary.go - Discrepancy detection and the monthly reporting fold

PURPOSE:
  CountDiscrepancies flags visits whose actually-provided minutes fall
  materially short of the user's contracted minutes. ComputeMonthlySummary
  rolls one month of daily records into attendance and add-on totals.

NUMERIC SEMANTICS:
  The discrepancy cutoff is standardMinutes * threshold compared with a
  STRICT less-than: a visit landing exactly on the cutoff is not a
  discrepancy, one minute under is. The comparison runs in decimal so
  0.7 * 300 is exactly 210 and the boundary never drifts.

  CalculateHours parses "HH:MM" wall-clock strings; anything unparseable,
  an Absent day, or end <= start yields zero rather than an error.

SEE ALSO:
  - clock.go:   ParseClock
  - absence.go: Cap enforcement runs before this fold counts claims
*/
package engine

import "github.com/shopspring/decimal"

// DefaultDiscrepancyThreshold is the fraction of the contracted minutes
// below which a visit counts as under-delivered.
const DefaultDiscrepancyThreshold = 0.7

var minutesPerHour = decimal.NewFromInt(60)

// CountDiscrepancies counts visits whose provided minutes are strictly below
// standardMinutes * threshold. Visits with zero provided minutes (not yet
// checked out) or for users missing from the roster are silently excluded;
// a zero is not evidence of under-delivery.
func CountDiscrepancies(visits []AttendanceVisit, users []AttendanceUser, threshold float64) int {
	roster := make(map[UserCode]AttendanceUser, len(users))
	for _, u := range users {
		roster[u.UserCode] = u
	}

	th := decimal.NewFromFloat(threshold)
	count := 0
	for _, v := range visits {
		if v.ProvidedMinutes <= 0 {
			continue
		}
		u, ok := roster[v.UserCode]
		if !ok {
			continue
		}
		cutoff := decimal.NewFromInt(int64(u.StandardMinutes)).Mul(th)
		if decimal.NewFromInt(int64(v.ProvidedMinutes)).LessThan(cutoff) {
			count++
		}
	}
	return count
}

// CalculateHours returns the service hours for one daily record: zero for an
// Absent day, zero when either time is unparseable or end <= start, else
// (end-start)/60 rounded to two decimal places.
func CalculateHours(status DailyStatus, startTime, endTime string) decimal.Decimal {
	if status == DailyAbsent {
		return decimal.Zero
	}
	start, ok := ParseClock(startTime)
	if !ok {
		return decimal.Zero
	}
	end, ok := ParseClock(endTime)
	if !ok {
		return decimal.Zero
	}
	if end <= start {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(end - start)).Div(minutesPerHour).Round(2)
}

// ComputeMonthlySummary folds one month of daily records into totals.
// Unknown status values are skipped in the status tallies but never error;
// otherAddons entries count only when truthy.
func ComputeMonthlySummary(records []DailyCareRecord) MonthlySummary {
	s := MonthlySummary{
		OtherAddonCounts: make(map[string]int),
		TotalHours:       decimal.Zero,
	}
	for _, r := range records {
		switch r.Status {
		case DailyPresent:
			s.PresentDays++
		case DailyAbsent:
			s.AbsentDays++
		case DailyOnline:
			s.OnlineDays++
		}
		if r.TransportOutbound {
			s.TransportOutboundCount++
		}
		if r.TransportInbound {
			s.TransportInboundCount++
		}
		if r.MealAddon {
			s.MealAddonCount++
		}
		if r.BathingAddon {
			s.BathingAddonCount++
		}
		for key, on := range r.OtherAddons {
			if on {
				s.OtherAddonCounts[key]++
			}
		}
		if r.AbsenceSupportApplied {
			s.AbsenceSupportCount++
		}
		s.TotalHours = s.TotalHours.Add(CalculateHours(r.Status, r.StartTime, r.EndTime))
	}
	s.TotalHours = s.TotalHours.Round(2)
	return s
}
