/*
absence.go - Absence-support eligibility and the monthly cap enforcer

PURPOSE:
  The absence-support add-on is a reimbursable billing item. A single
  absence earns it only when the facility made a morning contact AND an
  evening confirmation, and the user is still under the facility-wide
  monthly ceiling.

CAP ENFORCEMENT:
  EnforceAbsenceSupportLimit walks the month's records in their given
  (chronological) order with a running applied count: the first N claims
  win, every later claim is demoted to not-applied and flagged disabled so
  the UI does not offer to re-enable it. The enforcer always recomputes
  from the full snapshot; callers re-run it after every mutation instead
  of patching incrementally. Running it on its own output is a no-op.

SEE ALSO:
  - attendance.go: BuildAbsentVisit consumes the eligibility result
  - summary.go:    The monthly fold counts the surviving claims
*/
package engine

// DefaultAbsenceMonthlyLimit is the facility default per-user ceiling on
// absence-support claims per service month.
const DefaultAbsenceMonthlyLimit = 2

// ComputeAbsenceEligibility decides whether an absence qualifies for the
// support add-on. Both contacts must be confirmed, and the user must be
// strictly under the monthly limit; a user already at the limit is
// ineligible even with both contacts in place.
func ComputeAbsenceEligibility(user AttendanceUser, morningContacted, eveningChecked bool, monthlyLimit int) bool {
	if !morningContacted || !eveningChecked {
		return false
	}
	return user.AbsenceClaimedThisMonth < monthlyLimit
}

// EnforceAbsenceSupportLimit re-applies the monthly cap over a full month of
// records, in the order given. Non-absent records are always forced to
// not-applied/disabled; a limit <= 0 demotes everything. The input is not
// mutated.
func EnforceAbsenceSupportLimit(records []DailyCareRecord, limit int) []DailyCareRecord {
	out := make([]DailyCareRecord, len(records))
	applied := 0
	for i, r := range records {
		switch {
		case r.Status != DailyAbsent:
			r.AbsenceSupportApplied = false
			r.AbsenceSupportDisabled = true

		case r.AbsenceSupportApplied && applied < limit:
			r.AbsenceSupportDisabled = false
			applied++

		case r.AbsenceSupportApplied:
			// Over the cap: demote. Chronologically earlier claims won.
			r.AbsenceSupportApplied = false
			r.AbsenceSupportDisabled = true
		}
		out[i] = r
	}

	// Unclaimed absent days stay enabled only while the month has free
	// slots, judged against the final applied total.
	for i := range out {
		if out[i].Status == DailyAbsent && !out[i].AbsenceSupportApplied {
			out[i].AbsenceSupportDisabled = applied >= limit
		}
	}
	return out
}
