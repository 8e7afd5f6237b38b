/*
attendance.go - Daily attendance state machine

PURPOSE:
  Tracks each service user's visit through a small state machine:

      Unvisited ──> CheckedIn ──> CheckedOut   (terminal)
          │
          └───────> Absent                     (terminal)

  Nothing transitions out of CheckedOut or Absent. Illegal transitions
  return ok=false with the visit unchanged; the UI disables the action
  rather than handling a panic.

TRANSITIONS:
  CheckIn:          status=CheckedIn, CntAttendIn=1, records the timestamp
  CheckOut:         status=CheckedOut, CntAttendOut=1,
                    ProvidedMinutes = DiffMinutes(check-in, check-out)
  BuildAbsentVisit: the Absent terminal state; clears counts, transport
                    flags, confirmation and minutes, keeps the contact trail

SEE ALSO:
  - clock.go:   DiffMinutes and the close-time gate
  - absence.go: Whether an absence earns the support add-on
*/
package engine

import "time"

// =============================================================================
// GUARDS
// =============================================================================

// CanCheckIn reports whether a check-in is a legal next step.
func CanCheckIn(v *AttendanceVisit) bool {
	if v == nil {
		return false
	}
	return v.Status == StatusUnvisited && v.CntAttendIn == 0
}

// CanCheckOut reports whether a check-out is a legal next step. False for a
// missing visit or any status other than CheckedIn.
func CanCheckOut(v *AttendanceVisit) bool {
	if v == nil {
		return false
	}
	return v.Status == StatusCheckedIn && v.CntAttendOut == 0
}

// CanMarkAbsent reports whether the visit may take the Absent branch.
// Only an untouched visit can be marked absent; CheckedOut and Absent are
// terminal, and a checked-in user is demonstrably not absent.
func CanMarkAbsent(v *AttendanceVisit) bool {
	if v == nil {
		return false
	}
	return v.Status == StatusUnvisited
}

// =============================================================================
// TRANSITIONS - pure: visit in, updated visit out
// =============================================================================

// CheckIn applies the check-in transition. ok is false (visit unchanged)
// when the transition is illegal.
func CheckIn(v AttendanceVisit, at time.Time) (AttendanceVisit, bool) {
	if !CanCheckIn(&v) {
		return v, false
	}
	v.Status = StatusCheckedIn
	v.CntAttendIn = 1
	t := at
	v.CheckInAt = &t
	return v, true
}

// CheckOut applies the check-out transition and computes the provided
// service minutes from the recorded check-in time.
func CheckOut(v AttendanceVisit, at time.Time) (AttendanceVisit, bool) {
	if !CanCheckOut(&v) {
		return v, false
	}
	v.Status = StatusCheckedOut
	v.CntAttendOut = 1
	t := at
	v.CheckOutAt = &t
	v.ProvidedMinutes = DiffMinutes(v.CheckInAt, v.CheckOutAt)
	return v, true
}

// AbsenceInput carries the contact trail recorded when marking an absence.
type AbsenceInput struct {
	MorningContacted bool
	MorningMethod    string
	EveningChecked   bool
	EveningNote      string

	// Eligible is the pre-computed ComputeAbsenceEligibility result.
	Eligible bool
}

// BuildAbsentVisit transforms a visit into the Absent terminal state. It
// clears check-in/out counts, timestamps, transport flags and any user
// confirmation, forces ProvidedMinutes to zero, and records the contact
// trail. The absent-state invariants hold on the result regardless of the
// input's shape.
func BuildAbsentVisit(base AttendanceVisit, in AbsenceInput) AttendanceVisit {
	v := base
	v.Status = StatusAbsent
	v.CntAttendIn = 0
	v.CntAttendOut = 0
	v.CheckInAt = nil
	v.CheckOutAt = nil
	v.TransportTo = false
	v.TransportFrom = false
	v.UserConfirmedAt = nil
	v.ProvidedMinutes = 0

	v.AbsentMorningContacted = in.MorningContacted
	v.AbsentMorningMethod = in.MorningMethod
	v.EveningChecked = in.EveningChecked
	v.EveningNote = in.EveningNote
	v.AbsenceAddonClaimable = in.Eligible
	return v
}

// BuildInitialVisits produces the day-start snapshot: one Unvisited row per
// roster user for the given date. Transport flags are prefilled from the
// user's transport-target setting.
func BuildInitialVisits(users []AttendanceUser, date string) []AttendanceVisit {
	visits := make([]AttendanceVisit, 0, len(users))
	for _, u := range users {
		visits = append(visits, AttendanceVisit{
			UserCode:      u.UserCode,
			Date:          date,
			Status:        StatusUnvisited,
			TransportTo:   u.IsTransportTarget,
			TransportFrom: u.IsTransportTarget,
		})
	}
	return visits
}
