/*
Package engine provides the scheduling and attendance-compliance rules core.

PURPOSE:
  This package contains the pure decision logic for a day-care facility:
  booking conflict checks, per-resource workload aggregation, the daily
  attendance state machine, absence add-on eligibility with its monthly
  cap, and planned-vs-provided discrepancy detection.

KEY CONCEPTS IN THIS FILE (types.go):
  - ResourceBooking: A time-bounded reservation of a staff member or vehicle
  - AttendanceVisit: One user's attendance record for one day
  - AttendanceUser: A roster entry (read-only input)
  - DailyCareRecord / MonthlySummary: The monthly reporting aggregate
  - Decision: The allowed/rejected result of a scheduling check

DESIGN PRINCIPLES:
  1. Purity: every function maps an input snapshot to a derived result;
     no I/O, no clock reads, no shared mutable state
  2. Precision: decimal.Decimal for every rounded quantity (billing math)
  3. Recompute, don't patch: aggregates and cap enforcement always run
     over the full snapshot, which makes repeated invocation idempotent
  4. Rejections are values: a refused booking is a Decision, not an error

USAGE:
  d := engine.CheckSelectAllowed("staff-1", proposed, bookings)
  if !d.Allowed {
      // show d.Reason to the operator
  }

SEE ALSO:
  - interval.go:   Half-open interval algebra
  - schedule.go:   Booking conflict checks
  - workload.go:   Per-resource hour totals and overload warnings
  - attendance.go: Check-in / check-out / absence state machine
  - absence.go:    Add-on eligibility and the monthly cap enforcer
  - summary.go:    Discrepancy detection and the monthly fold
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ResourceID identifies a schedulable resource (staff member or vehicle).
type ResourceID string

// UserCode identifies a service user on the facility roster.
type UserCode string

// =============================================================================
// DECISION - Result of a scheduling check
// =============================================================================

// Decision is the structured outcome of a booking check. A rejection is a
// normal result the caller shows to the operator, never an error.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision { return Decision{Allowed: true} }

func Reject(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Rejection reasons. These are stable strings the UI layer displays as-is.
const (
	ReasonInvalidRange     = "start must precede end"
	ReasonActualized       = "booking already has recorded actuals"
	ReasonNoResource       = "no resource"
	ReasonDuplicateRange   = "duplicate time range for this resource"
)

// =============================================================================
// RESOURCE BOOKING
// =============================================================================

// ResourceBooking is one reservation of a resource. Background entries are
// informational calendar markers (e.g. a previous overload warning) and are
// excluded from conflict checks and workload totals.
type ResourceBooking struct {
	ID         string
	ResourceID ResourceID
	Title      string
	Start      time.Time
	End        time.Time

	// IsBackground marks a purely informational entry.
	IsBackground bool

	// HasActuals marks a booking with recorded service actuals. Such a
	// booking is a historical fact and can no longer be moved or resized.
	HasActuals bool
}

// ResourceWorkloadTotal is the derived per-resource hour total for a window.
// Never persisted; recomputed in full on every booking-set change.
type ResourceWorkloadTotal struct {
	ResourceID ResourceID
	TotalHours decimal.Decimal // rounded to one decimal place
	IsOver     bool            // TotalHours > limit (strict, after rounding)
}

// WarningEvent is a synthetic booking-shaped record representing an overload
// alert. Its ID is derived from the resource and window start so that
// regenerating the same window yields the same ID.
type WarningEvent struct {
	ID           string
	ResourceID   ResourceID
	Title        string
	Start        time.Time
	End          time.Time
	AllDay       bool
	IsBackground bool
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// VisitStatus is the state of a daily attendance record.
type VisitStatus string

const (
	StatusUnvisited  VisitStatus = "unvisited"
	StatusCheckedIn  VisitStatus = "checked_in"
	StatusCheckedOut VisitStatus = "checked_out"
	StatusAbsent     VisitStatus = "absent"
)

// AttendanceVisit is one row per (user, date). Created at day-start for every
// active user, mutated by check-in / check-out / absence actions, and kept
// forever as the historical record.
//
// Invariants:
//   - CntAttendOut == 1 implies Status == StatusCheckedOut
//   - Status == StatusAbsent implies CntAttendIn == CntAttendOut == 0,
//     TransportTo == TransportFrom == false, ProvidedMinutes == 0
type AttendanceVisit struct {
	ID       string
	UserCode UserCode
	Date     string // "2006-01-02", facility-local

	Status       VisitStatus
	CntAttendIn  int // 0 or 1, guards double check-in
	CntAttendOut int // 0 or 1, guards double check-out

	CheckInAt  *time.Time
	CheckOutAt *time.Time

	// Transport add-on flags (pickup / dropoff).
	TransportTo   bool
	TransportFrom bool

	// Absence contact trail.
	AbsentMorningContacted bool
	AbsentMorningMethod    string
	EveningChecked         bool
	EveningNote            string

	// Whether this absence qualifies for the absence-support add-on.
	AbsenceAddonClaimable bool

	// Minutes of service actually provided. Zero until checked out.
	ProvidedMinutes int

	UserConfirmedAt *time.Time
}

// AttendanceUser is a roster entry. The engine reads it and never mutates it;
// AbsenceClaimedThisMonth is a running count supplied by the caller.
type AttendanceUser struct {
	UserCode          UserCode
	Name              string
	IsTransportTarget bool

	// Absence-support add-ons already claimed this month.
	AbsenceClaimedThisMonth int

	// Contracted daily service length in minutes.
	StandardMinutes int
}

// =============================================================================
// DAILY CARE RECORDS - Monthly reporting aggregate
// =============================================================================

// DailyStatus is the status of one calendar day in the reporting view.
type DailyStatus string

const (
	DailyPresent DailyStatus = "present"
	DailyAbsent  DailyStatus = "absent"
	DailyOnline  DailyStatus = "online"
)

// DailyCareRecord is one calendar day of a service month in the lighter
// reporting view. Times are "HH:MM" wall-clock strings.
type DailyCareRecord struct {
	ID   string
	Date string // "2006-01-02"

	Status    DailyStatus
	StartTime string
	EndTime   string

	TransportOutbound bool
	TransportInbound  bool
	MealAddon         bool
	BathingAddon      bool

	// Open-ended add-ons; keys are facility-defined.
	OtherAddons map[string]bool

	// Absence-support add-on claim, subject to the monthly cap.
	AbsenceSupportApplied bool

	// Set by the cap enforcer when the claim may not be (re-)enabled.
	AbsenceSupportDisabled bool
}

// MonthlySummary is a pure fold over one month of DailyCareRecords.
type MonthlySummary struct {
	PresentDays int
	AbsentDays  int
	OnlineDays  int

	TransportOutboundCount int
	TransportInboundCount  int
	MealAddonCount         int
	BathingAddonCount      int

	// Counts for dynamically-keyed add-ons; only truthy entries are summed.
	OtherAddonCounts map[string]int

	AbsenceSupportCount int

	// Sum of per-day calculated hours, two decimal places.
	TotalHours decimal.Decimal
}
