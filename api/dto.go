/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TIME CONVENTIONS:
  Absolute instants travel as RFC3339. Per-day keys are "2006-01-02",
  month keys "2006-01", wall-clock times "HH:MM".

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/yasutakesougo/careops-engine/engine"
)

// =============================================================================
// SCHEDULING
// =============================================================================

// CheckDropRequest asks whether an existing booking may move.
type CheckDropRequest struct {
	BookingID  string `json:"booking_id"`
	Start      string `json:"start"` // RFC3339
	End        string `json:"end"`   // RFC3339
	ResourceID string `json:"resource_id,omitempty"` // explicit drop target
}

// CheckSelectRequest asks whether a brand-new booking may be created.
type CheckSelectRequest struct {
	ResourceID string `json:"resource_id"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// DecisionDTO is the structured allow/reject result.
type DecisionDTO struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func toDecisionDTO(d engine.Decision) DecisionDTO {
	return DecisionDTO{Allowed: d.Allowed, Reason: d.Reason}
}

// BookingDTO represents a booking in API responses.
type BookingDTO struct {
	ID           string `json:"id"`
	ResourceID   string `json:"resource_id"`
	Title        string `json:"title"`
	Start        string `json:"start,omitempty"`
	End          string `json:"end,omitempty"`
	IsBackground bool   `json:"is_background"`
	HasActuals   bool   `json:"has_actuals"`
}

// CreateBookingRequest creates a booking after a successful select check.
type CreateBookingRequest struct {
	ResourceID string `json:"resource_id"`
	Title      string `json:"title"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// MoveBookingRequest moves/resizes a booking after a drop check.
type MoveBookingRequest struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	ResourceID string `json:"resource_id,omitempty"`
	Version    int64  `json:"version"`
}

func toBookingDTO(b engine.ResourceBooking) BookingDTO {
	dto := BookingDTO{
		ID:           b.ID,
		ResourceID:   string(b.ResourceID),
		Title:        b.Title,
		IsBackground: b.IsBackground,
		HasActuals:   b.HasActuals,
	}
	if !b.Start.IsZero() {
		dto.Start = b.Start.Format(time.RFC3339)
	}
	if !b.End.IsZero() {
		dto.End = b.End.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// WORKLOAD
// =============================================================================

// WorkloadTotalDTO is one resource's hour total for the window.
type WorkloadTotalDTO struct {
	ResourceID string `json:"resource_id"`
	TotalHours string `json:"total_hours"` // 1 decimal place
	IsOver     bool   `json:"is_over"`
}

// WarningEventDTO is a booking-shaped overload marker for the calendar.
type WarningEventDTO struct {
	ID           string `json:"id"`
	ResourceID   string `json:"resource_id"`
	Title        string `json:"title"`
	Start        string `json:"start"`
	End          string `json:"end"`
	AllDay       bool   `json:"all_day"`
	IsBackground bool   `json:"is_background"`
}

// WorkloadResponse bundles totals and the derived warnings.
type WorkloadResponse struct {
	Totals   []WorkloadTotalDTO `json:"totals"`
	Warnings []WarningEventDTO  `json:"warnings"`
}

func toWarningDTO(w engine.WarningEvent) WarningEventDTO {
	return WarningEventDTO{
		ID:           w.ID,
		ResourceID:   string(w.ResourceID),
		Title:        w.Title,
		Start:        w.Start.Format(time.RFC3339),
		End:          w.End.Format(time.RFC3339),
		AllDay:       w.AllDay,
		IsBackground: w.IsBackground,
	}
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// VisitDTO represents one attendance row.
type VisitDTO struct {
	ID                     string `json:"id"`
	UserCode               string `json:"user_code"`
	Date                   string `json:"date"`
	Status                 string `json:"status"`
	CntAttendIn            int    `json:"cnt_attend_in"`
	CntAttendOut           int    `json:"cnt_attend_out"`
	CheckInAt              string `json:"check_in_at,omitempty"`
	CheckOutAt             string `json:"check_out_at,omitempty"`
	TransportTo            bool   `json:"transport_to"`
	TransportFrom          bool   `json:"transport_from"`
	AbsentMorningContacted bool   `json:"absent_morning_contacted"`
	AbsentMorningMethod    string `json:"absent_morning_method,omitempty"`
	EveningChecked         bool   `json:"evening_checked"`
	EveningNote            string `json:"evening_note,omitempty"`
	AbsenceAddonClaimable  bool   `json:"absence_addon_claimable"`
	ProvidedMinutes        int    `json:"provided_minutes"`
	UserConfirmedAt        string `json:"user_confirmed_at,omitempty"`
	Version                int64  `json:"version,omitempty"`
}

func toVisitDTO(v engine.AttendanceVisit, version int64) VisitDTO {
	dto := VisitDTO{
		ID:                     v.ID,
		UserCode:               string(v.UserCode),
		Date:                   v.Date,
		Status:                 string(v.Status),
		CntAttendIn:            v.CntAttendIn,
		CntAttendOut:           v.CntAttendOut,
		TransportTo:            v.TransportTo,
		TransportFrom:          v.TransportFrom,
		AbsentMorningContacted: v.AbsentMorningContacted,
		AbsentMorningMethod:    v.AbsentMorningMethod,
		EveningChecked:         v.EveningChecked,
		EveningNote:            v.EveningNote,
		AbsenceAddonClaimable:  v.AbsenceAddonClaimable,
		ProvidedMinutes:        v.ProvidedMinutes,
		Version:                version,
	}
	if v.CheckInAt != nil {
		dto.CheckInAt = v.CheckInAt.Format(time.RFC3339)
	}
	if v.CheckOutAt != nil {
		dto.CheckOutAt = v.CheckOutAt.Format(time.RFC3339)
	}
	if v.UserConfirmedAt != nil {
		dto.UserConfirmedAt = v.UserConfirmedAt.Format(time.RFC3339)
	}
	return dto
}

// SeedVisitsRequest seeds day-start rows for every roster user.
type SeedVisitsRequest struct {
	Date string `json:"date"` // "2006-01-02"
}

// SeedVisitsResponse reports how many rows were newly created.
type SeedVisitsResponse struct {
	Date     string `json:"date"`
	Inserted int    `json:"inserted"`
}

// AttendanceActionRequest covers check-in and check-out.
type AttendanceActionRequest struct {
	At      string `json:"at,omitempty"` // RFC3339; empty = server now
	Version int64  `json:"version"`
}

// MarkAbsentRequest records the Absent branch with its contact trail.
type MarkAbsentRequest struct {
	MorningContacted bool   `json:"morning_contacted"`
	MorningMethod    string `json:"morning_method,omitempty"`
	EveningChecked   bool   `json:"evening_checked"`
	EveningNote      string `json:"evening_note,omitempty"`
	Version          int64  `json:"version"`
}

// DiscrepancyResponse reports under-delivered visits for a day.
type DiscrepancyResponse struct {
	Date      string  `json:"date"`
	Threshold float64 `json:"threshold"`
	Count     int     `json:"count"`
}

// UserDTO represents a roster entry.
type UserDTO struct {
	UserCode                string `json:"user_code"`
	Name                    string `json:"name"`
	IsTransportTarget       bool   `json:"is_transport_target"`
	AbsenceClaimedThisMonth int    `json:"absence_claimed_this_month"`
	StandardMinutes         int    `json:"standard_minutes"`
}

func toUserDTO(u engine.AttendanceUser) UserDTO {
	return UserDTO{
		UserCode:                string(u.UserCode),
		Name:                    u.Name,
		IsTransportTarget:       u.IsTransportTarget,
		AbsenceClaimedThisMonth: u.AbsenceClaimedThisMonth,
		StandardMinutes:         u.StandardMinutes,
	}
}

func fromUserDTO(d UserDTO) engine.AttendanceUser {
	return engine.AttendanceUser{
		UserCode:                engine.UserCode(d.UserCode),
		Name:                    d.Name,
		IsTransportTarget:       d.IsTransportTarget,
		AbsenceClaimedThisMonth: d.AbsenceClaimedThisMonth,
		StandardMinutes:         d.StandardMinutes,
	}
}

// =============================================================================
// DAILY RECORDS / MONTHLY SUMMARY
// =============================================================================

// DailyRecordDTO is one reporting day. CalculatedHours is derived on read.
type DailyRecordDTO struct {
	ID                     string          `json:"id"`
	Date                   string          `json:"date"`
	Status                 string          `json:"status"`
	StartTime              string          `json:"start_time,omitempty"`
	EndTime                string          `json:"end_time,omitempty"`
	TransportOutbound      bool            `json:"transport_outbound"`
	TransportInbound       bool            `json:"transport_inbound"`
	MealAddon              bool            `json:"meal_addon"`
	BathingAddon           bool            `json:"bathing_addon"`
	OtherAddons            map[string]bool `json:"other_addons,omitempty"`
	AbsenceSupportApplied  bool            `json:"absence_support_applied"`
	AbsenceSupportDisabled bool            `json:"absence_support_disabled"`
	CalculatedHours        string          `json:"calculated_hours"`
	Version                int64           `json:"version,omitempty"`
}

func toDailyRecordDTO(r engine.DailyCareRecord, version int64) DailyRecordDTO {
	return DailyRecordDTO{
		ID:                     r.ID,
		Date:                   r.Date,
		Status:                 string(r.Status),
		StartTime:              r.StartTime,
		EndTime:                r.EndTime,
		TransportOutbound:      r.TransportOutbound,
		TransportInbound:       r.TransportInbound,
		MealAddon:              r.MealAddon,
		BathingAddon:           r.BathingAddon,
		OtherAddons:            r.OtherAddons,
		AbsenceSupportApplied:  r.AbsenceSupportApplied,
		AbsenceSupportDisabled: r.AbsenceSupportDisabled,
		CalculatedHours:        engine.CalculateHours(r.Status, r.StartTime, r.EndTime).StringFixed(2),
		Version:                version,
	}
}

// UpsertDailyRecordRequest creates or rewrites one reporting day.
type UpsertDailyRecordRequest struct {
	Date                  string          `json:"date"`
	Status                string          `json:"status"`
	StartTime             string          `json:"start_time,omitempty"`
	EndTime               string          `json:"end_time,omitempty"`
	TransportOutbound     bool            `json:"transport_outbound"`
	TransportInbound      bool            `json:"transport_inbound"`
	MealAddon             bool            `json:"meal_addon"`
	BathingAddon          bool            `json:"bathing_addon"`
	OtherAddons           map[string]bool `json:"other_addons,omitempty"`
	AbsenceSupportApplied bool            `json:"absence_support_applied"`
}

// MonthlySummaryDTO is the fold over one service month.
type MonthlySummaryDTO struct {
	Month                  string           `json:"month"`
	PresentDays            int              `json:"present_days"`
	AbsentDays             int              `json:"absent_days"`
	OnlineDays             int              `json:"online_days"`
	TransportOutboundCount int              `json:"transport_outbound_count"`
	TransportInboundCount  int              `json:"transport_inbound_count"`
	MealAddonCount         int              `json:"meal_addon_count"`
	BathingAddonCount      int              `json:"bathing_addon_count"`
	OtherAddonCounts       map[string]int   `json:"other_addon_counts,omitempty"`
	AbsenceSupportCount    int              `json:"absence_support_count"`
	TotalHours             string           `json:"total_hours"`
	Records                []DailyRecordDTO `json:"records"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
