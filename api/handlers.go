/*
handlers.go - HTTP API handlers for the scheduling and attendance engine

PURPOSE:
  Exposes the rules engine over REST. Handlers load a snapshot from the
  store, run the pure engine function, persist the outcome, and serialize
  the result. The engine itself never sees the store or the clock.

ENDPOINTS:
  Scheduling:
    POST   /api/bookings/check-drop    May this booking move here?
    POST   /api/bookings/check-select  May a new booking be created here?
    GET    /api/bookings               List bookings (optional window)
    POST   /api/bookings               Create (after a select check)
    PUT    /api/bookings/{id}/move     Move/resize (after a drop check)
    DELETE /api/bookings/{id}          Cancel

  Workload:
    GET    /api/workload               Totals + overload warnings

  Attendance:
    POST   /api/visits/seed            Day-start Unvisited rows
    GET    /api/visits                 One day's visits
    POST   /api/visits/{id}/check-in
    POST   /api/visits/{id}/check-out
    POST   /api/visits/{id}/absent
    GET    /api/visits/discrepancies   Under-delivery count for a day

  Roster:
    GET    /api/users
    PUT    /api/users/{code}

  Reporting:
    GET    /api/records/summary        Month records + fold (cap-enforced)
    POST   /api/records                Upsert one day, re-enforce the month

MUTATION DISCIPLINE:
  One state-machine transition per request, guarded by the row's version
  token. After every daily-record mutation the monthly cap enforcer is
  re-run over the FULL month and persisted - derived state is recomputed
  wholesale, never patched.

ERROR HANDLING:
  A refused scheduling check is a 200 with allowed=false: a rejection is a
  result for the operator, not a transport failure. Real errors map to
  400 (bad input), 404 (missing row), 409 (version conflict or illegal
  transition), 500 (everything else).

SEE ALSO:
  - dto.go:    Request/response shapes
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/yasutakesougo/careops-engine/engine"
	"github.com/yasutakesougo/careops-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Config carries the facility-level knobs the engine takes as parameters.
type Config struct {
	CloseTime            string          // "HH:MM"; gates same-day attendance actions
	WorkloadLimitHours   decimal.Decimal // default overload limit
	AbsenceMonthlyLimit  int             // per-user absence-support ceiling
	DiscrepancyThreshold float64         // fraction of contracted minutes
}

// DefaultConfig returns the facility defaults.
func DefaultConfig() Config {
	return Config{
		CloseTime:            "17:00",
		WorkloadLimitHours:   engine.DefaultWorkloadLimitHours,
		AbsenceMonthlyLimit:  engine.DefaultAbsenceMonthlyLimit,
		DiscrepancyThreshold: engine.DefaultDiscrepancyThreshold,
	}
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Config Config

	// now is sampled once per request at the boundary; the engine never
	// reads the clock itself. Overridable in tests.
	now func() time.Time
}

// NewHandler creates a new handler with the given store and config.
func NewHandler(store *sqlite.Store, cfg Config) *Handler {
	return &Handler{
		Store:  store,
		Config: cfg,
		now:    time.Now,
	}
}

// =============================================================================
// SCHEDULING HANDLERS
// =============================================================================

// CheckDrop decides whether an existing booking may move to a new range.
// POST /api/bookings/check-drop
func (h *Handler) CheckDrop(w http.ResponseWriter, r *http.Request) {
	var req CheckDropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	candidate, _, err := h.Store.GetBooking(r.Context(), req.BookingID)
	if err != nil {
		h.writeStoreError(w, "Failed to load booking", err)
		return
	}

	proposed, err := parseInterval(req.Start, req.End)
	if err != nil {
		// A malformed range is a rejection, not a transport failure.
		writeJSON(w, http.StatusOK, DecisionDTO{Allowed: false, Reason: engine.ReasonInvalidRange})
		return
	}

	all, err := h.Store.ListBookings(r.Context(), time.Time{}, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	d := engine.CheckDropAllowed(candidate, proposed, engine.ResourceID(req.ResourceID), all)
	writeJSON(w, http.StatusOK, toDecisionDTO(d))
}

// CheckSelect decides whether a brand-new booking may be created.
// POST /api/bookings/check-select
func (h *Handler) CheckSelect(w http.ResponseWriter, r *http.Request) {
	var req CheckSelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	proposed, err := parseInterval(req.Start, req.End)
	if err != nil {
		writeJSON(w, http.StatusOK, DecisionDTO{Allowed: false, Reason: engine.ReasonInvalidRange})
		return
	}

	all, err := h.Store.ListBookings(r.Context(), time.Time{}, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	d := engine.CheckSelectAllowed(engine.ResourceID(req.ResourceID), proposed, all)
	writeJSON(w, http.StatusOK, toDecisionDTO(d))
}

// ListBookings returns bookings, optionally limited to a [from, to) window.
// GET /api/bookings?from=2026-04-01&to=2026-04-02
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid window (use YYYY-MM-DD)", err)
		return
	}

	bookings, err := h.Store.ListBookings(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBooking runs the select check and persists on success.
// POST /api/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	proposed, perr := parseInterval(req.Start, req.End)

	all, err := h.Store.ListBookings(r.Context(), time.Time{}, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	var d engine.Decision
	if perr != nil {
		d = engine.Reject(engine.ReasonInvalidRange)
	} else {
		d = engine.CheckSelectAllowed(engine.ResourceID(req.ResourceID), proposed, all)
	}
	if !d.Allowed {
		writeJSON(w, http.StatusOK, toDecisionDTO(d))
		return
	}

	saved, err := h.Store.SaveBooking(r.Context(), engine.ResourceBooking{
		ResourceID: engine.ResourceID(req.ResourceID),
		Title:      req.Title,
		Start:      proposed.Start,
		End:        proposed.End,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save booking", err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		DecisionDTO
		Booking BookingDTO `json:"booking"`
	}{toDecisionDTO(d), toBookingDTO(saved)})
}

// MoveBooking runs the drop check and persists on success, guarded by the
// booking's version token. Reassignment changes the resource atomically.
// PUT /api/bookings/{id}/move
func (h *Handler) MoveBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req MoveBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	candidate, _, err := h.Store.GetBooking(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to load booking", err)
		return
	}

	proposed, perr := parseInterval(req.Start, req.End)

	all, err := h.Store.ListBookings(r.Context(), time.Time{}, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	var d engine.Decision
	if perr != nil {
		d = engine.Reject(engine.ReasonInvalidRange)
	} else {
		d = engine.CheckDropAllowed(candidate, proposed, engine.ResourceID(req.ResourceID), all)
	}
	if !d.Allowed {
		writeJSON(w, http.StatusOK, toDecisionDTO(d))
		return
	}

	moved := candidate
	moved.Start = proposed.Start
	moved.End = proposed.End
	if req.ResourceID != "" {
		moved.ResourceID = engine.ResourceID(req.ResourceID)
	}

	if err := h.Store.UpdateBooking(r.Context(), moved, req.Version); err != nil {
		h.writeStoreError(w, "Failed to move booking", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		DecisionDTO
		Booking BookingDTO `json:"booking"`
	}{toDecisionDTO(d), toBookingDTO(moved)})
}

// DeleteBooking cancels a booking.
// DELETE /api/bookings/{id}
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteBooking(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, "Failed to delete booking", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// WORKLOAD HANDLERS
// =============================================================================

// GetWorkload aggregates per-resource hours over a window and synthesizes
// overload warnings. Warnings are derived on every read, never stored.
// GET /api/workload?from=2026-04-01&to=2026-04-01&limit=8
func (h *Handler) GetWorkload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	fromDay := q.Get("from")
	toDay := q.Get("to")
	if fromDay == "" {
		fromDay = engine.DateKey(h.now())
	}
	if toDay == "" {
		toDay = fromDay
	}
	windowStart, err := time.Parse("2006-01-02", fromDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	windowEnd, err := time.Parse("2006-01-02", toDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}

	limit := h.Config.WorkloadLimitHours
	if raw := q.Get("limit"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	bookings, err := h.Store.ListBookings(r.Context(), windowStart, windowEnd.AddDate(0, 0, 1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}

	totals := engine.AggregateWorkload(bookings, limit)
	warnings := engine.GenerateWarnings(totals, windowStart, windowEnd)

	resp := WorkloadResponse{
		Totals:   make([]WorkloadTotalDTO, 0, len(totals)),
		Warnings: make([]WarningEventDTO, 0, len(warnings)),
	}
	for _, t := range totals {
		resp.Totals = append(resp.Totals, WorkloadTotalDTO{
			ResourceID: string(t.ResourceID),
			TotalHours: t.TotalHours.StringFixed(1),
			IsOver:     t.IsOver,
		})
	}
	sort.Slice(resp.Totals, func(i, j int) bool { return resp.Totals[i].ResourceID < resp.Totals[j].ResourceID })
	for _, wg := range warnings {
		resp.Warnings = append(resp.Warnings, toWarningDTO(wg))
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// SeedVisits creates the day-start snapshot: one Unvisited row per roster
// user. Idempotent - existing rows are never touched.
// POST /api/visits/seed
func (h *Handler) SeedVisits(w http.ResponseWriter, r *http.Request) {
	var req SeedVisitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date := req.Date
	if date == "" {
		date = engine.DateKey(h.now())
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	inserted, err := h.Store.SeedVisits(r.Context(), engine.BuildInitialVisits(users, date))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed visits", err)
		return
	}
	writeJSON(w, http.StatusOK, SeedVisitsResponse{Date: date, Inserted: inserted})
}

// ListVisits returns one day's visits.
// GET /api/visits?date=2026-04-01
func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = engine.DateKey(h.now())
	}

	visits, err := h.Store.ListVisitsByDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list visits", err)
		return
	}

	dtos := make([]VisitDTO, len(visits))
	for i, v := range visits {
		dtos[i] = toVisitDTO(v, 0)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CheckInVisit applies the check-in transition.
// POST /api/visits/{id}/check-in
func (h *Handler) CheckInVisit(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, "check in", func(v engine.AttendanceVisit, at time.Time) (engine.AttendanceVisit, bool) {
		return engine.CheckIn(v, at)
	})
}

// CheckOutVisit applies the check-out transition. A same-day check-out is
// only permitted before the facility closing time.
// POST /api/visits/{id}/check-out
func (h *Handler) CheckOutVisit(w http.ResponseWriter, r *http.Request) {
	h.applyTransition(w, r, "check out", func(v engine.AttendanceVisit, at time.Time) (engine.AttendanceVisit, bool) {
		if v.Date == engine.DateKey(at) && !engine.IsBeforeCloseTime(at, h.Config.CloseTime) {
			return v, false
		}
		return engine.CheckOut(v, at)
	})
}

// applyTransition loads a visit, applies one pure state-machine step, and
// persists it under the version token from the request.
func (h *Handler) applyTransition(w http.ResponseWriter, r *http.Request, action string,
	step func(engine.AttendanceVisit, time.Time) (engine.AttendanceVisit, bool)) {

	id := chi.URLParam(r, "id")

	var req AttendanceActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	at := h.now()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid timestamp (use RFC3339)", err)
			return
		}
		at = parsed
	}

	visit, version, err := h.Store.GetVisit(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to load visit", err)
		return
	}
	if req.Version != 0 {
		version = req.Version
	}

	updated, ok := step(visit, at)
	if !ok {
		h.writeStoreError(w, fmt.Sprintf("Cannot %s", action),
			&engine.TransitionError{VisitID: id, From: visit.Status, Action: action})
		return
	}

	if err := h.Store.UpdateVisit(r.Context(), updated, version); err != nil {
		h.writeStoreError(w, "Failed to update visit", err)
		return
	}
	writeJSON(w, http.StatusOK, toVisitDTO(updated, version+1))
}

// MarkAbsent records the Absent branch: evaluates eligibility against the
// user's monthly count, then rewrites the visit into the terminal state.
// Same-day absences follow the closing-time gate like check-outs.
// POST /api/visits/{id}/absent
func (h *Handler) MarkAbsent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req MarkAbsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	visit, version, err := h.Store.GetVisit(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to load visit", err)
		return
	}
	if req.Version != 0 {
		version = req.Version
	}

	now := h.now()
	if visit.Date == engine.DateKey(now) && !engine.IsBeforeCloseTime(now, h.Config.CloseTime) {
		h.writeStoreError(w, "Cannot mark absent after closing time",
			&engine.TransitionError{VisitID: id, From: visit.Status, Action: "mark absent"})
		return
	}
	if !engine.CanMarkAbsent(&visit) {
		h.writeStoreError(w, "Cannot mark absent",
			&engine.TransitionError{VisitID: id, From: visit.Status, Action: "mark absent"})
		return
	}

	user, err := h.Store.GetUser(r.Context(), visit.UserCode)
	if err != nil {
		h.writeStoreError(w, "Failed to load user", err)
		return
	}

	eligible := engine.ComputeAbsenceEligibility(user, req.MorningContacted, req.EveningChecked, h.Config.AbsenceMonthlyLimit)
	updated := engine.BuildAbsentVisit(visit, engine.AbsenceInput{
		MorningContacted: req.MorningContacted,
		MorningMethod:    req.MorningMethod,
		EveningChecked:   req.EveningChecked,
		EveningNote:      req.EveningNote,
		Eligible:         eligible,
	})

	if err := h.Store.UpdateVisit(r.Context(), updated, version); err != nil {
		h.writeStoreError(w, "Failed to update visit", err)
		return
	}
	writeJSON(w, http.StatusOK, toVisitDTO(updated, version+1))
}

// GetDiscrepancies counts under-delivered visits for a day.
// GET /api/visits/discrepancies?date=2026-04-01&threshold=0.7
func (h *Handler) GetDiscrepancies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		date = engine.DateKey(h.now())
	}

	threshold := h.Config.DiscrepancyThreshold
	if raw := q.Get("threshold"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%f", &threshold); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid threshold", err)
			return
		}
	}

	visits, err := h.Store.ListVisitsByDate(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list visits", err)
		return
	}
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	writeJSON(w, http.StatusOK, DiscrepancyResponse{
		Date:      date,
		Threshold: threshold,
		Count:     engine.CountDiscrepancies(visits, users, threshold),
	})
}

// =============================================================================
// ROSTER HANDLERS
// =============================================================================

// ListUsers returns the facility roster.
// GET /api/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveUser upserts a roster entry.
// PUT /api/users/{code}
func (h *Handler) SaveUser(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req UserDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.UserCode = code

	if err := h.Store.SaveUser(r.Context(), fromUserDTO(req)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

// GetMonthlySummary returns one month of daily records with the cap
// enforced, plus the summary fold over the enforced view.
// GET /api/records/summary?month=2026-04
func (h *Handler) GetMonthlySummary(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if _, _, ok := engine.MonthWindow(month, nil); !ok {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", engine.ErrInvalidInput)
		return
	}

	records, err := h.Store.ListDailyRecordsByMonth(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}

	enforced := engine.EnforceAbsenceSupportLimit(records, h.Config.AbsenceMonthlyLimit)
	summary := engine.ComputeMonthlySummary(enforced)

	resp := MonthlySummaryDTO{
		Month:                  month,
		PresentDays:            summary.PresentDays,
		AbsentDays:             summary.AbsentDays,
		OnlineDays:             summary.OnlineDays,
		TransportOutboundCount: summary.TransportOutboundCount,
		TransportInboundCount:  summary.TransportInboundCount,
		MealAddonCount:         summary.MealAddonCount,
		BathingAddonCount:      summary.BathingAddonCount,
		OtherAddonCounts:       summary.OtherAddonCounts,
		AbsenceSupportCount:    summary.AbsenceSupportCount,
		TotalHours:             summary.TotalHours.StringFixed(2),
		Records:                make([]DailyRecordDTO, len(enforced)),
	}
	for i, rec := range enforced {
		resp.Records[i] = toDailyRecordDTO(rec, 0)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpsertDailyRecord creates or rewrites one reporting day, then re-runs the
// cap enforcer over the whole month and persists the enforced snapshot.
// POST /api/records
func (h *Handler) UpsertDailyRecord(w http.ResponseWriter, r *http.Request) {
	var req UpsertDailyRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	saved, err := h.Store.SaveDailyRecord(r.Context(), engine.DailyCareRecord{
		Date:                  req.Date,
		Status:                engine.DailyStatus(req.Status),
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		TransportOutbound:     req.TransportOutbound,
		TransportInbound:      req.TransportInbound,
		MealAddon:             req.MealAddon,
		BathingAddon:          req.BathingAddon,
		OtherAddons:           req.OtherAddons,
		AbsenceSupportApplied: req.AbsenceSupportApplied,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save record", err)
		return
	}

	// Recompute the month from scratch so the cap invariant holds globally.
	month := day.Format("2006-01")
	records, err := h.Store.ListDailyRecordsByMonth(r.Context(), month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}
	enforced := engine.EnforceAbsenceSupportLimit(records, h.Config.AbsenceMonthlyLimit)
	if err := h.Store.ReplaceDailyRecords(r.Context(), enforced); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to enforce monthly cap", err)
		return
	}

	// Return the enforced view of the saved day.
	for _, rec := range enforced {
		if rec.ID == saved.ID {
			saved = rec
			break
		}
	}
	writeJSON(w, http.StatusCreated, toDailyRecordDTO(saved, 0))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func parseInterval(start, end string) (engine.Interval, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return engine.Interval{}, fmt.Errorf("%w: bad start: %v", engine.ErrInvalidInput, err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return engine.Interval{}, fmt.Errorf("%w: bad end: %v", engine.ErrInvalidInput, err)
	}
	return engine.Interval{Start: s, End: e}, nil
}

func parseWindow(from, to string) (time.Time, time.Time, error) {
	var f, t time.Time
	var err error
	if from != "" {
		if f, err = time.Parse("2006-01-02", from); err != nil {
			return f, t, err
		}
	}
	if to != "" {
		if t, err = time.Parse("2006-01-02", to); err != nil {
			return f, t, err
		}
		t = t.AddDate(0, 0, 1) // window end is exclusive
	}
	return f, t, nil
}

// writeStoreError maps store/domain errors to HTTP status codes.
func (h *Handler) writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, engine.ErrVersionConflict), errors.Is(err, engine.ErrIllegalTransition):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
