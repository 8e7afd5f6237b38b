package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasutakesougo/careops-engine/engine"
	"github.com/yasutakesougo/careops-engine/store/sqlite"
)

// testServer wires a real in-memory store behind the router with the clock
// pinned to mid-morning, well before closing time.
func testServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, DefaultConfig())
	h.now = func() time.Time {
		return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	}

	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, h
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func rfc(hour, min int) string {
	return time.Date(2026, 4, 1, hour, min, 0, 0, time.UTC).Format(time.RFC3339)
}

// =============================================================================
// SCHEDULING
// =============================================================================

func TestCreateBooking_ThenConflictingSelectRefused(t *testing.T) {
	srv, _ := testServer(t)

	var created struct {
		DecisionDTO
		Booking BookingDTO `json:"booking"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/bookings", CreateBookingRequest{
		ResourceID: "staff-1",
		Title:      "morning shift",
		Start:      rfc(9, 0),
		End:        rfc(12, 0),
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, created.Allowed)
	assert.NotEmpty(t, created.Booking.ID)

	// An overlapping range on the same resource is refused.
	var decision DecisionDTO
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/bookings/check-select", CheckSelectRequest{
		ResourceID: "staff-1",
		Start:      rfc(11, 0),
		End:        rfc(13, 0),
	}, &decision)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decision.Allowed)
	assert.Equal(t, engine.ReasonDuplicateRange, decision.Reason)

	// Back-to-back is fine: the window is half-open.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/bookings/check-select", CheckSelectRequest{
		ResourceID: "staff-1",
		Start:      rfc(12, 0),
		End:        rfc(14, 0),
	}, &decision)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decision.Allowed)
}

func TestMoveBooking_StaleVersionConflicts(t *testing.T) {
	srv, _ := testServer(t)

	var created struct {
		Booking BookingDTO `json:"booking"`
	}
	doJSON(t, http.MethodPost, srv.URL+"/api/bookings", CreateBookingRequest{
		ResourceID: "staff-1", Title: "shift", Start: rfc(9, 0), End: rfc(12, 0),
	}, &created)

	url := fmt.Sprintf("%s/api/bookings/%s/move", srv.URL, created.Booking.ID)

	resp := doJSON(t, http.MethodPut, url, MoveBookingRequest{
		Start: rfc(13, 0), End: rfc(15, 0), Version: 1,
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Replaying with the already-consumed token is a conflict.
	resp = doJSON(t, http.MethodPut, url, MoveBookingRequest{
		Start: rfc(14, 0), End: rfc(16, 0), Version: 1,
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCheckDrop_MalformedRangeIsARejection(t *testing.T) {
	srv, _ := testServer(t)

	var created struct {
		Booking BookingDTO `json:"booking"`
	}
	doJSON(t, http.MethodPost, srv.URL+"/api/bookings", CreateBookingRequest{
		ResourceID: "staff-1", Title: "shift", Start: rfc(9, 0), End: rfc(12, 0),
	}, &created)

	var decision DecisionDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/bookings/check-drop", CheckDropRequest{
		BookingID: created.Booking.ID,
		Start:     "not-a-timestamp",
		End:       rfc(12, 0),
	}, &decision)

	require.Equal(t, http.StatusOK, resp.StatusCode, "a bad range is a result, not a transport failure")
	assert.False(t, decision.Allowed)
	assert.Equal(t, engine.ReasonInvalidRange, decision.Reason)
}

// =============================================================================
// WORKLOAD
// =============================================================================

func TestGetWorkload_FlagsOverloadedResource(t *testing.T) {
	srv, _ := testServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/bookings", CreateBookingRequest{
		ResourceID: "staff-1", Title: "long shift", Start: rfc(8, 0), End: rfc(17, 0),
	}, nil)
	doJSON(t, http.MethodPost, srv.URL+"/api/bookings", CreateBookingRequest{
		ResourceID: "staff-2", Title: "short shift", Start: rfc(9, 0), End: rfc(11, 0),
	}, nil)

	var workload WorkloadResponse
	resp := doJSON(t, http.MethodGet,
		srv.URL+"/api/workload?from=2026-04-01&to=2026-04-01", nil, &workload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, workload.Totals, 2)
	assert.Equal(t, "9.0", workload.Totals[0].TotalHours)
	assert.True(t, workload.Totals[0].IsOver)
	assert.Equal(t, "2.0", workload.Totals[1].TotalHours)
	assert.False(t, workload.Totals[1].IsOver)

	require.Len(t, workload.Warnings, 1)
	assert.Equal(t, "staff-1", workload.Warnings[0].ResourceID)
	assert.Contains(t, workload.Warnings[0].Title, "9.0")
	assert.True(t, workload.Warnings[0].IsBackground)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func seedOneUser(t *testing.T, srv *httptest.Server) VisitDTO {
	t.Helper()

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/users/U001", UserDTO{
		Name:            "Sato",
		StandardMinutes: 300,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var seeded SeedVisitsResponse
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/visits/seed",
		SeedVisitsRequest{Date: "2026-04-01"}, &seeded)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, seeded.Inserted)

	var visits []VisitDTO
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/visits?date=2026-04-01", nil, &visits)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, visits, 1)
	return visits[0]
}

func TestAttendanceFlow_CheckInThenOut(t *testing.T) {
	srv, _ := testServer(t)
	visit := seedOneUser(t, srv)

	var checkedIn VisitDTO
	resp := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/visits/%s/check-in", srv.URL, visit.ID),
		AttendanceActionRequest{At: rfc(9, 0), Version: 1}, &checkedIn)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(engine.StatusCheckedIn), checkedIn.Status)

	var checkedOut VisitDTO
	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/visits/%s/check-out", srv.URL, visit.ID),
		AttendanceActionRequest{At: rfc(15, 30), Version: checkedIn.Version}, &checkedOut)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(engine.StatusCheckedOut), checkedOut.Status)
	assert.Equal(t, 390, checkedOut.ProvidedMinutes)

	// The state is terminal: a second check-out is refused.
	resp = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/visits/%s/check-out", srv.URL, visit.ID),
		AttendanceActionRequest{At: rfc(16, 0), Version: checkedOut.Version}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCheckOut_RefusedAtClosingTime(t *testing.T) {
	srv, _ := testServer(t)
	visit := seedOneUser(t, srv)

	doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/visits/%s/check-in", srv.URL, visit.ID),
		AttendanceActionRequest{At: rfc(9, 0), Version: 1}, nil)

	// Same-day check-out at exactly 17:00 is no longer before close.
	resp := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/visits/%s/check-out", srv.URL, visit.ID),
		AttendanceActionRequest{At: rfc(17, 0), Version: 2}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestMarkAbsent_EligibilityFollowsMonthlyCount(t *testing.T) {
	srv, _ := testServer(t)
	visit := seedOneUser(t, srv)

	var absent VisitDTO
	resp := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/visits/%s/absent", srv.URL, visit.ID),
		MarkAbsentRequest{
			MorningContacted: true,
			MorningMethod:    "phone",
			EveningChecked:   true,
			Version:          1,
		}, &absent)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(engine.StatusAbsent), absent.Status)
	assert.True(t, absent.AbsenceAddonClaimable)
	assert.Zero(t, absent.ProvidedMinutes)
	assert.False(t, absent.TransportTo)
}

func TestMarkAbsent_UserAtCapNotClaimable(t *testing.T) {
	srv, _ := testServer(t)

	doJSON(t, http.MethodPut, srv.URL+"/api/users/U001", UserDTO{
		Name:                    "Sato",
		AbsenceClaimedThisMonth: 2,
	}, nil)
	doJSON(t, http.MethodPost, srv.URL+"/api/visits/seed",
		SeedVisitsRequest{Date: "2026-04-01"}, nil)

	var visits []VisitDTO
	doJSON(t, http.MethodGet, srv.URL+"/api/visits?date=2026-04-01", nil, &visits)
	require.Len(t, visits, 1)

	var absent VisitDTO
	resp := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/visits/%s/absent", srv.URL, visits[0].ID),
		MarkAbsentRequest{
			MorningContacted: true,
			EveningChecked:   true,
			Version:          1,
		}, &absent)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(engine.StatusAbsent), absent.Status)
	assert.False(t, absent.AbsenceAddonClaimable, "two claims already consumed this month")
}

func TestGetDiscrepancies(t *testing.T) {
	srv, _ := testServer(t)
	visit := seedOneUser(t, srv)

	// Check in at 09:00 and out at 12:00: 180 provided vs 300*0.7=210 cutoff.
	doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/visits/%s/check-in", srv.URL, visit.ID),
		AttendanceActionRequest{At: rfc(9, 0), Version: 1}, nil)
	doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/visits/%s/check-out", srv.URL, visit.ID),
		AttendanceActionRequest{At: rfc(12, 0), Version: 2}, nil)

	var report DiscrepancyResponse
	resp := doJSON(t, http.MethodGet,
		srv.URL+"/api/visits/discrepancies?date=2026-04-01", nil, &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, report.Count)
}

// =============================================================================
// REPORTING
// =============================================================================

func TestUpsertDailyRecord_EnforcesMonthlyCap(t *testing.T) {
	srv, _ := testServer(t)

	for _, date := range []string{"2026-04-01", "2026-04-08", "2026-04-15"} {
		var saved DailyRecordDTO
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/records", UpsertDailyRecordRequest{
			Date:                  date,
			Status:                string(engine.DailyAbsent),
			AbsenceSupportApplied: true,
		}, &saved)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var summary MonthlySummaryDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/records/summary?month=2026-04", nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 3, summary.AbsentDays)
	assert.Equal(t, 2, summary.AbsenceSupportCount, "third claim demoted by the cap")
	require.Len(t, summary.Records, 3)
	assert.True(t, summary.Records[0].AbsenceSupportApplied)
	assert.True(t, summary.Records[1].AbsenceSupportApplied)
	assert.False(t, summary.Records[2].AbsenceSupportApplied)
	assert.True(t, summary.Records[2].AbsenceSupportDisabled)
}

func TestUpsertDailyRecord_RewriteEchoesEnforcedFlags(t *testing.T) {
	srv, _ := testServer(t)

	for _, date := range []string{"2026-04-01", "2026-04-08", "2026-04-15"} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/records", UpsertDailyRecordRequest{
			Date:                  date,
			Status:                string(engine.DailyAbsent),
			AbsenceSupportApplied: true,
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// Rewriting the last day re-claims the add-on, but the month's two
	// slots are already consumed: the response must echo the enforced
	// (demoted) flags, not the client's raw claim.
	var saved DailyRecordDTO
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/records", UpsertDailyRecordRequest{
		Date:                  "2026-04-15",
		Status:                string(engine.DailyAbsent),
		AbsenceSupportApplied: true,
	}, &saved)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.AbsenceSupportApplied, "cap is full, claim must come back demoted")
	assert.True(t, saved.AbsenceSupportDisabled)
}

func TestGetWorkload_NoBookingsYieldsEmptyTotals(t *testing.T) {
	srv, _ := testServer(t)

	var workload WorkloadResponse
	resp := doJSON(t, http.MethodGet,
		srv.URL+"/api/workload?from=2026-04-01&to=2026-04-01", nil, &workload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Both lists serialize as [], never null.
	assert.NotNil(t, workload.Totals)
	assert.Empty(t, workload.Totals)
	assert.NotNil(t, workload.Warnings)
}

func TestGetMonthlySummary_TotalsHours(t *testing.T) {
	srv, _ := testServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/api/records", UpsertDailyRecordRequest{
		Date:      "2026-04-01",
		Status:    string(engine.DailyPresent),
		StartTime: "09:00",
		EndTime:   "16:00",
		MealAddon: true,
	}, nil)
	doJSON(t, http.MethodPost, srv.URL+"/api/records", UpsertDailyRecordRequest{
		Date:      "2026-04-02",
		Status:    string(engine.DailyOnline),
		StartTime: "10:00",
		EndTime:   "12:00",
	}, nil)

	var summary MonthlySummaryDTO
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/records/summary?month=2026-04", nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 1, summary.PresentDays)
	assert.Equal(t, 1, summary.OnlineDays)
	assert.Equal(t, 1, summary.MealAddonCount)
	assert.Equal(t, "9.00", summary.TotalHours)
}

func TestGetMonthlySummary_BadMonthKey(t *testing.T) {
	srv, _ := testServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/records/summary?month=April", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
