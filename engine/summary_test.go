package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yasutakesougo/careops-engine/engine"
)

func visitWithMinutes(code engine.UserCode, minutes int) engine.AttendanceVisit {
	return engine.AttendanceVisit{
		UserCode:        code,
		Date:            "2026-04-01",
		Status:          engine.StatusCheckedOut,
		ProvidedMinutes: minutes,
	}
}

// =============================================================================
// DISCREPANCY DETECTION
// =============================================================================

func TestCountDiscrepancies_StrictBoundary(t *testing.T) {
	// Contracted 300 minutes at a 0.7 threshold puts the cutoff at exactly
	// 210: one minute under is flagged, landing on the cutoff is not.
	users := []engine.AttendanceUser{{UserCode: "U001", StandardMinutes: 300}}

	under := []engine.AttendanceVisit{visitWithMinutes("U001", 209)}
	assert.Equal(t, 1, engine.CountDiscrepancies(under, users, 0.7))

	exact := []engine.AttendanceVisit{visitWithMinutes("U001", 210)}
	assert.Equal(t, 0, engine.CountDiscrepancies(exact, users, 0.7))
}

func TestCountDiscrepancies_ExcludesZeroAndUnknown(t *testing.T) {
	users := []engine.AttendanceUser{{UserCode: "U001", StandardMinutes: 300}}

	visits := []engine.AttendanceVisit{
		visitWithMinutes("U001", 0),    // not yet checked out
		visitWithMinutes("U999", 30),   // not on the roster
		visitWithMinutes("U001", 100),  // genuinely short
	}

	assert.Equal(t, 1, engine.CountDiscrepancies(visits, users, 0.7))
}

// =============================================================================
// HOURS CALCULATION
// =============================================================================

func TestCalculateHours(t *testing.T) {
	cases := []struct {
		name   string
		status engine.DailyStatus
		start  string
		end    string
		want   string
	}{
		{"standard day", engine.DailyPresent, "09:00", "16:30", "7.5"},
		{"two decimal rounding", engine.DailyPresent, "09:00", "09:50", "0.83"},
		{"absent day is zero", engine.DailyAbsent, "09:00", "16:00", "0"},
		{"end before start is zero", engine.DailyPresent, "16:00", "09:00", "0"},
		{"equal times is zero", engine.DailyPresent, "09:00", "09:00", "0"},
		{"unparseable start is zero", engine.DailyPresent, "morning", "16:00", "0"},
		{"missing end is zero", engine.DailyPresent, "09:00", "", "0"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := engine.CalculateHours(c.status, c.start, c.end)
			assert.Equal(t, c.want, got.String())
		})
	}
}

// =============================================================================
// MONTHLY FOLD
// =============================================================================

func TestComputeMonthlySummary(t *testing.T) {
	records := []engine.DailyCareRecord{
		{
			Date: "2026-04-01", Status: engine.DailyPresent,
			StartTime: "09:00", EndTime: "16:00",
			TransportOutbound: true, TransportInbound: true,
			MealAddon: true, BathingAddon: true,
			OtherAddons: map[string]bool{"sputum_care": true, "night_support": false},
		},
		{
			Date: "2026-04-02", Status: engine.DailyOnline,
			StartTime: "10:00", EndTime: "12:00",
		},
		{
			Date: "2026-04-03", Status: engine.DailyAbsent,
			AbsenceSupportApplied: true,
		},
		{
			Date: "2026-04-04", Status: engine.DailyPresent,
			StartTime: "09:00", EndTime: "15:30",
			MealAddon:   true,
			OtherAddons: map[string]bool{"sputum_care": true},
		},
	}

	s := engine.ComputeMonthlySummary(records)

	assert.Equal(t, 2, s.PresentDays)
	assert.Equal(t, 1, s.AbsentDays)
	assert.Equal(t, 1, s.OnlineDays)
	assert.Equal(t, 1, s.TransportOutboundCount)
	assert.Equal(t, 1, s.TransportInboundCount)
	assert.Equal(t, 2, s.MealAddonCount)
	assert.Equal(t, 1, s.BathingAddonCount)
	assert.Equal(t, 1, s.AbsenceSupportCount)
	assert.Equal(t, 2, s.OtherAddonCounts["sputum_care"], "only truthy entries count")
	assert.Zero(t, s.OtherAddonCounts["night_support"])

	// 7h + 2h + 0h + 6.5h
	assert.Equal(t, "15.5", s.TotalHours.String())
}

func TestComputeMonthlySummary_Empty(t *testing.T) {
	s := engine.ComputeMonthlySummary(nil)

	assert.Zero(t, s.PresentDays)
	assert.NotNil(t, s.OtherAddonCounts)
	assert.True(t, s.TotalHours.IsZero())
}

func TestComputeMonthlySummary_UnknownStatusSkipped(t *testing.T) {
	records := []engine.DailyCareRecord{
		{Date: "2026-04-01", Status: engine.DailyStatus("holiday")},
	}

	s := engine.ComputeMonthlySummary(records)

	assert.Zero(t, s.PresentDays+s.AbsentDays+s.OnlineDays)
}
