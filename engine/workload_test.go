package engine_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yasutakesougo/careops-engine/engine"
)

func limitHours(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

func TestAggregateWorkload_SumsPerResourceAndRoundsToOneDecimal(t *testing.T) {
	// GIVEN: staff-1 booked 9 hours total, staff-2 booked 2 hours
	// WHEN: aggregating with the default 8h limit
	// THEN: staff-1 totals 9.0 and is over, staff-2 totals 2.0 and is not

	bookings := []engine.ResourceBooking{
		booking("b1", "staff-1", 9, 13),
		booking("b2", "staff-1", 13, 18),
		booking("b3", "staff-2", 9, 11),
	}

	totals := engine.AggregateWorkload(bookings, limitHours(8))

	s1 := totals["staff-1"]
	if s1.TotalHours.StringFixed(1) != "9.0" {
		t.Errorf("staff-1 total: expected 9.0, got %s", s1.TotalHours.StringFixed(1))
	}
	if !s1.IsOver {
		t.Error("staff-1 at 9.0h should be over an 8h limit")
	}

	s2 := totals["staff-2"]
	if s2.TotalHours.StringFixed(1) != "2.0" {
		t.Errorf("staff-2 total: expected 2.0, got %s", s2.TotalHours.StringFixed(1))
	}
	if s2.IsOver {
		t.Error("staff-2 at 2.0h should not be over")
	}
}

func TestAggregateWorkload_RoundsBeforeComparing(t *testing.T) {
	// 8h02m24s = 8.04h rounds to 8.0, which is NOT strictly over 8.
	justUnder := engine.ResourceBooking{
		ID:         "b1",
		ResourceID: "staff-1",
		Start:      at(9, 0),
		End:        at(9, 0).Add(8*time.Hour + 2*time.Minute + 24*time.Second),
	}
	totals := engine.AggregateWorkload([]engine.ResourceBooking{justUnder}, limitHours(8))
	if totals["staff-1"].IsOver {
		t.Errorf("8.04h rounds to 8.0 and must not be over, got total %s",
			totals["staff-1"].TotalHours.String())
	}

	// 8h03m36s = 8.06h rounds to 8.1, which IS over.
	justOver := justUnder
	justOver.End = at(9, 0).Add(8*time.Hour + 3*time.Minute + 36*time.Second)
	totals = engine.AggregateWorkload([]engine.ResourceBooking{justOver}, limitHours(8))
	if !totals["staff-1"].IsOver {
		t.Errorf("8.06h rounds to 8.1 and must be over, got total %s",
			totals["staff-1"].TotalHours.String())
	}
}

func TestAggregateWorkload_ExactlyAtLimitIsNotOver(t *testing.T) {
	bookings := []engine.ResourceBooking{booking("b1", "staff-1", 9, 17)} // 8.0h
	totals := engine.AggregateWorkload(bookings, limitHours(8))
	if totals["staff-1"].IsOver {
		t.Error("exactly 8.0h against an 8h limit is not over (strict compare)")
	}
}

func TestAggregateWorkload_MalformedRecordsDegradeToZero(t *testing.T) {
	inverted := booking("b1", "staff-1", 15, 9) // end before start
	bookings := []engine.ResourceBooking{
		inverted,
		booking("b2", "staff-1", 9, 11),
	}
	totals := engine.AggregateWorkload(bookings, limitHours(8))
	if totals["staff-1"].TotalHours.StringFixed(1) != "2.0" {
		t.Errorf("negative duration must clamp to zero, got %s",
			totals["staff-1"].TotalHours.StringFixed(1))
	}
}

func TestAggregateWorkload_SkipsBackgroundAndEmptyRecords(t *testing.T) {
	base := []engine.ResourceBooking{booking("b1", "staff-1", 9, 11)}

	marker := booking("warn", "staff-1", 0, 23)
	marker.IsBackground = true
	empty := engine.ResourceBooking{ID: "e1", ResourceID: "staff-1"}

	with := engine.AggregateWorkload(append(base, marker, empty), limitHours(8))
	without := engine.AggregateWorkload(base, limitHours(8))

	if !with["staff-1"].TotalHours.Equal(without["staff-1"].TotalHours) {
		t.Errorf("background/empty records must not change totals: %s vs %s",
			with["staff-1"].TotalHours.String(), without["staff-1"].TotalHours.String())
	}
}

func TestGenerateWarnings_OnePerOverloadedResource(t *testing.T) {
	// GIVEN: staff-1 at 9.0h (over), staff-2 at 2.0h (under)
	// WHEN: generating warnings for the day window
	// THEN: one all-day marker for staff-1, titled with 9.0h

	bookings := []engine.ResourceBooking{
		booking("b1", "staff-1", 9, 13),
		booking("b2", "staff-1", 13, 18),
		booking("b3", "staff-2", 9, 11),
	}
	totals := engine.AggregateWorkload(bookings, limitHours(8))

	day := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	warnings := engine.GenerateWarnings(totals, day, day)

	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	w := warnings[0]
	if w.ResourceID != "staff-1" {
		t.Errorf("expected warning for staff-1, got %s", w.ResourceID)
	}
	if !strings.Contains(w.Title, "9.0h") {
		t.Errorf("title should embed the rounded total, got %q", w.Title)
	}
	if !w.AllDay || !w.IsBackground {
		t.Error("warnings must be all-day background markers")
	}
	if !w.End.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("warning should span to the next day, got end %v", w.End)
	}
}

func TestGenerateWarnings_IDsAreDeterministic(t *testing.T) {
	bookings := []engine.ResourceBooking{
		booking("b1", "staff-1", 8, 18),
	}
	totals := engine.AggregateWorkload(bookings, limitHours(8))

	day := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	first := engine.GenerateWarnings(totals, day, day)
	second := engine.GenerateWarnings(totals, day, day)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one warning per run, got %d and %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Errorf("same inputs must yield the same id: %q vs %q", first[0].ID, second[0].ID)
	}
	want := "warning-staff-1-" // suffix is the window start epoch millis
	if !strings.HasPrefix(first[0].ID, want) {
		t.Errorf("id should start with %q, got %q", want, first[0].ID)
	}
}
