package schedule

import (
	"testing"
	"time"
)

func TestSlotsBusinessHour(t *testing.T) {
	slots := Slots("09:00", "10:00")
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %v", len(slots), slots)
	}
	if slots[0] != "9:00 AM - 9:30 AM" || slots[1] != "9:30 AM - 10:00 AM" {
		t.Fatalf("unexpected slot labels: %v", slots)
	}
}

func TestSlotsAfternoonLabels(t *testing.T) {
	slots := Slots("13:30", "15:00")
	want := []string{"1:30 PM - 2:00 PM", "2:00 PM - 2:30 PM", "2:30 PM - 3:00 PM"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d: %v", len(want), len(slots), slots)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Fatalf("slot %d: expected %q, got %q", i, want[i], slots[i])
		}
	}
}

func TestSlotsTruncatedTail(t *testing.T) {
	slots := Slots("09:00", "10:15")
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d: %v", len(slots), slots)
	}
	if slots[2] != "10:00 AM - 10:15 AM" {
		t.Fatalf("expected truncated final slot, got %q", slots[2])
	}
}

func TestSlotsEmptyWindow(t *testing.T) {
	if slots := Slots("10:00", "10:00"); len(slots) != 0 {
		t.Fatalf("expected no slots for empty window, got %v", slots)
	}
	if slots := Slots("17:00", "09:00"); len(slots) != 0 {
		t.Fatalf("expected no slots for inverted window, got %v", slots)
	}
	if slots := Slots("not-a-time", "10:00"); len(slots) != 0 {
		t.Fatalf("expected no slots for unparsable start, got %v", slots)
	}
}

func TestSlotStartRoundTrip(t *testing.T) {
	for _, label := range Slots("09:00", "17:00") {
		if _, err := SlotStart(label); err != nil {
			t.Fatalf("SlotStart(%q): %v", label, err)
		}
	}
	start, err := SlotStart("2:00 PM - 2:30 PM")
	if err != nil {
		t.Fatalf("SlotStart error: %v", err)
	}
	if start != 14*time.Hour {
		t.Fatalf("expected 14h, got %v", start)
	}
	if _, err := SlotStart("garbage"); err == nil {
		t.Fatal("expected error for malformed label")
	}
}

func TestBookableDatesFiltersWorkingDays(t *testing.T) {
	// 2024-06-10 is a Monday.
	now := time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)
	dates := BookableDates([]string{"Monday", "Wednesday"}, 7, 21, now)
	if len(dates) != 6 {
		t.Fatalf("expected 6 dates in a 21-day window, got %d", len(dates))
	}
	for _, d := range dates {
		wd := d.Date.Weekday()
		if wd != time.Monday && wd != time.Wednesday {
			t.Fatalf("date %s falls on %s, outside the working-day set", d.ISO, wd)
		}
	}
	if dates[0].ISO != "2024-06-10" {
		t.Fatalf("expected today included first, got %s", dates[0].ISO)
	}
	if dates[1].ISO != "2024-06-12" {
		t.Fatalf("expected Wednesday next, got %s", dates[1].ISO)
	}
}

func TestBookableDatesEmptySetFallback(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	dates := BookableDates(nil, 7, 30, now)
	if len(dates) != 7 {
		t.Fatalf("expected 7 consecutive dates, got %d", len(dates))
	}
	for i, d := range dates {
		want := now.AddDate(0, 0, i).Format("2006-01-02")
		if d.ISO != want {
			t.Fatalf("date %d: expected %s, got %s", i, want, d.ISO)
		}
	}
}

func TestBookableDatesLookaheadBound(t *testing.T) {
	// Sunday-only provider scanned over a window with exactly one Sunday.
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) // Monday
	dates := BookableDates([]string{"Sunday"}, 7, 7, now)
	if len(dates) != 1 {
		t.Fatalf("expected 1 Sunday inside lookahead, got %d", len(dates))
	}
	if dates[0].ISO != "2024-06-16" {
		t.Fatalf("expected 2024-06-16, got %s", dates[0].ISO)
	}
	if got := BookableDates([]string{"Monday"}, 0, 7, now); got != nil {
		t.Fatalf("expected nil for zero horizon, got %v", got)
	}
}

func TestBookableDateDisplayFields(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	dates := BookableDates([]string{"Monday"}, 1, 7, now)
	if len(dates) != 1 {
		t.Fatalf("expected 1 date, got %d", len(dates))
	}
	d := dates[0]
	if d.Weekday != "Mon" || d.Day != 10 || d.Month != "June" {
		t.Fatalf("unexpected display fields: %+v", d)
	}
}

func TestValidateWindow(t *testing.T) {
	if err := ValidateWindow("09:00", "17:00"); err != nil {
		t.Fatalf("valid window rejected: %v", err)
	}
	if err := ValidateWindow("17:00", "09:00"); err == nil {
		t.Fatal("inverted window accepted")
	}
	if err := ValidateWindow("09:00", "09:00"); err == nil {
		t.Fatal("empty window accepted")
	}
	if err := ValidateWindow("9am", "17:00"); err == nil {
		t.Fatal("unparsable start accepted")
	}
}

func TestValidWeekday(t *testing.T) {
	for _, name := range []string{"Sunday", "Monday", "Saturday"} {
		if !ValidWeekday(name) {
			t.Fatalf("%s rejected", name)
		}
	}
	for _, name := range []string{"monday", "Mon", "Funday", ""} {
		if ValidWeekday(name) {
			t.Fatalf("%q accepted", name)
		}
	}
}

func TestNormalizeUTCDayOffsetRoundTrip(t *testing.T) {
	// The same calendar date sent from UTC-11 and UTC+12 must normalize to the
	// same stored day and re-display identically.
	west := time.Date(2024, 6, 10, 23, 0, 0, 0, time.FixedZone("W", -11*3600))
	east := time.Date(2024, 6, 11, 1, 30, 0, 0, time.FixedZone("E", 12*3600))

	for _, in := range []time.Time{west, east} {
		got := NormalizeUTCDay(in)
		if got.Format("2006-01-02") != in.UTC().Format("2006-01-02") {
			t.Fatalf("normalization moved %v across a day boundary to %v", in, got)
		}
		if got.Hour() != 12 || got.Location() != time.UTC {
			t.Fatalf("expected UTC noon, got %v", got)
		}
	}
}

func TestSameUTCDay(t *testing.T) {
	a := time.Date(2024, 6, 10, 0, 0, 1, 0, time.UTC)
	b := time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC)
	c := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	if !SameUTCDay(a, b) {
		t.Fatal("expected same UTC day")
	}
	if SameUTCDay(b, c) {
		t.Fatal("expected different UTC days")
	}
}

func TestWeekdayName(t *testing.T) {
	// 23:00 UTC-2 is already the next day in UTC; the weekday must follow UTC.
	local := time.Date(2024, 6, 10, 23, 0, 0, 0, time.FixedZone("X", -2*3600))
	if got := WeekdayName(local); got != "Tuesday" {
		t.Fatalf("expected Tuesday (UTC), got %s", got)
	}
}
