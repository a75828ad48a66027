// Package schedule holds the pure date and slot arithmetic behind appointment
// availability. Everything here works on UTC calendar components; local-time
// day boundaries are never consulted, which is what keeps a booking made for
// 2024-06-10 displaying as 2024-06-10 in every client timezone.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// SlotDuration is the fixed length of a bookable interval.
const SlotDuration = 30 * time.Minute

// BookableDate is one calendar day a psychiatrist can be booked on,
// pre-formatted for display.
type BookableDate struct {
	Date    time.Time `json:"-"`       // UTC midnight
	ISO     string    `json:"date"`    // "2006-01-02", the wire key
	Weekday string    `json:"weekday"` // "Mon"
	Day     int       `json:"day"`
	Month   string    `json:"month"` // "June"
}

// UTCDayStart truncates t to midnight of its UTC calendar day.
func UTCDayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeUTCDay pins t to noon of its UTC calendar day, the storage form
// for appointment dates: noon survives a ±12h offset round trip without
// crossing a day boundary.
func NormalizeUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 12, 0, 0, 0, time.UTC)
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	return UTCDayStart(a).Equal(UTCDayStart(b))
}

// WeekdayName returns the full weekday name, as stored in
// Availability.WorkingDays ("Monday", ...).
func WeekdayName(t time.Time) string {
	return t.UTC().Weekday().String()
}

// BookableDates scans forward from now's UTC day (inclusive) over at most
// lookahead days and returns up to horizon days on which the given working-day
// set accepts bookings. An empty workingDays set treats every day as eligible;
// that fallback serves preview contexts only, the booking path re-checks the
// provider's availability itself.
func BookableDates(workingDays []string, horizon, lookahead int, now time.Time) []BookableDate {
	if horizon <= 0 || lookahead <= 0 {
		return nil
	}

	allowed := make(map[string]bool, len(workingDays))
	for _, d := range workingDays {
		allowed[d] = true
	}

	start := UTCDayStart(now)
	var dates []BookableDate
	for i := 0; i < lookahead && len(dates) < horizon; i++ {
		day := start.AddDate(0, 0, i)
		if len(allowed) > 0 && !allowed[day.Weekday().String()] {
			continue
		}
		dates = append(dates, BookableDate{
			Date:    day,
			ISO:     day.Format("2006-01-02"),
			Weekday: day.Format("Mon"),
			Day:     day.Day(),
			Month:   day.Month().String(),
		})
	}
	return dates
}

// Slots divides the half-open window [startTime, endTime) into consecutive
// 30-minute labels ("9:00 AM - 9:30 AM"). A trailing remainder shorter than
// 30 minutes becomes a final truncated slot so the labels cover the window
// exactly. Returns nil when the window is empty, inverted, or unparsable,
// signalling misconfigured availability upstream.
func Slots(startTime, endTime string) []string {
	start, err := parseTimeOfDay(startTime)
	if err != nil {
		return nil
	}
	end, err := parseTimeOfDay(endTime)
	if err != nil {
		return nil
	}
	if start >= end {
		return nil
	}

	var slots []string
	for cur := start; cur < end; cur += SlotDuration {
		next := cur + SlotDuration
		if next > end {
			next = end
		}
		slots = append(slots, fmt.Sprintf("%s - %s", clockLabel(cur), clockLabel(next)))
	}
	return slots
}

// SlotStart parses the start of a slot label back into a time-of-day offset
// from midnight. Used for the "slot already elapsed today" check.
func SlotStart(label string) (time.Duration, error) {
	parts := strings.SplitN(label, " - ", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed slot label %q", label)
	}
	t, err := time.Parse("3:04 PM", strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("malformed slot label %q: %w", label, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ValidateWindow checks that startTime and endTime are well-formed "HH:MM"
// strings forming a non-empty window.
func ValidateWindow(startTime, endTime string) error {
	start, err := parseTimeOfDay(startTime)
	if err != nil {
		return fmt.Errorf("invalid startTime %q, expected HH:MM", startTime)
	}
	end, err := parseTimeOfDay(endTime)
	if err != nil {
		return fmt.Errorf("invalid endTime %q, expected HH:MM", endTime)
	}
	if start >= end {
		return fmt.Errorf("startTime %s must be before endTime %s", startTime, endTime)
	}
	return nil
}

// ValidWeekday reports whether name is a full English weekday name.
func ValidWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return true
		}
	}
	return false
}

// parseTimeOfDay parses an "HH:MM" 24-hour wall-clock string into an offset
// from midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// clockLabel renders an offset from midnight in 12-hour clock form ("2:00 PM").
func clockLabel(d time.Duration) string {
	ref := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC).Add(d)
	return ref.Format("3:04 PM")
}
