package availability

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/model"
)

// SlotFullError rejects a booking whose hour slot already holds Max appointments.
type SlotFullError struct {
	Max   int
	Count int
	Slot  time.Time
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("slot %s is full: at most %d appointments per hour", e.Slot.Format("2006-01-02 15:04"), e.Max)
}

// SlotStart truncates t to the start of its hour in loc.
func SlotStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), lt.Hour(), 0, 0, 0, loc)
}

// SameSlot reports whether a and b fall on the same calendar day and hour in loc. Minutes do not
// separate slots.
func SameSlot(a, b time.Time, loc *time.Location) bool {
	return SlotStart(a, loc).Equal(SlotStart(b, loc))
}

// CountInSlot counts appointments starting in the same slot as start.
func CountInSlot(start time.Time, existing []model.Appointment, loc *time.Location) int {
	n := 0
	for _, a := range existing {
		if SameSlot(a.StartTime, start, loc) {
			n++
		}
	}
	return n
}

// CheckSlot decides whether a booking at start may proceed given a snapshot of existing
// appointments. max <= 0 disables the limit. The check is advisory: it is not atomic with the
// insert that follows it.
func CheckSlot(start time.Time, existing []model.Appointment, max int, loc *time.Location) error {
	if max <= 0 {
		return nil
	}
	if n := CountInSlot(start, existing, loc); n >= max {
		return &SlotFullError{Max: max, Count: n, Slot: SlotStart(start, loc)}
	}
	return nil
}

// SlotUsage describes one hour of the working day.
type SlotUsage struct {
	Start    time.Time `json:"start"`
	Booked   int       `json:"booked"`
	Capacity int       `json:"capacity"`
	Full     bool      `json:"full"`
}

// DaySlots returns one entry per working hour [startHour, endHour) of day in loc.
func DaySlots(day time.Time, startHour, endHour int, existing []model.Appointment, max int, loc *time.Location) []SlotUsage {
	if loc == nil {
		loc = time.UTC
	}
	if startHour < 0 {
		startHour = 0
	}
	if endHour > 24 {
		endHour = 24
	}
	d := day.In(loc)
	var out []SlotUsage
	for h := startHour; h < endHour; h++ {
		start := time.Date(d.Year(), d.Month(), d.Day(), h, 0, 0, 0, loc)
		n := CountInSlot(start, existing, loc)
		out = append(out, SlotUsage{
			Start:    start,
			Booked:   n,
			Capacity: max,
			Full:     max > 0 && n >= max,
		})
	}
	return out
}
