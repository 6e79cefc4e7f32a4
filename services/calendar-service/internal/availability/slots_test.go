package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/model"
)

func apptAt(t time.Time) model.Appointment {
	return model.Appointment{StartTime: t, EndTime: t.Add(time.Hour)}
}

func TestCheckSlot_FullHourRejects(t *testing.T) {
	loc := time.UTC
	existing := []model.Appointment{
		apptAt(time.Date(2024, 7, 15, 14, 0, 0, 0, loc)),
		apptAt(time.Date(2024, 7, 15, 14, 45, 0, 0, loc)),
	}

	err := CheckSlot(time.Date(2024, 7, 15, 14, 30, 0, 0, loc), existing, 2, loc)
	var full *SlotFullError
	if !errors.As(err, &full) {
		t.Fatalf("expected SlotFullError, got %v", err)
	}
	if full.Max != 2 || full.Count != 2 {
		t.Fatalf("unexpected error fields %+v", full)
	}
	if !full.Slot.Equal(time.Date(2024, 7, 15, 14, 0, 0, 0, loc)) {
		t.Fatalf("unexpected slot %s", full.Slot)
	}
}

func TestCheckSlot_AdjacentHourSucceeds(t *testing.T) {
	loc := time.UTC
	existing := []model.Appointment{
		apptAt(time.Date(2024, 7, 15, 14, 0, 0, 0, loc)),
		apptAt(time.Date(2024, 7, 15, 14, 59, 0, 0, loc)),
	}
	if err := CheckSlot(time.Date(2024, 7, 15, 15, 0, 0, 0, loc), existing, 2, loc); err != nil {
		t.Fatalf("expected 15:00 to be free, got %v", err)
	}
	if err := CheckSlot(time.Date(2024, 7, 15, 13, 30, 0, 0, loc), existing, 2, loc); err != nil {
		t.Fatalf("expected 13:30 to be free, got %v", err)
	}
}

func TestCheckSlot_SameHourOtherDay(t *testing.T) {
	loc := time.UTC
	existing := []model.Appointment{apptAt(time.Date(2024, 7, 14, 14, 0, 0, 0, loc))}
	if err := CheckSlot(time.Date(2024, 7, 15, 14, 0, 0, 0, loc), existing, 1, loc); err != nil {
		t.Fatalf("expected different day to be free, got %v", err)
	}
}

func TestCheckSlot_UsesLocation(t *testing.T) {
	loc := time.FixedZone("TRT", 3*60*60)
	// 11:10Z and 11:50Z are both 14:xx in TRT.
	existing := []model.Appointment{apptAt(time.Date(2024, 7, 15, 11, 10, 0, 0, time.UTC))}
	err := CheckSlot(time.Date(2024, 7, 15, 14, 50, 0, 0, loc), existing, 1, loc)
	var full *SlotFullError
	if !errors.As(err, &full) {
		t.Fatalf("expected SlotFullError across zones, got %v", err)
	}
}

func TestCheckSlot_ZeroMaxDisables(t *testing.T) {
	loc := time.UTC
	existing := []model.Appointment{apptAt(time.Date(2024, 7, 15, 14, 0, 0, 0, loc))}
	if err := CheckSlot(time.Date(2024, 7, 15, 14, 0, 0, 0, loc), existing, 0, loc); err != nil {
		t.Fatalf("expected no limit, got %v", err)
	}
}

func TestDaySlots(t *testing.T) {
	loc := time.UTC
	day := time.Date(2024, 7, 15, 0, 0, 0, 0, loc)
	existing := []model.Appointment{
		apptAt(day.Add(9 * time.Hour)),
		apptAt(day.Add(9*time.Hour + 30*time.Minute)),
		apptAt(day.Add(11 * time.Hour)),
	}

	slots := DaySlots(day, 9, 12, existing, 2, loc)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if slots[0].Booked != 2 || !slots[0].Full {
		t.Fatalf("expected 09:00 full, got %+v", slots[0])
	}
	if slots[1].Booked != 0 || slots[1].Full {
		t.Fatalf("expected 10:00 empty, got %+v", slots[1])
	}
	if slots[2].Booked != 1 || slots[2].Full || slots[2].Capacity != 2 {
		t.Fatalf("expected 11:00 with one booking, got %+v", slots[2])
	}
}
