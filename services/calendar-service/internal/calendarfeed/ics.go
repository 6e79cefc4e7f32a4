// Package calendarfeed renders appointments as an iCalendar (RFC 5545) feed so owners can
// subscribe from their phone or desktop calendar.
package calendarfeed

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/model"
)

const (
	productID      = "-//apptcalendar//calendar-service//EN"
	propertySource = ical.ComponentProperty("X-APPT-SOURCE")
	uidDomain      = "@apptcalendar"
)

// Render builds the feed for appts. now stamps DTSTAMP.
func Render(calendarName string, appts []model.Appointment, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if calendarName != "" {
		cal.SetXWRCalName(calendarName)
	}

	for _, a := range appts {
		ev := cal.AddEvent(a.ID + uidDomain)
		ev.SetDtStampTime(now.UTC())
		ev.SetCreatedTime(a.CreatedAt.UTC())
		ev.SetModifiedAt(a.UpdatedAt.UTC())
		ev.SetStartAt(a.StartTime.UTC())
		ev.SetEndAt(a.EndTime.UTC())
		ev.SetSummary(a.Title + " - " + a.ClientName)
		ev.SetDescription(describe(a))
		ev.SetStatus(eventStatus(a.Status))
		ev.AddProperty(propertySource, string(a.Source))
	}
	return cal.Serialize()
}

func describe(a model.Appointment) string {
	lines := []string{"Client: " + a.ClientName, "Phone: " + a.ClientPhone}
	if a.Description != nil && *a.Description != "" {
		lines = append(lines, *a.Description)
	}
	return strings.Join(lines, "\n")
}

func eventStatus(s model.Status) ical.ObjectStatus {
	switch s {
	case model.StatusPending:
		return ical.ObjectStatusTentative
	case model.StatusCancelled:
		return ical.ObjectStatusCancelled
	default:
		return ical.ObjectStatusConfirmed
	}
}
