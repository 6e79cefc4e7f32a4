package calendarfeed

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRoundTrip(t *testing.T) {
	start := time.Date(2024, 7, 15, 11, 30, 0, 0, time.UTC)
	desc := "VAPI Transcript: merhaba"
	appts := []model.Appointment{
		{
			ID: "0b9c1f7e-0000-4000-8000-000000000001", Title: "Kontrol", ClientName: "Ayse",
			ClientPhone: "05551234567", StartTime: start, EndTime: start.Add(time.Hour),
			Status: model.StatusConfirmed, Source: model.SourceVAPI, Description: &desc,
			CreatedAt: start.Add(-24 * time.Hour), UpdatedAt: start.Add(-24 * time.Hour),
		},
		{
			ID: "0b9c1f7e-0000-4000-8000-000000000002", Title: "Kesim", ClientName: "Ali",
			ClientPhone: "05550000000", StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour),
			Status: model.StatusPending, Source: model.SourceManual,
		},
	}

	out := Render("Berber Ali", appts, start)
	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "Kontrol - Ayse", first.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, string(ical.ObjectStatusConfirmed), first.GetProperty(ical.ComponentPropertyStatus).Value)
	assert.Equal(t, "vapi", first.GetProperty(propertySource).Value)
	gotStart, err := first.GetStartAt()
	require.NoError(t, err)
	assert.True(t, gotStart.Equal(start))

	second := events[1]
	assert.Equal(t, string(ical.ObjectStatusTentative), second.GetProperty(ical.ComponentPropertyStatus).Value)
	assert.Contains(t, out, "X-WR-CALNAME:Berber Ali")
}

func TestRenderEmpty(t *testing.T) {
	out := Render("", nil, time.Now())
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
