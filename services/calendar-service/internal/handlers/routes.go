package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/apptcalendar/libs/httpx"
)

// Register mounts the appointment routes. owner guards the calendar owner's routes and webhook
// guards the automation endpoints; either may be nil.
func Register(mux *http.ServeMux, h *AppointmentHandler, owner, webhook httpx.Middleware) {
	wrap := func(m httpx.Middleware, fn http.HandlerFunc) http.Handler {
		if m == nil {
			return fn
		}
		return m(fn)
	}

	mux.Handle("POST /appointments", wrap(webhook, h.CreateFromWebhook))
	mux.Handle("POST /appointments/vapi", wrap(webhook, h.CreateFromVoice))
	mux.Handle("GET /appointments/vapi", wrap(webhook, h.ListVoice))

	mux.Handle("GET /appointments", wrap(owner, h.List))
	mux.Handle("POST /appointments/manual", wrap(owner, h.CreateManual))
	mux.Handle("GET /appointments/slots", wrap(owner, h.Slots))
	mux.Handle("GET /appointments/calendar.ics", wrap(owner, h.CalendarFeed))
	mux.Handle("GET /appointments/{id}", wrap(owner, h.Get))
	mux.Handle("PUT /appointments/{id}", wrap(owner, h.Update))
	mux.Handle("DELETE /appointments/{id}", wrap(owner, h.Delete))
}
