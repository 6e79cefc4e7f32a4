package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptcalendar/libs/httpx"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/availability"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/calendarfeed"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/events"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/intake"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/storage"
)

// Store is the row store behind the handlers.
type Store interface {
	Insert(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	ListAll(ctx context.Context) ([]model.Appointment, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
	ListBySource(ctx context.Context, source model.Source, limit int) ([]model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	Update(ctx context.Context, id string, p model.Patch) (model.Appointment, error)
	Delete(ctx context.Context, id string) error
}

type Config struct {
	CalendarName   string
	MaxPerSlot     int
	WorkStartHour  int
	WorkEndHour    int
	VoiceListLimit int
}

type AppointmentHandler struct {
	store      Store
	normalizer *intake.Normalizer
	events     events.Publisher
	logger     *slog.Logger
	cfg        Config
	now        func() time.Time
}

func NewAppointmentHandler(store Store, normalizer *intake.Normalizer, publisher events.Publisher, logger *slog.Logger, cfg Config) *AppointmentHandler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg.VoiceListLimit <= 0 {
		cfg.VoiceListLimit = 10
	}
	if cfg.WorkEndHour <= cfg.WorkStartHour {
		cfg.WorkStartHour, cfg.WorkEndHour = 9, 18
	}
	return &AppointmentHandler{
		store:      store,
		normalizer: normalizer,
		events:     publisher,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.store.ListAll(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"count":        len(appts),
		"appointments": appts,
	})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"appointment": appt,
		"info":        h.summarize(appt),
	})
}

type updateRequest struct {
	Title       *string      `json:"title"`
	ClientName  *string      `json:"clientName"`
	ClientPhone *string      `json:"clientPhone"`
	StartTime   *string      `json:"startTime"`
	EndTime     *string      `json:"endTime"`
	Status      *string      `json:"status"`
	Duration    *json.Number `json:"duration"`
	Description *string      `json:"description"`
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w, err)
		return
	}

	patch, err := h.buildPatch(r.Context(), id, req)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	appt, err := h.store.Update(r.Context(), id, patch)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	h.logger.Info("appointment updated",
		"appointment_id", appt.ID,
		"actor", actor(r),
		"request_id", httpx.RequestIDFromContext(r.Context()),
	)
	h.events.Publish(r.Context(), events.TypeUpdated, appt)

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "appointment updated",
		"appointment": appt,
		"info":        h.summarize(appt),
	})
}

// buildPatch validates an update request. A duration without an explicit end time is applied to
// the new start time, or to the stored one when the start is not being changed.
func (h *AppointmentHandler) buildPatch(ctx context.Context, id string, req updateRequest) (model.Patch, error) {
	var p model.Patch
	var err error

	if p.Title, err = nonEmpty("title", req.Title); err != nil {
		return p, err
	}
	if p.ClientName, err = nonEmpty("clientName", req.ClientName); err != nil {
		return p, err
	}
	if p.ClientPhone, err = nonEmpty("clientPhone", req.ClientPhone); err != nil {
		return p, err
	}
	if p.ClientPhone != nil {
		phone := intake.NormalizePhone(*p.ClientPhone)
		p.ClientPhone = &phone
	}
	p.Description = req.Description

	if req.Status != nil {
		s := model.Status(strings.TrimSpace(*req.Status))
		if !s.Valid() {
			return p, &intake.InvalidFieldError{Field: "status", Reason: "must be one of confirmed, pending, cancelled"}
		}
		p.Status = &s
	}

	loc := h.normalizer.Location()
	if req.StartTime != nil {
		start, err := intake.ParseTime("startTime", *req.StartTime, loc)
		if err != nil {
			return p, err
		}
		p.StartTime = &start
	}
	if req.EndTime != nil {
		end, err := intake.ParseTime("endTime", *req.EndTime, loc)
		if err != nil {
			return p, err
		}
		p.EndTime = &end
	} else if req.Duration != nil {
		d, err := intake.ParseDurationMinutes(req.Duration.String())
		if err != nil {
			return p, err
		}
		base := p.StartTime
		if base == nil {
			current, err := h.store.Get(ctx, id)
			if err != nil {
				return p, err
			}
			base = &current.StartTime
		}
		end := base.Add(d)
		p.EndTime = &end
	}

	if p.StartTime != nil && p.EndTime != nil && !p.EndTime.After(*p.StartTime) {
		return p, &intake.InvalidFieldError{Field: "endTime", Reason: "must be after start time"}
	}
	return p, nil
}

func nonEmpty(field string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil, &intake.InvalidFieldError{Field: field, Reason: "must not be empty"}
	}
	return &s, nil
}

// Delete removes an appointment. Any failure, including an unknown id, is a store error.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error("appointment delete failed", "err", err, "appointment_id", id)
		httpx.WriteError(w, http.StatusInternalServerError, codeStoreError, "could not delete appointment: "+err.Error())
		return
	}
	h.logger.Info("appointment deleted",
		"appointment_id", id,
		"actor", actor(r),
		"request_id", httpx.RequestIDFromContext(r.Context()),
	)
	h.events.Publish(r.Context(), events.TypeDeleted, model.Appointment{ID: id})

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "appointment deleted",
		"deletedId": id,
	})
}

// Slots reports per-hour usage of one working day: GET /appointments/slots?date=YYYY-MM-DD.
func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	loc := h.normalizer.Location()
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	var day time.Time
	if raw == "" {
		day = h.now().In(loc)
	} else {
		var err error
		day, err = time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			h.writeFailure(w, r, &intake.InvalidDateFormatError{Field: "date", Received: raw, Supported: []string{"YYYY-MM-DD"}})
			return
		}
	}

	from, to := dayBounds(day, loc)
	existing, err := h.store.ListBetween(r.Context(), from, to)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":                true,
		"date":                   from.Format("2006-01-02"),
		"maxAppointmentsPerSlot": h.cfg.MaxPerSlot,
		"slots":                  availability.DaySlots(from, h.cfg.WorkStartHour, h.cfg.WorkEndHour, existing, h.cfg.MaxPerSlot, loc),
	})
}

func (h *AppointmentHandler) CalendarFeed(w http.ResponseWriter, r *http.Request) {
	appts, err := h.store.ListAll(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	body := calendarfeed.Render(h.cfg.CalendarName, appts, h.now())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func dayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	lt := t.In(loc)
	from := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

var _ Store = (*storage.AppointmentRepository)(nil)
