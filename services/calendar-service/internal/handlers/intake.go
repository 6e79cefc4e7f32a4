package handlers

import (
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/apptcalendar/libs/httpx"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/availability"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/events"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/intake"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/model"
)

const transcriptSummaryLen = 100

// CreateFromWebhook accepts the n8n workflow payload.
func (h *AppointmentHandler) CreateFromWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		writeInvalidJSON(w, err)
		return
	}
	rec, err := h.normalizer.Normalize(payload, intake.WebhookAliases)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	appt, ok := h.create(w, r, rec, model.SourceN8N, model.StatusConfirmed)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"message":     "appointment created",
		"appointment": appt,
		"info":        h.summarize(appt),
	})
}

// CreateFromVoice accepts the VAPI assistant payload. The phone may be recovered from the transcript.
func (h *AppointmentHandler) CreateFromVoice(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		writeInvalidJSON(w, err)
		return
	}
	rec, err := h.normalizer.Normalize(payload, intake.VoiceAliases)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	appt, ok := h.create(w, r, rec, model.SourceVAPI, model.StatusConfirmed)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"message":     "voice appointment created",
		"appointment": appt,
		"info":        h.summarize(appt),
		"voice": map[string]any{
			"transcript": rec.Transcript != "",
			"processedData": map[string]string{
				"phone": rec.ClientPhone,
				"name":  rec.ClientName,
				"type":  rec.Title,
				"time":  rec.RawTime,
			},
		},
	})
}

// CreateManual books from the owner's calendar form. Unlike the automated paths it enforces the
// per-hour capacity and accepts an initial status.
func (h *AppointmentHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(r)
	if err != nil {
		writeInvalidJSON(w, err)
		return
	}
	rec, err := h.normalizer.Normalize(payload, intake.ManualAliases)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	status := model.StatusConfirmed
	if raw := intake.Resolve(payload, []string{"status"}); raw != "" {
		status = model.Status(strings.TrimSpace(raw))
		if !status.Valid() {
			h.writeFailure(w, r, &intake.InvalidFieldError{Field: "status", Reason: "must be one of confirmed, pending, cancelled"})
			return
		}
	}

	loc := h.normalizer.Location()
	from, to := dayBounds(rec.StartTime, loc)
	existing, err := h.store.ListBetween(r.Context(), from, to)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	if err := availability.CheckSlot(rec.StartTime, existing, h.cfg.MaxPerSlot, loc); err != nil {
		h.logger.Info("slot full", "slot", availability.SlotStart(rec.StartTime, loc), "max", h.cfg.MaxPerSlot)
		h.writeFailure(w, r, err)
		return
	}

	appt, ok := h.create(w, r, rec, model.SourceManual, status)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"message":     "appointment created",
		"appointment": appt,
		"info":        h.summarize(appt),
	})
}

// ListVoice returns the most recent voice appointments.
func (h *AppointmentHandler) ListVoice(w http.ResponseWriter, r *http.Request) {
	appts, err := h.store.ListBySource(r.Context(), model.SourceVAPI, h.cfg.VoiceListLimit)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	type voiceItem struct {
		model.Appointment
		TranscriptSummary string `json:"transcriptSummary"`
	}
	items := make([]voiceItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, voiceItem{Appointment: a, TranscriptSummary: summarizeTranscript(a.Description)})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"count":        len(items),
		"appointments": items,
	})
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request, rec intake.Record, source model.Source, status model.Status) (model.Appointment, bool) {
	appt, err := h.store.Insert(r.Context(), model.Appointment{
		Title:       rec.Title,
		ClientName:  rec.ClientName,
		ClientPhone: rec.ClientPhone,
		StartTime:   rec.StartTime,
		EndTime:     rec.EndTime,
		Status:      status,
		Source:      source,
		Description: rec.Description,
	})
	if err != nil {
		h.writeFailure(w, r, err)
		return model.Appointment{}, false
	}
	h.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"source", appt.Source,
		"start_time", appt.StartTime,
		"actor", actor(r),
		"request_id", httpx.RequestIDFromContext(r.Context()),
	)
	h.events.Publish(r.Context(), events.TypeCreated, appt)
	return appt, true
}

func summarizeTranscript(desc *string) string {
	if desc == nil || *desc == "" {
		return "no transcript"
	}
	r := []rune(*desc)
	if len(r) <= transcriptSummaryLen {
		return *desc
	}
	return string(r[:transcriptSummaryLen]) + "..."
}
