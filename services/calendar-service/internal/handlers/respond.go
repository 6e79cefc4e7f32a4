package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/apptcalendar/libs/auth"
	"github.com/md-rashed-zaman/apptcalendar/libs/httpx"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/availability"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/intake"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/storage"
)

const displayLayout = "02.01.2006 15:04"

// Error codes returned in the "error" field.
const (
	codeInvalidJSON       = "invalid_json"
	codeMissingField      = "missing_field"
	codeInvalidDateFormat = "invalid_date_format"
	codeInvalidField      = "invalid_field"
	codeSlotFull          = "slot_full"
	codeNotFound          = "not_found"
	codeStoreError        = "store_error"
)

type info struct {
	Client string `json:"client"`
	Phone  string `json:"phone"`
	Type   string `json:"type"`
	Date   string `json:"date"`
	Status string `json:"status"`
	Source string `json:"source"`
}

func (h *AppointmentHandler) summarize(a model.Appointment) info {
	return info{
		Client: a.ClientName,
		Phone:  a.ClientPhone,
		Type:   a.Title,
		Date:   a.StartTime.In(h.normalizer.Location()).Format(displayLayout),
		Status: statusLabel(a.Status),
		Source: sourceLabel(a.Source),
	}
}

// actor names the authenticated owner behind a request, or "" when auth is disabled.
func actor(r *http.Request) string {
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		return c.Sub
	}
	return ""
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusConfirmed:
		return "Confirmed"
	case model.StatusPending:
		return "Pending"
	default:
		return "Cancelled"
	}
}

func sourceLabel(s model.Source) string {
	switch s {
	case model.SourceN8N:
		return "Automated"
	case model.SourceVAPI:
		return "Voice assistant"
	default:
		return "Manual"
	}
}

// decodePayload reads a JSON object keeping numbers as json.Number.
func decodePayload(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return payload, nil
}

func writeInvalidJSON(w http.ResponseWriter, err error) {
	httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{
		"error":   codeInvalidJSON,
		"message": "request body must be a JSON object: " + err.Error(),
	})
}

// writeFailure maps domain and store errors onto the error envelope.
func (h *AppointmentHandler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing *intake.MissingFieldError
		badDate *intake.InvalidDateFormatError
		invalid *intake.InvalidFieldError
		full    *availability.SlotFullError
	)
	switch {
	case errors.As(err, &missing):
		received := make(map[string]string, len(missing.Received))
		for f, v := range missing.Received {
			if v == "" {
				v = "not found"
			}
			received[string(f)] = v
		}
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":    codeMissingField,
			"message":  "phone, name, appointment type and time are required; missing " + string(missing.Field),
			"field":    missing.Field,
			"received": received,
		})
	case errors.As(err, &badDate):
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":            codeInvalidDateFormat,
			"message":          "could not parse " + badDate.Field + "; supported formats: " + strings.Join(badDate.Supported, ", "),
			"field":            badDate.Field,
			"received":         badDate.Received,
			"supportedFormats": badDate.Supported,
		})
	case errors.As(err, &invalid):
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   codeInvalidField,
			"message": invalid.Error(),
			"field":   invalid.Field,
		})
	case errors.Is(err, storage.ErrInvalidTimeRange):
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   codeInvalidField,
			"message": storage.ErrInvalidTimeRange.Error(),
			"field":   "endTime",
		})
	case errors.As(err, &full):
		httpx.WriteJSON(w, http.StatusConflict, map[string]any{
			"error":                  codeSlotFull,
			"message":                full.Error(),
			"maxAppointmentsPerSlot": full.Max,
			"slot":                   full.Slot.Format(time.RFC3339),
		})
	case storage.IsNotFound(err):
		httpx.WriteError(w, http.StatusNotFound, codeNotFound, "no appointment with this id")
	default:
		h.logger.Error("store call failed",
			"err", err,
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		httpx.WriteError(w, http.StatusInternalServerError, codeStoreError, err.Error())
	}
}
