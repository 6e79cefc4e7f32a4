package intake

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// AliasTable maps each canonical field to the ordered payload paths probed for it. Paths are
// dotted ("extractedData.phone") to reach into nested objects.
type AliasTable struct {
	Phone       []string
	Name        []string
	Title       []string
	Time        []string
	EndTime     []string
	Duration    []string
	Description []string
	Transcript  []string

	// TranscriptLabel prefixes the transcript excerpt stored as the description.
	TranscriptLabel string

	// DefaultLength fixes the booking length when the payload gives neither an end nor a
	// duration. Zero defers to the Normalizer's configured length.
	DefaultLength time.Duration
}

// WebhookAliases is the n8n workflow payload shape.
var WebhookAliases = AliasTable{
	Phone: []string{"telefon"},
	Name:  []string{"isim"},
	Title: []string{"randevu_nedeni"},
	Time:  []string{"saat"},

	DefaultLength: DefaultDuration,
}

// VoiceAliases covers the shapes VAPI assistants have been configured to send.
var VoiceAliases = AliasTable{
	Phone:           []string{"telefon", "phone", "extractedData.telefon", "extractedData.phone"},
	Name:            []string{"isim", "name", "extractedData.isim", "extractedData.name"},
	Title:           []string{"randevu_nedeni", "appointment_type", "extractedData.randevu_nedeni", "extractedData.appointment_type"},
	Time:            []string{"saat", "datetime", "time", "extractedData.saat", "extractedData.datetime"},
	Transcript:      []string{"transcript"},
	TranscriptLabel: "VAPI Transcript",
	DefaultLength:   DefaultDuration,
}

// ManualAliases is the calendar UI form.
var ManualAliases = AliasTable{
	Phone:       []string{"clientPhone"},
	Name:        []string{"clientName"},
	Title:       []string{"title"},
	Time:        []string{"startTime"},
	EndTime:     []string{"endTime"},
	Duration:    []string{"duration"},
	Description: []string{"description"},
}

// Resolve returns the first non-empty value found along paths. Numbers are rendered in decimal;
// objects, arrays and booleans never match.
func Resolve(payload map[string]any, paths []string) string {
	for _, path := range paths {
		v, ok := lookup(payload, path)
		if !ok {
			continue
		}
		if s := stringify(v); s != "" {
			return s
		}
	}
	return ""
}

func lookup(payload map[string]any, path string) (any, bool) {
	var cur any = payload
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
