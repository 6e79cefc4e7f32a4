package intake

import (
	"strconv"
	"time"
)

const (
	DefaultDuration      = 60 * time.Minute
	transcriptExcerptLen = 500
)

// Record is the canonical, store-ready appointment produced from any intake payload.
type Record struct {
	Title       string
	ClientName  string
	ClientPhone string
	StartTime   time.Time
	EndTime     time.Time
	Description *string

	// RawTime and Transcript are kept for confirmation payloads.
	RawTime    string
	Transcript string
}

// Normalizer turns heterogeneous intake payloads into Records. It performs no I/O.
type Normalizer struct {
	loc             *time.Location
	defaultDuration time.Duration
}

func NewNormalizer(loc *time.Location, defaultDuration time.Duration) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	if defaultDuration <= 0 {
		defaultDuration = DefaultDuration
	}
	return &Normalizer{loc: loc, defaultDuration: defaultDuration}
}

func (n *Normalizer) Location() *time.Location { return n.loc }

func (n *Normalizer) Normalize(payload map[string]any, aliases AliasTable) (Record, error) {
	phone := Resolve(payload, aliases.Phone)
	name := Resolve(payload, aliases.Name)
	title := Resolve(payload, aliases.Title)
	rawTime := Resolve(payload, aliases.Time)
	transcript := Resolve(payload, aliases.Transcript)

	if phone == "" && transcript != "" {
		phone = PhoneFromTranscript(transcript)
	}

	received := map[Field]string{FieldPhone: phone, FieldName: name, FieldTitle: title, FieldTime: rawTime}
	for _, f := range []Field{FieldPhone, FieldName, FieldTitle, FieldTime} {
		if received[f] == "" {
			return Record{}, &MissingFieldError{Field: f, Received: received}
		}
	}

	start, err := ParseTime(string(FieldTime), rawTime, n.loc)
	if err != nil {
		return Record{}, err
	}
	end, err := n.endTime(payload, aliases, start)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Title:       title,
		ClientName:  name,
		ClientPhone: NormalizePhone(phone),
		StartTime:   start,
		EndTime:     end,
		RawTime:     rawTime,
		Transcript:  transcript,
	}
	if desc := Resolve(payload, aliases.Description); desc != "" {
		rec.Description = &desc
	} else if transcript != "" {
		desc := TranscriptExcerpt(aliases.TranscriptLabel, transcript)
		rec.Description = &desc
	}
	return rec, nil
}

// endTime prefers an explicit end, then start+duration, then the table's fixed length, then the
// configured one.
func (n *Normalizer) endTime(payload map[string]any, aliases AliasTable, start time.Time) (time.Time, error) {
	if raw := Resolve(payload, aliases.EndTime); raw != "" {
		end, err := ParseTime("endTime", raw, n.loc)
		if err != nil {
			return time.Time{}, err
		}
		if !end.After(start) {
			return time.Time{}, &InvalidFieldError{Field: "endTime", Reason: "must be after start time"}
		}
		return end, nil
	}
	if raw := Resolve(payload, aliases.Duration); raw != "" {
		d, err := ParseDurationMinutes(raw)
		if err != nil {
			return time.Time{}, err
		}
		return start.Add(d), nil
	}
	if aliases.DefaultLength > 0 {
		return start.Add(aliases.DefaultLength), nil
	}
	return start.Add(n.defaultDuration), nil
}

// ParseDurationMinutes parses a positive minute count such as "45" or "90".
func ParseDurationMinutes(raw string) (time.Duration, error) {
	mins, err := strconv.ParseFloat(raw, 64)
	if err != nil || mins <= 0 || mins > 24*60 {
		return 0, &InvalidFieldError{Field: "duration", Reason: "must be a positive number of minutes up to 1440"}
	}
	return time.Duration(mins * float64(time.Minute)), nil
}

// TranscriptExcerpt keeps the first 500 characters of a transcript behind label.
func TranscriptExcerpt(label, transcript string) string {
	r := []rune(transcript)
	if len(r) > transcriptExcerptLen {
		r = r[:transcriptExcerptLen]
	}
	if label == "" {
		return string(r)
	}
	return label + ": " + string(r)
}
