package intake

import (
	"strings"
	"time"
)

// Strategy parses one family of time representations. Parse reports false when the value is not
// in its family or is not a real calendar timestamp.
type Strategy struct {
	Name    string
	Example string
	Parse   func(raw string, loc *time.Location) (time.Time, bool)
}

// Strategies are tried in order; the first success wins.
var Strategies = []Strategy{
	{Name: "iso", Example: "2024-07-15T14:30:00", Parse: parseISO},
	{Name: "us", Example: "MM/DD/YYYY HH:MM", Parse: parseUS},
	{Name: "dotted", Example: "DD.MM.YYYY HH:MM", Parse: parseDotted},
	{Name: "spaced", Example: "YYYY-MM-DD HH:MM", Parse: parseSpaced},
}

// SupportedFormats lists one example per strategy for error messages.
func SupportedFormats() []string {
	out := make([]string, 0, len(Strategies))
	for _, s := range Strategies {
		out = append(out, s.Example)
	}
	return out
}

// ParseTime runs the strategies over raw. Values without an explicit offset are read in loc.
func ParseTime(field, raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value := strings.TrimSpace(raw)
	if value != "" {
		for _, s := range Strategies {
			if t, ok := s.Parse(value, loc); ok {
				return t, nil
			}
		}
	}
	return time.Time{}, &InvalidDateFormatError{Field: field, Received: raw, Supported: SupportedFormats()}
}

var (
	isoOffsetLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04Z07:00"}
	isoLocalLayouts  = []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04"}
	usLayouts        = []string{"1/2/2006 15:04:05", "1/2/2006 15:04", "1/2/2006 3:04 PM", "1/2/2006"}
	dottedLayouts    = []string{"2.1.2006 15:04:05", "2.1.2006 15:04", "2.1.2006"}
)

func parseISO(raw string, loc *time.Location) (time.Time, bool) {
	if !strings.Contains(raw, "T") {
		return time.Time{}, false
	}
	for _, layout := range isoOffsetLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return parseIn(raw, loc, isoLocalLayouts)
}

func parseUS(raw string, loc *time.Location) (time.Time, bool) {
	if !strings.Contains(raw, "/") {
		return time.Time{}, false
	}
	return parseIn(raw, loc, usLayouts)
}

func parseDotted(raw string, loc *time.Location) (time.Time, bool) {
	date, _, _ := strings.Cut(raw, " ")
	if !strings.Contains(date, ".") {
		return time.Time{}, false
	}
	return parseIn(raw, loc, dottedLayouts)
}

// parseSpaced handles "YYYY-MM-DD HH:MM" by splicing in the T separator and a zero seconds
// suffix. Values that already carry seconds are accepted as well.
func parseSpaced(raw string, loc *time.Location) (time.Time, bool) {
	if !strings.Contains(raw, " ") {
		return time.Time{}, false
	}
	spliced := strings.Replace(raw, " ", "T", 1) + ":00"
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", spliced, loc); err == nil {
		return t, true
	}
	return parseIn(raw, loc, []string{"2006-01-02 15:04:05"})
}

func parseIn(raw string, loc *time.Location, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
