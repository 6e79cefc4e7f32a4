// Package settings holds the per-business calendar configuration: working hours, per-hour
// capacity and the default appointment length.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type WorkingHours struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type Settings struct {
	BusinessName           string       `yaml:"businessName"`
	Timezone               string       `yaml:"timezone"`
	WorkingHours           WorkingHours `yaml:"workingHours"`
	MaxAppointmentsPerSlot int          `yaml:"maxAppointmentsPerSlot"`
	AppointmentDuration    int          `yaml:"appointmentDuration"` // minutes
}

func Default() Settings {
	return Settings{
		BusinessName:           "My Business",
		Timezone:               "Europe/Istanbul",
		WorkingHours:           WorkingHours{Start: "09:00", End: "18:00"},
		MaxAppointmentsPerSlot: 2,
		AppointmentDuration:    60,
	}
}

// Load reads a YAML settings file over the defaults. An empty path or a missing file yields the
// defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return Settings{}, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.MaxAppointmentsPerSlot < 0 {
		return errors.New("maxAppointmentsPerSlot must not be negative")
	}
	if s.AppointmentDuration <= 0 {
		return errors.New("appointmentDuration must be positive")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	start, err := parseHour(s.WorkingHours.Start)
	if err != nil {
		return fmt.Errorf("workingHours.start: %w", err)
	}
	end, err := parseHour(s.WorkingHours.End)
	if err != nil {
		return fmt.Errorf("workingHours.end: %w", err)
	}
	if end <= start {
		return errors.New("workingHours.end must be after workingHours.start")
	}
	return nil
}

func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s Settings) Duration() time.Duration {
	return time.Duration(s.AppointmentDuration) * time.Minute
}

// Hours returns the working window as whole hours [start, end); the hour grid ignores minutes.
func (s Settings) Hours() (int, int) {
	start, err := parseHour(s.WorkingHours.Start)
	if err != nil {
		start = 9
	}
	end, err := parseHour(s.WorkingHours.End)
	if err != nil || end <= start {
		end = 18
	}
	return start, end
}

func parseHour(hhmm string) (int, error) {
	h, _, _ := strings.Cut(strings.TrimSpace(hhmm), ":")
	n, err := strconv.Atoi(h)
	if err != nil || n < 0 || n > 24 {
		return 0, fmt.Errorf("invalid hour %q", hhmm)
	}
	return n, nil
}
