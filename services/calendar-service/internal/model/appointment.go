package model

import "time"

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Source records which intake path created an appointment. It never changes after creation.
type Source string

const (
	SourceManual Source = "manual"
	SourceN8N    Source = "n8n"
	SourceVAPI   Source = "vapi"
)

func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceN8N, SourceVAPI:
		return true
	}
	return false
}

type Appointment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ClientName  string    `json:"clientName"`
	ClientPhone string    `json:"clientPhone"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Status      Status    `json:"status"`
	Source      Source    `json:"source"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Duration is the booked length of the appointment.
func (a Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// Patch is a field-level partial update. Nil fields are left untouched. Source is not patchable.
type Patch struct {
	Title       *string
	ClientName  *string
	ClientPhone *string
	StartTime   *time.Time
	EndTime     *time.Time
	Status      *Status
	Description *string
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.ClientName == nil && p.ClientPhone == nil &&
		p.StartTime == nil && p.EndTime == nil && p.Status == nil && p.Description == nil
}
