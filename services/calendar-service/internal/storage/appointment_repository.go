package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/apptcalendar/libs/db"
	"github.com/md-rashed-zaman/apptcalendar/services/calendar-service/internal/model"
)

var (
	ErrNotFound = errors.New("appointment not found")
	// ErrInvalidTimeRange is returned when a write would leave end_time at or before start_time.
	ErrInvalidTimeRange = errors.New("end time must be after start time")
)

const appointmentColumns = `id::text, title, client_name, client_phone, start_time, end_time,
	status, source, description, created_at, updated_at`

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Insert(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(title, client_name, client_phone, start_time, end_time, status, source, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+appointmentColumns,
		appt.Title, appt.ClientName, appt.ClientPhone, appt.StartTime, appt.EndTime,
		string(appt.Status), string(appt.Source), appt.Description)
	out, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, translate(err)
	}
	return out, nil
}

func (r *AppointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	return r.query(ctx, `SELECT `+appointmentColumns+` FROM appointments ORDER BY start_time ASC`)
}

// ListBetween returns appointments starting in [from, to), ascending.
func (r *AppointmentRepository) ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	return r.query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE start_time >= $1 AND start_time < $2
		ORDER BY start_time ASC
	`, from, to)
}

func (r *AppointmentRepository) ListBySource(ctx context.Context, source model.Source, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE source = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, string(source), limit)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	if !validID(id) {
		return model.Appointment{}, ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	out, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, translate(err)
	}
	return out, nil
}

// Update applies a partial patch and re-stamps updated_at. Source is never written.
func (r *AppointmentRepository) Update(ctx context.Context, id string, p model.Patch) (model.Appointment, error) {
	if !validID(id) {
		return model.Appointment{}, ErrNotFound
	}
	var status *string
	if p.Status != nil {
		s := string(*p.Status)
		status = &s
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET title = COALESCE($2, title),
			client_name = COALESCE($3, client_name),
			client_phone = COALESCE($4, client_phone),
			start_time = COALESCE($5, start_time),
			end_time = COALESCE($6, end_time),
			status = COALESCE($7, status),
			description = COALESCE($8, description),
			updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, p.Title, p.ClientName, p.ClientPhone, p.StartTime, p.EndTime, status, p.Description)
	out, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, translate(err)
	}
	return out, nil
}

// Delete removes one row. A missing id is reported as ErrNotFound rather than silently succeeding.
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AppointmentRepository) query(ctx context.Context, sql string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := []model.Appointment{}
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var status, source string
	err := row.Scan(
		&appt.ID,
		&appt.Title,
		&appt.ClientName,
		&appt.ClientPhone,
		&appt.StartTime,
		&appt.EndTime,
		&status,
		&source,
		&appt.Description,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	appt.Source = model.Source(source)
	return appt, nil
}

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" && pgErr.ConstraintName == "appointments_time_order" {
		return fmt.Errorf("%w: %s", ErrInvalidTimeRange, pgErr.Message)
	}
	return err
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
