package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/models"
)

// AppointmentRepository handles database operations for appointments
type AppointmentRepository struct {
	db *database.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *database.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentColumns = `id, account_id, appointment_date, appointment_time, total_cents, created_at, updated_at`

// Create books an appointment with its services. A taken slot yields ErrDuplicate.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) (*models.Appointment, error) {
	now := time.Now().UTC()
	created := *appt
	created.CreatedAt = now
	created.UpdatedAt = now

	err := r.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		id, err := tx.ExecReturningID(ctx, `
			INSERT INTO appointments (account_id, appointment_date, appointment_time, total_cents, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, appt.AccountID, appt.Date, appt.Time, appt.TotalCents, now, now)
		if err != nil {
			return r.wrapWriteErr("failed to create appointment", err)
		}
		created.ID = id
		return insertAppointmentServices(ctx, tx, id, appt.ServiceIDs())
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update rewrites the slot, total and services of an appointment.
// It reports false when the appointment does not exist.
func (r *AppointmentRepository) Update(ctx context.Context, appt *models.Appointment) (bool, error) {
	found := false
	err := r.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE appointments
			SET appointment_date = ?, appointment_time = ?, total_cents = ?, updated_at = ?
			WHERE id = ?
		`, appt.Date, appt.Time, appt.TotalCents, time.Now().UTC(), appt.ID)
		if err != nil {
			return r.wrapWriteErr("failed to update appointment", err)
		}
		if found, err = affectedOne(result); err != nil || !found {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_services WHERE appointment_id = ?`, appt.ID); err != nil {
			return fmt.Errorf("failed to clear appointment services: %w", err)
		}
		return insertAppointmentServices(ctx, tx, appt.ID, appt.ServiceIDs())
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Delete removes an appointment; its service links cascade
func (r *AppointmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete appointment: %w", err)
	}
	return affectedOne(result)
}

// GetByID retrieves an appointment with its services
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	appt := &models.Appointment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&appt.ID,
		&appt.AccountID,
		&appt.Date,
		&appt.Time,
		&appt.TotalCents,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	appts := []models.Appointment{*appt}
	if err := r.attachServices(ctx, appts); err != nil {
		return nil, err
	}
	return &appts[0], nil
}

// ListBookedSlots returns the taken slots on date
func (r *AppointmentRepository) ListBookedSlots(ctx context.Context, date string) ([]models.BookedSlot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, appointment_date, appointment_time
		FROM appointments
		WHERE appointment_date = ?
		ORDER BY appointment_time
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked slots: %w", err)
	}
	defer rows.Close()

	var slots []models.BookedSlot
	for rows.Next() {
		var s models.BookedSlot
		if err := rows.Scan(&s.ID, &s.Date, &s.Time); err != nil {
			return nil, fmt.Errorf("failed to scan booked slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ListForAccount returns the account's appointments on or after fromDate
func (r *AppointmentRepository) ListForAccount(ctx context.Context, accountID int64, fromDate string) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
		WHERE account_id = ? AND appointment_date >= ?
		ORDER BY appointment_date, appointment_time`
	return r.list(ctx, query, accountID, fromDate)
}

// ListFrom returns every appointment on or after fromDate
func (r *AppointmentRepository) ListFrom(ctx context.Context, fromDate string) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
		WHERE appointment_date >= ?
		ORDER BY appointment_date, appointment_time`
	return r.list(ctx, query, fromDate)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]models.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appts []models.Appointment
	for rows.Next() {
		var a models.Appointment
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Date, &a.Time, &a.TotalCents, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	if err := r.attachServices(ctx, appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// attachServices loads the services of appts with a single query
func (r *AppointmentRepository) attachServices(ctx context.Context, appts []models.Appointment) error {
	if len(appts) == 0 {
		return nil
	}

	index := make(map[int64]int, len(appts))
	args := make([]any, len(appts))
	for i, a := range appts {
		index[a.ID] = i
		args[i] = a.ID
	}

	query := `
		SELECT aps.appointment_id, s.id, s.name, s.price_cents
		FROM appointment_services aps
		JOIN services s ON s.id = aps.service_id
		WHERE aps.appointment_id IN (` + placeholders(len(appts)) + `)
		ORDER BY aps.appointment_id, s.id
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load appointment services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var apptID int64
		var s models.Service
		if err := rows.Scan(&apptID, &s.ID, &s.Name, &s.PriceCents); err != nil {
			return fmt.Errorf("failed to scan appointment service: %w", err)
		}
		if i, ok := index[apptID]; ok {
			appts[i].Services = append(appts[i].Services, s)
		}
	}
	return rows.Err()
}

func (r *AppointmentRepository) wrapWriteErr(msg string, err error) error {
	if r.db.Dialect.IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func insertAppointmentServices(ctx context.Context, tx database.DBTX, appointmentID int64, serviceIDs []int64) error {
	for _, sid := range serviceIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO appointment_services (appointment_id, service_id) VALUES (?, ?)`,
			appointmentID, sid); err != nil {
			return fmt.Errorf("failed to link service %d: %w", sid, err)
		}
	}
	return nil
}
