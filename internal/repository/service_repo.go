package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinicbook/internal/database"
	"clinicbook/internal/models"
)

// ServiceRepository reads the clinic service catalogue
type ServiceRepository struct {
	db *database.DB
}

// NewServiceRepository creates a new service repository
func NewServiceRepository(db *database.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// List returns every service ordered by id
func (r *ServiceRepository) List(ctx context.Context) ([]models.Service, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, price_cents FROM services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()
	return scanServices(rows)
}

// GetByID retrieves a service by ID
func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (*models.Service, error) {
	s := &models.Service{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, price_cents FROM services WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.PriceCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

// GetByIDs returns the services matching ids. Unknown ids are skipped.
func (r *ServiceRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT id, name, price_cents FROM services WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}
	defer rows.Close()
	return scanServices(rows)
}

func scanServices(rows *sql.Rows) ([]models.Service, error) {
	var services []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.PriceCents); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
