package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/balhadj47/fleet-console/internal/auth"
	"github.com/balhadj47/fleet-console/internal/domain"
)

// VanRepo defines the persistence operations for vans that this subsystem
// needs: listing for the availability resolver and creation for fleet
// onboarding. Trip-driven status flips live on TripRepo as side effects.
type VanRepo interface {
	// List returns all vans ordered by plate.
	List(ctx context.Context) ([]domain.Vehicle, error)

	// Create inserts a new van and returns the persisted record.
	Create(ctx context.Context, van domain.Vehicle) (domain.Vehicle, error)

	// GetByID retrieves a single van. Returns domain.ErrNotFound if no van
	// with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Vehicle, error)
}

type pgVanRepo struct {
	db db
}

// NewVanRepo constructs a VanRepo backed by the provided db connection.
func NewVanRepo(db db) VanRepo {
	return &pgVanRepo{db: db}
}

func (r *pgVanRepo) List(ctx context.Context) ([]domain.Vehicle, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, fmt.Errorf("repo.VanRepo.List: %w", err)
	}

	const q = `
		SELECT id, plate, model, status, created_at
		FROM vans
		ORDER BY plate`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.VanRepo.List: %w", err)
	}
	defer rows.Close()

	var vans []domain.Vehicle
	for rows.Next() {
		v, err := scanVan(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.VanRepo.List: scan: %w", err)
		}
		vans = append(vans, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.VanRepo.List: rows: %w", err)
	}

	return vans, nil
}

func (r *pgVanRepo) Create(ctx context.Context, van domain.Vehicle) (domain.Vehicle, error) {
	if _, err := auth.Require(ctx); err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VanRepo.Create: %w", err)
	}

	status := van.Status
	if status == "" {
		status = domain.VehicleActive
	}

	const q = `
		INSERT INTO vans (plate, model, status)
		VALUES (@plate, @model, @status)
		RETURNING id, plate, model, status, created_at`

	args := pgx.NamedArgs{
		"plate":  van.Plate,
		"model":  van.Model,
		"status": string(status),
	}

	result, err := scanVan(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VanRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgVanRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Vehicle, error) {
	if _, err := auth.Require(ctx); err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VanRepo.GetByID: %w", err)
	}

	const q = `
		SELECT id, plate, model, status, created_at
		FROM vans
		WHERE id = @id`

	result, err := scanVan(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("repo.VanRepo.GetByID: %w", err)
	}
	return result, nil
}

func scanVan(s scanner) (domain.Vehicle, error) {
	var (
		v      domain.Vehicle
		id     pgtype.UUID
		status string
	)
	err := s.Scan(&id, &v.Plate, &v.Model, &status, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Vehicle{}, domain.ErrNotFound
		}
		return domain.Vehicle{}, err
	}
	v.ID = uuid.UUID(id.Bytes)
	v.Status = domain.VehicleStatus(status)
	return v, nil
}
