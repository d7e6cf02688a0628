// Package repo contains all database access logic for the fleet console.
// Each resource has its own file with an interface and a Postgres
// implementation. No business logic lives here — only SQL, type mapping,
// and the best-effort side effects that keep vans and trips in step.
//
// Every operation asserts an authenticated session before touching the
// network, so unauthenticated calls fail fast and deterministically.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/balhadj47/fleet-console/internal/auth"
	"github.com/balhadj47/fleet-console/internal/cache"
	"github.com/balhadj47/fleet-console/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Cache namespace for trip reads. Every trip write clears this prefix.
const (
	tripCachePrefix = "trips:"
	tripListKey     = tripCachePrefix + "all"
)

// TripRepo defines the persistence operations for trips.
// The optimistic store depends on this interface, not the concrete
// Postgres implementation, which allows it to be unit-tested with a mock.
type TripRepo interface {
	// List returns trips ordered by creation descending. When useCache is
	// true and no pagination is requested the whole-collection cache is
	// consulted and concurrent fetches are coalesced into one query.
	// Paginated reads never touch the cache.
	List(ctx context.Context, useCache bool, page *domain.PaginationParams) ([]domain.Trip, error)

	// Create inserts the trip row (with its denormalized client snapshot),
	// then best-effort inserts one trip_companies row per client and flips
	// the bound van to "En Transit". Secondary failures are recorded in
	// the returned SideEffects, never in err.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, domain.SideEffects, error)

	// Complete sets end_km and status=completed, guarded by a
	// compare-and-swap on status=active, then best-effort returns the van
	// to "Active". Returns domain.ErrNotFound if the trip is absent and
	// domain.ErrConflict if it is no longer active.
	Complete(ctx context.Context, id uuid.UUID, endKm int64) (domain.SideEffects, error)

	// Delete removes the trip and, only when it was still active,
	// best-effort reverts the van status. Returns domain.ErrNotFound if
	// the trip is absent.
	Delete(ctx context.Context, id uuid.UUID) (domain.SideEffects, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db    db
	cache *cache.Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewTripRepo constructs a TripRepo backed by the provided db connection,
// consulting the shared cache for unpaginated reads with the given TTL.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback
// isolation.
func NewTripRepo(db db, c *cache.Cache, ttl time.Duration, log *slog.Logger) TripRepo {
	return &pgTripRepo{db: db, cache: c, ttl: ttl, log: log}
}

const tripColumns = `id, van_id, driver, notes, user_ids, user_roles, start_km, end_km,
	       status, planned_start_date, planned_end_date, companies_data, created_at`

// List returns trips newest-first, optionally through the cache.
func (r *pgTripRepo) List(ctx context.Context, useCache bool, page *domain.PaginationParams) ([]domain.Trip, error) {
	if _, err := auth.Require(ctx); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", err)
	}

	if !useCache || page != nil {
		return r.queryTrips(ctx, page)
	}

	if v, ok := r.cache.Get(tripListKey); ok {
		return v.([]domain.Trip), nil
	}

	// Coalesce concurrent cold-cache fetches into a single query; every
	// waiter shares the one result.
	v, err := r.cache.Do(tripListKey, func() (any, error) {
		trips, err := r.queryTrips(ctx, nil)
		if err != nil {
			return nil, err
		}
		r.cache.Set(tripListKey, trips, r.ttl)
		return trips, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Trip), nil
}

func (r *pgTripRepo) queryTrips(ctx context.Context, page *domain.PaginationParams) ([]domain.Trip, error) {
	q := `
		SELECT ` + tripColumns + `
		FROM trips
		ORDER BY created_at DESC`
	args := pgx.NamedArgs{}
	if page != nil {
		q += `
		LIMIT @limit OFFSET @offset`
		args["limit"] = page.Limit
		args["offset"] = page.Offset()
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.List: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.List: rows: %w", err)
	}

	return trips, nil
}

// Create performs the compound trip write. Step 1 (trip row) is the
// primary write and the only one that can fail the operation; steps 2
// (join rows) and 3 (van flip) are compensable side effects.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, domain.SideEffects, error) {
	var se domain.SideEffects

	if _, err := auth.Require(ctx); err != nil {
		return domain.Trip{}, se, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}

	companiesData, err := json.Marshal(trip.Clients)
	if err != nil {
		return domain.Trip{}, se, fmt.Errorf("repo.TripRepo.Create: encode clients: %w", err)
	}
	userRoles, err := encodeCrew(trip.Crew)
	if err != nil {
		return domain.Trip{}, se, fmt.Errorf("repo.TripRepo.Create: encode crew: %w", err)
	}

	const q = `
		INSERT INTO trips (van_id, driver, notes, user_ids, user_roles, start_km,
		                   planned_start_date, planned_end_date, companies_data)
		VALUES (@van_id, @driver, @notes, @user_ids, @user_roles, @start_km,
		        @planned_start_date, @planned_end_date, @companies_data)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"van_id":             trip.VehicleID,
		"driver":             trip.Driver,
		"notes":              trip.Notes,
		"user_ids":           crewUserIDs(trip.Crew),
		"user_roles":         userRoles,
		"start_km":           trip.StartKm,
		"planned_start_date": trip.PlannedStart, // nil becomes NULL
		"planned_end_date":   trip.PlannedEnd,
		"companies_data":     companiesData,
	}

	created, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, se, fmt.Errorf("repo.TripRepo.Create: insert trip: %w", err)
	}

	// The trip row exists from here on. Join-row and van-status failures
	// are recorded and logged, never propagated.
	se.ClientLinkErr = r.insertClientLinks(ctx, created.ID, trip.Clients)
	if se.ClientLinkErr != nil {
		r.log.Warn("trip client links partially written",
			"trip_id", created.ID, "error", se.ClientLinkErr)
	}

	se.VehicleStatusErr = r.setVanStatus(ctx, trip.VehicleID, domain.VehicleEnTransit)
	if se.VehicleStatusErr != nil {
		r.log.Warn("van status flip failed after trip creation",
			"trip_id", created.ID, "van_id", trip.VehicleID, "error", se.VehicleStatusErr)
	}

	r.cache.Clear(tripCachePrefix)
	return created, se, nil
}

// Complete ends a trip. The status update is a compare-and-swap: a
// concurrent complete or delete makes RowsAffected zero, which surfaces
// as ErrConflict instead of silently double-applying.
func (r *pgTripRepo) Complete(ctx context.Context, id uuid.UUID, endKm int64) (domain.SideEffects, error) {
	var se domain.SideEffects

	if _, err := auth.Require(ctx); err != nil {
		return se, fmt.Errorf("repo.TripRepo.Complete: %w", err)
	}

	vanID, status, err := r.lookupTrip(ctx, id)
	if err != nil {
		return se, fmt.Errorf("repo.TripRepo.Complete: %w", err)
	}
	if status != domain.StatusActive {
		return se, fmt.Errorf("repo.TripRepo.Complete: trip is %s: %w", status, domain.ErrConflict)
	}

	const q = `
		UPDATE trips
		SET end_km = @end_km, status = 'completed'
		WHERE id = @id AND status = 'active'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "end_km": endKm})
	if err != nil {
		return se, fmt.Errorf("repo.TripRepo.Complete: update trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return se, fmt.Errorf("repo.TripRepo.Complete: trip no longer active: %w", domain.ErrConflict)
	}

	se.VehicleStatusErr = r.setVanStatus(ctx, vanID, domain.VehicleActive)
	if se.VehicleStatusErr != nil {
		r.log.Warn("van status revert failed after trip completion",
			"trip_id", id, "van_id", vanID, "error", se.VehicleStatusErr)
	}

	r.cache.Clear(tripCachePrefix)
	return se, nil
}

// Delete removes a trip. Only a trip that was still active triggers the
// van-status compensating action — completed trips already returned their
// van when they ended.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) (domain.SideEffects, error) {
	var se domain.SideEffects

	if _, err := auth.Require(ctx); err != nil {
		return se, fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}

	vanID, status, err := r.lookupTrip(ctx, id)
	if err != nil {
		return se, fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}

	// trip_companies rows go with the trip via ON DELETE CASCADE.
	const q = `DELETE FROM trips WHERE id = @id`
	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return se, fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return se, fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}

	if status == domain.StatusActive {
		se.VehicleStatusErr = r.setVanStatus(ctx, vanID, domain.VehicleActive)
		if se.VehicleStatusErr != nil {
			r.log.Warn("van status revert failed after trip deletion",
				"trip_id", id, "van_id", vanID, "error", se.VehicleStatusErr)
		}
	}

	r.cache.Clear(tripCachePrefix)
	return se, nil
}

// lookupTrip fetches the van binding and current status of a trip.
func (r *pgTripRepo) lookupTrip(ctx context.Context, id uuid.UUID) (uuid.UUID, domain.TripStatus, error) {
	const q = `SELECT van_id, status FROM trips WHERE id = @id`

	var (
		vanID  pgtype.UUID
		status string
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&vanID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", domain.ErrNotFound
		}
		return uuid.Nil, "", err
	}
	return uuid.UUID(vanID.Bytes), domain.TripStatus(status), nil
}

// insertClientLinks writes one trip_companies row per client site.
// All rows are attempted; the first error is returned for the caller's
// SideEffects record.
func (r *pgTripRepo) insertClientLinks(ctx context.Context, tripID uuid.UUID, clients []domain.ClientSite) error {
	const q = `
		INSERT INTO trip_companies (trip_id, company_id, branch_id, company_name, branch_name)
		VALUES (@trip_id, @company_id, @branch_id, @company_name, @branch_name)`

	var firstErr error
	for _, c := range clients {
		_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
			"trip_id":      tripID,
			"company_id":   c.CompanyID,
			"branch_id":    c.BranchID,
			"company_name": c.CompanyName,
			"branch_name":  c.BranchName,
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *pgTripRepo) setVanStatus(ctx context.Context, vanID uuid.UUID, status domain.VehicleStatus) error {
	const q = `UPDATE vans SET status = @status WHERE id = @id`
	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": vanID, "status": string(status)})
	return err
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
// It handles UUID conversions, the nullable end_km and planning window,
// and the jsonb crew/client snapshots.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t             domain.Trip
		id            pgtype.UUID
		vanID         pgtype.UUID
		userIDs       []uuid.UUID
		userRoles     []byte
		endKm         pgtype.Int8
		status        string
		plannedStart  pgtype.Timestamptz
		plannedEnd    pgtype.Timestamptz
		companiesData []byte
	)

	err := s.Scan(&id, &vanID, &t.Driver, &t.Notes, &userIDs, &userRoles, &t.StartKm,
		&endKm, &status, &plannedStart, &plannedEnd, &companiesData, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.VehicleID = uuid.UUID(vanID.Bytes)
	t.Status = domain.TripStatus(status)
	if endKm.Valid {
		v := endKm.Int64
		t.EndKm = &v
	}
	if plannedStart.Valid {
		ts := plannedStart.Time
		t.PlannedStart = &ts
	}
	if plannedEnd.Valid {
		ts := plannedEnd.Time
		t.PlannedEnd = &ts
	}

	t.Crew, err = decodeCrew(userRoles, userIDs)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("decode crew: %w", err)
	}
	if len(companiesData) > 0 {
		if err := json.Unmarshal(companiesData, &t.Clients); err != nil {
			return domain.Trip{}, fmt.Errorf("decode clients: %w", err)
		}
	}

	return t, nil
}
