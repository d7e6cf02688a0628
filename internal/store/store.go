// Package store holds the canonical in-memory trip collection the console
// renders, and mutates it optimistically: local state changes before the
// repository confirms, then is reconciled with the authoritative response
// or rolled back on failure.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/balhadj47/fleet-console/internal/domain"
	"github.com/balhadj47/fleet-console/internal/repo"
	"github.com/balhadj47/fleet-console/internal/service"
)

// Store is the optimistic trip collection. Safe for concurrent use; all
// collection access goes through its mutex.
type Store struct {
	mu     sync.Mutex
	trips  []domain.Trip
	closed bool

	repo repo.TripRepo
	log  *slog.Logger
}

// New constructs an empty Store over the given repository. Call Reload to
// populate it with the authoritative collection.
func New(r repo.TripRepo, log *slog.Logger) *Store {
	return &Store{repo: r, log: log}
}

// Snapshot returns a copy of the current collection, newest-first.
// The availability resolver and the UI read through this.
func (s *Store) Snapshot() []domain.Trip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Trip, len(s.trips))
	copy(out, s.trips)
	return out
}

// Reload replaces the collection with the authoritative server state,
// bypassing the cache. It is both the initial load and the recovery path
// after a failed optimistic mutation.
func (s *Store) Reload(ctx context.Context) error {
	trips, err := s.repo.List(ctx, false, nil)
	if err != nil {
		return fmt.Errorf("store.Reload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.trips = trips
	return nil
}

// Add validates, optimistically inserts, and persists a new trip.
//
// The provisional entry carries a freshly generated uuid so two
// rapid-fire submissions can never collide, and the rollback targets the
// exact id captured at insertion time. On success the provisional entry
// is replaced by the server record; on failure it is removed and the
// error returned.
func (s *Store) Add(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	s.mu.Lock()
	if err := service.ValidateCreation(trip, s.trips); err != nil {
		s.mu.Unlock()
		return domain.Trip{}, err
	}

	provisional := trip
	provisional.ID = uuid.New()
	provisional.Status = domain.StatusActive
	provisional.CreatedAt = time.Now()
	provisionalID := provisional.ID

	s.trips = append([]domain.Trip{provisional}, s.trips...)
	s.mu.Unlock()

	created, se, err := s.repo.Create(ctx, trip)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// Torn down while the write was in flight; the result is
		// discarded rather than applied to a dead collection.
		return created, err
	}

	if err != nil {
		s.removeLocked(provisionalID)
		return domain.Trip{}, err
	}

	if !se.Clean() {
		s.log.Warn("trip created with failed side effects",
			"trip_id", created.ID,
			"client_link_error", se.ClientLinkErr,
			"vehicle_status_error", se.VehicleStatusErr)
	}

	for i := range s.trips {
		if s.trips[i].ID == provisionalID {
			s.trips[i] = created
			break
		}
	}
	return created, nil
}

// Complete validates and applies the active → completed transition:
// end_km and status change locally first, then the repository confirms.
// On a repository failure the collection is restored from the server.
func (s *Store) Complete(ctx context.Context, id uuid.UUID, endKm int64) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("store.Complete: %w", domain.ErrNotFound)
	}
	if err := service.ValidateCompletion(s.trips[idx], endKm); err != nil {
		s.mu.Unlock()
		return err
	}

	km := endKm
	s.trips[idx].EndKm = &km
	s.trips[idx].Status = domain.StatusCompleted
	s.mu.Unlock()

	if _, err := s.repo.Complete(ctx, id, endKm); err != nil {
		s.recover(ctx, "complete", id)
		return err
	}
	return nil
}

// Remove deletes a trip: it leaves the local collection first, then the
// repository confirms (reverting the van status server-side when the trip
// was still active). On failure the collection is restored from the
// server.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("store.Remove: %w", domain.ErrNotFound)
	}
	s.removeLocked(id)
	s.mu.Unlock()

	if _, err := s.repo.Delete(ctx, id); err != nil {
		s.recover(ctx, "delete", id)
		return err
	}
	return nil
}

// Close marks the store torn down and drops the collection. Results of
// in-flight mutations are still awaited by their callers but no longer
// applied.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.trips = nil
}

// recover restores local correctness after a failed mutation by reloading
// the full authoritative collection — a whole-set refresh, not a
// fine-grained patch.
func (s *Store) recover(ctx context.Context, op string, id uuid.UUID) {
	if err := s.Reload(ctx); err != nil {
		s.log.Error("state recovery reload failed; collection may be stale",
			"op", op, "trip_id", id, "error", err)
	}
}

func (s *Store) indexLocked(id uuid.UUID) int {
	for i := range s.trips {
		if s.trips[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(id uuid.UUID) {
	for i := range s.trips {
		if s.trips[i].ID == id {
			s.trips = append(s.trips[:i], s.trips[i+1:]...)
			return
		}
	}
}
