// Package handler implements the HTTP surface of the fleet console API.
// All handlers are methods on Server. Methods are split into
// resource-specific files (trip.go, van.go, health.go) but all share the
// same Server struct so they can access its dependencies.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/balhadj47/fleet-console/internal/domain"
)

// TripStore defines the optimistic-collection operations the handlers
// depend on. Defining the interface here (in the consumer package)
// follows the Go convention: "accept interfaces, return concrete types".
// It lets handler tests inject a mock without a database or repository.
type TripStore interface {
	Snapshot() []domain.Trip
	Add(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	Complete(ctx context.Context, id uuid.UUID, endKm int64) error
	Remove(ctx context.Context, id uuid.UUID) error
}

// TripLister reads the trip collection straight from the repository,
// used for the list endpoint so pagination and the cached path behave
// exactly as the repository specifies.
type TripLister interface {
	List(ctx context.Context, useCache bool, page *domain.PaginationParams) ([]domain.Trip, error)
}

// VanLister reads the fleet for the availability endpoint.
type VanLister interface {
	List(ctx context.Context) ([]domain.Vehicle, error)
}

// Server holds the handler dependencies for all API endpoints.
type Server struct {
	store TripStore
	trips TripLister
	vans  VanLister
}

// NewServer constructs the Server with all its dependencies.
func NewServer(store TripStore, trips TripLister, vans VanLister) *Server {
	return &Server{store: store, trips: trips, vans: vans}
}

// Routes returns the authenticated API router. The health endpoint is
// registered separately in main, outside the auth middleware.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.listTrips)
		r.Post("/", s.createTrip)
		r.Post("/{id}/complete", s.completeTrip)
		r.Delete("/{id}", s.deleteTrip)
	})
	r.Get("/vans/available", s.listAvailableVans)
	return r
}
