// Package availability derives the set of assignable vans from the
// current trip collection. The result is recomputed from scratch on every
// call — no cache — because correctness depends on always reflecting the
// latest in-memory trips.
package availability

import (
	"github.com/google/uuid"

	"github.com/balhadj47/fleet-console/internal/domain"
)

// Available returns the vans that can be bound to a new trip: every van
// not referenced by an active trip and not parked in a non-assignable
// status (maintenance, inactive). The trip collection, not the van's own
// status field, decides active bindings — the status field can drift
// briefly after a failed compensating action.
func Available(vehicles []domain.Vehicle, trips []domain.Trip) []domain.Vehicle {
	inUse := make(map[uuid.UUID]bool)
	for _, t := range trips {
		if t.Status == domain.StatusActive {
			inUse[t.VehicleID] = true
		}
	}

	out := make([]domain.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if !inUse[v.ID] && v.Status.Assignable() {
			out = append(out, v)
		}
	}
	return out
}
