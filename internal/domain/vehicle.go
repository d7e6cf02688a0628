package domain

import (
	"time"

	"github.com/google/uuid"
)

// VehicleStatus is the operational state of a van.
// "En Transit" mirrors whether the van is bound to an active trip; the
// repository flips it as a best-effort side effect of trip writes, so
// short-lived drift between this field and the trip collection is
// possible after a failed compensating action.
type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "Active"
	VehicleEnTransit   VehicleStatus = "En Transit"
	VehicleMaintenance VehicleStatus = "Maintenance"
	VehicleInactive    VehicleStatus = "Inactive"
)

// Assignable reports whether the status permits binding the van to a new
// trip at all. "En Transit" is deliberately assignable here: the trip
// collection, not this field, is the source of truth for active bindings,
// and the availability resolver consults the trips directly.
func (s VehicleStatus) Assignable() bool {
	switch s {
	case VehicleMaintenance, VehicleInactive:
		return false
	}
	return true
}

// Vehicle is a van in the fleet, referenced by trips through its ID.
type Vehicle struct {
	ID        uuid.UUID     `json:"id"`
	Plate     string        `json:"plate"`
	Model     string        `json:"model,omitempty"`
	Status    VehicleStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
