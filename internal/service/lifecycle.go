// Package service contains the business rules of the trip lifecycle:
// which transitions are legal and what inputs they require. The rules are
// pure and synchronous — a guard that fails here never reaches the
// repository. The optimistic store and the wizard both call into this
// package so creation is validated identically on every path.
package service

import (
	"fmt"

	"github.com/balhadj47/fleet-console/internal/domain"
)

// ValidateCreation checks the guards for creating a trip in the "active"
// state against the current trip collection:
//   - at least one crew member holding at least one role,
//   - a non-negative start odometer reading,
//   - an ordered planning window when both ends are set,
//   - a vehicle not already bound to another active trip.
func ValidateCreation(trip domain.Trip, existing []domain.Trip) error {
	if !trip.HasCrew() {
		return fmt.Errorf("%w: at least one crew member with a role is required", domain.ErrValidation)
	}
	if trip.StartKm < 0 {
		return fmt.Errorf("%w: start_km must not be negative", domain.ErrValidation)
	}
	if trip.PlannedStart != nil && trip.PlannedEnd != nil && trip.PlannedEnd.Before(*trip.PlannedStart) {
		return fmt.Errorf("%w: planned_end_date must not be before planned_start_date", domain.ErrValidation)
	}
	for _, t := range existing {
		if t.Status == domain.StatusActive && t.VehicleID == trip.VehicleID {
			return fmt.Errorf("%w: van is bound to trip %s", domain.ErrVehicleUnavailable, t.ID)
		}
	}
	return nil
}

// ValidateCompletion checks the active → completed transition for a trip:
// the trip must still be active and the end reading must not fall below
// the start reading.
func ValidateCompletion(trip domain.Trip, endKm int64) error {
	if !trip.Status.CanTransitionTo(domain.StatusCompleted) {
		return fmt.Errorf("%w: trip is %s", domain.ErrConflict, trip.Status)
	}
	if endKm < trip.StartKm {
		return fmt.Errorf("%w: end_km must be >= start_km", domain.ErrValidation)
	}
	return nil
}
