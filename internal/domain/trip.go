// Package domain contains the core data types for the fleet operations
// console. It has no dependencies beyond uuid and is imported by every
// other internal package (repo, service, store, wizard, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle state of a trip.
// "active" is the only non-terminal state; a trip enters it at creation
// and leaves it exactly once, to "completed" or "terminated".
type TripStatus string

const (
	StatusActive     TripStatus = "active"
	StatusCompleted  TripStatus = "completed"
	StatusTerminated TripStatus = "terminated"
)

// transitions is the full set of legal status changes. Anything absent
// from this table is rejected by CanTransitionTo.
var transitions = map[TripStatus][]TripStatus{
	StatusActive: {StatusCompleted, StatusTerminated},
}

// Terminal reports whether no further transitions are possible.
func (s TripStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s TripStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusTerminated:
		return true
	}
	return false
}

// ClientSite is one client destination served by a trip: a company/branch
// pair with display names. Trips store these both denormalized on the trip
// row (companies_data) and as trip_companies join rows.
type ClientSite struct {
	CompanyID   uuid.UUID `json:"company_id"`
	BranchID    uuid.UUID `json:"branch_id"`
	CompanyName string    `json:"company_name,omitempty"`
	BranchName  string    `json:"branch_name,omitempty"`
}

// CrewMember is one user assigned to a trip together with the roles they
// hold for its duration.
type CrewMember struct {
	UserID uuid.UUID `json:"user_id"`
	Roles  []Role    `json:"roles"`
}

// HasRole reports whether the member holds a role with the given name.
func (m CrewMember) HasRole(name string) bool {
	for _, r := range m.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Trip is the central entity: one vehicle and one crew bound to one or
// more client destinations, from start odometer to (eventually) end.
type Trip struct {
	ID           uuid.UUID    `json:"id"`
	VehicleID    uuid.UUID    `json:"van_id"`
	Driver       string       `json:"driver"`
	Clients      []ClientSite `json:"clients"`
	Crew         []CrewMember `json:"crew"`
	StartKm      int64        `json:"start_km"`
	EndKm        *int64       `json:"end_km,omitempty"` // nil until completion
	PlannedStart *time.Time   `json:"planned_start_date,omitempty"`
	PlannedEnd   *time.Time   `json:"planned_end_date,omitempty"`
	Status       TripStatus   `json:"status"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// HasCrew reports whether at least one crew member with at least one role
// is assigned. Trips must not be submitted without this.
func (t Trip) HasCrew() bool {
	for _, m := range t.Crew {
		if len(m.Roles) > 0 {
			return true
		}
	}
	return false
}
