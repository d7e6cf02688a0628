// Package wizard implements the step-sequenced form state behind trip
// creation: vehicle → clients → crew → details. Each step gates forward
// navigation with a pure predicate, backward navigation never discards
// later-step data, and final submission re-runs the full-form validation
// before producing the payload handed to the optimistic store.
package wizard

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/balhadj47/fleet-console/internal/domain"
)

// Step identifies one wizard page, in fixed order.
type Step int

const (
	StepVehicle Step = iota
	StepClients
	StepCrew
	StepDetails
)

func (s Step) String() string {
	switch s {
	case StepVehicle:
		return "vehicle"
	case StepClients:
		return "clients"
	case StepCrew:
		return "crew"
	case StepDetails:
		return "details"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Form is the accumulated wizard state. StartKm is a pointer because the
// details step must distinguish "not entered" from a legitimate zero
// reading.
type Form struct {
	VehicleID    uuid.UUID
	Driver       string
	Clients      []domain.ClientSite
	Crew         []domain.CrewMember
	StartKm      *int64
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	Notes        string
}

// Engine tracks the current step and the furthest step reached, so
// completed steps stay independently revisitable.
type Engine struct {
	form    Form
	step    Step
	reached Step
}

// New returns an Engine positioned at the vehicle step with an empty form.
func New() *Engine {
	return &Engine{}
}

// Step returns the current step.
func (e *Engine) Step() Step { return e.step }

// Form returns a copy of the accumulated form state.
func (e *Engine) Form() Form { return e.form }

// SetVehicle records the vehicle selection. Later-step data is untouched.
func (e *Engine) SetVehicle(vehicleID uuid.UUID, driver string) {
	e.form.VehicleID = vehicleID
	e.form.Driver = driver
}

// SetClients records the client destinations (one or many).
func (e *Engine) SetClients(clients []domain.ClientSite) {
	e.form.Clients = clients
}

// SetCrew records the crew assignment.
func (e *Engine) SetCrew(crew []domain.CrewMember) {
	e.form.Crew = crew
}

// SetDetails records the odometer reading, planning window, and notes.
func (e *Engine) SetDetails(startKm int64, plannedStart, plannedEnd *time.Time, notes string) {
	e.form.StartKm = &startKm
	e.form.PlannedStart = plannedStart
	e.form.PlannedEnd = plannedEnd
	e.form.Notes = notes
}

// CanAdvance is the pure per-step gate: it reports whether the form holds
// everything the given step requires.
func CanAdvance(step Step, f Form) bool {
	switch step {
	case StepVehicle:
		return f.VehicleID != uuid.Nil
	case StepClients:
		return len(f.Clients) > 0
	case StepCrew:
		for _, m := range f.Crew {
			if len(m.Roles) > 0 {
				return true
			}
		}
		return false
	case StepDetails:
		if f.StartKm == nil || *f.StartKm < 0 {
			return false
		}
		if f.PlannedStart != nil && f.PlannedEnd != nil && f.PlannedEnd.Before(*f.PlannedStart) {
			return false
		}
		return true
	}
	return false
}

// Next advances to the following step, refusing with a step-specific
// validation error when the current step's gate does not hold.
func (e *Engine) Next() error {
	if e.step == StepDetails {
		return fmt.Errorf("%w: already at the final step", domain.ErrValidation)
	}
	if !CanAdvance(e.step, e.form) {
		return fmt.Errorf("%w: %s", domain.ErrValidation, stepMessage(e.step))
	}
	e.step++
	if e.step > e.reached {
		e.reached = e.step
	}
	return nil
}

// Back moves to the previous step. Always allowed; no form data is lost.
func (e *Engine) Back() {
	if e.step > StepVehicle {
		e.step--
	}
}

// GoTo jumps directly to a previously reached step.
func (e *Engine) GoTo(step Step) error {
	if step < StepVehicle || step > e.reached {
		return fmt.Errorf("%w: step %s not reached yet", domain.ErrValidation, step)
	}
	e.step = step
	return nil
}

// Submit re-runs the full-form validation — a superset of the per-step
// gates, adding crew-role adequacy — and returns the normalized trip
// payload. A validation failure leaves the wizard position untouched so
// the user can fix the offending field and resubmit.
func (e *Engine) Submit() (domain.Trip, error) {
	if err := ValidateForm(e.form); err != nil {
		return domain.Trip{}, err
	}

	return domain.Trip{
		VehicleID:    e.form.VehicleID,
		Driver:       e.form.Driver,
		Clients:      e.form.Clients,
		Crew:         e.form.Crew,
		StartKm:      *e.form.StartKm,
		PlannedStart: e.form.PlannedStart,
		PlannedEnd:   e.form.PlannedEnd,
		Notes:        e.form.Notes,
	}, nil
}

// ValidateForm checks the whole form at once, naming the first offending
// field. Step gates are re-applied, then the submission-only rules: the
// crew must include at least one group leader and one driver.
func ValidateForm(f Form) error {
	if f.VehicleID == uuid.Nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, stepMessage(StepVehicle))
	}
	if len(f.Clients) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrValidation, stepMessage(StepClients))
	}
	if !CanAdvance(StepCrew, f) {
		return fmt.Errorf("%w: %s", domain.ErrValidation, stepMessage(StepCrew))
	}
	if f.StartKm == nil {
		return fmt.Errorf("%w: start_km is required", domain.ErrValidation)
	}
	if *f.StartKm < 0 {
		return fmt.Errorf("%w: start_km must not be negative", domain.ErrValidation)
	}
	if f.PlannedStart != nil && f.PlannedEnd != nil && f.PlannedEnd.Before(*f.PlannedStart) {
		return fmt.Errorf("%w: planned_end_date must not be before planned_start_date", domain.ErrValidation)
	}

	var hasLeader, hasDriver bool
	for _, m := range f.Crew {
		if m.HasRole(domain.RoleGroupLeader) {
			hasLeader = true
		}
		if m.HasRole(domain.RoleDriver) {
			hasDriver = true
		}
	}
	if !hasLeader {
		return fmt.Errorf("%w: crew must include a %s", domain.ErrValidation, domain.RoleGroupLeader)
	}
	if !hasDriver {
		return fmt.Errorf("%w: crew must include a %s", domain.ErrValidation, domain.RoleDriver)
	}

	return nil
}

func stepMessage(step Step) string {
	switch step {
	case StepVehicle:
		return "select a vehicle"
	case StepClients:
		return "select at least one client destination"
	case StepCrew:
		return "add at least one crew member with a role"
	case StepDetails:
		return "enter a valid start reading and planning window"
	}
	return "invalid step"
}
