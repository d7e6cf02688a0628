package wizard_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balhadj47/fleet-console/internal/domain"
	"github.com/balhadj47/fleet-console/internal/wizard"
)

func crewWithRoles(names ...string) []domain.CrewMember {
	roles := make([]domain.Role, len(names))
	for i, n := range names {
		roles[i] = domain.Role{Name: n}
	}
	return []domain.CrewMember{{UserID: uuid.New(), Roles: roles}}
}

// fillThrough completes every step up to and including the given one.
func fillThrough(e *wizard.Engine, step wizard.Step) {
	if step >= wizard.StepVehicle {
		e.SetVehicle(uuid.New(), "K. Benali")
	}
	if step >= wizard.StepClients {
		e.SetClients([]domain.ClientSite{{CompanyID: uuid.New(), BranchID: uuid.New()}})
	}
	if step >= wizard.StepCrew {
		e.SetCrew(crewWithRoles(domain.RoleGroupLeader, domain.RoleDriver))
	}
	if step >= wizard.StepDetails {
		e.SetDetails(1000, nil, nil, "")
	}
}

func TestEngine_Next_refusesWithoutVehicle(t *testing.T) {
	e := wizard.New()

	err := e.Next()

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, wizard.StepVehicle, e.Step())
}

// TestEngine_Next_crewStepGating verifies the crew gate: advancing is
// refused while the crew set is empty and succeeds once one member with
// one role is present.
func TestEngine_Next_crewStepGating(t *testing.T) {
	e := wizard.New()
	fillThrough(e, wizard.StepClients)
	require.NoError(t, e.Next()) // vehicle → clients
	require.NoError(t, e.Next()) // clients → crew

	err := e.Next()
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, wizard.StepCrew, e.Step())

	// A member without roles is not enough.
	e.SetCrew([]domain.CrewMember{{UserID: uuid.New()}})
	assert.ErrorIs(t, e.Next(), domain.ErrValidation)

	e.SetCrew(crewWithRoles(domain.RoleDriver))
	require.NoError(t, e.Next())
	assert.Equal(t, wizard.StepDetails, e.Step())
}

func TestEngine_Back_preservesLaterStepData(t *testing.T) {
	e := wizard.New()
	fillThrough(e, wizard.StepDetails)
	require.NoError(t, e.Next())
	require.NoError(t, e.Next())
	require.NoError(t, e.Next())

	e.Back()
	e.Back()
	assert.Equal(t, wizard.StepClients, e.Step())

	// Navigating backward never discards later-step data.
	f := e.Form()
	assert.NotEmpty(t, f.Crew)
	require.NotNil(t, f.StartKm)
	assert.EqualValues(t, 1000, *f.StartKm)
}

func TestEngine_GoTo_onlyReachedSteps(t *testing.T) {
	e := wizard.New()
	fillThrough(e, wizard.StepClients)
	require.NoError(t, e.Next())

	assert.Error(t, e.GoTo(wizard.StepDetails))
	require.NoError(t, e.GoTo(wizard.StepVehicle))
	assert.Equal(t, wizard.StepVehicle, e.Step())
	require.NoError(t, e.GoTo(wizard.StepClients))
}

// TestEngine_Submit_missingCrewNeverBuildsPayload covers the scenario of
// a submission with a start reading but no crew: it fails locally and no
// payload is produced for the repository path.
func TestEngine_Submit_missingCrewNeverBuildsPayload(t *testing.T) {
	e := wizard.New()
	e.SetVehicle(uuid.New(), "K. Benali")
	e.SetClients([]domain.ClientSite{{CompanyID: uuid.New(), BranchID: uuid.New()}})
	e.SetDetails(1000, nil, nil, "")

	_, err := e.Submit()

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEngine_Submit_requiresGroupLeaderAndDriver(t *testing.T) {
	e := wizard.New()
	fillThrough(e, wizard.StepDetails)

	e.SetCrew(crewWithRoles(domain.RoleDriver))
	_, err := e.Submit()
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, domain.RoleGroupLeader)

	e.SetCrew(crewWithRoles(domain.RoleGroupLeader))
	_, err = e.Submit()
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, domain.RoleDriver)

	e.SetCrew(crewWithRoles(domain.RoleGroupLeader, domain.RoleDriver))
	_, err = e.Submit()
	assert.NoError(t, err)
}

func TestEngine_Submit_invertedDates(t *testing.T) {
	e := wizard.New()
	fillThrough(e, wizard.StepCrew)
	start := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(-2 * time.Hour)
	e.SetDetails(1000, &start, &end, "")

	_, err := e.Submit()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEngine_Submit_failureLeavesPositionUntouched(t *testing.T) {
	e := wizard.New()
	fillThrough(e, wizard.StepDetails)
	require.NoError(t, e.Next())
	require.NoError(t, e.Next())
	require.NoError(t, e.Next())
	require.Equal(t, wizard.StepDetails, e.Step())

	e.SetCrew(nil) // user cleared the crew after reaching the last step
	_, err := e.Submit()

	require.Error(t, err)
	assert.Equal(t, wizard.StepDetails, e.Step())
}

func TestEngine_Submit_buildsNormalizedPayload(t *testing.T) {
	e := wizard.New()
	vanID := uuid.New()
	e.SetVehicle(vanID, "K. Benali")
	clients := []domain.ClientSite{
		{CompanyID: uuid.New(), BranchID: uuid.New(), CompanyName: "Acme", BranchName: "North"},
		{CompanyID: uuid.New(), BranchID: uuid.New(), CompanyName: "Acme", BranchName: "South"},
	}
	e.SetClients(clients)
	e.SetCrew(crewWithRoles(domain.RoleGroupLeader, domain.RoleDriver))
	e.SetDetails(1000, nil, nil, "night run")

	trip, err := e.Submit()

	require.NoError(t, err)
	assert.Equal(t, vanID, trip.VehicleID)
	assert.Equal(t, clients, trip.Clients)
	assert.EqualValues(t, 1000, trip.StartKm)
	assert.Equal(t, "night run", trip.Notes)
	// Status is assigned by the store/repository, not the wizard.
	assert.Empty(t, trip.Status)
}
