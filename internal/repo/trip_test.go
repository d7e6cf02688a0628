package repo_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balhadj47/fleet-console/internal/auth"
	"github.com/balhadj47/fleet-console/internal/cache"
	"github.com/balhadj47/fleet-console/internal/domain"
	"github.com/balhadj47/fleet-console/internal/repo"
	"github.com/balhadj47/fleet-console/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sysCtx returns a context carrying the system session, satisfying the
// repository's auth precondition.
func sysCtx() context.Context {
	return auth.WithSession(context.Background(), auth.SystemSession())
}

// ---- auth precondition (no database needed) --------------------------------

// TestTripRepo_requiresAuth verifies every operation fails before any I/O
// when the context has no session: the db handle here is nil, so touching
// the network would panic.
func TestTripRepo_requiresAuth(t *testing.T) {
	r := repo.NewTripRepo(nil, cache.New(), time.Minute, discardLogger())
	ctx := context.Background()

	_, err := r.List(ctx, true, nil)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, _, err = r.Create(ctx, domain.Trip{})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = r.Complete(ctx, uuid.New(), 100)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = r.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestVanRepo_requiresAuth(t *testing.T) {
	r := repo.NewVanRepo(nil)
	ctx := context.Background()

	_, err := r.List(ctx)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = r.Create(ctx, domain.Vehicle{Plate: "X"})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = r.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

// ---- integration (gated on TEST_DATABASE_URL) ------------------------------

type fixtures struct {
	pool  *pgxpool.Pool
	trips repo.TripRepo
	vans  repo.VanRepo
	cache *cache.Cache
}

func newFixtures(t *testing.T) fixtures {
	t.Helper()
	pool := testutil.NewPool(t)
	c := cache.New()
	return fixtures{
		pool:  pool,
		trips: repo.NewTripRepo(pool, c, time.Minute, discardLogger()),
		vans:  repo.NewVanRepo(pool),
		cache: c,
	}
}

func (f fixtures) newVan(t *testing.T) domain.Vehicle {
	t.Helper()
	van, err := f.vans.Create(sysCtx(), domain.Vehicle{
		Plate: fmt.Sprintf("TST-%s", uuid.NewString()[:8]),
		Model: "Sprinter",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = f.pool.Exec(context.Background(), "DELETE FROM vans WHERE id = $1", van.ID)
	})
	return van
}

func buildTrip(vanID uuid.UUID) domain.Trip {
	return domain.Trip{
		VehicleID: vanID,
		Driver:    "K. Benali",
		Clients: []domain.ClientSite{
			{CompanyID: uuid.New(), BranchID: uuid.New(), CompanyName: "Acme", BranchName: "North"},
			{CompanyID: uuid.New(), BranchID: uuid.New(), CompanyName: "Acme", BranchName: "South"},
		},
		Crew: []domain.CrewMember{
			{UserID: uuid.New(), Roles: []domain.Role{{Name: domain.RoleGroupLeader}, {Name: domain.RoleDriver}}},
			{UserID: uuid.New(), Roles: []domain.Role{{ID: "4", Name: domain.RoleArmedEscort}}},
		},
		StartKm: 1000,
		Notes:   "integration run",
	}
}

func (f fixtures) cleanupTrip(t *testing.T, id uuid.UUID) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = f.pool.Exec(context.Background(), "DELETE FROM trips WHERE id = $1", id)
	})
}

func TestTripRepo_createCompleteLifecycle(t *testing.T) {
	f := newFixtures(t)
	van := f.newVan(t)

	created, se, err := f.trips.Create(sysCtx(), buildTrip(van.ID))
	require.NoError(t, err)
	f.cleanupTrip(t, created.ID)

	assert.True(t, se.Clean(), "side effects should succeed: %+v", se)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, domain.StatusActive, created.Status)
	assert.Equal(t, van.ID, created.VehicleID)
	assert.Len(t, created.Clients, 2)
	assert.Len(t, created.Crew, 2)
	assert.False(t, created.CreatedAt.IsZero())

	// The bound van flipped to "En Transit".
	got, err := f.vans.GetByID(sysCtx(), van.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleEnTransit, got.Status)

	// Completion stores the end reading and returns the van.
	se, err = f.trips.Complete(sysCtx(), created.ID, 1200)
	require.NoError(t, err)
	assert.NoError(t, se.VehicleStatusErr)

	got, err = f.vans.GetByID(sysCtx(), van.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleActive, got.Status)

	trips, err := f.trips.List(sysCtx(), false, nil)
	require.NoError(t, err)
	var found *domain.Trip
	for i := range trips {
		if trips[i].ID == created.ID {
			found = &trips[i]
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, domain.StatusCompleted, found.Status)
	require.NotNil(t, found.EndKm)
	assert.EqualValues(t, 1200, *found.EndKm)

	// Completing twice loses the compare-and-swap.
	_, err = f.trips.Complete(sysCtx(), created.ID, 1300)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTripRepo_deleteActiveTripRevertsVan(t *testing.T) {
	f := newFixtures(t)
	van := f.newVan(t)

	created, _, err := f.trips.Create(sysCtx(), buildTrip(van.ID))
	require.NoError(t, err)
	f.cleanupTrip(t, created.ID)

	se, err := f.trips.Delete(sysCtx(), created.ID)
	require.NoError(t, err)
	assert.NoError(t, se.VehicleStatusErr)

	// The van came back even though the trip was never completed.
	got, err := f.vans.GetByID(sysCtx(), van.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleActive, got.Status)

	_, err = f.trips.Delete(sysCtx(), created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripRepo_completeMissingTrip(t *testing.T) {
	f := newFixtures(t)

	_, err := f.trips.Complete(sysCtx(), uuid.New(), 100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestTripRepo_writesInvalidateCache verifies a cached read never serves
// data captured strictly before a mutation.
func TestTripRepo_writesInvalidateCache(t *testing.T) {
	f := newFixtures(t)
	van := f.newVan(t)

	before, err := f.trips.List(sysCtx(), true, nil)
	require.NoError(t, err)

	created, _, err := f.trips.Create(sysCtx(), buildTrip(van.ID))
	require.NoError(t, err)
	f.cleanupTrip(t, created.ID)

	after, err := f.trips.List(sysCtx(), true, nil)
	require.NoError(t, err)

	require.Len(t, after, len(before)+1)
	assert.Equal(t, created.ID, after[0].ID, "newest trip first")
}

func TestTripRepo_paginatedListBypassesCache(t *testing.T) {
	f := newFixtures(t)
	van := f.newVan(t)

	created, _, err := f.trips.Create(sysCtx(), buildTrip(van.ID))
	require.NoError(t, err)
	f.cleanupTrip(t, created.ID)

	page := domain.NewPaginationParams(nil, intPtr(1))
	trips, err := f.trips.List(sysCtx(), true, &page)
	require.NoError(t, err)
	assert.Len(t, trips, 1)
}

func intPtr(v int) *int { return &v }
