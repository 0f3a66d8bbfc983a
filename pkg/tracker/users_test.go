package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertCreatesUser(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	user, err := store.Upsert("dana", RoleTester)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "dana", user.Name)
	assert.Equal(t, RoleTester, user.Role)
}

func TestUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	first, err := store.Upsert("dana", RoleTester)
	require.NoError(t, err)
	second, err := store.Upsert("dana", RoleTester)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	users, err := store.List()
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUpsertUpdatesRole(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	first, err := store.Upsert("dana", RoleTester)
	require.NoError(t, err)

	promoted, err := store.Upsert("dana", RoleTestLead)
	require.NoError(t, err)
	assert.Equal(t, first.ID, promoted.ID)
	assert.Equal(t, RoleTestLead, promoted.Role)
}

func TestUpsertTrimsName(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	user, err := store.Upsert("  dana  ", RoleTester)
	require.NoError(t, err)
	assert.Equal(t, "dana", user.Name)

	// The trimmed name is the upsert key.
	same, err := store.Upsert("dana", RoleTester)
	require.NoError(t, err)
	assert.Equal(t, user.ID, same.ID)
}

func TestUpsertRejectsBlankName(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	_, err := store.Upsert("   ", RoleTester)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}

func TestUpsertRejectsUnknownRole(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	_, err := store.Upsert("dana", Role("admin"))
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "role", validationErr.Field)
}

func TestListOrdersByName(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	for _, name := range []string{"zoe", "alex", "mira"} {
		_, err := store.Upsert(name, RoleTester)
		require.NoError(t, err)
	}

	users, err := store.List()
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alex", users[0].Name)
	assert.Equal(t, "mira", users[1].Name)
	assert.Equal(t, "zoe", users[2].Name)
}

func TestRoleOfNilReference(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	role, err := store.RoleOf(nil)
	require.NoError(t, err)
	assert.Nil(t, role)
}

func TestRoleOfUnknownUser(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	role, err := store.RoleOf(ptr(uint(42)))
	require.NoError(t, err)
	assert.Nil(t, role)
}

func TestRoleOfReturnsRole(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	user, err := store.Upsert("lead", RoleTestLead)
	require.NoError(t, err)

	role, err := store.RoleOf(&user.ID)
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, RoleTestLead, *role)
}

func TestDeleteDetachesReferences(t *testing.T) {
	db := newTestDB(t)
	stores := NewStores(db)

	user, err := stores.Users.Upsert("dana", RoleTestLead)
	require.NoError(t, err)

	tc, err := stores.Cases.Create(CaseDraft{
		Title:          "Search finds products",
		Steps:          []string{"type query", "press enter"},
		ExpectedResult: "results appear",
		Category:       CategoryIntegration,
		AuthorID:       &user.ID,
	})
	require.NoError(t, err)
	session, err := stores.Sessions.Create("release check")
	require.NoError(t, err)
	run, err := stores.Runs.Record(RunDraft{
		TestCaseID: tc.ID,
		SessionID:  session.ID,
		RunnerID:   &user.ID,
		URL:        "https://qa.example.com",
		Phase:      PhaseFT,
		Status:     StatusFailed,
	})
	require.NoError(t, err)
	_, err = stores.Failures.Classify(run.ID, SeverityMinor, &user.ID)
	require.NoError(t, err)

	require.NoError(t, stores.Users.Delete(user.ID))

	// Everything the user touched survives with the reference cleared.
	var storedCase TestCase
	require.NoError(t, db.First(&storedCase, tc.ID).Error)
	assert.Nil(t, storedCase.AuthorID)

	var storedRun TestRun
	require.NoError(t, db.First(&storedRun, run.ID).Error)
	assert.Nil(t, storedRun.RunnerID)

	var storedFailure Failure
	require.NoError(t, db.Where("run_id = ?", run.ID).First(&storedFailure).Error)
	assert.Nil(t, storedFailure.NotedBy)
}

func TestDeleteUnknownUserFails(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	err := store.Delete(42)
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "user", notFoundErr.Entity)
}
