package tracker

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCaseDraft(title string) CaseDraft {
	return CaseDraft{
		Title:          title,
		Steps:          []string{"open the page", "do the thing"},
		ExpectedResult: "it works",
		Category:       CategoryIntegration,
	}
}

func TestCreateAssignsSequentialExternalIDs(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	for i := 1; i <= 3; i++ {
		tc, err := store.Create(newTestCaseDraft(fmt.Sprintf("case %d", i)))
		require.NoError(t, err)
		require.NotNil(t, tc.ExternalID)
		assert.Equal(t, fmt.Sprintf("TC-%d", i), *tc.ExternalID)
	}
}

func TestCreateTrimsFields(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	tc, err := store.Create(CaseDraft{
		Title:          "  Login works  ",
		Steps:          []string{" open page ", "submit "},
		ExpectedResult: " dashboard shows ",
		Category:       CategoryStudio,
	})
	require.NoError(t, err)
	assert.Equal(t, "Login works", tc.Title)
	assert.Equal(t, StepList{"open page", "submit"}, tc.Steps)
	assert.Equal(t, "dashboard shows", tc.ExpectedResult)
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	draft := newTestCaseDraft("  ")
	_, err := store.Create(draft)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "title", validationErr.Field)
}

func TestCreateRejectsStepCountOutOfRange(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	draft := newTestCaseDraft("no steps")
	draft.Steps = nil
	_, err := store.Create(draft)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "steps", validationErr.Field)

	draft = newTestCaseDraft("too many steps")
	draft.Steps = []string{"1", "2", "3", "4", "5", "6"}
	_, err = store.Create(draft)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "steps", validationErr.Field)
}

func TestCreateRejectsBlankStep(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	draft := newTestCaseDraft("blank step")
	draft.Steps = []string{"fine", "   "}
	_, err := store.Create(draft)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "steps", validationErr.Field)
	assert.Contains(t, validationErr.Reason, "step 2")
}

func TestCreateRejectsBlankExpectedResult(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	draft := newTestCaseDraft("no expectation")
	draft.ExpectedResult = " "
	_, err := store.Create(draft)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "expectedResult", validationErr.Field)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	draft := newTestCaseDraft("bad category")
	draft.Category = Category("regression")
	_, err := store.Create(draft)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "category", validationErr.Field)
}

func TestCreateSkipsMalformedExternalIDs(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	// A row whose label does not follow TC-<number> must not confuse the
	// sequence scan.
	junk := "TC-beta"
	require.NoError(t, db.Create(&TestCase{
		ExternalID:     &junk,
		Title:          "imported junk",
		Steps:          StepList{"step"},
		ExpectedResult: "n/a",
		Category:       CategoryIntegration,
	}).Error)

	tc, err := store.Create(newTestCaseDraft("first real case"))
	require.NoError(t, err)
	assert.Equal(t, "TC-1", *tc.ExternalID)
}

func TestCreateContinuesFromHighestNumber(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	imported := "TC-7"
	require.NoError(t, db.Create(&TestCase{
		ExternalID:     &imported,
		Title:          "imported case",
		Steps:          StepList{"step"},
		ExpectedResult: "n/a",
		Category:       CategoryStudio,
	}).Error)

	tc, err := store.Create(newTestCaseDraft("next case"))
	require.NoError(t, err)
	assert.Equal(t, "TC-8", *tc.ExternalID)
}

func TestCreateAfterDeletingLowerNumberKeepsCounting(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	first, err := store.Create(newTestCaseDraft("one"))
	require.NoError(t, err)
	_, err = store.Create(newTestCaseDraft("two"))
	require.NoError(t, err)
	_, err = store.Create(newTestCaseDraft("three"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(first.ID))

	tc, err := store.Create(newTestCaseDraft("four"))
	require.NoError(t, err)
	assert.Equal(t, "TC-4", *tc.ExternalID, "freed lower numbers are not recycled")
}

func TestCreateAfterDeletingHighestReusesNumber(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	_, err := store.Create(newTestCaseDraft("one"))
	require.NoError(t, err)
	second, err := store.Create(newTestCaseDraft("two"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(second.ID))

	// The sequence is 1 + the highest live number, so deleting the top
	// entry frees its number for the next create.
	tc, err := store.Create(newTestCaseDraft("two again"))
	require.NoError(t, err)
	assert.Equal(t, "TC-2", *tc.ExternalID)
}

func TestListNewestFirstWithAuthors(t *testing.T) {
	db := newTestDB(t)
	stores := NewStores(db)

	author, err := stores.Users.Upsert("dana", RoleTestLead)
	require.NoError(t, err)

	draft := newTestCaseDraft("authored case")
	draft.AuthorID = &author.ID
	_, err = stores.Cases.Create(draft)
	require.NoError(t, err)
	_, err = stores.Cases.Create(newTestCaseDraft("anonymous case"))
	require.NoError(t, err)

	rows, err := stores.Cases.List()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "anonymous case", rows[0].Title, "newest case comes first")
	assert.Equal(t, UnknownUser, rows[0].AuthorName)
	assert.Equal(t, "authored case", rows[1].Title)
	assert.Equal(t, "dana", rows[1].AuthorName)
}

func TestListResolvesDeletedAuthorAsUnknown(t *testing.T) {
	db := newTestDB(t)
	stores := NewStores(db)

	author, err := stores.Users.Upsert("dana", RoleTester)
	require.NoError(t, err)
	draft := newTestCaseDraft("orphaned case")
	draft.AuthorID = &author.ID
	_, err = stores.Cases.Create(draft)
	require.NoError(t, err)

	require.NoError(t, stores.Users.Delete(author.ID))

	rows, err := stores.Cases.List()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, UnknownUser, rows[0].AuthorName)
}

func TestStepsPersistInOrder(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	draft := newTestCaseDraft("ordered steps")
	draft.Steps = []string{"first", "second", "third", "fourth", "fifth"}
	created, err := store.Create(draft)
	require.NoError(t, err)

	var stored TestCase
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Equal(t, StepList{"first", "second", "third", "fourth", "fifth"}, stored.Steps)
}

func TestDeleteCascadesRunsAndFailures(t *testing.T) {
	db := newTestDB(t)
	stores := NewStores(db)

	tc, err := stores.Cases.Create(newTestCaseDraft("doomed case"))
	require.NoError(t, err)
	session, err := stores.Sessions.Create("sprint")
	require.NoError(t, err)
	run, err := stores.Runs.Record(RunDraft{
		TestCaseID: tc.ID,
		SessionID:  session.ID,
		URL:        "https://qa.example.com",
		Phase:      PhaseFT,
		Status:     StatusFailed,
	})
	require.NoError(t, err)
	_, err = stores.Failures.Classify(run.ID, SeverityCritical, nil)
	require.NoError(t, err)

	require.NoError(t, stores.Cases.Delete(tc.ID))

	var runs int64
	require.NoError(t, db.Model(&TestRun{}).Where("test_case_id = ?", tc.ID).Count(&runs).Error)
	assert.Zero(t, runs)
	var failures int64
	require.NoError(t, db.Model(&Failure{}).Where("run_id = ?", run.ID).Count(&failures).Error)
	assert.Zero(t, failures)

	// The session itself is untouched.
	var sessions int64
	require.NoError(t, db.Model(&Session{}).Count(&sessions).Error)
	assert.Equal(t, int64(1), sessions)
}

func TestDeleteUnknownCaseFails(t *testing.T) {
	db := newTestDB(t)
	store := NewCaseStore(db)

	err := store.Delete(42)
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "test case", notFoundErr.Entity)
}
