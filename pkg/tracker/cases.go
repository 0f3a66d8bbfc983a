package tracker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// externalIDPrefix labels catalog entries in every human-facing surface.
const externalIDPrefix = "TC-"

// Bounds on the manual steps of a catalog entry.
const (
	minSteps = 1
	maxSteps = 5
)

// externalIDAttempts bounds the retry loop when concurrent creations race
// for the same sequence number.
const externalIDAttempts = 3

// CaseStore is the catalog of reusable manual test cases.
type CaseStore struct {
	db *gorm.DB
}

// NewCaseStore creates a CaseStore over the given database handle.
func NewCaseStore(db *gorm.DB) *CaseStore {
	return &CaseStore{db: db}
}

// AutoMigrate creates the test_cases table.
func (s *CaseStore) AutoMigrate() error {
	return s.db.AutoMigrate(&TestCase{})
}

// CaseDraft carries the caller-supplied fields of a new catalog entry. The
// external id is never accepted from outside; it is assigned on create.
type CaseDraft struct {
	Title          string   `json:"title"`
	Steps          []string `json:"steps"`
	ExpectedResult string   `json:"expectedResult"`
	Category       Category `json:"category"`
	AuthorID       *uint    `json:"authorId"`
}

func (d *CaseDraft) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be blank"}
	}
	if len(d.Steps) < minSteps || len(d.Steps) > maxSteps {
		return &ValidationError{
			Field:  "steps",
			Reason: fmt.Sprintf("need between %d and %d steps, got %d", minSteps, maxSteps, len(d.Steps)),
		}
	}
	for i, step := range d.Steps {
		if strings.TrimSpace(step) == "" {
			return &ValidationError{Field: "steps", Reason: fmt.Sprintf("step %d is blank", i+1)}
		}
	}
	if strings.TrimSpace(d.ExpectedResult) == "" {
		return &ValidationError{Field: "expectedResult", Reason: "must not be blank"}
	}
	if !d.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", d.Category)}
	}
	return nil
}

// Create validates the draft, assigns the next free "TC-n" label and stores
// the case. Reading the current maximum and inserting happen in one
// transaction; when a concurrent create takes the same number first the
// unique index rejects the insert and the whole transaction runs again with
// a fresh read.
func (s *CaseStore) Create(draft CaseDraft) (*TestCase, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}

	steps := make(StepList, len(draft.Steps))
	for i, step := range draft.Steps {
		steps[i] = strings.TrimSpace(step)
	}

	var lastErr error
	for attempt := 0; attempt < externalIDAttempts; attempt++ {
		tc := &TestCase{
			Title:          strings.TrimSpace(draft.Title),
			Steps:          steps,
			ExpectedResult: strings.TrimSpace(draft.ExpectedResult),
			Category:       draft.Category,
			AuthorID:       draft.AuthorID,
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			next, err := nextExternalNumber(tx)
			if err != nil {
				return err
			}
			ext := fmt.Sprintf("%s%d", externalIDPrefix, next)
			tc.ExternalID = &ext
			return tx.Create(tc).Error
		})
		if err == nil {
			return tc, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("creating test case: %w", err)
		}
		lastErr = err
	}
	return nil, &ConstraintError{Constraint: "test_cases.external_id", Err: lastErr}
}

// nextExternalNumber returns 1 + the highest numeric suffix among live
// "TC-n" labels, or 1 for an empty catalog. The suffixes are compared in Go
// because integer casts of substrings are spelled differently on each
// supported engine.
func nextExternalNumber(tx *gorm.DB) (int, error) {
	var ids []string
	if err := tx.Model(&TestCase{}).
		Where("external_id LIKE ?", externalIDPrefix+"%").
		Pluck("external_id", &ids).Error; err != nil {
		return 0, fmt.Errorf("scanning external ids: %w", err)
	}
	highest := 0
	for _, id := range ids {
		n, err := strconv.Atoi(strings.TrimPrefix(id, externalIDPrefix))
		if err != nil || n <= 0 {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest + 1, nil
}

// CaseWithAuthor is one catalog listing row: the case plus its author's
// display name, resolved to the unknown placeholder when the author was
// never set or has been deleted.
type CaseWithAuthor struct {
	TestCase
	AuthorName string `json:"authorName"`
}

// List returns the catalog newest-first with author names resolved.
func (s *CaseStore) List() ([]CaseWithAuthor, error) {
	var rows []CaseWithAuthor
	err := s.db.Model(&TestCase{}).
		Select("test_cases.*, COALESCE(users.name, ?) AS author_name", UnknownUser).
		Joins("LEFT JOIN users ON users.id = test_cases.author_id").
		Order("test_cases.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing test cases: %w", err)
	}
	return rows, nil
}

// Delete removes a case together with its run history and any failure
// classifications hanging off those runs. The deletion is explicit rather
// than delegated to engine cascades so every backend behaves identically.
func (s *CaseStore) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		runIDs := tx.Model(&TestRun{}).Select("id").Where("test_case_id = ?", id)
		if err := tx.Where("run_id IN (?)", runIDs).Delete(&Failure{}).Error; err != nil {
			return fmt.Errorf("deleting failure classifications of case %d: %w", id, err)
		}
		if err := tx.Where("test_case_id = ?", id).Delete(&TestRun{}).Error; err != nil {
			return fmt.Errorf("deleting runs of case %d: %w", id, err)
		}
		res := tx.Delete(&TestCase{}, id)
		if res.Error != nil {
			return fmt.Errorf("deleting case %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "test case", ID: id}
		}
		return nil
	})
}
