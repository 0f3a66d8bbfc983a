package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// RunStore is the append-only log of test executions. Runs are recorded
// and listed, never updated.
type RunStore struct {
	db *gorm.DB
}

// NewRunStore creates a RunStore over the given database handle.
func NewRunStore(db *gorm.DB) *RunStore {
	return &RunStore{db: db}
}

// AutoMigrate creates the test_runs table.
func (s *RunStore) AutoMigrate() error {
	return s.db.AutoMigrate(&TestRun{})
}

// RunDraft carries the caller-supplied fields of a new run entry.
type RunDraft struct {
	TestCaseID uint    `json:"testCaseId"`
	SessionID  uint    `json:"sessionId"`
	RunnerID   *uint   `json:"runnerId"`
	URL        string  `json:"url"`
	Phase      Phase   `json:"phase"`
	Status     Status  `json:"status"`
	Comment    *string `json:"comment,omitempty"`
}

func (d *RunDraft) validate() error {
	if strings.TrimSpace(d.URL) == "" {
		return &ValidationError{Field: "url", Reason: "must not be blank"}
	}
	if !d.Phase.Valid() {
		return &ValidationError{Field: "phase", Reason: fmt.Sprintf("unknown phase %q", d.Phase)}
	}
	if !d.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", d.Status)}
	}
	return nil
}

// Record appends one execution entry. The referenced case and session must
// exist when the entry is written; a reference raced away between the check
// and the insert surfaces as a ConstraintError from the foreign keys.
// There is no uniqueness here: the same case can run any number of times in
// the same session, including after the close gate is already satisfied.
func (s *RunStore) Record(draft RunDraft) (*TestRun, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	run := &TestRun{
		TestCaseID: draft.TestCaseID,
		SessionID:  draft.SessionID,
		RunnerID:   draft.RunnerID,
		URL:        strings.TrimSpace(draft.URL),
		Phase:      draft.Phase,
		Status:     draft.Status,
		Comment:    draft.Comment,
		CreatedAt:  time.Now().UTC(),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &TestCase{}, "test case", draft.TestCaseID); err != nil {
			return err
		}
		if err := ensureExists(tx, &Session{}, "session", draft.SessionID); err != nil {
			return err
		}
		if err := tx.Create(run).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return &ConstraintError{Constraint: "test_runs references", Err: err}
			}
			return fmt.Errorf("recording run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// RunFilter narrows List. The zero value lists everything.
type RunFilter struct {
	SessionID  *uint
	OnlyFailed bool
}

// RunView is a run joined with its case identity, the runner name and the
// severity of its classification when one exists.
type RunView struct {
	ID         uint      `json:"id"`
	TestCaseID uint      `json:"testCaseId"`
	SessionID  uint      `json:"sessionId"`
	ExternalID *string   `json:"externalId"`
	Title      string    `json:"title"`
	Category   Category  `json:"category"`
	RunnerName string    `json:"runnerName"`
	URL        string    `json:"url"`
	Phase      Phase     `json:"phase"`
	Status     Status    `json:"status"`
	Comment    *string   `json:"comment,omitempty"`
	Severity   *Severity `json:"severity,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// List returns run entries newest-first with catalog and directory context
// joined in.
func (s *RunStore) List(filter RunFilter) ([]RunView, error) {
	q := s.db.Model(&TestRun{}).
		Select("test_runs.id, test_runs.test_case_id, test_runs.session_id, "+
			"test_cases.external_id, test_cases.title, test_cases.category, "+
			"COALESCE(users.name, ?) AS runner_name, "+
			"test_runs.url, test_runs.phase, test_runs.status, test_runs.comment, "+
			"failures.severity, test_runs.created_at", UnknownUser).
		Joins("JOIN test_cases ON test_cases.id = test_runs.test_case_id").
		Joins("LEFT JOIN users ON users.id = test_runs.runner_id").
		Joins("LEFT JOIN failures ON failures.run_id = test_runs.id").
		Order("test_runs.created_at DESC, test_runs.id DESC")
	if filter.SessionID != nil {
		q = q.Where("test_runs.session_id = ?", *filter.SessionID)
	}
	if filter.OnlyFailed {
		q = q.Where("test_runs.status = ?", StatusFailed)
	}
	var views []RunView
	if err := q.Scan(&views).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return views, nil
}

// Delete removes one run entry and its classification when present.
func (s *RunStore) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", id).Delete(&Failure{}).Error; err != nil {
			return fmt.Errorf("deleting classification of run %d: %w", id, err)
		}
		res := tx.Delete(&TestRun{}, id)
		if res.Error != nil {
			return fmt.Errorf("deleting run %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "run", ID: id}
		}
		return nil
	})
}
