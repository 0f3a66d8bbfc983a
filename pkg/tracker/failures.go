package tracker

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FailureStore keeps the at-most-one severity classification per run.
// Reclassifying overwrites in place; there is never a second row.
type FailureStore struct {
	db *gorm.DB
}

// NewFailureStore creates a FailureStore over the given database handle.
func NewFailureStore(db *gorm.DB) *FailureStore {
	return &FailureStore{db: db}
}

// AutoMigrate creates the failures table.
func (s *FailureStore) AutoMigrate() error {
	return s.db.AutoMigrate(&Failure{})
}

// Classify attaches a severity to a run, replacing any previous
// classification of the same run. The run must exist; its status is not
// checked, so a passing run can carry a classification too.
func (s *FailureStore) Classify(runID uint, severity Severity, notedBy *uint) (*Failure, error) {
	if !severity.Valid() {
		return nil, &ValidationError{Field: "severity", Reason: fmt.Sprintf("unknown severity %q", severity)}
	}

	var stored Failure
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &TestRun{}, "run", runID); err != nil {
			return err
		}
		failure := &Failure{
			RunID:    runID,
			Severity: severity,
			NotedBy:  notedBy,
			NotedAt:  time.Now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"severity", "noted_by", "noted_at"}),
		}).Create(failure).Error; err != nil {
			return fmt.Errorf("classifying run %d: %w", runID, err)
		}
		// The update path does not report the surviving primary key, so read
		// the row back by its unique run id.
		if err := tx.Where("run_id = ?", runID).First(&stored).Error; err != nil {
			return fmt.Errorf("reading back classification of run %d: %w", runID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ForRun returns the classification of a run, or nil when it has none.
func (s *FailureStore) ForRun(runID uint) (*Failure, error) {
	var failure Failure
	err := s.db.Where("run_id = ?", runID).First(&failure).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading classification of run %d: %w", runID, err)
	}
	return &failure, nil
}
