package tracker

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// casesWithoutPass selects the catalog cases that still lack a passing run
// in the given session. The session close gate and the session report both
// build on this query; they must never disagree about coverage.
func casesWithoutPass(db *gorm.DB, sessionID uint) *gorm.DB {
	return db.Model(&TestCase{}).
		Where("NOT EXISTS (SELECT 1 FROM test_runs WHERE test_runs.test_case_id = test_cases.id AND test_runs.session_id = ? AND test_runs.status = ?)",
			sessionID, StatusPassed)
}

// ReportStore aggregates per-session progress out of the other stores'
// tables. It owns no table of its own.
type ReportStore struct {
	db *gorm.DB
}

// NewReportStore creates a ReportStore over the given database handle.
func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

// CaseSummary identifies a catalog case in the needing-pass report list.
type CaseSummary struct {
	ID         uint     `json:"id"`
	ExternalID *string  `json:"externalId"`
	Title      string   `json:"title"`
	Category   Category `json:"category"`
	AuthorName string   `json:"authorName"`
}

// SessionCounts is the per-session dashboard: execution totals, the failure
// severity histogram and the cases still needing a passing run.
type SessionCounts struct {
	SessionID   uint          `json:"sessionId"`
	TotalRuns   int64         `json:"totalRuns"`
	FailedRuns  int64         `json:"failedRuns"`
	ToExecute   int64         `json:"toExecute"`
	Minor       int64         `json:"minor"`
	Major       int64         `json:"major"`
	Critical    int64         `json:"critical"`
	NeedingPass []CaseSummary `json:"needingPass"`
}

// SessionCounts computes the dashboard for one session. ToExecute counts
// the same rows the close gate checks, so it reads zero exactly when Close
// would succeed.
func (s *ReportStore) SessionCounts(sessionID uint) (*SessionCounts, error) {
	var session Session
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "session", ID: sessionID}
		}
		return nil, fmt.Errorf("loading session %d: %w", sessionID, err)
	}

	counts := &SessionCounts{SessionID: sessionID}

	if err := s.db.Model(&TestRun{}).
		Where("session_id = ?", sessionID).
		Count(&counts.TotalRuns).Error; err != nil {
		return nil, fmt.Errorf("counting runs of session %d: %w", sessionID, err)
	}
	if err := s.db.Model(&TestRun{}).
		Where("session_id = ? AND status = ?", sessionID, StatusFailed).
		Count(&counts.FailedRuns).Error; err != nil {
		return nil, fmt.Errorf("counting failed runs of session %d: %w", sessionID, err)
	}
	if err := casesWithoutPass(s.db, sessionID).Count(&counts.ToExecute).Error; err != nil {
		return nil, fmt.Errorf("counting cases without a pass in session %d: %w", sessionID, err)
	}

	var severities struct {
		Minor    int64
		Major    int64
		Critical int64
	}
	err := s.db.Model(&Failure{}).
		Select("COUNT(CASE WHEN failures.severity = ? THEN 1 END) AS minor, "+
			"COUNT(CASE WHEN failures.severity = ? THEN 1 END) AS major, "+
			"COUNT(CASE WHEN failures.severity = ? THEN 1 END) AS critical",
			SeverityMinor, SeverityMajor, SeverityCritical).
		Joins("JOIN test_runs ON test_runs.id = failures.run_id").
		Where("test_runs.session_id = ?", sessionID).
		Scan(&severities).Error
	if err != nil {
		return nil, fmt.Errorf("counting failure severities of session %d: %w", sessionID, err)
	}
	counts.Minor = severities.Minor
	counts.Major = severities.Major
	counts.Critical = severities.Critical

	needing := []CaseSummary{}
	err = casesWithoutPass(s.db, sessionID).
		Select("test_cases.id, test_cases.external_id, test_cases.title, test_cases.category, COALESCE(users.name, ?) AS author_name", UnknownUser).
		Joins("LEFT JOIN users ON users.id = test_cases.author_id").
		Order("test_cases.id ASC").
		Scan(&needing).Error
	if err != nil {
		return nil, fmt.Errorf("listing cases without a pass in session %d: %w", sessionID, err)
	}
	counts.NeedingPass = needing

	return counts, nil
}
