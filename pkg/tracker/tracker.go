// Package tracker implements the manual-test tracking core: a catalog of
// reusable test cases, a ledger of testing sessions with a coverage-gated
// close, an append-only log of test executions, per-run failure
// classification and the user directory the other pieces reference.
//
// All state lives in a relational database behind a single *gorm.DB handle;
// the same schema runs on SQLite, Postgres and MySQL.
package tracker

import "gorm.io/gorm"

// Stores bundles one store per tracker component over a shared database
// handle.
type Stores struct {
	Users    *UserStore
	Cases    *CaseStore
	Sessions *SessionStore
	Runs     *RunStore
	Failures *FailureStore
	Reports  *ReportStore
}

// NewStores builds the full store set over one database handle.
func NewStores(db *gorm.DB) *Stores {
	return &Stores{
		Users:    NewUserStore(db),
		Cases:    NewCaseStore(db),
		Sessions: NewSessionStore(db),
		Runs:     NewRunStore(db),
		Failures: NewFailureStore(db),
		Reports:  NewReportStore(db),
	}
}
