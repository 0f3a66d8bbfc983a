package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SessionStore is the ledger of named testing windows.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a SessionStore over the given database handle.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// AutoMigrate creates the sessions table.
func (s *SessionStore) AutoMigrate() error {
	return s.db.AutoMigrate(&Session{})
}

// Create opens a new session under a unique name.
func (s *SessionStore) Create(name string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be blank"}
	}
	session := &Session{Name: name, CreatedAt: time.Now().UTC()}
	if err := s.db.Create(session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ConstraintError{Constraint: "sessions.name", Err: err}
		}
		return nil, fmt.Errorf("creating session %q: %w", name, err)
	}
	return session, nil
}

// List returns sessions newest-first, open ones only unless includeClosed
// is set.
func (s *SessionStore) List(includeClosed bool) ([]Session, error) {
	q := s.db.Model(&Session{}).Order("id DESC")
	if !includeClosed {
		q = q.Where("closed = ?", false)
	}
	var sessions []Session
	if err := q.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// Close flips the session to closed when every catalog case has at least
// one passing run recorded inside it. When cases are still missing a pass
// it reports false and writes nothing; that outcome is normal operator
// feedback, not an error. A closed session never reopens.
func (s *SessionStore) Close(id uint) (bool, error) {
	closed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session Session
		if err := tx.First(&session, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "session", ID: id}
			}
			return fmt.Errorf("loading session %d: %w", id, err)
		}
		var missing int64
		if err := casesWithoutPass(tx, id).Count(&missing).Error; err != nil {
			return fmt.Errorf("evaluating close gate of session %d: %w", id, err)
		}
		if missing > 0 {
			return nil
		}
		if err := tx.Model(&Session{}).Where("id = ?", id).Update("closed", true).Error; err != nil {
			return fmt.Errorf("closing session %d: %w", id, err)
		}
		closed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return closed, nil
}
