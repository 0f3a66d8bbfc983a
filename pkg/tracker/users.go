package tracker

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore is the directory of people who show up in sessions as case
// authors, runners or failure reporters.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore over the given database handle.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// AutoMigrate creates the users table.
func (s *UserStore) AutoMigrate() error {
	return s.db.AutoMigrate(&User{})
}

// Upsert registers a user under a display name, creating the row or
// updating the role of the existing one. Repeating the call with identical
// arguments changes nothing and leaves a single row behind.
func (s *UserStore) Upsert(name string, role Role) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be blank"}
	}
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}

	var stored User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user := &User{Name: name, Role: role}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).Create(user).Error; err != nil {
			return fmt.Errorf("upserting user %q: %w", name, err)
		}
		// The update path does not report the existing primary key, so read
		// the row back by its unique name.
		if err := tx.Where("name = ?", name).First(&stored).Error; err != nil {
			return fmt.Errorf("reading back user %q: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// List returns the whole directory ordered by display name.
func (s *UserStore) List() ([]User, error) {
	var users []User
	if err := s.db.Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// RoleOf resolves the role behind a possibly absent user reference. A nil
// id and an id whose row is gone both come back as nil role with no error;
// weak references must tolerate deleted users.
func (s *UserStore) RoleOf(userID *uint) (*Role, error) {
	if userID == nil {
		return nil, nil
	}
	var user User
	err := s.db.Select("role").Where("id = ?", *userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving role of user %d: %w", *userID, err)
	}
	role := user.Role
	return &role, nil
}

// Delete removes a user and detaches every weak reference pointing at
// them. Authored cases, executed runs and noted failures stay behind with
// the reference cleared.
func (s *UserStore) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&TestCase{}).Where("author_id = ?", id).Update("author_id", nil).Error; err != nil {
			return fmt.Errorf("detaching authored cases of user %d: %w", id, err)
		}
		if err := tx.Model(&TestRun{}).Where("runner_id = ?", id).Update("runner_id", nil).Error; err != nil {
			return fmt.Errorf("detaching runs of user %d: %w", id, err)
		}
		if err := tx.Model(&Failure{}).Where("noted_by = ?", id).Update("noted_by", nil).Error; err != nil {
			return fmt.Errorf("detaching failure notes of user %d: %w", id, err)
		}
		res := tx.Delete(&User{}, id)
		if res.Error != nil {
			return fmt.Errorf("deleting user %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "user", ID: id}
		}
		return nil
	})
}
