package tracker

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StepList stores an ordered list of manual steps as JSON in a text column,
// keeping the schema identical across SQLite, Postgres and MySQL.
type StepList []string

// Scan implements sql.Scanner.
func (s *StepList) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StepList: %T", value)
	}
	if len(data) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, s)
}

// Value implements driver.Valuer.
func (s StepList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal([]string(s))
}

// User is a directory member. Users author cases, execute runs and note
// failures; everything referencing them does so weakly.
type User struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Role Role   `gorm:"column:role;not null;check:role IN ('tester','testlead')" json:"role"`
}

func (User) TableName() string { return "users" }

// Session is one named testing window. Closed is monotonic: once a session
// is closed it never reopens.
type Session struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
	Closed    bool      `gorm:"column:closed;not null;default:false" json:"closed"`
}

func (Session) TableName() string { return "sessions" }

// TestCase is a catalog entry. ExternalID carries the human-facing "TC-n"
// label, assigned exactly once at creation and never editable afterwards.
type TestCase struct {
	ID             uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID     *string  `gorm:"column:external_id;uniqueIndex" json:"externalId"`
	Title          string   `gorm:"column:title;not null" json:"title"`
	Steps          StepList `gorm:"column:steps;type:text" json:"steps"`
	ExpectedResult string   `gorm:"column:expected_result;not null" json:"expectedResult"`
	Category       Category `gorm:"column:category;not null;check:category IN ('integration','studio')" json:"category"`
	AuthorID       *uint    `gorm:"column:author_id;index" json:"authorId"`

	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"-"`
}

func (TestCase) TableName() string { return "test_cases" }

// TestRun records one execution of a case inside a session. Rows are
// append-only; no operation updates them.
type TestRun struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TestCaseID uint      `gorm:"column:test_case_id;not null;index" json:"testCaseId"`
	SessionID  uint      `gorm:"column:session_id;not null;index" json:"sessionId"`
	RunnerID   *uint     `gorm:"column:runner_id;index" json:"runnerId"`
	URL        string    `gorm:"column:url;not null" json:"url"`
	Phase      Phase     `gorm:"column:phase;not null;check:phase IN ('FT','SIT','UAT')" json:"phase"`
	Status     Status    `gorm:"column:status;not null;index;check:status IN ('passed','failed')" json:"status"`
	Comment    *string   `gorm:"column:comment" json:"comment,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;not null" json:"createdAt"`

	TestCase *TestCase `gorm:"foreignKey:TestCaseID;constraint:OnDelete:CASCADE" json:"-"`
	Session  *Session  `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Runner   *User     `gorm:"foreignKey:RunnerID;constraint:OnDelete:SET NULL" json:"-"`
}

func (TestRun) TableName() string { return "test_runs" }

// Failure is the at-most-one severity classification attached to a run,
// keyed by the unique run id.
type Failure struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID    uint      `gorm:"column:run_id;not null;uniqueIndex" json:"runId"`
	Severity Severity  `gorm:"column:severity;not null;check:severity IN ('minor','major','critical')" json:"severity"`
	NotedBy  *uint     `gorm:"column:noted_by" json:"notedBy"`
	NotedAt  time.Time `gorm:"column:noted_at;not null" json:"notedAt"`

	Run   *TestRun `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"-"`
	Noter *User    `gorm:"foreignKey:NotedBy;constraint:OnDelete:SET NULL" json:"-"`
}

func (Failure) TableName() string { return "failures" }

// AutoMigrate creates or updates every tracker table, parents before
// children so the foreign keys can be declared inline.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Session{}, &TestCase{}, &TestRun{}, &Failure{}); err != nil {
		return fmt.Errorf("migrating tracker schema: %w", err)
	}
	return nil
}

// ensureExists fails with a NotFoundError when no row of model carries the
// id. Used to pre-check weak inputs before inserts so callers get a clear
// error instead of a bare foreign key failure.
func ensureExists(tx *gorm.DB, model any, entity string, id uint) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("checking %s %d: %w", entity, id, err)
	}
	if n == 0 {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
