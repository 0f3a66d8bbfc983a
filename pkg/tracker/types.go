package tracker

// Role describes what a directory member does: testers execute runs,
// testleads additionally close sessions and classify failures.
type Role string

const (
	RoleTester   Role = "tester"
	RoleTestLead Role = "testlead"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTester || r == RoleTestLead
}

// Category groups catalog entries by the surface they exercise.
type Category string

const (
	CategoryIntegration Category = "integration"
	CategoryStudio      Category = "studio"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryIntegration || c == CategoryStudio
}

// Phase identifies the delivery phase a run was executed under.
type Phase string

const (
	PhaseFT  Phase = "FT"
	PhaseSIT Phase = "SIT"
	PhaseUAT Phase = "UAT"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p == PhaseFT || p == PhaseSIT || p == PhaseUAT
}

// Status is the outcome of a single test run.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPassed || s == StatusFailed
}

// Severity grades a classified failure.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s == SeverityMinor || s == SeverityMajor || s == SeverityCritical
}

// UnknownUser is the display placeholder for weak user references whose
// target was never set or has been deleted since.
const UnknownUser = "unknown"
