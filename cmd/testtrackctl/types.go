package main

import "time"

// Response shapes of the server API. Kept local so the CLI stays a thin
// HTTP client rather than linking the server's storage layer.

type userRow struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type sessionRow struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Closed    bool      `json:"closed"`
}

type closeResult struct {
	SessionID uint `json:"sessionId"`
	Closed    bool `json:"closed"`
}

type caseRow struct {
	ID             uint     `json:"id"`
	ExternalID     *string  `json:"externalId"`
	Title          string   `json:"title"`
	Steps          []string `json:"steps"`
	ExpectedResult string   `json:"expectedResult"`
	Category       string   `json:"category"`
	AuthorID       *uint    `json:"authorId"`
	AuthorName     string   `json:"authorName"`
}

type runRow struct {
	ID         uint      `json:"id"`
	TestCaseID uint      `json:"testCaseId"`
	SessionID  uint      `json:"sessionId"`
	ExternalID *string   `json:"externalId"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	RunnerName string    `json:"runnerName"`
	URL        string    `json:"url"`
	Phase      string    `json:"phase"`
	Status     string    `json:"status"`
	Comment    *string   `json:"comment,omitempty"`
	Severity   *string   `json:"severity,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type failureRow struct {
	ID       uint      `json:"id"`
	RunID    uint      `json:"runId"`
	Severity string    `json:"severity"`
	NotedBy  *uint     `json:"notedBy"`
	NotedAt  time.Time `json:"notedAt"`
}

type needingCase struct {
	ID         uint    `json:"id"`
	ExternalID *string `json:"externalId"`
	Title      string  `json:"title"`
	Category   string  `json:"category"`
	AuthorName string  `json:"authorName"`
}

type sessionReport struct {
	SessionID   uint          `json:"sessionId"`
	TotalRuns   int64         `json:"totalRuns"`
	FailedRuns  int64         `json:"failedRuns"`
	ToExecute   int64         `json:"toExecute"`
	Minor       int64         `json:"minor"`
	Major       int64         `json:"major"`
	Critical    int64         `json:"critical"`
	NeedingPass []needingCase `json:"needingPass"`
}

type whoamiResult struct {
	UserID *uint   `json:"userId"`
	Role   *string `json:"role"`
}

// strOrDash renders an optional string field in tables.
func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
