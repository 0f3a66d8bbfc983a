package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
)

// --- truncate tests ---

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a rather long case title", 10, "a rathe..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

// --- color helper tests ---

func TestColorHelpersPassUnknownValuesThrough(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	if got := colorStatus("passed"); got != "passed" {
		t.Errorf("colorStatus(passed) = %q", got)
	}
	if got := colorStatus("skipped"); got != "skipped" {
		t.Errorf("unknown status must pass through, got %q", got)
	}
	if got := colorSeverity("critical"); got != "critical" {
		t.Errorf("colorSeverity(critical) = %q", got)
	}
	if got := colorSeverity(""); got != "" {
		t.Errorf("empty severity must pass through, got %q", got)
	}
}

// --- strOrDash tests ---

func TestStrOrDash(t *testing.T) {
	if got := strOrDash(nil); got != "-" {
		t.Errorf("strOrDash(nil) = %q, want -", got)
	}
	empty := ""
	if got := strOrDash(&empty); got != "-" {
		t.Errorf("strOrDash(empty) = %q, want -", got)
	}
	v := "TC-7"
	if got := strOrDash(&v); got != "TC-7" {
		t.Errorf("strOrDash(TC-7) = %q", got)
	}
}

// --- client header tests ---

func TestClientSendsIdentityAndCorrelationHeaders(t *testing.T) {
	var gotUser, gotCorrelation, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get("X-User-ID")
		gotCorrelation = r.Header.Get("X-Correlation-ID")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	oldServer, oldUser := serverURL, userID
	serverURL, userID = srv.URL, "7"
	defer func() { serverURL, userID = oldServer, oldUser }()

	var users []userRow
	if err := newClient().getJSON("/api/v1/users", &users); err != nil {
		t.Fatalf("getJSON failed: %v", err)
	}

	if gotUser != "7" {
		t.Errorf("X-User-ID = %q, want 7", gotUser)
	}
	if gotCorrelation == "" {
		t.Error("expected a generated X-Correlation-ID")
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestClientSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid name: must not be blank"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	oldServer := serverURL
	serverURL = srv.URL
	defer func() { serverURL = oldServer }()

	err := newClient().postJSON("/api/v1/users", map[string]string{"name": ""}, nil)
	if err == nil {
		t.Fatal("expected an error for a 400 response")
	}
}
