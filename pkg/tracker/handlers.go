package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// callerID extracts the optional caller identity from the X-User-ID header.
// Identity is advisory: a missing or malformed header means an anonymous
// caller, never a rejected request.
func callerID(r *http.Request) *uint {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	uid := uint(id)
	return &uid
}

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// upsertUserHandler returns a handler for registering or re-registering a
// directory member.
func upsertUserHandler(store *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
			Role Role   `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := store.Upsert(req.Name, req.Role)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// listUsersHandler returns a handler listing the directory by name.
func listUsersHandler(store *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := store.List()
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// deleteUserHandler returns a handler removing a user while keeping their
// cases, runs and failure notes behind with cleared references.
func deleteUserHandler(store *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "userID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := store.Delete(id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// whoamiHandler resolves the caller's directory role from the X-User-ID
// header. Anonymous and unknown callers get a null role, not an error.
func whoamiHandler(store *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := callerID(r)
		role, err := store.RoleOf(uid)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			UserID *uint `json:"userId"`
			Role   *Role `json:"role"`
		}{UserID: uid, Role: role})
	}
}

// createCaseHandler returns a handler adding a catalog entry. The author
// defaults to the caller when the body does not name one.
func createCaseHandler(store *CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft CaseDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if draft.AuthorID == nil {
			draft.AuthorID = callerID(r)
		}
		tc, err := store.Create(draft)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tc)
	}
}

// listCasesHandler returns a handler listing the catalog newest-first.
func listCasesHandler(store *CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cases, err := store.List()
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cases)
	}
}

// deleteCaseHandler returns a handler removing a case and its run history.
func deleteCaseHandler(store *CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "caseID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := store.Delete(id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// createSessionHandler returns a handler opening a testing session.
func createSessionHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		session, err := store.Create(req.Name)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

// listSessionsHandler returns a handler listing sessions newest-first.
// Closed sessions are included only with ?include_closed=true.
func listSessionsHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeClosed := r.URL.Query().Get("include_closed") == "true"
		sessions, err := store.List(includeClosed)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

// closeSessionHandler returns a handler attempting to close a session. An
// unmet coverage gate is a normal outcome reported in the payload, never an
// HTTP error.
func closeSessionHandler(store *SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "sessionID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		closed, err := store.Close(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			SessionID uint `json:"sessionId"`
			Closed    bool `json:"closed"`
		}{SessionID: id, Closed: closed})
	}
}

// sessionReportHandler returns a handler computing the per-session
// dashboard counts.
func sessionReportHandler(store *ReportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "sessionID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		counts, err := store.SessionCounts(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

// recordRunHandler returns a handler appending a run entry. The runner
// defaults to the caller when the body does not name one.
func recordRunHandler(store *RunStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft RunDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if draft.RunnerID == nil {
			draft.RunnerID = callerID(r)
		}
		run, err := store.Record(draft)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, run)
	}
}

// listRunsHandler returns a handler listing run entries newest-first with
// optional ?session_id= and ?failed=true filters.
func listRunsHandler(store *RunStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter RunFilter
		if raw := r.URL.Query().Get("session_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid session_id %q", raw))
				return
			}
			sid := uint(id)
			filter.SessionID = &sid
		}
		filter.OnlyFailed = r.URL.Query().Get("failed") == "true"
		runs, err := store.List(filter)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

// deleteRunHandler returns a handler removing one run entry.
func deleteRunHandler(store *RunStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "runID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := store.Delete(id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// classifyRunHandler returns a handler attaching or replacing the severity
// classification of a run. The reporter defaults to the caller.
func classifyRunHandler(store *FailureStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "runID")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var req struct {
			Severity Severity `json:"severity"`
			NotedBy  *uint    `json:"notedBy"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.NotedBy == nil {
			req.NotedBy = callerID(r)
		}
		failure, err := store.Classify(id, req.Severity, req.NotedBy)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, failure)
	}
}

// writeStoreError maps the store error taxonomy onto HTTP statuses:
// validation 400, missing rows 404, constraint conflicts 409, everything
// else 500 without leaking internals.
func writeStoreError(w http.ResponseWriter, err error) {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		constraintErr *ConstraintError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &constraintErr):
		writeError(w, http.StatusConflict, constraintErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
