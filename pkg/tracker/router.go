package tracker

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router exposing every tracker operation under
// /api/v1. Transport-level middleware (request ids, CORS, metrics) is the
// caller's business; this router only knows the domain routes.
func NewRouter(stores *Stores) chi.Router {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/whoami", whoamiHandler(stores.Users))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", upsertUserHandler(stores.Users))
			r.Get("/", listUsersHandler(stores.Users))
			r.Delete("/{userID}", deleteUserHandler(stores.Users))
		})

		r.Route("/cases", func(r chi.Router) {
			r.Post("/", createCaseHandler(stores.Cases))
			r.Get("/", listCasesHandler(stores.Cases))
			r.Delete("/{caseID}", deleteCaseHandler(stores.Cases))
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", createSessionHandler(stores.Sessions))
			r.Get("/", listSessionsHandler(stores.Sessions))
			r.Post("/{sessionID}/close", closeSessionHandler(stores.Sessions))
			r.Get("/{sessionID}/report", sessionReportHandler(stores.Reports))
		})

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", recordRunHandler(stores.Runs))
			r.Get("/", listRunsHandler(stores.Runs))
			r.Delete("/{runID}", deleteRunHandler(stores.Runs))
			r.Put("/{runID}/failure", classifyRunHandler(stores.Failures))
		})
	})

	return r
}
