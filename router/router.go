// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/danielhkuo/recruit-feasibility/cliparse"
	"github.com/danielhkuo/recruit-feasibility/handlers"
	"github.com/danielhkuo/recruit-feasibility/middleware"
	"github.com/danielhkuo/recruit-feasibility/models"
	"github.com/danielhkuo/recruit-feasibility/session"
)

// sectionSteps are the criteria steps saved by the generic section handler.
var sectionSteps = []string{
	models.StepDiagnoses,
	models.StepDemographics,
	models.StepDemographicsExtended,
	models.StepMedical,
	models.StepDisabilities,
	models.StepOther,
}

// NewSessionManager builds the cookie session manager backed by db.
func NewSessionManager(db *sql.DB, cfg cliparse.Config) *session.Manager {
	return session.NewManager(session.NewSQLStore(db, cfg.DatabaseType), session.Options{
		Secret: cfg.SessionSecret,
		Secure: cfg.SecureCookies,
		TTL:    cfg.SessionTTL,
	})
}

func NewRouter(db *sql.DB, cfg cliparse.Config, sessions *session.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithLogging)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Initialize handlers
	wizard := handlers.NewFeasibilityHandler(cfg)
	submissions := handlers.NewSubmissionHandler(db, cfg)
	limiter := middleware.NewRateLimiter(cfg.EstimateRate, cfg.EstimateBurst)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Researcher wizard (cookie session)
	r.Route("/feasibility", func(r chi.Router) {
		r.Use(sessions.Middleware)

		r.Get("/", wizard.GetState)
		r.Put("/platform", wizard.SetPlatform)
		r.Put("/target", wizard.SetTarget)

		r.Post("/sites", wizard.AddSite)
		r.Put("/sites/default-radius", wizard.SetDefaultRadius)
		r.Post("/sites/complete", wizard.CompleteSites)
		r.Put("/sites/{index}", wizard.UpdateSite)
		r.Delete("/sites/{index}", wizard.DeleteSite)

		for _, step := range sectionSteps {
			r.Put("/"+step, wizard.SaveSection(step))
		}

		r.Get("/results", wizard.Results)
		r.With(limiter.Middleware).Post("/estimate", wizard.LiveEstimate)
		r.Get("/readiness", wizard.Readiness)
		r.Post("/submit", submissions.Submit)
	})

	// Reviewer queue
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireReviewer(cfg.AdminKeySalt))

		r.Get("/submissions", submissions.ListSubmissions)
		r.Get("/submissions/{id}", submissions.GetSubmission)
		r.Post("/submissions/{id}/decision", submissions.Decide)
	})

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("recruit-feasibility API v1"))
	})

	return r
}
