// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the feasibility API.

# Route Registration

NewRouter builds a chi router with every endpoint. The session manager is
passed in so the caller can run its janitor:

	sessions := router.NewSessionManager(db, cfg)
	r := router.NewRouter(db, cfg, sessions)

# Middleware

Every request goes through RequestID, Recoverer, request logging and
CORS. Groups add:

  - /feasibility: cookie session (load before, save after)
  - /feasibility/estimate: per-client rate limit
  - /admin: reviewer key check

# Endpoints

Health:

	GET /health
	GET /

Wizard (cookie session):

	GET    /feasibility
	PUT    /feasibility/platform
	PUT    /feasibility/target
	POST   /feasibility/sites
	PUT    /feasibility/sites/default-radius
	POST   /feasibility/sites/complete
	PUT    /feasibility/sites/{index}
	DELETE /feasibility/sites/{index}
	PUT    /feasibility/diagnoses
	PUT    /feasibility/demographics
	PUT    /feasibility/demographics-extended
	PUT    /feasibility/medical
	PUT    /feasibility/disabilities
	PUT    /feasibility/other
	GET    /feasibility/results
	POST   /feasibility/estimate
	GET    /feasibility/readiness
	POST   /feasibility/submit

Review (X-Reviewer and X-Admin-Key):

	GET  /admin/submissions
	GET  /admin/submissions/{id}
	POST /admin/submissions/{id}/decision
*/
package router
