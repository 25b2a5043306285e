// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the feasibility API.

# Handler Types

  - FeasibilityHandler: Wizard steps, results, live estimate and readiness
  - SubmissionHandler: Submitting a finished wizard and the reviewer queue

	wizard := handlers.NewFeasibilityHandler(cfg)
	submissions := handlers.NewSubmissionHandler(db, cfg)

# Wizard

Wizard handlers never touch the database. The session middleware puts a
*models.WizardState on the request context; handlers mutate it and the
middleware stores it once the handler returns.

	GET    /feasibility                      → GetState
	PUT    /feasibility/platform             → SetPlatform
	PUT    /feasibility/target               → SetTarget
	POST   /feasibility/sites                → AddSite
	PUT    /feasibility/sites/default-radius → SetDefaultRadius
	POST   /feasibility/sites/complete       → CompleteSites
	PUT    /feasibility/sites/{index}        → UpdateSite
	DELETE /feasibility/sites/{index}        → DeleteSite
	PUT    /feasibility/{step}               → SaveSection(step)
	GET    /feasibility/results              → Results
	POST   /feasibility/estimate             → LiveEstimate
	GET    /feasibility/readiness            → Readiness

Each step PUT answers with the step status and the next step. Invalid
input gets a 422 whose fields point at the form inputs:

	{"error": "Unprocessable Entity", "message": "There is a problem",
	 "fields": [{"href": "#targetRecruitment", "text": "Enter a target recruitment number"}]}

# Live Estimate

LiveEstimate applies one section's unsaved values to a copy of the saved
criteria:

	POST /feasibility/estimate
	{"overrides": {"section": "medical", "values": {"include": ["diabetes"]}}}

The legacy "path" key ("/researcher/feasibility/medical") is accepted in
place of "section". Unknown sections estimate the saved criteria as-is.

# Submissions

	POST /feasibility/submit                 → Submit (results must be viewed first)
	GET  /admin/submissions                  → ListSubmissions (?status=, ?limit=)
	GET  /admin/submissions/{id}             → GetSubmission (with eligibility checks)
	POST /admin/submissions/{id}/decision    → Decide (approved | rejected, once)

Admin routes require X-Reviewer and X-Admin-Key headers.
*/
package handlers
