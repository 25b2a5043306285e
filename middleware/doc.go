// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	r.Use(middleware.WithLogging)

Logs one zap entry per request with method, path, status, bytes,
duration_ms and the chi request_id when present. 5xx responses log at
warn.

# CORS Middleware

	r.Use(middleware.CORS(cfg.AllowedOrigins))

With no origins configured every origin is echoed back. Allows methods
GET, POST, PUT, DELETE, OPTIONS with headers Content-Type, Authorization,
X-Reviewer and X-Admin-Key.

# Rate Limiting

The live estimate endpoint is called on every keystroke, so it has a
per-client token bucket:

	limiter := middleware.NewRateLimiter(cfg.EstimateRate, cfg.EstimateBurst)
	r.With(limiter.Middleware).Post("/estimate", h.LiveEstimate)

Requests over the limit get 429 with Retry-After.

# Reviewer Access

	r.Use(middleware.RequireReviewer(cfg.AdminKeySalt))

Requires X-Reviewer and X-Admin-Key (see auth.GenerateReviewerKey).
Missing headers give 401, a wrong key 403. ReviewerFromContext returns
the normalized reviewer name.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.ValidationResponse(w, fieldErrors) // 422

Parse JSON request bodies (capped at 1 MiB; an empty body is allowed):

	var req models.TargetRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used for rate limiting and the hashed IP stored with submissions.
*/
package middleware
