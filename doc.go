// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the feasibility command: the researcher wizard API
server plus offline tools.

The service estimates how many registry volunteers (Be Part of Research or
Join Dementia Research) match a study's recruitment criteria, walks a
researcher through entering those criteria, and queues finished requests
for review.

# Commands

	feasibility serve                     Start the API server
	feasibility estimate --file c.yaml    Estimate a criteria file (--explain, --json)
	feasibility keygen --secret           Print a random secret
	feasibility keygen --reviewer alice   Print alice's reviewer key

# Starting the Server

The server needs two secrets, from the environment or flags:

	ADMIN_KEY_SALT=... SESSION_SECRET=... feasibility serve

Or with flags:

	feasibility serve -p 3318 -d "postgres://..." --admin-salt ... --session-secret ...

# Configuration

Required settings:

  - ADMIN_KEY_SALT (--admin-salt): Secret for reviewer key and reference HMAC
  - SESSION_SECRET (--session-secret): Secret for session cookie signing

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_URL (-d): SQLite file or PostgreSQL URL (default: feasibility.db)
  - FEASIBILITY_LOG_LEVEL, FEASIBILITY_LOG_FORMAT: zap logger setup

See package cliparse for the full list.

# Architecture

  - estimate: The pure estimator, readiness and eligibility checks
  - handlers: HTTP request handlers (wizard, submissions, review)
  - router: Route definitions on chi
  - session: Cookie sessions holding the wizard state
  - middleware: Logging, CORS, JSON helpers, rate limiting, reviewer auth
  - models: Domain, request and response types
  - auth: Key, token and reference generation
  - db: Connection, schema and placeholder rebinding
  - cliparse: Configuration and logger setup

See package documentation for each component.
*/
package main
