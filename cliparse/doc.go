// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line flags, environment and logger setup.

# Configuration

BindFlags registers the flags on a pflag set (cobra commands expose one);
Load resolves them into a Config:

	cliparse.BindFlags(cmd.Flags())
	cfg, err := cliparse.Load(cmd.Flags())

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite path or PostgreSQL URL (default: feasibility.db)
  - DatabaseType: sqlite or postgres, inferred from the URL when empty
  - AdminKeySalt: Secret for reviewer key HMAC (required to serve)
  - SessionSecret: Secret for session cookie signing (required to serve)
  - SecureCookies: Mark the session cookie Secure
  - SessionTTL: Idle time before a stored wizard session is purged (default: 168h)
  - LogLevel, LogFormat: zap level and json/console/auto
  - EstimateRate, EstimateBurst: Live estimate rate limit per client
  - AllowedOrigins: CORS origins

# Sources

Values are read in this order, first match wins:

 1. CLI flags (-p, -d, -t, --admin-salt, --session-secret, ...)
 2. FEASIBILITY_* environment variables (FEASIBILITY_LOG_LEVEL, ...)
 3. Legacy names: PORT, DATABASE_URL, DATABASE_TYPE, ADMIN_KEY_SALT, SESSION_SECRET
 4. The YAML file named by --config
 5. Defaults

A .env file (or --env-file) is loaded into the environment first. A
missing file is ignored; variables already set are not overwritten.

# Validation

Validate returns an error if the server cannot start:

  - ADMIN_KEY_SALT must be provided
  - SESSION_SECRET must be provided
  - the port must be 1-65535
  - the database type must be sqlite or postgres
  - the session TTL, estimate rate and burst must be positive

# Logging

InitLogger installs the global zap logger. Packages log through zap.L().
*/
package cliparse
