// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/recruit-feasibility/auth"
	"github.com/danielhkuo/recruit-feasibility/cliparse"
	"github.com/danielhkuo/recruit-feasibility/db"
	"github.com/danielhkuo/recruit-feasibility/estimate"
	"github.com/danielhkuo/recruit-feasibility/middleware"
	"github.com/danielhkuo/recruit-feasibility/models"
)

// TestDBEnv names a postgres URL to run the database tests against.
// Without it tests use a throwaway SQLite file.
const TestDBEnv = "FEASIBILITY_TEST_DATABASE_URL"

// SetupTestDB creates a fresh test database with the full schema and
// returns it with its driver name.
func SetupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	ctx := context.Background()

	driver, url := db.DriverSQLite, filepath.Join(t.TempDir(), "test.db")
	if pg := os.Getenv(TestDBEnv); pg != "" {
		driver, url = db.DriverPostgres, pg
	}

	conn, err := db.Open(ctx, driver, url)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { conn.Close() })

	if driver == db.DriverPostgres {
		// Clean up tables before each test
		_, err = conn.ExecContext(ctx, `DROP TABLE IF EXISTS submission; DROP TABLE IF EXISTS wizard_session;`)
		require.NoError(t, err, "clean database")
	}

	require.NoError(t, db.CreateSchema(ctx, conn), "create schema")
	return conn, driver
}

// GetTestConfig returns a standard test configuration
func GetTestConfig(driver string) cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseType:  driver,
		AdminKeySalt:  "test-admin-salt",
		SessionSecret: "test-session-secret",
		SessionTTL:    time.Hour,
		LogLevel:      "debug",
		LogFormat:     "console",
		EstimateRate:  1000,
		EstimateBurst: 1000,
	}
}

// ReviewerHeaders returns the headers a reviewer sends to /admin.
func ReviewerHeaders(cfg cliparse.Config, reviewer string) map[string]string {
	return map[string]string{
		middleware.HeaderReviewer: reviewer,
		middleware.HeaderAdminKey: auth.GenerateReviewerKey(reviewer, cfg.AdminKeySalt),
	}
}

// CreateTestSubmission stores a submission for criteria and returns its ID
// and reference. status should be "submitted", "approved" or "rejected".
func CreateTestSubmission(t *testing.T, conn *sql.DB, cfg cliparse.Config, criteria models.RecruitmentCriteria, status string) (id, reference string) {
	t.Helper()

	id, err := auth.GenerateID(16)
	require.NoError(t, err)
	reference = auth.GenerateReference(id, cfg.AdminKeySalt)
	result := estimate.Estimate(criteria)
	raw, err := json.Marshal(criteria)
	require.NoError(t, err)

	_, err = conn.Exec(db.Rebind(cfg.DatabaseType, `
		INSERT INTO submission (id, reference, session_id, platform, target, available, matched,
			criteria, criteria_complete, status, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), id, reference, auth.NewSessionID(), criteria.Platform, criteria.TargetRecruitment,
		result.Available, result.Matched, string(raw), 1, status, db.FormatTime(time.Now()))
	require.NoError(t, err, "create test submission")

	return id, reference
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// Client replays cookies between requests, like a browser working
// through the wizard.
// It is safe for concurrent use.
type Client struct {
	Handler http.Handler

	mu      sync.Mutex
	cookies map[string]*http.Cookie
}

func NewClient(h http.Handler) *Client {
	return &Client{Handler: h, cookies: map[string]*http.Cookie{}}
}

// Do sends a request with the stored cookies and records any new ones.
func (c *Client) Do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	req := MakeRequest(method, path, body, headers)
	c.mu.Lock()
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	c.mu.Unlock()

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

// Cookie returns the stored cookie with the given name, or nil.
func (c *Client) Cookie(name string) *http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cookies[name]
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	require.Equal(t, expected, w.Code, "unexpected status. Body: %s", w.Body.String())
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v), "decode JSON response")
}
