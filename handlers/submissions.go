// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/danielhkuo/recruit-feasibility/auth"
	"github.com/danielhkuo/recruit-feasibility/cliparse"
	"github.com/danielhkuo/recruit-feasibility/db"
	"github.com/danielhkuo/recruit-feasibility/estimate"
	"github.com/danielhkuo/recruit-feasibility/middleware"
	"github.com/danielhkuo/recruit-feasibility/models"
	"github.com/danielhkuo/recruit-feasibility/session"
)

// List limits for GET /admin/submissions
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type SubmissionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewSubmissionHandler(db *sql.DB, cfg cliparse.Config) *SubmissionHandler {
	return &SubmissionHandler{db: db, cfg: cfg, now: time.Now}
}

func (h *SubmissionHandler) q(query string) string {
	return db.Rebind(h.cfg.DatabaseType, query)
}

// Submit handles POST /feasibility/submit
// Stores the session's criteria with a fresh estimate. Results must have
// been viewed first.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok || sess.State == nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Session unavailable")
		return
	}
	state := sess.State
	if state.Result == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "View your results before submitting")
		return
	}

	criteria := state.Criteria
	result := estimate.Estimate(criteria)
	state.Result = &result

	submissionID, err := auth.GenerateID(16)
	if err != nil {
		zap.L().Error("failed to generate submission ID", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit")
		return
	}
	reference := auth.GenerateReference(submissionID, h.cfg.AdminKeySalt)
	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)

	raw, err := json.Marshal(criteria)
	if err != nil {
		zap.L().Error("failed to encode criteria", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit")
		return
	}

	complete := 0
	if state.CriteriaComplete() {
		complete = 1
	}

	_, err = h.db.ExecContext(r.Context(), h.q(`
		INSERT INTO submission (id, reference, session_id, platform, target, available, matched,
			criteria, criteria_complete, status, ip_hash, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), submissionID, reference, sess.ID, criteria.Platform, criteria.TargetRecruitment,
		result.Available, result.Matched, string(raw), complete, models.SubmissionSubmitted,
		ipHash, db.FormatTime(h.now()))
	if err != nil {
		zap.L().Error("failed to insert submission", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit")
		return
	}

	zap.L().Info("feasibility submitted",
		zap.String("submission_id", submissionID),
		zap.String("reference", reference),
		zap.Int("matched", result.Matched),
	)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitResponse{
		SubmissionID: submissionID,
		Reference:    reference,
		Message:      "Your feasibility request has been submitted for review.",
	})
}

const submissionColumns = `
	id, reference, session_id, platform, target, available, matched, criteria,
	criteria_complete, status, reviewer, decision_note, ip_hash, submitted_at, decided_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (models.Submission, error) {
	var (
		s                      models.Submission
		criteria, submittedAt  string
		complete               int
		reviewer, note, ipHash sql.NullString
		decidedAt              sql.NullString
	)
	err := row.Scan(&s.ID, &s.Reference, &s.SessionID, &s.Platform, &s.Target,
		&s.Available, &s.Matched, &criteria, &complete, &s.Status,
		&reviewer, &note, &ipHash, &submittedAt, &decidedAt)
	if err != nil {
		return s, err
	}

	if err := json.Unmarshal([]byte(criteria), &s.Criteria); err != nil {
		return s, eris.Wrapf(err, "decode criteria for %s", s.ID)
	}
	s.CriteriaComplete = complete != 0
	if reviewer.Valid {
		s.Reviewer = &reviewer.String
	}
	if note.Valid {
		s.DecisionNote = &note.String
	}
	if ipHash.Valid {
		s.IPHash = &ipHash.String
	}
	if s.SubmittedAt, err = db.ParseTime(submittedAt); err != nil {
		return s, err
	}
	if decidedAt.Valid {
		t, err := db.ParseTime(decidedAt.String)
		if err != nil {
			return s, err
		}
		s.DecidedAt = &t
	}
	return s, nil
}

// ListSubmissions handles GET /admin/submissions?status=&limit=
func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	switch status {
	case "", models.SubmissionSubmitted, models.SubmissionApproved, models.SubmissionRejected:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "status must be submitted, approved or rejected")
		return
	}

	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxListLimit)
	}

	query := `SELECT ` + submissionColumns + ` FROM submission`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY submitted_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.QueryContext(r.Context(), h.q(query), args...)
	if err != nil {
		zap.L().Error("failed to query submissions", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			zap.L().Error("failed to scan submission", zap.Error(err))
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("failed to iterate submissions", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmissionListResponse{
		Submissions: submissions,
		Count:       len(submissions),
	})
}

func (h *SubmissionHandler) load(r *http.Request, id string) (models.Submission, error) {
	row := h.db.QueryRowContext(r.Context(),
		h.q(`SELECT `+submissionColumns+` FROM submission WHERE id = ?`), id)
	return scanSubmission(row)
}

// GetSubmission handles GET /admin/submissions/{id}
// Returns the stored submission with its eligibility checks.
func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	s, err := h.load(r, r.PathValue("id"))
	if errors.Is(err, sql.ErrNoRows) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		return
	}
	if err != nil {
		zap.L().Error("failed to query submission", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmissionDetail{
		Submission: s,
		Checks:     estimate.Eligibility(s),
	})
}

// Decide handles POST /admin/submissions/{id}/decision
// A submission is decided once; later decisions conflict.
func (h *SubmissionHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req models.DecisionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	if decision != models.SubmissionApproved && decision != models.SubmissionRejected {
		middleware.ErrorResponse(w, http.StatusBadRequest, "decision must be approved or rejected")
		return
	}

	reviewer := middleware.ReviewerFromContext(r.Context())
	var note any
	if n := strings.TrimSpace(req.Note); n != "" {
		note = n
	}

	res, err := h.db.ExecContext(r.Context(), h.q(`
		UPDATE submission
		SET status = ?, reviewer = ?, decision_note = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`), decision, reviewer, note, db.FormatTime(h.now()), id, models.SubmissionSubmitted)
	if err != nil {
		zap.L().Error("failed to update submission", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or already decided
		_, err := h.load(r, id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			middleware.ErrorResponse(w, http.StatusNotFound, "Submission not found")
		case err != nil:
			zap.L().Error("failed to query submission", zap.Error(err))
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		default:
			middleware.ErrorResponse(w, http.StatusConflict, "Submission has already been decided")
		}
		return
	}

	zap.L().Info("submission decided",
		zap.String("submission_id", id),
		zap.String("decision", decision),
		zap.String("reviewer", reviewer),
	)

	s, err := h.load(r, id)
	if err != nil {
		zap.L().Error("failed to reload submission", zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SubmissionDetail{
		Submission: s,
		Checks:     estimate.Eligibility(s),
	})
}
