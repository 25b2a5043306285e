// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/recruit-feasibility/middleware"
	"github.com/danielhkuo/recruit-feasibility/models"
	"github.com/danielhkuo/recruit-feasibility/session"
	"github.com/danielhkuo/recruit-feasibility/testutil"
)

func newSubmissionHandler(t *testing.T) *SubmissionHandler {
	t.Helper()
	conn, driver := testutil.SetupTestDB(t)
	h := NewSubmissionHandler(conn, testutil.GetTestConfig(driver))
	h.now = func() time.Time { return fixedNow }
	return h
}

func createSubmission(t *testing.T, h *SubmissionHandler, c models.RecruitmentCriteria, status string) string {
	t.Helper()
	id, _ := testutil.CreateTestSubmission(t, h.db, h.cfg, c, status)
	return id
}

func submitRequest(state *models.WizardState) *http.Request {
	req := testutil.MakeRequest("POST", "/feasibility/submit", nil, map[string]string{"X-Forwarded-For": "203.0.113.9"})
	return req.WithContext(session.WithSession(req.Context(), &session.Session{ID: "session-1", State: state}))
}

func completedState() *models.WizardState {
	state := models.NewWizardState()
	state.Criteria.Platform = models.PlatformBPOR
	state.Criteria.TargetRecruitment = 5000
	state.Criteria.Sites.List = []models.Site{radiusSite("Leeds", 20)}
	for _, step := range models.CriteriaSteps {
		state.Complete(step, fixedNow)
	}
	state.Result = &models.EstimateResult{Available: 10000, Matched: 1}
	return state
}

func TestSubmit(t *testing.T) {
	h := newSubmissionHandler(t)
	state := completedState()

	w := httptest.NewRecorder()
	h.Submit(w, submitRequest(state))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SubmitResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Len(t, resp.SubmissionID, 32)
	assert.Regexp(t, `^FR-[0-9A-Za-z]+$`, resp.Reference)
	assert.NotEmpty(t, resp.Message)

	// Result is recomputed from the criteria, not trusted from the session.
	require.NotNil(t, state.Result)
	assert.Equal(t, 10000, state.Result.Matched)

	s, err := h.load(submitRequest(state), resp.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, resp.Reference, s.Reference)
	assert.Equal(t, "session-1", s.SessionID)
	assert.Equal(t, models.PlatformBPOR, s.Platform)
	assert.Equal(t, 5000, s.Target)
	assert.Equal(t, 10000, s.Matched)
	assert.True(t, s.CriteriaComplete)
	assert.Equal(t, models.SubmissionSubmitted, s.Status)
	assert.True(t, fixedNow.Equal(s.SubmittedAt))
	assert.Nil(t, s.DecidedAt)
	require.NotNil(t, s.IPHash)
	assert.NotContains(t, *s.IPHash, "203.0.113.9")
	assert.Equal(t, state.Criteria.Sites, s.Criteria.Sites)
}

func TestSubmit_RequiresResults(t *testing.T) {
	h := newSubmissionHandler(t)
	state := completedState()
	state.Result = nil

	w := httptest.NewRecorder()
	h.Submit(w, submitRequest(state))
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestSubmit_IncompleteCriteria(t *testing.T) {
	h := newSubmissionHandler(t)
	state := completedState()
	state.SetStatus(models.StepMedical, models.StatusInProgress, fixedNow)

	w := httptest.NewRecorder()
	h.Submit(w, submitRequest(state))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SubmitResponse
	testutil.AssertJSON(t, w, &resp)
	s, err := h.load(submitRequest(state), resp.SubmissionID)
	require.NoError(t, err)
	assert.False(t, s.CriteriaComplete)
}

func TestListSubmissions(t *testing.T) {
	h := newSubmissionHandler(t)
	c := completedState().Criteria
	createSubmission(t, h, c, models.SubmissionSubmitted)
	createSubmission(t, h, c, models.SubmissionSubmitted)
	createSubmission(t, h, c, models.SubmissionApproved)

	list := func(query string) (*httptest.ResponseRecorder, models.SubmissionListResponse) {
		w := httptest.NewRecorder()
		h.ListSubmissions(w, testutil.MakeRequest("GET", "/admin/submissions"+query, nil, nil))
		var resp models.SubmissionListResponse
		if w.Code == http.StatusOK {
			testutil.AssertJSON(t, w, &resp)
		}
		return w, resp
	}

	w, resp := list("")
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Equal(t, 3, resp.Count)

	_, resp = list("?status=submitted")
	assert.Equal(t, 2, resp.Count)
	for _, s := range resp.Submissions {
		assert.Equal(t, models.SubmissionSubmitted, s.Status)
	}

	_, resp = list("?limit=1")
	assert.Equal(t, 1, resp.Count)

	_, resp = list("?status=rejected")
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Submissions)

	w, _ = list("?status=lost")
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	w, _ = list("?limit=0")
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetSubmission(t *testing.T) {
	h := newSubmissionHandler(t)
	c := completedState().Criteria
	c.TargetRecruitment = 100000
	id := createSubmission(t, h, c, models.SubmissionSubmitted)

	req := testutil.MakeRequest("GET", "/admin/submissions/"+id, nil, nil)
	req.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.GetSubmission(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.SubmissionDetail
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, id, resp.Submission.ID)
	require.Len(t, resp.Checks, 4)
	checks := map[string]string{}
	for _, rule := range resp.Checks {
		checks[rule.ID] = rule.Status
	}
	assert.Equal(t, map[string]string{
		"pop":      models.RuleFail,
		"sites":    models.RulePass,
		"criteria": models.RulePass,
		"platform": models.RulePass,
	}, checks)

	// Reviewing again gives the same answer.
	w2 := httptest.NewRecorder()
	h.GetSubmission(w2, req)
	var again models.SubmissionDetail
	testutil.AssertJSON(t, w2, &again)
	assert.Equal(t, resp.Checks, again.Checks)

	missing := testutil.MakeRequest("GET", "/admin/submissions/nope", nil, nil)
	missing.SetPathValue("id", "nope")
	w = httptest.NewRecorder()
	h.GetSubmission(w, missing)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestDecide(t *testing.T) {
	h := newSubmissionHandler(t)
	id := createSubmission(t, h, completedState().Criteria, models.SubmissionSubmitted)

	decide := func(id string, body any) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", fmt.Sprintf("/admin/submissions/%s/decision", id), body,
			testutil.ReviewerHeaders(h.cfg, " Alice "))
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		middleware.RequireReviewer(h.cfg.AdminKeySalt)(http.HandlerFunc(h.Decide)).ServeHTTP(w, req)
		return w
	}

	testutil.AssertStatus(t, decide(id, map[string]string{"decision": "maybe"}), http.StatusBadRequest)

	w := decide(id, map[string]string{"decision": "Approved", "note": "  looks good "})
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.SubmissionDetail
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, models.SubmissionApproved, resp.Submission.Status)
	require.NotNil(t, resp.Submission.Reviewer)
	assert.Equal(t, "alice", *resp.Submission.Reviewer)
	require.NotNil(t, resp.Submission.DecisionNote)
	assert.Equal(t, "looks good", *resp.Submission.DecisionNote)
	require.NotNil(t, resp.Submission.DecidedAt)
	assert.True(t, fixedNow.Equal(*resp.Submission.DecidedAt))

	testutil.AssertStatus(t, decide(id, map[string]string{"decision": "rejected"}), http.StatusConflict)
	testutil.AssertStatus(t, decide("nope", map[string]string{"decision": "rejected"}), http.StatusNotFound)
}
