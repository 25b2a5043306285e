// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/recruit-feasibility/models"
	"github.com/danielhkuo/recruit-feasibility/session"
	"github.com/danielhkuo/recruit-feasibility/testutil"
)

// TestFullWizardWorkflow walks a researcher through every step, submits,
// and has a reviewer approve the request:
// 1. Platform and target
// 2. Sites (add, edit, remove, complete)
// 3. Criteria sections
// 4. Live estimate and results
// 5. Submit
// 6. Review and decide
func TestFullWizardWorkflow(t *testing.T) {
	mux, cfg := newTestRouter(t)
	researcher := testutil.NewClient(mux)

	// Step 1: Platform and target
	w := researcher.Do("PUT", "/feasibility/platform", map[string]string{"platform": "bpor"}, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	require.NotNil(t, researcher.Cookie(session.CookieName), "first request should start a session")

	w = researcher.Do("PUT", "/feasibility/target", map[string]string{"targetRecruitment": "1,000"}, nil)
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)
	w = researcher.Do("PUT", "/feasibility/target", map[string]string{"targetRecruitment": "1000"}, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Step 2: Sites
	w = researcher.Do("POST", "/feasibility/sites", map[string]any{"name": "Leeds", "coverageType": "radius", "radius": 12}, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)
	w = researcher.Do("POST", "/feasibility/sites", map[string]any{"name": "Typo", "coverageType": "radius", "radius": 3}, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)
	w = researcher.Do("POST", "/feasibility/sites", map[string]any{"name": "Manchester", "coverageType": "postcode", "districts": "M1 M2"}, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = researcher.Do("DELETE", "/feasibility/sites/1", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	w = researcher.Do("PUT", "/feasibility/sites/0", map[string]any{"name": "Leeds", "coverageType": "radius", "radius": 18}, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var sites models.SitesResponse
	testutil.AssertJSON(t, w, &sites)
	require.Len(t, sites.Sites.List, 2)
	assert.Equal(t, 18, sites.Sites.List[0].Coverage.Miles)
	assert.Equal(t, "Manchester", sites.Sites.List[1].Name)

	w = researcher.Do("POST", "/feasibility/sites/complete", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Step 3: Criteria sections
	sections := []struct {
		step string
		body map[string]any
	}{
		{models.StepDiagnoses, map[string]any{"diagnoses": []string{"alzheimers", "vascular"}}},
		{models.StepDemographics, map[string]any{"ageMode": "any", "sex": "any"}},
		{models.StepDemographicsExtended, map[string]any{"ethnicity": "white-british"}},
		{models.StepMedical, map[string]any{"exclude": []string{"stroke"}}},
		{models.StepDisabilities, map[string]any{}},
		{models.StepOther, map[string]any{"carerExperience": []string{"paid"}}},
	}
	for _, s := range sections {
		w = researcher.Do("PUT", "/feasibility/"+s.step, s.body, nil)
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	// Step 4: Live estimate, then results
	w = researcher.Do("POST", "/feasibility/estimate", map[string]any{
		"overrides": map[string]any{"section": "diagnoses", "values": map[string]any{
			"diagnoses": []string{"alzheimers", "vascular"}, "requiresConfirmedDiagnosis": true,
		}},
	}, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var preview models.EstimateResult
	testutil.AssertJSON(t, w, &preview)

	w = researcher.Do("GET", "/feasibility/results", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var results models.ResultsResponse
	testutil.AssertJSON(t, w, &results)

	// Sites average (18 + 10) / 2 = 14 miles -> 14/15 coverage.
	// 10000 - 500 - 50 - 120 - 40 = 9290; * 14/15 = 8670.67
	assert.Equal(t, 8671, results.Matched)
	assert.Equal(t, 1000, results.Target)
	assert.Equal(t, "Estimated 8,671 out of 10,000 possible volunteers meet your criteria.", results.Message)
	assert.Equal(t, 5202, preview.Matched, "preview applies the confirmed diagnosis factor")

	w = researcher.Do("GET", "/feasibility", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var state models.WizardState
	testutil.AssertJSON(t, w, &state)
	assert.True(t, state.CriteriaComplete())
	assert.True(t, state.Completed)
	assert.False(t, state.Criteria.RequiresConfirmedDiagnosis, "preview must not be saved")
	require.Len(t, state.StudySites, 2)

	w = researcher.Do("GET", "/feasibility/readiness", nil, nil)
	var readiness models.ReadinessResponse
	testutil.AssertJSON(t, w, &readiness)
	assert.Equal(t, models.RulePass, readiness.Rule.Status)

	// Step 5: Submit
	w = researcher.Do("POST", "/feasibility/submit", nil, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var submitted models.SubmitResponse
	testutil.AssertJSON(t, w, &submitted)

	// Another researcher cannot submit without results.
	other := testutil.NewClient(mux)
	testutil.AssertStatus(t, other.Do("POST", "/feasibility/submit", nil, nil), http.StatusConflict)

	// Step 6: Review
	reviewer := testutil.ReviewerHeaders(cfg, "alice")

	w = researcher.Do("GET", "/admin/submissions?status=submitted", nil, reviewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var list models.SubmissionListResponse
	testutil.AssertJSON(t, w, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, submitted.Reference, list.Submissions[0].Reference)

	w = researcher.Do("GET", "/admin/submissions/"+submitted.SubmissionID, nil, reviewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var detail models.SubmissionDetail
	testutil.AssertJSON(t, w, &detail)
	assert.Equal(t, 8671, detail.Submission.Matched)
	for _, rule := range detail.Checks {
		assert.Equal(t, models.RulePass, rule.Status, rule.ID)
	}

	w = researcher.Do("POST", "/admin/submissions/"+submitted.SubmissionID+"/decision",
		map[string]string{"decision": "approved"}, reviewer)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = researcher.Do("GET", "/admin/submissions?status=approved", nil, reviewer)
	testutil.AssertJSON(t, w, &list)
	assert.Equal(t, 1, list.Count)
}

// TestReadinessFollowsCriteriaChanges checks that tightening criteria after
// viewing results is reflected in readiness, and that results must be
// viewed again before submitting.
func TestReadinessFollowsCriteriaChanges(t *testing.T) {
	mux, _ := newTestRouter(t)
	c := testutil.NewClient(mux)

	testutil.AssertStatus(t, c.Do("PUT", "/feasibility/platform", map[string]string{"platform": "bpor"}, nil), http.StatusOK)
	testutil.AssertStatus(t, c.Do("PUT", "/feasibility/target", map[string]string{"targetRecruitment": "5000"}, nil), http.StatusOK)

	w := c.Do("GET", "/feasibility/results", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var results models.ResultsResponse
	testutil.AssertJSON(t, w, &results)
	require.Equal(t, 6667, results.Matched)

	excludes := make([]string, 40)
	for i := range excludes {
		excludes[i] = fmt.Sprintf("condition-%d", i)
	}
	testutil.AssertStatus(t, c.Do("PUT", "/feasibility/medical", map[string]any{"exclude": excludes}, nil), http.StatusOK)

	// 10000 - 40*120 = 5200; * 10/15 = 3466.67
	w = c.Do("GET", "/feasibility/readiness", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var readiness models.ReadinessResponse
	testutil.AssertJSON(t, w, &readiness)
	assert.Equal(t, 3467, readiness.Matched)
	assert.InDelta(t, 0.6934, readiness.Ratio, 0.0001)
	assert.Equal(t, models.RuleWarn, readiness.Rule.Status)

	w = c.Do("GET", "/feasibility", nil, nil)
	var state models.WizardState
	testutil.AssertJSON(t, w, &state)
	assert.Nil(t, state.Result)
	assert.False(t, state.Completed)
	assert.Equal(t, models.StatusNotStarted, state.StepStatus(models.StepResults))

	testutil.AssertStatus(t, c.Do("POST", "/feasibility/submit", nil, nil), http.StatusConflict)

	w = c.Do("GET", "/feasibility/results", nil, nil)
	testutil.AssertJSON(t, w, &results)
	assert.Equal(t, 3467, results.Matched)

	w = c.Do("POST", "/feasibility/submit", nil, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)
}
