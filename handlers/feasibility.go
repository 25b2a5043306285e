// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/recruit-feasibility/cliparse"
	"github.com/danielhkuo/recruit-feasibility/estimate"
	"github.com/danielhkuo/recruit-feasibility/middleware"
	"github.com/danielhkuo/recruit-feasibility/models"
	"github.com/danielhkuo/recruit-feasibility/session"
)

// FeasibilityHandler serves the wizard steps. All state lives in the
// request's session; the handler itself holds only config.
type FeasibilityHandler struct {
	cfg cliparse.Config
	now func() time.Time
}

func NewFeasibilityHandler(cfg cliparse.Config) *FeasibilityHandler {
	return &FeasibilityHandler{cfg: cfg, now: time.Now}
}

// nextStep returns the step after step, ending at results.
func nextStep(step string) string {
	i := slices.Index(models.CriteriaSteps, step)
	if i < 0 || i == len(models.CriteriaSteps)-1 {
		return models.StepResults
	}
	return models.CriteriaSteps[i+1]
}

func wizardState(w http.ResponseWriter, r *http.Request) (*models.WizardState, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok || sess.State == nil {
		zap.L().Error("wizard route served without session middleware", zap.String("path", r.URL.Path))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Session unavailable")
		return nil, false
	}
	return sess.State, true
}

// changeCriteria applies change to the saved criteria. A recorded result
// no longer describes changed criteria, so it is dropped and results must
// be viewed again before submitting.
func changeCriteria(state *models.WizardState, change func(c *models.RecruitmentCriteria)) {
	before := state.Criteria.Clone()
	change(&state.Criteria)
	if !reflect.DeepEqual(before, state.Criteria) {
		state.ClearResult()
	}
}

func (h *FeasibilityHandler) completeStep(w http.ResponseWriter, state *models.WizardState, step string) {
	state.Complete(step, h.now())
	middleware.JSONResponse(w, http.StatusOK, models.StepResponse{
		Step:      step,
		Status:    state.StepStatus(step),
		Next:      nextStep(step),
		LastSaved: state.LastSaved,
	})
}

// GetState handles GET /feasibility
func (h *FeasibilityHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, state)
}

// SetPlatform handles PUT /feasibility/platform
func (h *FeasibilityHandler) SetPlatform(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}

	var req models.PlatformRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var c models.RecruitmentCriteria
	req.Apply(&c)
	if c.Platform != models.PlatformBPOR && c.Platform != models.PlatformJDR {
		middleware.ValidationResponse(w, []models.FieldError{
			{Href: "#platform-bpor", Text: "Select a platform to continue"},
		})
		return
	}

	changeCriteria(state, req.Apply)
	h.completeStep(w, state, models.StepPlatform)
}

// SetTarget handles PUT /feasibility/target
func (h *FeasibilityHandler) SetTarget(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}

	var req models.TargetRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if _, errs := req.Parse(); len(errs) > 0 {
		middleware.ValidationResponse(w, errs)
		return
	}

	changeCriteria(state, req.Apply)
	h.completeStep(w, state, models.StepTarget)
}

// SaveSection returns the PUT handler for a criteria step that has no
// validation beyond decoding: diagnoses, demographics,
// demographics-extended, medical, disabilities and other.
func (h *FeasibilityHandler) SaveSection(step string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, ok := wizardState(w, r)
		if !ok {
			return
		}

		var raw json.RawMessage
		if err := middleware.ParseJSONBody(r, &raw); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		update, err := models.DecodeSection(step, raw)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s answers", step))
			return
		}
		if update == nil {
			middleware.ErrorResponse(w, http.StatusNotFound, "Unknown step")
			return
		}

		changeCriteria(state, update.Apply)
		h.completeStep(w, state, step)
	}
}

func (h *FeasibilityHandler) sitesResponse(w http.ResponseWriter, status int, state *models.WizardState) {
	middleware.JSONResponse(w, status, models.SitesResponse{
		Sites:     state.Criteria.Sites,
		Status:    state.StepStatus(models.StepSites),
		LastSaved: state.LastSaved,
	})
}

func defaultRadius(s models.SiteCoverage) int {
	if s.DefaultRadius > 0 {
		return s.DefaultRadius
	}
	return estimate.DefaultRadius
}

// AddSite handles POST /feasibility/sites
func (h *FeasibilityHandler) AddSite(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}

	var req models.SiteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Empty() {
		middleware.ValidationResponse(w, []models.FieldError{
			{Href: "#siteName", Text: "Enter a site name or code"},
		})
		return
	}

	site, errs := req.ToSite(defaultRadius(state.Criteria.Sites), "#districts")
	if len(errs) > 0 {
		middleware.ValidationResponse(w, errs)
		return
	}

	changeCriteria(state, func(c *models.RecruitmentCriteria) {
		c.Sites.List = append(c.Sites.List, site)
	})
	state.SetStatus(models.StepSites, models.StatusInProgress, h.now())
	h.sitesResponse(w, http.StatusCreated, state)
}

func siteIndex(w http.ResponseWriter, r *http.Request, state *models.WizardState) (int, bool) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || i < 0 || i >= len(state.Criteria.Sites.List) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Site not found")
		return 0, false
	}
	return i, true
}

// UpdateSite handles PUT /feasibility/sites/{index}
func (h *FeasibilityHandler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}
	i, ok := siteIndex(w, r, state)
	if !ok {
		return
	}

	var req models.SiteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	site, errs := req.ToSite(defaultRadius(state.Criteria.Sites), fmt.Sprintf("#row-%d-districts", i))
	if len(errs) > 0 {
		middleware.ValidationResponse(w, errs)
		return
	}

	changeCriteria(state, func(c *models.RecruitmentCriteria) {
		c.Sites.List[i] = site
	})
	state.Touch(h.now())
	h.sitesResponse(w, http.StatusOK, state)
}

// DeleteSite handles DELETE /feasibility/sites/{index}
func (h *FeasibilityHandler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}
	i, ok := siteIndex(w, r, state)
	if !ok {
		return
	}

	changeCriteria(state, func(c *models.RecruitmentCriteria) {
		c.Sites.List = slices.Delete(c.Sites.List, i, i+1)
	})
	status := models.StatusNotStarted
	if len(state.Criteria.Sites.List) > 0 {
		status = models.StatusInProgress
	}
	state.SetStatus(models.StepSites, status, h.now())
	h.sitesResponse(w, http.StatusOK, state)
}

// SetDefaultRadius handles PUT /feasibility/sites/default-radius
func (h *FeasibilityHandler) SetDefaultRadius(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}

	var req models.DefaultRadiusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	changeCriteria(state, func(c *models.RecruitmentCriteria) {
		sites := &c.Sites
		if req.DefaultRadius.String() != "" {
			sites.DefaultRadius = models.ClampMiles(req.DefaultRadius, defaultRadius(*sites))
		}
		if req.ApplyToExisting {
			miles := defaultRadius(*sites)
			for i := range sites.List {
				if sites.List[i].Coverage.Type != models.CoveragePostcode {
					sites.List[i].Coverage = models.Coverage{Type: models.CoverageRadius, Miles: miles}
				}
			}
		}
	})
	state.Touch(h.now())
	h.sitesResponse(w, http.StatusOK, state)
}

// CompleteSites handles POST /feasibility/sites/complete. With no sites
// the step stays in progress but the researcher may still move on.
func (h *FeasibilityHandler) CompleteSites(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}

	list := state.Criteria.Sites.List
	status := models.StatusInProgress
	if len(list) > 0 {
		status = models.StatusCompleted
	}
	state.SetStatus(models.StepSites, status, h.now())

	// Mirror into the study section; contacts are filled in later.
	state.StudySites = make([]models.StudySite, len(list))
	for i, s := range list {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Site %d", i+1)
		}
		state.StudySites[i] = models.StudySite{Name: name, Coverage: s.Coverage}
	}

	middleware.JSONResponse(w, http.StatusOK, models.StepResponse{
		Step:      models.StepSites,
		Status:    status,
		Next:      nextStep(models.StepSites),
		LastSaved: state.LastSaved,
	})
}

// Results handles GET /feasibility/results. It runs the estimator on the
// saved criteria and records the result on the session.
func (h *FeasibilityHandler) Results(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}

	result := estimate.Estimate(state.Criteria)
	state.Result = &result
	state.Completed = true
	state.Complete(models.StepResults, h.now())

	zap.L().Debug("feasibility estimated",
		zap.Int("available", result.Available),
		zap.Int("matched", result.Matched),
		zap.String("platform", state.Criteria.Platform),
	)

	middleware.JSONResponse(w, http.StatusOK, models.ResultsResponse{
		EstimateResult: result,
		Target:         state.Criteria.TargetRecruitment,
		Message:        estimate.Summary(result),
	})
}

// LiveEstimate handles POST /feasibility/estimate. It previews the
// estimate with one section's unsaved values and never changes the
// session.
func (h *FeasibilityHandler) LiveEstimate(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}

	var req models.EstimateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var update models.SectionUpdate
	if req.Overrides != nil {
		var err error
		update, err = models.DecodeSection(req.Overrides.SectionName(), req.Overrides.Values)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid override values")
			return
		}
	}

	var result models.EstimateResult
	if update == nil {
		result = estimate.Estimate(state.Criteria)
	} else {
		result = estimate.Preview(state.Criteria, update)
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}

// Readiness handles GET /feasibility/readiness. It always estimates the
// saved criteria so the figure matches what Submit will record.
func (h *FeasibilityHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	state, ok := wizardState(w, r)
	if !ok {
		return
	}

	result := estimate.Estimate(state.Criteria)
	target := state.Criteria.TargetRecruitment

	middleware.JSONResponse(w, http.StatusOK, models.ReadinessResponse{
		EstimateResult: result,
		Target:         target,
		Ratio:          estimate.Ratio(result.Matched, target),
		Rule:           estimate.Readiness(result.Matched, target),
	})
}
