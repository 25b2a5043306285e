package models

import (
	"slices"
	"time"
)

// Platform constants
const (
	PlatformBPOR = "bpor"
	PlatformJDR  = "jdr"
)

// Sex filter constants
const (
	SexAny    = "any"
	SexMale   = "male"
	SexFemale = "female"
)

// Age selection modes. Anything else is treated as a preset band name.
const (
	AgeModeAny    = "any"
	AgeModeCustom = "custom"
)

// Site coverage types
const (
	CoverageRadius   = "radius"
	CoveragePostcode = "postcode"
)

// DefaultRadius is the site radius in miles when none has been chosen.
const DefaultRadius = 10

// Wizard step status constants
const (
	StatusNotStarted = "not-started"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Submission status constants
const (
	SubmissionSubmitted = "submitted"
	SubmissionApproved  = "approved"
	SubmissionRejected  = "rejected"
)

// Eligibility rule outcomes
const (
	RulePass = "pass"
	RuleWarn = "warn"
	RuleFail = "fail"
)

// Wizard steps, in the order the researcher walks through them.
const (
	StepPlatform             = "platform"
	StepTarget               = "target"
	StepSites                = "sites"
	StepDiagnoses            = "diagnoses"
	StepDemographics         = "demographics"
	StepDemographicsExtended = "demographics-extended"
	StepMedical              = "medical"
	StepDisabilities         = "disabilities"
	StepOther                = "other"
	StepResults              = "results"
)

// CriteriaSteps lists the steps that must be completed before results are
// considered final.
var CriteriaSteps = []string{
	StepPlatform,
	StepTarget,
	StepSites,
	StepDiagnoses,
	StepDemographics,
	StepDemographicsExtended,
	StepMedical,
	StepDisabilities,
	StepOther,
}

// Domain types

// RecruitmentCriteria is the snapshot the estimator works from. It is
// assembled from the wizard state and never carries request or session
// objects.
type RecruitmentCriteria struct {
	Platform                   string               `json:"platform" yaml:"platform"`
	TargetRecruitment          int                  `json:"targetRecruitment,omitempty" yaml:"targetRecruitment"`
	Age                        AgeSelection         `json:"age" yaml:"age"`
	Sex                        string               `json:"sex" yaml:"sex"`
	Regions                    StringList           `json:"regions" yaml:"regions"`
	Symptoms                   StringList           `json:"symptoms" yaml:"symptoms"`
	Diagnoses                  StringList           `json:"diagnoses" yaml:"diagnoses"`
	RequiresConfirmedDiagnosis bool                 `json:"requiresConfirmedDiagnosis" yaml:"requiresConfirmedDiagnosis"`
	Extended                   ExtendedDemographics `json:"demographicsExtended" yaml:"demographicsExtended"`
	Medical                    Selection            `json:"medical" yaml:"medical"`
	Disabilities               Selection            `json:"disabilities" yaml:"disabilities"`
	Other                      OtherCriteria        `json:"other" yaml:"other"`
	Sites                      SiteCoverage         `json:"sites" yaml:"sites"`
}

// AgeSelection is either a named preset band (Mode) or a custom range.
// Min and Max are nil when the researcher left them blank or typed
// something that is not a whole number.
type AgeSelection struct {
	Mode string `json:"mode" yaml:"mode"`
	Min  *int   `json:"min,omitempty" yaml:"min"`
	Max  *int   `json:"max,omitempty" yaml:"max"`
}

type ExtendedDemographics struct {
	Ethnicity  StringList `json:"ethnicity" yaml:"ethnicity"`
	Gender     StringList `json:"gender" yaml:"gender"`
	SexAtBirth StringList `json:"sexAtBirth" yaml:"sexAtBirth"`
}

// Selection holds include/exclude identifier sets (medical conditions,
// disabilities).
type Selection struct {
	Include StringList `json:"include" yaml:"include"`
	Exclude StringList `json:"exclude" yaml:"exclude"`
}

type OtherCriteria struct {
	CaresForPwD     string     `json:"caresForPwD,omitempty" yaml:"caresForPwD"`
	CarerExperience StringList `json:"carerExperience" yaml:"carerExperience"`
	LivesInCareHome string     `json:"livesInCareHome,omitempty" yaml:"livesInCareHome"`
	HasCarer        string     `json:"hasCarer,omitempty" yaml:"hasCarer"`
	MMSE            string     `json:"mmse,omitempty" yaml:"mmse"`
}

type SiteCoverage struct {
	List          []Site `json:"list" yaml:"list"`
	DefaultRadius int    `json:"defaultRadius" yaml:"defaultRadius"`
}

type Site struct {
	Name     string   `json:"name" yaml:"name"`
	Code     string   `json:"code,omitempty" yaml:"code"`
	Coverage Coverage `json:"coverage" yaml:"coverage"`
}

// Coverage is radius based (Miles) or postcode-district based (Districts).
type Coverage struct {
	Type      string   `json:"type" yaml:"type"`
	Miles     int      `json:"miles,omitempty" yaml:"miles"`
	Districts []string `json:"districts,omitempty" yaml:"districts"`
}

// Clone returns a deep copy. Mutating the copy never affects the receiver.
func (c RecruitmentCriteria) Clone() RecruitmentCriteria {
	out := c
	out.Age.Min = cloneInt(c.Age.Min)
	out.Age.Max = cloneInt(c.Age.Max)
	out.Regions = slices.Clone(c.Regions)
	out.Symptoms = slices.Clone(c.Symptoms)
	out.Diagnoses = slices.Clone(c.Diagnoses)
	out.Extended = ExtendedDemographics{
		Ethnicity:  slices.Clone(c.Extended.Ethnicity),
		Gender:     slices.Clone(c.Extended.Gender),
		SexAtBirth: slices.Clone(c.Extended.SexAtBirth),
	}
	out.Medical = c.Medical.clone()
	out.Disabilities = c.Disabilities.clone()
	out.Other.CarerExperience = slices.Clone(c.Other.CarerExperience)
	if c.Sites.List != nil {
		out.Sites.List = make([]Site, len(c.Sites.List))
		for i, s := range c.Sites.List {
			s.Coverage.Districts = slices.Clone(s.Coverage.Districts)
			out.Sites.List[i] = s
		}
	}
	return out
}

func (s Selection) clone() Selection {
	return Selection{Include: slices.Clone(s.Include), Exclude: slices.Clone(s.Exclude)}
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// EstimateResult is the estimator output. Available is the nominal registry
// size before filtering; Matched is the criteria-adjusted estimate.
type EstimateResult struct {
	Available int `json:"available"`
	Matched   int `json:"matched"`
}

// WizardState is everything one researcher session has entered so far.
type WizardState struct {
	Criteria   RecruitmentCriteria `json:"criteria"`
	Status     map[string]string   `json:"status"`
	LastSaved  *time.Time          `json:"lastSaved,omitempty"`
	Result     *EstimateResult     `json:"result,omitempty"`
	Completed  bool                `json:"completed"`
	StudySites []StudySite         `json:"studySites,omitempty"`
}

// StudySite is a site mirrored into the study section once the sites step
// is completed. Contact fields are filled in later in the submission flow.
type StudySite struct {
	Name         string   `json:"name"`
	PIName       string   `json:"piName"`
	PIEmail      string   `json:"piEmail"`
	ContactName  string   `json:"contactName"`
	ContactEmail string   `json:"contactEmail"`
	Coverage     Coverage `json:"coverage"`
}

// NewWizardState returns an empty state with the site default radius set.
func NewWizardState() *WizardState {
	return &WizardState{
		Criteria: RecruitmentCriteria{
			Sex:   SexAny,
			Age:   AgeSelection{Mode: AgeModeAny},
			Sites: SiteCoverage{List: []Site{}, DefaultRadius: DefaultRadius},
		},
		Status: map[string]string{},
	}
}

// StepStatus returns the recorded status for a step, defaulting to not-started.
func (s *WizardState) StepStatus(step string) string {
	if st, ok := s.Status[step]; ok {
		return st
	}
	return StatusNotStarted
}

// SetStatus records a step status and stamps LastSaved.
func (s *WizardState) SetStatus(step, status string, now time.Time) {
	if s.Status == nil {
		s.Status = map[string]string{}
	}
	s.Status[step] = status
	s.Touch(now)
}

// Complete marks a step completed.
func (s *WizardState) Complete(step string, now time.Time) {
	s.SetStatus(step, StatusCompleted, now)
}

// Touch stamps LastSaved without changing any step status.
func (s *WizardState) Touch(now time.Time) {
	t := now.UTC()
	s.LastSaved = &t
}

// ClearResult forgets the recorded result. The results step goes back to
// not-started.
func (s *WizardState) ClearResult() {
	s.Result = nil
	s.Completed = false
	delete(s.Status, StepResults)
}

// CriteriaComplete reports whether every criteria step has been completed.
func (s *WizardState) CriteriaComplete() bool {
	for _, step := range CriteriaSteps {
		if s.StepStatus(step) != StatusCompleted {
			return false
		}
	}
	return true
}

type Submission struct {
	ID               string              `json:"id"`
	Reference        string              `json:"reference"`
	SessionID        string              `json:"-"`
	Platform         string              `json:"platform"`
	Target           int                 `json:"target"`
	Available        int                 `json:"available"`
	Matched          int                 `json:"matched"`
	Criteria         RecruitmentCriteria `json:"criteria"`
	CriteriaComplete bool                `json:"criteria_complete"`
	Status           string              `json:"status"`
	Reviewer         *string             `json:"reviewer,omitempty"`
	DecisionNote     *string             `json:"decision_note,omitempty"`
	IPHash           *string             `json:"-"` // Never expose in JSON
	SubmittedAt      time.Time           `json:"submitted_at"`
	DecidedAt        *time.Time          `json:"decided_at,omitempty"`
}

type EligibilityRule struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Response types

type StepResponse struct {
	Step      string     `json:"step"`
	Status    string     `json:"status"`
	Next      string     `json:"next"`
	LastSaved *time.Time `json:"last_saved,omitempty"`
}

// SitesResponse is returned by every sites sub-action so the client can
// redraw the table.
type SitesResponse struct {
	Sites     SiteCoverage `json:"sites"`
	Status    string       `json:"status"`
	LastSaved *time.Time   `json:"last_saved,omitempty"`
}

type ResultsResponse struct {
	EstimateResult
	Target  int    `json:"target,omitempty"`
	Message string `json:"message"`
}

type ReadinessResponse struct {
	EstimateResult
	Target int             `json:"target"`
	Ratio  float64         `json:"ratio"`
	Rule   EligibilityRule `json:"rule"`
}

type SubmitResponse struct {
	SubmissionID string `json:"submission_id"`
	Reference    string `json:"reference"`
	Message      string `json:"message"`
}

type SubmissionListResponse struct {
	Submissions []Submission `json:"submissions"`
	Count       int          `json:"count"`
}

type SubmissionDetail struct {
	Submission Submission        `json:"submission"`
	Checks     []EligibilityRule `json:"checks"`
}

// Error response

// FieldError points the form at the input that failed validation.
type FieldError struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}
