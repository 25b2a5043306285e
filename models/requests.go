package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Request types

// SectionUpdate is a wizard step's form values. Apply writes them into a
// criteria snapshot; the step handlers and the live estimate both go
// through Apply so a preview of the saved values equals the saved result.
type SectionUpdate interface {
	Apply(c *RecruitmentCriteria)
}

type PlatformRequest struct {
	Platform string `json:"platform"`
}

func (r PlatformRequest) Apply(c *RecruitmentCriteria) {
	c.Platform = strings.ToLower(strings.TrimSpace(r.Platform))
}

// MaxTarget is the largest recruitment target accepted.
const MaxTarget = math.MaxInt32

type TargetRequest struct {
	TargetRecruitment FormValue `json:"targetRecruitment"`
}

// Parse validates the target the same way the form does.
func (r TargetRequest) Parse() (int, []FieldError) {
	raw := r.TargetRecruitment.String()
	field := func(text string) []FieldError {
		return []FieldError{{Href: "#targetRecruitment", Text: text}}
	}
	if raw == "" {
		return 0, field("Enter a target recruitment number")
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) || n <= 0 {
		return 0, field("Enter a whole number greater than 0")
	}
	if n != math.Trunc(n) {
		return 0, field("Enter a whole number (no decimals)")
	}
	if n > MaxTarget {
		return 0, field(fmt.Sprintf("Enter a target of %s or fewer", humanize.Comma(MaxTarget)))
	}
	return int(n), nil
}

func (r TargetRequest) Apply(c *RecruitmentCriteria) {
	if n, errs := r.Parse(); len(errs) == 0 {
		c.TargetRecruitment = n
	}
}

type DiagnosesRequest struct {
	Diagnoses                  StringList `json:"diagnoses"`
	RequiresConfirmedDiagnosis *bool      `json:"requiresConfirmedDiagnosis,omitempty"`
}

func (r DiagnosesRequest) Apply(c *RecruitmentCriteria) {
	c.Diagnoses = slices.Clone(r.Diagnoses)
	if r.RequiresConfirmedDiagnosis != nil {
		c.RequiresConfirmedDiagnosis = *r.RequiresConfirmedDiagnosis
	}
}

type DemographicsRequest struct {
	AgeMode  string     `json:"ageMode"`
	AgeMin   FormValue  `json:"ageMin"`
	AgeMax   FormValue  `json:"ageMax"`
	Sex      string     `json:"sex"`
	Regions  StringList `json:"regions"`
	Symptoms StringList `json:"symptoms"`
}

func (r DemographicsRequest) Apply(c *RecruitmentCriteria) {
	mode := strings.ToLower(strings.TrimSpace(r.AgeMode))
	if mode == "" {
		mode = AgeModeAny
	}
	c.Age = AgeSelection{Mode: mode, Min: r.AgeMin.OptionalInt(), Max: r.AgeMax.OptionalInt()}

	sex := strings.ToLower(strings.TrimSpace(r.Sex))
	if sex == "" {
		sex = SexAny
	}
	c.Sex = sex
	c.Regions = slices.Clone(r.Regions)
	c.Symptoms = slices.Clone(r.Symptoms)
}

type DemographicsExtendedRequest struct {
	Ethnicity  StringList `json:"ethnicity"`
	Gender     StringList `json:"gender"`
	SexAtBirth StringList `json:"sexAtBirth"`
}

func (r DemographicsExtendedRequest) Apply(c *RecruitmentCriteria) {
	c.Extended = ExtendedDemographics{
		Ethnicity:  slices.Clone(r.Ethnicity),
		Gender:     slices.Clone(r.Gender),
		SexAtBirth: slices.Clone(r.SexAtBirth),
	}
}

type MedicalRequest struct {
	Include StringList `json:"include"`
	Exclude StringList `json:"exclude"`
}

func (r MedicalRequest) Apply(c *RecruitmentCriteria) {
	c.Medical = Selection{Include: slices.Clone(r.Include), Exclude: slices.Clone(r.Exclude)}
}

type DisabilitiesRequest struct {
	Include StringList `json:"include"`
	Exclude StringList `json:"exclude"`
}

func (r DisabilitiesRequest) Apply(c *RecruitmentCriteria) {
	c.Disabilities = Selection{Include: slices.Clone(r.Include), Exclude: slices.Clone(r.Exclude)}
}

type OtherRequest struct {
	CaresForPwD     string     `json:"caresForPwD"`
	CarerExperience StringList `json:"carerExperience"`
	LivesInCareHome string     `json:"livesInCareHome"`
	HasCarer        string     `json:"hasCarer"`
	MMSE            FormValue  `json:"mmse"`
}

func (r OtherRequest) Apply(c *RecruitmentCriteria) {
	c.Other = OtherCriteria{
		CaresForPwD:     strings.TrimSpace(r.CaresForPwD),
		CarerExperience: slices.Clone(r.CarerExperience),
		LivesInCareHome: strings.TrimSpace(r.LivesInCareHome),
		HasCarer:        strings.TrimSpace(r.HasCarer),
		MMSE:            r.MMSE.String(),
	}
}

// Sites

const (
	minMiles     = 1
	maxMiles     = 200
	maxDistricts = 100
)

var districtPattern = regexp.MustCompile(`^[A-Z]{1,2}\d{1,2}[A-Z]?$`)
var districtSeparators = regexp.MustCompile(`[,\s]+`)

// ClampMiles parses a radius and keeps it within 1–200 miles. Unparseable
// input returns fallback.
func ClampMiles(v FormValue, fallback int) int {
	n, ok := v.Int()
	if !ok {
		return fallback
	}
	return min(maxMiles, max(minMiles, n))
}

// ParseDistricts turns "LS1, ls2 M1" into ["LS1" "LS2" "M1"], dropping
// anything that is not an outward postcode.
func ParseDistricts(input string) []string {
	txt := strings.ToUpper(strings.TrimSpace(input))
	if txt == "" {
		return []string{}
	}
	out := []string{}
	for _, s := range districtSeparators.Split(txt, -1) {
		if districtPattern.MatchString(s) {
			out = append(out, s)
		}
		if len(out) == maxDistricts {
			break
		}
	}
	return out
}

type SiteRequest struct {
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	CoverageType string    `json:"coverageType"`
	Radius       FormValue `json:"radius"`
	Districts    FormValue `json:"districts"`
}

// Empty reports whether nothing was entered.
func (r SiteRequest) Empty() bool {
	return strings.TrimSpace(r.Name) == "" && strings.TrimSpace(r.Code) == "" &&
		r.Radius.String() == "" && r.Districts.String() == ""
}

// ToSite builds a site. Postcode sites need at least one valid district;
// href identifies the form row for the error.
func (r SiteRequest) ToSite(defaultRadius int, href string) (Site, []FieldError) {
	if defaultRadius <= 0 {
		defaultRadius = DefaultRadius
	}
	site := Site{Name: strings.TrimSpace(r.Name), Code: strings.TrimSpace(r.Code)}
	if r.CoverageType == CoveragePostcode {
		ds := ParseDistricts(r.Districts.String())
		site.Coverage = Coverage{Type: CoveragePostcode, Districts: ds}
		if len(ds) == 0 {
			return site, []FieldError{{Href: href, Text: "Enter at least one valid postcode district, e.g. LS1, LS2"}}
		}
		return site, nil
	}
	site.Coverage = Coverage{Type: CoverageRadius, Miles: ClampMiles(r.Radius, defaultRadius)}
	return site, nil
}

type DefaultRadiusRequest struct {
	DefaultRadius   FormValue `json:"defaultRadius"`
	ApplyToExisting bool      `json:"applyToExisting"`
}

// Live estimate

type EstimateRequest struct {
	Overrides *Override `json:"overrides"`
}

// Override names a wizard section and carries the unsaved values for it.
// Path is the legacy form path, e.g. "/researcher/feasibility/medical".
type Override struct {
	Section string          `json:"section"`
	Path    string          `json:"path"`
	Values  json.RawMessage `json:"values"`
}

// SectionName resolves Section or Path to a step name.
func (o Override) SectionName() string {
	name := strings.TrimSpace(o.Section)
	if name == "" {
		name = strings.TrimSpace(o.Path)
	}
	name = strings.TrimPrefix(name, "/researcher/feasibility")
	return strings.Trim(strings.ToLower(name), "/")
}

// DecodeSection decodes values for the named section. Unknown sections
// return a nil update and no error.
func DecodeSection(name string, values json.RawMessage) (SectionUpdate, error) {
	if len(bytes.TrimSpace(values)) == 0 || bytes.Equal(bytes.TrimSpace(values), []byte("null")) {
		values = json.RawMessage("{}")
	}
	var update SectionUpdate
	switch name {
	case StepPlatform:
		var r PlatformRequest
		if err := json.Unmarshal(values, &r); err != nil {
			return nil, err
		}
		update = r
	case StepTarget:
		var r TargetRequest
		if err := json.Unmarshal(values, &r); err != nil {
			return nil, err
		}
		update = r
	case StepDiagnoses:
		var r DiagnosesRequest
		if err := json.Unmarshal(values, &r); err != nil {
			return nil, err
		}
		update = r
	case StepDemographics:
		var r DemographicsRequest
		if err := json.Unmarshal(values, &r); err != nil {
			return nil, err
		}
		update = r
	case StepDemographicsExtended:
		var r DemographicsExtendedRequest
		if err := json.Unmarshal(values, &r); err != nil {
			return nil, err
		}
		update = r
	case StepMedical:
		var r MedicalRequest
		if err := json.Unmarshal(values, &r); err != nil {
			return nil, err
		}
		update = r
	case StepDisabilities:
		var r DisabilitiesRequest
		if err := json.Unmarshal(values, &r); err != nil {
			return nil, err
		}
		update = r
	case StepOther:
		var r OtherRequest
		if err := json.Unmarshal(values, &r); err != nil {
			return nil, err
		}
		update = r
	}
	return update, nil
}

// Admin

type DecisionRequest struct {
	Decision string `json:"decision"` // "approved" | "rejected"
	Note     string `json:"note"`
}
