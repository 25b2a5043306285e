// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package estimate

import (
	"math"
	"strings"

	"github.com/danielhkuo/recruit-feasibility/models"
)

// Baseline is the nominal registry size before any filtering.
const Baseline = 10000

// Multiplicative factors
const (
	JDRFactor                = 0.65
	SexFactor                = 0.5
	ConfirmedDiagnosisFactor = 0.6
)

// Age band factors. Bands at least as wide as the reference band do not
// narrow the pool; narrower bands scale by width within [min, max].
const (
	ReferenceAgeMin  = 18
	ReferenceAgeMax  = 65
	MinAgeFactor     = 0.15
	MaxAgeFactor     = 0.65
	InvalidAgeFactor = 0.30
)

// Geography
const (
	ReferenceRadius = 15.0
	DefaultRadius   = models.DefaultRadius
)

// Per-item penalties, subtracted once per selected identifier.
const (
	DiagnosisPenalty         = 250
	SymptomPenalty           = 120
	DemographicTagPenalty    = 50
	MedicalIncludePenalty    = 80
	MedicalExcludePenalty    = 120
	DisabilityIncludePenalty = 50
	DisabilityExcludePenalty = 80
	CarerExperiencePenalty   = 40
)

type ageBand struct{ min, max int }

var presetBands = map[string]ageBand{
	"18-24":  {18, 24},
	"25-34":  {25, 34},
	"35-44":  {35, 44},
	"45-54":  {45, 54},
	"55-64":  {55, 64},
	"65plus": {65, 100},
	"18plus": {18, 100},
	"18-65":  {ReferenceAgeMin, ReferenceAgeMax},
}

// Adjustment records one step of the penalty model.
type Adjustment struct {
	Criterion  string  `json:"criterion" yaml:"criterion"`
	Factor     float64 `json:"factor,omitempty" yaml:"factor,omitempty"`
	Subtracted int     `json:"subtracted,omitempty" yaml:"subtracted,omitempty"`
	Pool       float64 `json:"pool" yaml:"pool"`
}

// Estimate converts recruitment criteria into a volunteer estimate.
//
// It is a pure function of its input: no I/O, no shared state, and every
// field has a default so there is no error path.
func Estimate(c models.RecruitmentCriteria) models.EstimateResult {
	result, _ := Explain(c)
	return result
}

// Explain is Estimate plus the per-criterion accounting.
func Explain(c models.RecruitmentCriteria) (models.EstimateResult, []Adjustment) {
	pool := float64(Baseline)
	steps := make([]Adjustment, 0, 16)

	scale := func(name string, f float64) {
		pool *= f
		steps = append(steps, Adjustment{Criterion: name, Factor: f, Pool: pool})
	}
	subtract := func(name string, count, each int) {
		if count == 0 {
			return
		}
		pool = math.Max(0, pool-float64(count*each))
		steps = append(steps, Adjustment{Criterion: name, Subtracted: count * each, Pool: pool})
	}

	scale("platform", PlatformFactor(c.Platform))
	scale("age", AgeFactor(c.Age))
	scale("sex", SexFilterFactor(c.Sex))

	subtract("diagnoses", distinct(c.Diagnoses), DiagnosisPenalty)
	subtract("symptoms", distinct(c.Symptoms), SymptomPenalty)
	subtract("ethnicity", distinct(c.Extended.Ethnicity), DemographicTagPenalty)
	subtract("gender", distinct(c.Extended.Gender), DemographicTagPenalty)
	subtract("sex_at_birth", distinct(c.Extended.SexAtBirth), DemographicTagPenalty)
	subtract("medical_include", distinct(c.Medical.Include), MedicalIncludePenalty)
	subtract("medical_exclude", distinct(c.Medical.Exclude), MedicalExcludePenalty)
	subtract("disabilities_include", distinct(c.Disabilities.Include), DisabilityIncludePenalty)
	subtract("disabilities_exclude", distinct(c.Disabilities.Exclude), DisabilityExcludePenalty)
	subtract("carer_experience", distinct(c.Other.CarerExperience), CarerExperiencePenalty)

	scale("site_coverage", CoverageFactor(c.Sites))
	if c.RequiresConfirmedDiagnosis {
		scale("confirmed_diagnosis", ConfirmedDiagnosisFactor)
	}

	matched := int(math.Round(pool))
	matched = min(Baseline, max(0, matched))

	return models.EstimateResult{Available: Baseline, Matched: matched}, steps
}

// Section is a set of unsaved form values for one wizard step.
type Section interface {
	Apply(c *models.RecruitmentCriteria)
}

// Preview estimates against a copy of c with s applied. c is not modified.
// A nil section previews c unchanged.
func Preview(c models.RecruitmentCriteria, s Section) models.EstimateResult {
	hypothetical := c.Clone()
	if s != nil {
		s.Apply(&hypothetical)
	}
	return Estimate(hypothetical)
}

// PlatformFactor narrows the pool for the stricter platform. Unknown
// platforms get the strict factor.
func PlatformFactor(platform string) float64 {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "", models.PlatformBPOR:
		return 1
	default:
		return JDRFactor
	}
}

// AgeFactor maps an age selection to a width factor.
func AgeFactor(a models.AgeSelection) float64 {
	mode := strings.ToLower(strings.TrimSpace(a.Mode))
	switch mode {
	case "", models.AgeModeAny:
		return 1
	case models.AgeModeCustom:
		if a.Min == nil || a.Max == nil || *a.Min < 0 || *a.Max < *a.Min {
			return InvalidAgeFactor
		}
		return bandFactor(*a.Min, *a.Max)
	}
	band, ok := presetBands[mode]
	if !ok {
		return InvalidAgeFactor
	}
	return bandFactor(band.min, band.max)
}

func bandFactor(lo, hi int) float64 {
	width := float64(hi - lo)
	reference := float64(ReferenceAgeMax - ReferenceAgeMin)
	if width >= reference {
		return 1
	}
	return min(MaxAgeFactor, max(MinAgeFactor, width/reference))
}

// SexFilterFactor halves the pool when a specific sex is required.
func SexFilterFactor(sex string) float64 {
	switch strings.ToLower(strings.TrimSpace(sex)) {
	case "", models.SexAny:
		return 1
	default:
		return SexFactor
	}
}

// AverageRadius is the mean effective radius across sites. Postcode sites
// and sites without a usable radius count as the default radius; with no
// sites the default radius is used on its own.
func AverageRadius(s models.SiteCoverage) float64 {
	def := s.DefaultRadius
	if def <= 0 {
		def = DefaultRadius
	}
	if len(s.List) == 0 {
		return float64(def)
	}
	sum := 0
	for _, site := range s.List {
		if site.Coverage.Type == models.CoverageRadius && site.Coverage.Miles > 0 {
			sum += site.Coverage.Miles
			continue
		}
		sum += def
	}
	return float64(sum) / float64(len(s.List))
}

// CoverageFactor is min(1, averageRadius / ReferenceRadius).
func CoverageFactor(s models.SiteCoverage) float64 {
	return math.Min(1, AverageRadius(s)/ReferenceRadius)
}

// distinct counts unique identifiers so a repeated checkbox value is only
// penalised once.
func distinct(items []string) int {
	if len(items) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(items))
	for _, s := range items {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		seen[s] = struct{}{}
	}
	return len(seen)
}
