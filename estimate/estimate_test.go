// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package estimate

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/recruit-feasibility/models"
)

func intPtr(n int) *int { return &n }

// baseCriteria is the default snapshot with one site at the reference radius.
func baseCriteria() models.RecruitmentCriteria {
	return models.RecruitmentCriteria{
		Sex: models.SexAny,
		Age: models.AgeSelection{Mode: models.AgeModeAny},
		Sites: models.SiteCoverage{
			DefaultRadius: 10,
			List: []models.Site{
				{Name: "Leeds", Coverage: models.Coverage{Type: models.CoverageRadius, Miles: 15}},
			},
		},
	}
}

func TestEstimate_ReferenceSite(t *testing.T) {
	got := Estimate(baseCriteria())
	assert.Equal(t, models.EstimateResult{Available: 10000, Matched: 10000}, got)
}

func TestEstimate_Female(t *testing.T) {
	c := baseCriteria()
	c.Sex = models.SexFemale
	assert.Equal(t, 5000, Estimate(c).Matched)
}

func TestEstimate_ExcludedConditions(t *testing.T) {
	c := baseCriteria()
	c.Medical.Exclude = models.StringList{"asthma", "copd", "epilepsy"}
	assert.Equal(t, max(0, 10000-3*MedicalExcludePenalty), Estimate(c).Matched)
}

func TestEstimate_EmptyCriteria(t *testing.T) {
	// No sites: only the default coverage factor (10 / 15) applies.
	got := Estimate(models.RecruitmentCriteria{})
	assert.Equal(t, 10000, got.Available)
	assert.Equal(t, 6667, got.Matched)

	got = Estimate(models.NewWizardState().Criteria)
	assert.Equal(t, 6667, got.Matched)
}

func TestEstimate_StrictCombination(t *testing.T) {
	c := models.RecruitmentCriteria{
		Platform:                   models.PlatformJDR,
		RequiresConfirmedDiagnosis: true,
		Medical: models.Selection{
			Exclude: models.StringList{"a", "b", "c", "d", "e"},
		},
	}
	got := Estimate(c)

	worst := float64(got.Available) * JDRFactor * ConfirmedDiagnosisFactor
	assert.LessOrEqual(t, float64(got.Matched), worst)
	assert.GreaterOrEqual(t, got.Matched, 0)
	// (10000 * 0.65 - 600) * (10/15) * 0.6
	assert.Equal(t, 2360, got.Matched)
}

func TestEstimate_NeverNegative(t *testing.T) {
	many := make(models.StringList, 200)
	for i := range many {
		many[i] = string(rune('A'+i%26)) + string(rune('a'+i/26))
	}
	c := baseCriteria()
	c.Diagnoses = many
	c.Medical.Exclude = many
	got := Estimate(c)
	assert.Equal(t, 0, got.Matched)
	assert.Equal(t, 10000, got.Available)
}

func TestEstimate_Bounds(t *testing.T) {
	cases := []models.RecruitmentCriteria{
		{},
		baseCriteria(),
		{Platform: "unknown", Sex: "other", Age: models.AgeSelection{Mode: "custom"}},
		{Sites: models.SiteCoverage{List: []models.Site{{Coverage: models.Coverage{Type: models.CoverageRadius, Miles: 200}}}}},
		{Regions: models.StringList{"north-east", "london"}, Symptoms: models.StringList{"fatigue"}},
	}
	for _, c := range cases {
		got := Estimate(c)
		assert.GreaterOrEqual(t, got.Matched, 0)
		assert.LessOrEqual(t, got.Matched, got.Available)
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	raw := `{"platform":"jdr","age":{"mode":"custom","min":30,"max":50},"sex":"male",
		"diagnoses":["dementia"],"medical":{"include":"diabetes","exclude":["stroke"]},
		"sites":{"defaultRadius":12,"list":[{"name":"A","coverage":{"type":"postcode","districts":["LS1"]}},
		{"name":"B","coverage":{"type":"radius","miles":20}}]}}`
	var a, b models.RecruitmentCriteria
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	require.NoError(t, json.Unmarshal([]byte(raw), &b))

	first := Estimate(a)
	assert.Equal(t, first, Estimate(b))
	assert.Equal(t, first, Estimate(a))
}

func TestEstimate_Concurrent(t *testing.T) {
	c := baseCriteria()
	c.Diagnoses = models.StringList{"x", "y"}
	want := Estimate(c)

	var wg sync.WaitGroup
	results := make([]models.EstimateResult, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Estimate(c)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, want, r)
	}
}

func TestEstimate_Monotonic(t *testing.T) {
	type adder func(c *models.RecruitmentCriteria, id string)
	categories := map[string]adder{
		"diagnoses":            func(c *models.RecruitmentCriteria, id string) { c.Diagnoses = append(c.Diagnoses, id) },
		"medical_include":      func(c *models.RecruitmentCriteria, id string) { c.Medical.Include = append(c.Medical.Include, id) },
		"medical_exclude":      func(c *models.RecruitmentCriteria, id string) { c.Medical.Exclude = append(c.Medical.Exclude, id) },
		"disabilities_include": func(c *models.RecruitmentCriteria, id string) { c.Disabilities.Include = append(c.Disabilities.Include, id) },
		"disabilities_exclude": func(c *models.RecruitmentCriteria, id string) { c.Disabilities.Exclude = append(c.Disabilities.Exclude, id) },
	}

	for name, add := range categories {
		t.Run(name, func(t *testing.T) {
			c := baseCriteria()
			c.Platform = models.PlatformJDR
			prev := Estimate(c).Matched
			for i := 0; i < 60; i++ {
				next := c.Clone()
				add(&next, name+string(rune('a'+i%26))+string(rune('a'+i/26)))
				got := Estimate(next).Matched
				assert.LessOrEqual(t, got, prev)
				prev = got
				c = next
			}
		})
	}
}

func TestEstimate_DuplicateItemsCountOnce(t *testing.T) {
	c := baseCriteria()
	c.Diagnoses = models.StringList{"dementia"}
	once := Estimate(c).Matched

	c.Diagnoses = models.StringList{"dementia", "Dementia ", "dementia"}
	assert.Equal(t, once, Estimate(c).Matched)
}

func TestPlatformFactor(t *testing.T) {
	assert.Equal(t, 1.0, PlatformFactor(""))
	assert.Equal(t, 1.0, PlatformFactor("bpor"))
	assert.Equal(t, 1.0, PlatformFactor("BPOR"))
	assert.Equal(t, JDRFactor, PlatformFactor("jdr"))
	assert.Equal(t, JDRFactor, PlatformFactor("JDR"))
	assert.Equal(t, JDRFactor, PlatformFactor("something-else"))
}

func TestAgeFactor(t *testing.T) {
	tests := []struct {
		name string
		age  models.AgeSelection
		want float64
	}{
		{"unset", models.AgeSelection{}, 1},
		{"any", models.AgeSelection{Mode: "any"}, 1},
		{"default band preset", models.AgeSelection{Mode: "18-65"}, 1},
		{"18plus is wider than reference", models.AgeSelection{Mode: "18plus"}, 1},
		{"custom full band", models.AgeSelection{Mode: "custom", Min: intPtr(18), Max: intPtr(65)}, 1},
		{"narrow preset clamps to max", models.AgeSelection{Mode: "65plus"}, MaxAgeFactor},
		{"decade preset", models.AgeSelection{Mode: "25-34"}, 9.0 / 47.0},
		{"single year clamps to min", models.AgeSelection{Mode: "custom", Min: intPtr(40), Max: intPtr(40)}, MinAgeFactor},
		{"custom mid band", models.AgeSelection{Mode: "custom", Min: intPtr(30), Max: intPtr(50)}, 20.0 / 47.0},
		{"custom missing min", models.AgeSelection{Mode: "custom", Max: intPtr(50)}, InvalidAgeFactor},
		{"custom inverted", models.AgeSelection{Mode: "custom", Min: intPtr(60), Max: intPtr(30)}, InvalidAgeFactor},
		{"custom negative", models.AgeSelection{Mode: "custom", Min: intPtr(-5), Max: intPtr(30)}, InvalidAgeFactor},
		{"unknown preset", models.AgeSelection{Mode: "teenagers"}, InvalidAgeFactor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AgeFactor(tt.age)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSexFilterFactor(t *testing.T) {
	assert.Equal(t, 1.0, SexFilterFactor(""))
	assert.Equal(t, 1.0, SexFilterFactor("any"))
	assert.Equal(t, SexFactor, SexFilterFactor("male"))
	assert.Equal(t, SexFactor, SexFilterFactor("Female"))
	assert.Equal(t, SexFactor, SexFilterFactor("unrecognised"))
}

func TestEstimate_RegionsDoNotNarrow(t *testing.T) {
	c := baseCriteria()
	want := Estimate(c)

	c.Regions = models.StringList{"london"}
	assert.Equal(t, want, Estimate(c))

	c.Regions = models.StringList{"london", "wales", "scotland"}
	assert.Equal(t, want, Estimate(c))
}

func TestAverageRadius(t *testing.T) {
	radius := func(m int) models.Site {
		return models.Site{Coverage: models.Coverage{Type: models.CoverageRadius, Miles: m}}
	}
	postcode := models.Site{Coverage: models.Coverage{Type: models.CoveragePostcode, Districts: []string{"LS1"}}}

	tests := []struct {
		name  string
		sites models.SiteCoverage
		want  float64
	}{
		{"no sites uses default", models.SiteCoverage{DefaultRadius: 12}, 12},
		{"no sites no default", models.SiteCoverage{}, DefaultRadius},
		{"single radius", models.SiteCoverage{List: []models.Site{radius(20)}}, 20},
		{"postcode counts as default", models.SiteCoverage{DefaultRadius: 8, List: []models.Site{radius(20), postcode}}, 14},
		{"zero miles counts as default", models.SiteCoverage{DefaultRadius: 6, List: []models.Site{radius(0)}}, 6},
		{"unknown type counts as default", models.SiteCoverage{DefaultRadius: 9, List: []models.Site{{}}}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AverageRadius(tt.sites), 1e-9)
		})
	}

	assert.Equal(t, 1.0, CoverageFactor(models.SiteCoverage{List: []models.Site{radius(40)}}))
	assert.InDelta(t, 0.5, CoverageFactor(models.SiteCoverage{List: []models.Site{radius(5), radius(10)}}), 1e-9)
}

func TestExplain(t *testing.T) {
	c := baseCriteria()
	c.Platform = models.PlatformJDR
	c.Diagnoses = models.StringList{"dementia"}
	c.RequiresConfirmedDiagnosis = true

	result, steps := Explain(c)
	assert.Equal(t, Estimate(c), result)

	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Criterion)
	}
	assert.Equal(t, []string{"platform", "age", "sex", "diagnoses", "site_coverage", "confirmed_diagnosis"}, names)
	assert.Equal(t, DiagnosisPenalty, steps[3].Subtracted)
	assert.InDelta(t, float64(result.Matched), steps[len(steps)-1].Pool, 0.5)
}

func TestPreview_DoesNotMutate(t *testing.T) {
	c := baseCriteria()
	c.Medical.Exclude = models.StringList{"asthma"}
	c.Age = models.AgeSelection{Mode: "custom", Min: intPtr(20), Max: intPtr(40)}
	before := c.Clone()

	want := c.Clone()
	want.Medical.Exclude = models.StringList{"asthma", "copd", "stroke"}
	got := Preview(c, models.MedicalRequest{Exclude: models.StringList{"asthma", "copd", "stroke"}})
	assert.Equal(t, Estimate(want), got)
	assert.Less(t, got.Matched, Estimate(c).Matched)
	assert.Equal(t, before, c)

	Preview(c, models.DemographicsRequest{AgeMode: "custom", AgeMin: "30", AgeMax: "31", Sex: "male"})
	assert.Equal(t, before, c)
	assert.Equal(t, 20, *c.Age.Min)
}

func TestPreview_PreviewOfSavedSectionMatchesSaved(t *testing.T) {
	c := baseCriteria()
	section := models.DisabilitiesRequest{Include: models.StringList{"visual"}, Exclude: models.StringList{"mobility"}}
	section.Apply(&c)
	saved := Estimate(c)

	assert.Equal(t, saved, Preview(c, section))
	assert.Equal(t, saved, Preview(c, nil))
}
