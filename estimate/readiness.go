// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package estimate

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/recruit-feasibility/models"
)

// Readiness thresholds on matched / target.
const (
	ReadyRatio   = 0.8
	WarningRatio = 0.3
)

// Summary is the sentence shown under the results.
func Summary(r models.EstimateResult) string {
	return fmt.Sprintf("Estimated %s out of %s possible volunteers meet your criteria.",
		humanize.Comma(int64(r.Matched)), humanize.Comma(int64(r.Available)))
}

// Ratio returns matched / target, or 0 without a target.
func Ratio(matched, target int) float64 {
	if target <= 0 {
		return 0
	}
	return float64(matched) / float64(target)
}

// Readiness checks whether the matched population can plausibly meet the
// recruitment target.
func Readiness(matched, target int) models.EligibilityRule {
	rule := models.EligibilityRule{ID: "pop", Label: "Enough volunteers to meet target"}
	if target <= 0 {
		rule.Status = models.RuleWarn
		rule.Message = "No overall target provided."
		return rule
	}

	pct := Ratio(matched, target)
	rule.Status = models.RulePass
	rule.Message = fmt.Sprintf("Feasibility matched %s vs target %s (%d%%).",
		humanize.Comma(int64(matched)), humanize.Comma(int64(target)), int(math.Round(pct*100)))
	switch {
	case pct < WarningRatio:
		rule.Status = models.RuleFail
		rule.Message += " Target likely unrealistic for current criteria."
	case pct < ReadyRatio:
		rule.Status = models.RuleWarn
		rule.Message += " Consider site coverage or criteria."
	}
	return rule
}

// Eligibility runs the automated review checks for a submission. The
// checks only read the stored submission, so reviewing twice gives the
// same answer.
func Eligibility(s models.Submission) []models.EligibilityRule {
	rules := []models.EligibilityRule{Readiness(s.Matched, s.Target)}

	sites := len(s.Criteria.Sites.List)
	siteRule := models.EligibilityRule{ID: "sites", Label: "At least 1 study site provided"}
	if sites > 0 {
		siteRule.Status = models.RulePass
		siteRule.Message = fmt.Sprintf("%d site(s) listed.", sites)
	} else {
		siteRule.Status = models.RuleFail
		siteRule.Message = "No sites listed."
	}
	rules = append(rules, siteRule)

	criteriaRule := models.EligibilityRule{ID: "criteria", Label: "All criteria sections completed"}
	if s.CriteriaComplete {
		criteriaRule.Status = models.RulePass
		criteriaRule.Message = "All sections completed."
	} else {
		criteriaRule.Status = models.RuleWarn
		criteriaRule.Message = "Some criteria sections were skipped."
	}
	rules = append(rules, criteriaRule)

	platformRule := models.EligibilityRule{ID: "platform", Label: "Platform selected"}
	switch s.Platform {
	case models.PlatformBPOR, models.PlatformJDR:
		platformRule.Status = models.RulePass
		platformRule.Message = fmt.Sprintf("Recruiting through %s.", platformName(s.Platform))
	default:
		platformRule.Status = models.RuleWarn
		platformRule.Message = "No platform recorded."
	}
	return append(rules, platformRule)
}

func platformName(p string) string {
	switch p {
	case models.PlatformBPOR:
		return "Be Part of Research"
	case models.PlatformJDR:
		return "Join Dementia Research"
	}
	return p
}
