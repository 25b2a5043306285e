// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package estimate implements the recruitment feasibility estimator.

# Estimating

Estimate turns a criteria snapshot into an available/matched pair:

	result := estimate.Estimate(criteria)
	fmt.Println(estimate.Summary(result))

The pool starts at Baseline and each criterion narrows it, in order:

 1. platform (JDR ×0.65)
 2. age band width (×0.15–0.65 for narrow bands, ×0.30 when invalid)
 3. sex (×0.5 when not "any")
 4. per-item subtraction for diagnoses, symptoms, demographic tags,
    medical and disability include/exclude, carer experience
 5. site coverage (average radius / 15 miles, capped at 1)
 6. confirmed diagnosis (×0.6)

Regions are recorded with the criteria but do not narrow the pool;
geography is measured by site coverage alone.

Explain returns the same result with one Adjustment per step.

# Live Preview

Preview applies one section's unsaved values to a deep copy:

	result := estimate.Preview(state.Criteria, models.MedicalRequest{Exclude: ids})

The caller's criteria are never modified.

# Readiness

Readiness compares matched against the recruitment target (pass at 80%,
warn at 30%, fail below). Eligibility runs all review checks for a stored
submission.
*/
package estimate
