// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Each wizard step posts one request type. All of them implement
SectionUpdate so the same values can be saved or previewed:

  - PlatformRequest: platform
  - TargetRequest: targetRecruitment
  - DiagnosesRequest: diagnoses, requiresConfirmedDiagnosis
  - DemographicsRequest: ageMode, ageMin, ageMax, sex, regions, symptoms
  - DemographicsExtendedRequest: ethnicity, gender, sexAtBirth
  - MedicalRequest, DisabilitiesRequest: include, exclude
  - OtherRequest: caresForPwD, carerExperience, livesInCareHome, hasCarer, mmse

Site editing uses SiteRequest and DefaultRadiusRequest. The live estimate
posts an EstimateRequest with an Override naming one section.

# Form Values

Form posts are loosely typed. StringList accepts "a" or ["a", "b"];
FormValue accepts "12" or 12 and reads the leading whole number, so
"12.5" is 12 and an unparseable number becomes "absent" instead of an
error. The numeric criteria fields (age bounds, default radius, site
miles) decode through FormValue from both JSON and YAML.

# Domain Types

  - RecruitmentCriteria: estimator input, deep-copied with Clone
  - EstimateResult: available and matched volunteer counts
  - WizardState: a session's criteria, step status and saved result
  - Submission: a submitted request awaiting review
  - EligibilityRule: one automated review check

# Constants

Platforms:

	PlatformBPOR = "bpor"
	PlatformJDR  = "jdr"

Step status:

	StatusNotStarted = "not-started"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"

Submission status:

	SubmissionSubmitted = "submitted"
	SubmissionApproved  = "approved"
	SubmissionRejected  = "rejected"
*/
package models
