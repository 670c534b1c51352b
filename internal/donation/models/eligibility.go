package models

import (
	"fmt"
	"time"
)

// Eligibility thresholds for canine donors.
const (
	MinDonorWeightKg   = 25.0
	MinDonorAgeYears   = 1
	MaxDonorAgeYears   = 8
	MinDonationGapWeeks = 8
)

// EligibilityResult reports whether a donor may donate and, when not, every
// blocking condition. Callers surface the full reason list, so the rules are
// evaluated independently rather than short-circuiting.
type EligibilityResult struct {
	OK      bool
	Reasons []string
}

// EvaluateEligibility applies the health and interval rules to a donor
// snapshot at a given instant. Pure and deterministic: the same snapshot and
// asOf always yield the same verdict, which the completion protocol's
// re-validation depends on.
func EvaluateEligibility(donor *Donor, asOf time.Time) EligibilityResult {
	var reasons []string

	if !donor.Active {
		reasons = append(reasons, "donor profile is not active")
	}

	if donor.WeightKg < MinDonorWeightKg {
		reasons = append(reasons, fmt.Sprintf("weight must be at least %.0fkg", MinDonorWeightKg))
	}

	age := donor.AgeYears(asOf)
	if age < MinDonorAgeYears || age > MaxDonorAgeYears {
		reasons = append(reasons, fmt.Sprintf("age must be between %d-%d years", MinDonorAgeYears, MaxDonorAgeYears))
	}

	if donor.LastDonationDate != nil {
		weeksSince := int(asOf.Sub(*donor.LastDonationDate).Hours() / 24 / 7)
		if weeksSince < MinDonationGapWeeks {
			reasons = append(reasons, fmt.Sprintf(
				"last donation was only %d weeks ago (need %d+)", weeksSince, MinDonationGapWeeks))
		}
	}

	return EligibilityResult{OK: len(reasons) == 0, Reasons: reasons}
}
