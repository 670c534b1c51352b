package models

// BloodType enumerates canine blood types in the DEA system. Unknown is a
// first-class member: donors without a typing result still participate in
// matching, they are just never presented as a clean match.
type BloodType string

const (
	BloodTypeDEA1_1Positive BloodType = "DEA_1_1_POSITIVE"
	BloodTypeDEA1_1Negative BloodType = "DEA_1_1_NEGATIVE"
	BloodTypeDEA1_2Positive BloodType = "DEA_1_2_POSITIVE"
	BloodTypeDEA1_2Negative BloodType = "DEA_1_2_NEGATIVE"
	BloodTypeDEA3Positive   BloodType = "DEA_3_POSITIVE"
	BloodTypeDEA3Negative   BloodType = "DEA_3_NEGATIVE"
	BloodTypeDEA4Positive   BloodType = "DEA_4_POSITIVE"
	BloodTypeDEA4Negative   BloodType = "DEA_4_NEGATIVE"
	BloodTypeDEA5Positive   BloodType = "DEA_5_POSITIVE"
	BloodTypeDEA5Negative   BloodType = "DEA_5_NEGATIVE"
	BloodTypeDEA7Positive   BloodType = "DEA_7_POSITIVE"
	BloodTypeDEA7Negative   BloodType = "DEA_7_NEGATIVE"
	BloodTypeUnknown        BloodType = "UNKNOWN"
)

// UniversalDonorType is compatible with every requested type. DEA 1.1
// negative blood carries no DEA 1.1 antigen, the clinically significant one.
const UniversalDonorType = BloodTypeDEA1_1Negative

// BloodTypes lists every member of the closed set, Unknown included.
var BloodTypes = []BloodType{
	BloodTypeDEA1_1Positive,
	BloodTypeDEA1_1Negative,
	BloodTypeDEA1_2Positive,
	BloodTypeDEA1_2Negative,
	BloodTypeDEA3Positive,
	BloodTypeDEA3Negative,
	BloodTypeDEA4Positive,
	BloodTypeDEA4Negative,
	BloodTypeDEA5Positive,
	BloodTypeDEA5Negative,
	BloodTypeDEA7Positive,
	BloodTypeDEA7Negative,
	BloodTypeUnknown,
}

// ParseBloodType converts a raw string to a BloodType, returning false for
// values outside the closed set.
func ParseBloodType(s string) (BloodType, bool) {
	for _, b := range BloodTypes {
		if BloodType(s) == b {
			return b, true
		}
	}
	return "", false
}

// Compatibility is the verdict of matching a donor's type against a request.
type Compatibility string

const (
	// Compatible means the donor's blood can be used for the request.
	Compatible Compatibility = "COMPATIBLE"
	// NotRecommended means the pairing needs human review, typically because
	// the donor is untyped. Never silently hidden, never a clean match.
	NotRecommended Compatibility = "NOT_RECOMMENDED"
	// Incompatible means the pairing must not happen.
	Incompatible Compatibility = "INCOMPATIBLE"
)

// CompatibilityFor computes the verdict for a donor type against a requested
// type. requested == nil means the request accepts any compatible type.
// The function is total over the closed set and has no side effects.
func CompatibilityFor(donor BloodType, requested *BloodType) Compatibility {
	if requested == nil {
		if donor == BloodTypeUnknown {
			return NotRecommended
		}
		return Compatible
	}
	if donor == BloodTypeUnknown {
		return NotRecommended
	}
	if donor == UniversalDonorType {
		return Compatible
	}
	if donor == *requested {
		return Compatible
	}
	return Incompatible
}
