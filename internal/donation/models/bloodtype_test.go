package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCompatibilityFor_Exhaustive walks every (donor, requested) pair in the
// closed set, plus the nil "any type accepted" request, and checks the verdict
// against the fixed rules. Every pair must yield exactly one defined outcome.
func TestCompatibilityFor_Exhaustive(t *testing.T) {
	expected := func(donor BloodType, requested *BloodType) Compatibility {
		switch {
		case donor == BloodTypeUnknown:
			return NotRecommended
		case requested == nil:
			return Compatible
		case donor == UniversalDonorType:
			return Compatible
		case donor == *requested:
			return Compatible
		default:
			return Incompatible
		}
	}

	for _, donor := range BloodTypes {
		t.Run(string(donor)+"/any", func(t *testing.T) {
			assert.Equal(t, expected(donor, nil), CompatibilityFor(donor, nil))
		})
		for _, req := range BloodTypes {
			requested := req
			t.Run(string(donor)+"/"+string(req), func(t *testing.T) {
				got := CompatibilityFor(donor, &requested)
				assert.Equal(t, expected(donor, &requested), got)
				// Totality: always one of the three defined verdicts.
				assert.Contains(t, []Compatibility{Compatible, NotRecommended, Incompatible}, got)
			})
		}
	}
}

func TestCompatibilityFor_Scenarios(t *testing.T) {
	t.Run("universal donor matches every positive type", func(t *testing.T) {
		for _, req := range []BloodType{
			BloodTypeDEA1_1Positive, BloodTypeDEA1_2Positive, BloodTypeDEA3Positive,
			BloodTypeDEA4Positive, BloodTypeDEA5Positive, BloodTypeDEA7Positive,
		} {
			requested := req
			assert.Equal(t, Compatible, CompatibilityFor(UniversalDonorType, &requested), req)
		}
	})

	t.Run("untyped donor is surfaced for review, not hidden", func(t *testing.T) {
		requested := BloodTypeDEA4Negative
		assert.Equal(t, NotRecommended, CompatibilityFor(BloodTypeUnknown, &requested))
		assert.Equal(t, NotRecommended, CompatibilityFor(BloodTypeUnknown, nil))
	})

	t.Run("mismatched concrete types are incompatible", func(t *testing.T) {
		requested := BloodTypeDEA3Negative
		assert.Equal(t, Incompatible, CompatibilityFor(BloodTypeDEA1_1Positive, &requested))
	})
}

func TestParseBloodType(t *testing.T) {
	for _, b := range BloodTypes {
		got, ok := ParseBloodType(string(b))
		assert.True(t, ok)
		assert.Equal(t, b, got)
	}

	_, ok := ParseBloodType("AB_POSITIVE")
	assert.False(t, ok)
}
