package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "hemabank/pkg/domain-errors"
)

func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDonorID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseRequestID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseResponseID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParseDonorID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, DonorID(raw), id)
	})
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"dog_owner", "clinic_staff", "admin"} {
		role, ok := ParseRole(valid)
		assert.True(t, ok, valid)
		assert.Equal(t, Role(valid), role)
	}

	_, ok := ParseRole("superuser")
	assert.False(t, ok)
}

func TestPrincipalActsForClinic(t *testing.T) {
	clinic := NewClinicID()
	other := NewClinicID()

	staff := Principal{UserID: NewUserID(), Role: RoleClinicStaff, ClinicID: clinic}
	assert.True(t, staff.ActsForClinic(clinic))
	assert.False(t, staff.ActsForClinic(other))

	owner := Principal{UserID: NewUserID(), Role: RoleDogOwner}
	assert.False(t, owner.ActsForClinic(clinic))

	admin := Principal{UserID: NewUserID(), Role: RoleAdmin}
	assert.True(t, admin.ActsForClinic(clinic))
	assert.True(t, admin.ActsForClinic(other))

	// Staff with no clinic binding cannot act for the zero clinic.
	unbound := Principal{UserID: NewUserID(), Role: RoleClinicStaff}
	assert.False(t, unbound.ActsForClinic(ClinicID{}))
}
