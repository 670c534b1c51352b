package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hemabank/internal/donation/models"
	id "hemabank/pkg/domain"
	dErrors "hemabank/pkg/domain-errors"
)

func TestCompatibleOpenRequests(t *testing.T) {
	t.Run("filters incompatible and orders by urgency then age", func(t *testing.T) {
		f := newFixture(t)
		donor := f.seedDonor(t, func(d *models.Donor) {
			d.BloodType = models.BloodTypeDEA4Positive
		})

		mismatch := models.BloodTypeDEA1_1Positive
		match := models.BloodTypeDEA4Positive

		f.seedRequest(t, func(in *CreateRequestInput) {
			in.Urgency = models.UrgencyCritical
			in.BloodTypeNeeded = &mismatch
		})
		anyType := f.seedRequest(t, func(in *CreateRequestInput) {
			in.Urgency = models.UrgencyRoutine
		})
		exact := f.seedRequest(t, func(in *CreateRequestInput) {
			in.Urgency = models.UrgencyCritical
			in.BloodTypeNeeded = &match
		})

		matches, err := f.svc.CompatibleOpenRequests(f.ctx, f.owner, donor.ID)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, exact.ID, matches[0].ID)
		assert.Equal(t, anyType.ID, matches[1].ID)
	})

	t.Run("universal donor matches every typed request", func(t *testing.T) {
		f := newFixture(t)
		donor := f.seedDonor(t) // DEA 1.1 negative

		for _, bt := range []models.BloodType{
			models.BloodTypeDEA1_1Positive,
			models.BloodTypeDEA7Negative,
		} {
			needed := bt
			f.seedRequest(t, func(in *CreateRequestInput) { in.BloodTypeNeeded = &needed })
		}

		matches, err := f.svc.CompatibleOpenRequests(f.ctx, f.owner, donor.ID)
		require.NoError(t, err)
		assert.Len(t, matches, 2)
	})

	t.Run("closed requests never match", func(t *testing.T) {
		f := newFixture(t)
		donor := f.seedDonor(t)
		request := f.seedRequest(t)
		_, err := f.svc.CancelRequest(f.ctx, f.staff, request.ID)
		require.NoError(t, err)

		matches, err := f.svc.CompatibleOpenRequests(f.ctx, f.owner, donor.ID)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("ineligible donor gets the reasons, not an empty list", func(t *testing.T) {
		f := newFixture(t)
		donor := f.seedDonor(t, func(d *models.Donor) { d.WeightKg = 18 })
		f.seedRequest(t)

		_, err := f.svc.CompatibleOpenRequests(f.ctx, f.owner, donor.ID)
		requireCode(t, err, dErrors.CodeIneligibleDonor)
		assert.NotEmpty(t, dErrors.ReasonsOf(err))
	})

	t.Run("owners may only look up their own dogs", func(t *testing.T) {
		f := newFixture(t)
		donor := f.seedDonor(t, func(d *models.Donor) { d.OwnerID = id.NewUserID() })

		_, err := f.svc.CompatibleOpenRequests(f.ctx, f.owner, donor.ID)
		requireCode(t, err, dErrors.CodeForbidden)

		_, err = f.svc.CompatibleOpenRequests(f.ctx, f.staff, donor.ID)
		require.NoError(t, err)
	})

	t.Run("unknown donor", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CompatibleOpenRequests(f.ctx, f.owner, id.NewDonorID())
		requireCode(t, err, dErrors.CodeNotFound)
	})
}

func TestListResponses(t *testing.T) {
	f := newFixture(t)
	donor := f.seedDonor(t)
	request := f.seedRequest(t)
	f.seedResponse(t, request.ID, donor.ID, models.ResponseDeclined)

	second := f.seedDonor(t)
	accepted := f.seedResponse(t, request.ID, second.ID, models.ResponseAccepted)

	t.Run("owning clinic sees every response", func(t *testing.T) {
		responses, err := f.svc.ListResponses(f.ctx, f.staff, request.ID, nil)
		require.NoError(t, err)
		assert.Len(t, responses, 2)
	})

	t.Run("accepted filter narrows to candidates", func(t *testing.T) {
		responses, err := f.svc.AcceptedResponsesFor(f.ctx, f.staff, request.ID)
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Equal(t, accepted.ID, responses[0].ID)
	})

	t.Run("other clinics are rejected", func(t *testing.T) {
		rival := id.Principal{UserID: id.NewUserID(), Role: id.RoleClinicStaff, ClinicID: id.NewClinicID()}
		_, err := f.svc.ListResponses(f.ctx, rival, request.ID, nil)
		requireCode(t, err, dErrors.CodeForbidden)
	})
}

func TestSortByPresentationOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(urgency models.Urgency, offset time.Duration) models.DonationRequest {
		return models.DonationRequest{
			ID:        id.NewRequestID(),
			Urgency:   urgency,
			CreatedAt: base.Add(offset),
		}
	}

	requests := []models.DonationRequest{
		mk(models.UrgencyRoutine, 0),
		mk(models.UrgencyCritical, 2*time.Hour),
		mk(models.UrgencyUrgent, time.Hour),
		mk(models.UrgencyCritical, time.Hour),
	}
	sortByPresentationOrder(requests)

	assert.Equal(t, models.UrgencyCritical, requests[0].Urgency)
	assert.Equal(t, models.UrgencyCritical, requests[1].Urgency)
	assert.True(t, requests[0].CreatedAt.Before(requests[1].CreatedAt))
	assert.Equal(t, models.UrgencyUrgent, requests[2].Urgency)
	assert.Equal(t, models.UrgencyRoutine, requests[3].Urgency)
}
