package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hemabank/internal/donation/events"
	"hemabank/internal/donation/models"
	dErrors "hemabank/pkg/domain-errors"
)

func TestRunExpirationSweep(t *testing.T) {
	t.Run("expires only requests past their deadline", func(t *testing.T) {
		f := newFixture(t)
		stale := f.seedRequest(t, func(in *CreateRequestInput) {
			in.NeededBy = f.now.Add(time.Hour)
		})
		fresh := f.seedRequest(t, func(in *CreateRequestInput) {
			in.NeededBy = f.now.AddDate(0, 0, 7)
		})

		result, err := f.svc.RunExpirationSweep(f.ctxAt(48 * time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Expired)
		assert.Equal(t, 0, result.Skipped)

		storedStale, err := f.store.GetRequest(f.ctx, stale.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestExpired, storedStale.Status)

		storedFresh, err := f.store.GetRequest(f.ctx, fresh.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestOpen, storedFresh.Status)

		expired := f.events.OfType(events.TypeRequestExpired)
		require.Len(t, expired, 1)
		assert.Equal(t, stale.ID, expired[0].RequestID)
	})

	t.Run("running twice expires nothing extra", func(t *testing.T) {
		f := newFixture(t)
		f.seedRequest(t, func(in *CreateRequestInput) {
			in.NeededBy = f.now.Add(time.Hour)
		})
		later := f.ctxAt(48 * time.Hour)

		first, err := f.svc.RunExpirationSweep(later)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Expired)

		second, err := f.svc.RunExpirationSweep(later)
		require.NoError(t, err)
		assert.Equal(t, 0, second.Expired)
		assert.Equal(t, 0, second.Skipped)
		assert.Len(t, f.events.OfType(events.TypeRequestExpired), 1)
	})

	t.Run("terminal requests are left untouched", func(t *testing.T) {
		f := newFixture(t)
		cancelled := f.seedRequest(t, func(in *CreateRequestInput) {
			in.NeededBy = f.now.Add(time.Hour)
		})
		_, err := f.svc.CancelRequest(f.ctx, f.staff, cancelled.ID)
		require.NoError(t, err)

		result, err := f.svc.RunExpirationSweep(f.ctxAt(48 * time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 0, result.Expired)

		stored, err := f.store.GetRequest(f.ctx, cancelled.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestCancelled, stored.Status)
	})

	t.Run("no expired request accepts further work", func(t *testing.T) {
		f := newFixture(t)
		donor := f.seedDonor(t)
		request := f.seedRequest(t, func(in *CreateRequestInput) {
			in.NeededBy = f.now.Add(time.Hour)
		})
		response := f.seedResponse(t, request.ID, donor.ID, models.ResponseAccepted)

		_, err := f.svc.RunExpirationSweep(f.ctxAt(48 * time.Hour))
		require.NoError(t, err)

		_, err = f.svc.SubmitResponse(f.ctx, f.owner, SubmitResponseInput{
			RequestID: request.ID,
			DonorID:   f.seedDonor(t).ID,
			Decision:  models.ResponseAccepted,
		})
		requireCode(t, err, dErrors.CodeInvalidTransition)

		_, err = f.svc.CompleteResponse(f.ctxAt(48*time.Hour), f.staff, response.ID)
		requireCode(t, err, dErrors.CodeInvalidTransition)

		_, err = f.svc.CancelRequest(f.ctx, f.staff, request.ID)
		requireCode(t, err, dErrors.CodeInvalidTransition)
	})

	t.Run("handles a large backlog", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 30; i++ {
			f.seedRequest(t, func(in *CreateRequestInput) {
				in.NeededBy = f.now.Add(time.Hour)
			})
		}

		result, err := f.svc.RunExpirationSweep(f.ctxAt(48 * time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 30, result.Expired)
		assert.Len(t, f.events.OfType(events.TypeRequestExpired), 30)
	})
}
