package service

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"hemabank/internal/donation/events"
	"hemabank/internal/donation/models"
	dErrors "hemabank/pkg/domain-errors"
	"hemabank/pkg/requestcontext"
)

// sweepConcurrency bounds parallel expire writes per sweep run.
const sweepConcurrency = 4

// SweepResult summarizes one expiration sweep run.
type SweepResult struct {
	Expired int
	Skipped int
}

// RunExpirationSweep retires OPEN requests whose deadline has passed. The
// sweep is idempotent and safe to run concurrently with user-driven
// transitions: each expire is guarded by the request's version, so a request
// fulfilled or cancelled in the instant before the sweep reaches it is
// skipped, never corrupted. Running the sweep twice back to back expires
// nothing extra the second time.
func (s *Service) RunExpirationSweep(ctx context.Context) (SweepResult, error) {
	ctx, span := s.tracer.Start(ctx, "donation.RunExpirationSweep")
	defer span.End()

	now := requestcontext.Now(ctx)
	stale, err := s.store.ListExpirableRequests(ctx, now)
	if err != nil {
		return SweepResult{}, mapStoreErr(err, "donation requests")
	}

	var expired, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for i := range stale {
		request := stale[i]
		g.Go(func() error {
			switch err := s.expireRequest(gctx, &request); {
			case err == nil:
				expired.Add(1)
				return nil
			case dErrors.HasCode(err, dErrors.CodeConcurrentModification),
				dErrors.HasCode(err, dErrors.CodeInvalidTransition):
				// Lost the race to a fulfill/cancel, or another sweep got
				// here first. Both are fine.
				skipped.Add(1)
				return nil
			default:
				return err
			}
		})
	}
	if err := g.Wait(); err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Expired: int(expired.Load()), Skipped: int(skipped.Load())}
	if s.metrics != nil {
		s.metrics.SweepRuns.Inc()
		s.metrics.RequestsExpired.Add(float64(result.Expired))
	}
	s.logger.InfoContext(ctx, "expiration sweep finished",
		"expired", result.Expired,
		"skipped", result.Skipped,
	)
	return result, nil
}

// expireRequest transitions one request OPEN → EXPIRED. Expiring an already
// EXPIRED request is a no-op; any other terminal state is an invalid
// transition. The request must actually be past its deadline.
func (s *Service) expireRequest(ctx context.Context, request *models.DonationRequest) error {
	now := requestcontext.Now(ctx)

	if request.Status == models.RequestExpired {
		return nil
	}
	if !request.Status.CanTransition(models.RequestExpired) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot expire a request with status %s", request.Status)
	}
	if !now.After(request.NeededBy) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"request deadline has not passed yet")
	}

	request.Status = models.RequestExpired
	request.UpdatedAt = now
	if err := s.store.UpdateRequest(ctx, request); err != nil {
		if s.metrics != nil {
			s.metrics.VersionConflicts.Inc()
		}
		return mapStoreErr(err, "donation request")
	}

	s.emit(ctx, events.Event{
		Type:       events.TypeRequestExpired,
		RequestID:  request.ID,
		OccurredAt: now,
	})
	return nil
}
