package service

import (
	"context"

	"hemabank/internal/donation/events"
	"hemabank/internal/donation/models"
	"hemabank/internal/donation/store"
	id "hemabank/pkg/domain"
	dErrors "hemabank/pkg/domain-errors"
	"hemabank/pkg/requestcontext"
)

// SubmitResponseInput carries a dog owner's answer to a request.
type SubmitResponseInput struct {
	RequestID id.RequestID
	DonorID   id.DonorID
	Decision  models.ResponseStatus // ACCEPTED or DECLINED
	Message   string
}

// SubmitResponse records a donor's commitment or refusal against an OPEN
// request. ACCEPTED submissions are gated on eligibility and compatibility;
// DECLINED is always allowed. The (request, donor) uniqueness invariant is
// enforced atomically by the store, so concurrent duplicate submissions
// resolve to exactly one persisted response.
func (s *Service) SubmitResponse(ctx context.Context, principal id.Principal, in SubmitResponseInput) (*models.DonationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "donation.SubmitResponse")
	defer span.End()

	if principal.Role != id.RoleDogOwner {
		return nil, dErrors.New(dErrors.CodeForbidden, "only dog owners can respond to donation requests")
	}
	if in.Decision != models.ResponseAccepted && in.Decision != models.ResponseDeclined {
		return nil, dErrors.New(dErrors.CodeValidation, "decision must be ACCEPTED or DECLINED")
	}

	request, err := s.store.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, mapStoreErr(err, "donation request")
	}
	if request.Status != models.RequestOpen {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot respond to a request with status %s", request.Status)
	}

	donor, err := s.store.GetDonor(ctx, in.DonorID)
	if err != nil {
		return nil, mapStoreErr(err, "donor")
	}
	if donor.OwnerID != principal.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "this donor does not belong to you")
	}

	now := requestcontext.Now(ctx)

	// An owner may decline for any reason; only a commitment is gated.
	if in.Decision == models.ResponseAccepted {
		if result := models.EvaluateEligibility(donor, now); !result.OK {
			if s.metrics != nil {
				s.metrics.EligibilityRejected.Inc()
			}
			return nil, dErrors.New(dErrors.CodeIneligibleDonor, "donor is not eligible for donation").
				WithReasons(result.Reasons)
		}
		if models.CompatibilityFor(donor.BloodType, request.BloodTypeNeeded) == models.Incompatible {
			return nil, dErrors.New(dErrors.CodeValidation,
				"donor blood type is incompatible with the requested type")
		}
	}

	response := &models.DonationResponse{
		ID:        id.NewResponseID(),
		RequestID: request.ID,
		DonorID:   donor.ID,
		OwnerID:   principal.UserID,
		Status:    in.Decision,
		Message:   in.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateResponse(ctx, response); err != nil {
		return nil, mapStoreErr(err, "donation response")
	}

	if s.metrics != nil {
		s.metrics.ResponsesSubmitted.WithLabelValues(string(in.Decision)).Inc()
	}
	s.emit(ctx, events.Event{
		Type:       events.TypeResponseSubmitted,
		RequestID:  request.ID,
		ResponseID: response.ID,
		DonorID:    donor.ID,
		ActorID:    principal.UserID,
		OccurredAt: now,
	})
	s.logger.InfoContext(ctx, "donation response submitted",
		"response_id", response.ID,
		"request_id", request.ID,
		"donor_id", donor.ID,
		"decision", response.Status,
	)
	return response, nil
}

// CompleteResponse consumes an ACCEPTED response: it re-validates the donor's
// eligibility against current state, stamps the donor's last-donation date,
// marks the response COMPLETED and fulfills the parent request, all as one
// atomic version-guarded unit. A concurrent completion for the same donor
// loses either on the eligibility re-check (EligibilityExpired) or on the
// version guard (ConcurrentModification); two donations can never both land.
func (s *Service) CompleteResponse(ctx context.Context, principal id.Principal, responseID id.ResponseID) (*models.DonationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "donation.CompleteResponse")
	defer span.End()

	response, err := s.store.GetResponse(ctx, responseID)
	if err != nil {
		return nil, mapStoreErr(err, "donation response")
	}

	request, err := s.store.GetRequest(ctx, response.RequestID)
	if err != nil {
		return nil, mapStoreErr(err, "donation request")
	}
	if !principal.ActsForClinic(request.ClinicID) {
		return nil, dErrors.New(dErrors.CodeForbidden,
			"you must be staff of the clinic that created the request")
	}

	if response.Status == models.ResponseCompleted {
		return nil, dErrors.New(dErrors.CodeAlreadyCompleted, "response has already been completed")
	}
	if !response.Status.CanTransition(models.ResponseCompleted) {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"can only complete responses with status ACCEPTED (current: %s)", response.Status)
	}
	// The parent must still be open: a request fulfilled by a different
	// response admits no second donation.
	if request.Status != models.RequestOpen {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot complete a response against a request with status %s", request.Status)
	}

	donor, err := s.store.GetDonor(ctx, response.DonorID)
	if err != nil {
		return nil, mapStoreErr(err, "donor")
	}

	now := requestcontext.Now(ctx)

	// Re-validate against the donor's *current* state: a concurrently
	// completed donation elsewhere may have made them ineligible since the
	// response was accepted.
	if result := models.EvaluateEligibility(donor, now); !result.OK {
		if s.metrics != nil {
			s.metrics.EligibilityRejected.Inc()
		}
		return nil, dErrors.New(dErrors.CodeEligibilityExpired,
			"donor is no longer eligible for donation").WithReasons(result.Reasons)
	}

	donationDate := now
	donor.LastDonationDate = &donationDate
	donor.UpdatedAt = now
	response.Status = models.ResponseCompleted
	response.UpdatedAt = now
	request.Status = models.RequestFulfilled
	request.UpdatedAt = now

	err = s.store.ApplyCompletion(ctx, store.Completion{
		Donor:    donor,
		Response: response,
		Request:  request,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.VersionConflicts.Inc()
		}
		return nil, mapStoreErr(err, "donation completion")
	}

	if s.metrics != nil {
		s.metrics.DonationsCompleted.Inc()
	}
	s.emit(ctx, events.Event{
		Type:       events.TypeResponseCompleted,
		RequestID:  request.ID,
		ResponseID: response.ID,
		DonorID:    donor.ID,
		ActorID:    principal.UserID,
		OccurredAt: now,
	})
	s.logger.InfoContext(ctx, "donation completed",
		"response_id", response.ID,
		"request_id", request.ID,
		"donor_id", donor.ID,
		"clinic_id", request.ClinicID,
	)
	return response, nil
}
