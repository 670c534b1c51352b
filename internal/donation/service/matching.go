package service

import (
	"context"
	"sort"

	"hemabank/internal/donation/models"
	"hemabank/internal/donation/store"
	id "hemabank/pkg/domain"
	dErrors "hemabank/pkg/domain-errors"
	"hemabank/pkg/requestcontext"
)

// sortByPresentationOrder orders requests most-urgent first, oldest first
// within a tier.
func sortByPresentationOrder(requests []models.DonationRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		if requests[i].Urgency.Rank() != requests[j].Urgency.Rank() {
			return requests[i].Urgency.Rank() > requests[j].Urgency.Rank()
		}
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
}

// CompatibleOpenRequests answers "which open requests can this donor respond
// to": every OPEN request whose required type is not incompatible with the
// donor, provided the donor is currently eligible. An ineligible donor gets
// the full reason list rather than a silently empty result. Owners may only
// look up their own dogs; clinic staff and admins may look up any donor.
func (s *Service) CompatibleOpenRequests(ctx context.Context, principal id.Principal, donorID id.DonorID) ([]models.DonationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "donation.CompatibleOpenRequests")
	defer span.End()

	donor, err := s.store.GetDonor(ctx, donorID)
	if err != nil {
		return nil, mapStoreErr(err, "donor")
	}
	if principal.Role == id.RoleDogOwner && donor.OwnerID != principal.UserID {
		return nil, dErrors.New(dErrors.CodeForbidden, "this donor does not belong to you")
	}

	if result := models.EvaluateEligibility(donor, requestcontext.Now(ctx)); !result.OK {
		return nil, dErrors.New(dErrors.CodeIneligibleDonor, "donor is not eligible for donation").
			WithReasons(result.Reasons)
	}

	open, err := s.store.ListOpenRequests(ctx, store.OpenRequestFilter{})
	if err != nil {
		return nil, mapStoreErr(err, "donation requests")
	}

	matches := open[:0]
	for _, request := range open {
		if models.CompatibilityFor(donor.BloodType, request.BloodTypeNeeded) != models.Incompatible {
			matches = append(matches, request)
		}
	}
	sortByPresentationOrder(matches)
	return matches, nil
}

// AcceptedResponsesFor returns the ACCEPTED responses to a request, in
// submission order. The owning clinic uses this to pick whom to complete
// with, so access is limited to its staff.
func (s *Service) AcceptedResponsesFor(ctx context.Context, principal id.Principal, requestID id.RequestID) ([]models.DonationResponse, error) {
	accepted := models.ResponseAccepted
	return s.ListResponses(ctx, principal, requestID, &accepted)
}

// ListResponses returns a request's responses, optionally filtered by status.
func (s *Service) ListResponses(ctx context.Context, principal id.Principal, requestID id.RequestID, status *models.ResponseStatus) ([]models.DonationResponse, error) {
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, mapStoreErr(err, "donation request")
	}
	if !principal.ActsForClinic(request.ClinicID) {
		return nil, dErrors.New(dErrors.CodeForbidden,
			"you must be staff of the clinic that created the request")
	}

	responses, err := s.store.ListResponsesByRequest(ctx, requestID, status)
	if err != nil {
		return nil, mapStoreErr(err, "donation responses")
	}
	return responses, nil
}
