package service

import (
	"context"
	"time"

	"hemabank/internal/donation/events"
	"hemabank/internal/donation/models"
	"hemabank/internal/donation/store"
	id "hemabank/pkg/domain"
	dErrors "hemabank/pkg/domain-errors"
	"hemabank/pkg/requestcontext"
)

// CreateRequestInput carries the fields a clinic supplies when posting a need.
type CreateRequestInput struct {
	BloodTypeNeeded *models.BloodType
	VolumeML        int
	Urgency         models.Urgency
	PatientInfo     string
	NeededBy        time.Time
}

func (in CreateRequestInput) validate(now time.Time) error {
	if in.VolumeML < models.MinVolumeML || in.VolumeML > models.MaxVolumeML {
		return dErrors.Newf(dErrors.CodeValidation,
			"volume must be between %d and %d ml", models.MinVolumeML, models.MaxVolumeML)
	}
	if _, ok := models.ParseUrgency(string(in.Urgency)); !ok {
		return dErrors.New(dErrors.CodeValidation, "unknown urgency tier")
	}
	if in.NeededBy.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "needed_by date is required")
	}
	if !in.NeededBy.After(now) {
		return dErrors.New(dErrors.CodeValidation, "needed_by date must be in the future")
	}
	return nil
}

// CreateRequest opens a new donation request for the principal's clinic.
// Only clinic staff may create requests; the request is owned by their clinic.
func (s *Service) CreateRequest(ctx context.Context, principal id.Principal, in CreateRequestInput) (*models.DonationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "donation.CreateRequest")
	defer span.End()

	if principal.Role != id.RoleClinicStaff {
		return nil, dErrors.New(dErrors.CodeForbidden, "only clinic staff can create donation requests")
	}
	if principal.ClinicID.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "you must be linked to a clinic to create donation requests")
	}

	now := requestcontext.Now(ctx)
	if err := in.validate(now); err != nil {
		return nil, err
	}

	request := &models.DonationRequest{
		ID:              id.NewRequestID(),
		ClinicID:        principal.ClinicID,
		CreatedBy:       principal.UserID,
		BloodTypeNeeded: in.BloodTypeNeeded,
		VolumeML:        in.VolumeML,
		Urgency:         in.Urgency,
		PatientInfo:     in.PatientInfo,
		NeededBy:        in.NeededBy,
		Status:          models.RequestOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateRequest(ctx, request); err != nil {
		return nil, mapStoreErr(err, "donation request")
	}

	if s.metrics != nil {
		s.metrics.RequestsCreated.Inc()
	}
	s.emit(ctx, events.Event{
		Type:       events.TypeRequestCreated,
		RequestID:  request.ID,
		ActorID:    principal.UserID,
		OccurredAt: now,
	})
	s.logger.InfoContext(ctx, "donation request created",
		"request_id", request.ID,
		"clinic_id", request.ClinicID,
		"urgency", request.Urgency,
	)
	return request, nil
}

// GetRequest fetches one request by ID.
func (s *Service) GetRequest(ctx context.Context, requestID id.RequestID) (*models.DonationRequest, error) {
	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, mapStoreErr(err, "donation request")
	}
	return request, nil
}

// ListOpenRequests returns OPEN requests for browsing, most urgent first and
// oldest first within a tier.
func (s *Service) ListOpenRequests(ctx context.Context, filter store.OpenRequestFilter) ([]models.DonationRequest, error) {
	requests, err := s.store.ListOpenRequests(ctx, filter)
	if err != nil {
		return nil, mapStoreErr(err, "donation requests")
	}
	sortByPresentationOrder(requests)
	return requests, nil
}

// CancelRequest transitions an OPEN request to CANCELLED. Only staff of the
// owning clinic (or an admin) may cancel; terminal states reject the call.
func (s *Service) CancelRequest(ctx context.Context, principal id.Principal, requestID id.RequestID) (*models.DonationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "donation.CancelRequest")
	defer span.End()

	request, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, mapStoreErr(err, "donation request")
	}
	if !principal.ActsForClinic(request.ClinicID) {
		return nil, dErrors.New(dErrors.CodeForbidden,
			"you must be staff of the clinic that created this request to cancel it")
	}
	if !request.Status.CanTransition(models.RequestCancelled) {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot cancel a request with status %s", request.Status)
	}

	now := requestcontext.Now(ctx)
	request.Status = models.RequestCancelled
	request.UpdatedAt = now
	if err := s.store.UpdateRequest(ctx, request); err != nil {
		if s.metrics != nil {
			s.metrics.VersionConflicts.Inc()
		}
		return nil, mapStoreErr(err, "donation request")
	}

	if s.metrics != nil {
		s.metrics.RequestsCancelled.Inc()
	}
	s.emit(ctx, events.Event{
		Type:       events.TypeRequestCancelled,
		RequestID:  request.ID,
		ActorID:    principal.UserID,
		OccurredAt: now,
	})
	s.logger.InfoContext(ctx, "donation request cancelled",
		"request_id", request.ID,
		"clinic_id", request.ClinicID,
		"user_id", principal.UserID,
	)
	return request, nil
}
