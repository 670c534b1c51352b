// Package service implements the donation request/response lifecycle engine:
// request and response state machines, matching, and the concurrency-safe
// completion protocol. It owns every rule; stores stay pure I/O.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"hemabank/internal/donation/events"
	"hemabank/internal/donation/metrics"
	"hemabank/internal/donation/models"
	"hemabank/internal/donation/store"
	id "hemabank/pkg/domain"
	dErrors "hemabank/pkg/domain-errors"
)

// Store is the persistence surface the engine consumes. The memory and
// PostgreSQL implementations in the store package satisfy it.
type Store interface {
	GetDonor(ctx context.Context, donorID id.DonorID) (*models.Donor, error)
	SaveDonor(ctx context.Context, donor *models.Donor) error
	UpdateDonor(ctx context.Context, donor *models.Donor) error

	GetRequest(ctx context.Context, requestID id.RequestID) (*models.DonationRequest, error)
	CreateRequest(ctx context.Context, request *models.DonationRequest) error
	UpdateRequest(ctx context.Context, request *models.DonationRequest) error
	ListOpenRequests(ctx context.Context, filter store.OpenRequestFilter) ([]models.DonationRequest, error)
	ListExpirableRequests(ctx context.Context, asOf time.Time) ([]models.DonationRequest, error)

	GetResponse(ctx context.Context, responseID id.ResponseID) (*models.DonationResponse, error)
	CreateResponse(ctx context.Context, response *models.DonationResponse) error
	ListResponsesByRequest(ctx context.Context, requestID id.RequestID, status *models.ResponseStatus) ([]models.DonationResponse, error)

	ApplyCompletion(ctx context.Context, c store.Completion) error
}

// Service is the engine façade consumed by the HTTP layer and the sweeper.
type Service struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
	tracer    trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// New constructs the engine service.
func New(st Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("donation store is required")
	}
	svc := &Service{
		store:     st,
		logger:    slog.Default(),
		publisher: events.Noop{},
		tracer:    otel.Tracer("hemabank/donation"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// mapStoreErr translates storage sentinels into domain errors; anything else
// is wrapped as internal.
func mapStoreErr(err error, entity string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", entity)
	case errors.Is(err, store.ErrVersionConflict):
		return dErrors.Newf(dErrors.CodeConcurrentModification,
			"%s was modified concurrently, retry the operation", entity)
	case errors.Is(err, store.ErrDuplicateResponse):
		return dErrors.New(dErrors.CodeDuplicateResponse,
			"a response for this request and donor already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	s.publisher.Publish(ctx, event)
}
