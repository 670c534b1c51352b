// Package handler exposes the donation lifecycle engine over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hemabank/internal/donation/models"
	"hemabank/internal/donation/service"
	"hemabank/internal/donation/store"
	id "hemabank/pkg/domain"
	dErrors "hemabank/pkg/domain-errors"
	"hemabank/pkg/platform/httputil"
	"hemabank/pkg/requestcontext"
)

// Service is the engine surface the HTTP layer consumes.
type Service interface {
	CreateRequest(ctx context.Context, principal id.Principal, in service.CreateRequestInput) (*models.DonationRequest, error)
	GetRequest(ctx context.Context, requestID id.RequestID) (*models.DonationRequest, error)
	ListOpenRequests(ctx context.Context, filter store.OpenRequestFilter) ([]models.DonationRequest, error)
	CancelRequest(ctx context.Context, principal id.Principal, requestID id.RequestID) (*models.DonationRequest, error)
	SubmitResponse(ctx context.Context, principal id.Principal, in service.SubmitResponseInput) (*models.DonationResponse, error)
	CompleteResponse(ctx context.Context, principal id.Principal, responseID id.ResponseID) (*models.DonationResponse, error)
	ListResponses(ctx context.Context, principal id.Principal, requestID id.RequestID, status *models.ResponseStatus) ([]models.DonationResponse, error)
	CompatibleOpenRequests(ctx context.Context, principal id.Principal, donorID id.DonorID) ([]models.DonationRequest, error)
	RunExpirationSweep(ctx context.Context) (service.SweepResult, error)
}

// Handler handles the donation lifecycle endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a donation Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: svc,
	}
}

// Register mounts the donation routes. Authentication runs upstream; every
// route here expects a principal in the context.
func (h *Handler) Register(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.handleCreateRequest)
		r.Get("/", h.handleListOpenRequests)
		r.Get("/compatible", h.handleCompatibleRequests)
		r.Route("/{requestID}", func(r chi.Router) {
			r.Get("/", h.handleGetRequest)
			r.Post("/cancel", h.handleCancelRequest)
			r.Post("/responses", h.handleSubmitResponse)
			r.Get("/responses", h.handleListResponses)
		})
	})
	r.Post("/responses/{responseID}/complete", h.handleCompleteResponse)
	r.Post("/sweep/expire", h.handleRunSweep)
}

// principal pulls the authenticated principal set by the auth middleware.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (id.Principal, bool) {
	principal := requestcontext.Principal(r.Context())
	if principal.IsZero() {
		h.logger.ErrorContext(r.Context(), "principal missing from context despite auth middleware",
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.Principal{}, false
	}
	return principal, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, op+" failed",
		"error", err.Error(),
		"request_id", requestcontext.RequestID(r.Context()),
	)
	httputil.WriteError(w, err)
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	body, err := httputil.Decode[createRequestBody](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	in := service.CreateRequestInput{
		VolumeML:    body.VolumeML,
		Urgency:     models.Urgency(body.Urgency),
		PatientInfo: body.PatientInfo,
		NeededBy:    body.NeededBy,
	}
	if body.BloodTypeNeeded != nil {
		bt, ok := models.ParseBloodType(*body.BloodTypeNeeded)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown blood type"))
			return
		}
		in.BloodTypeNeeded = &bt
	}

	request, err := h.service.CreateRequest(r.Context(), principal, in)
	if err != nil {
		h.writeServiceError(w, r, "create request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, requestToDTO(request))
}

func (h *Handler) handleListOpenRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	var filter store.OpenRequestFilter
	if raw := r.URL.Query().Get("urgency"); raw != "" {
		urgency, ok := models.ParseUrgency(raw)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown urgency tier"))
			return
		}
		filter.Urgency = urgency
	}
	if raw := r.URL.Query().Get("blood_type"); raw != "" {
		bt, ok := models.ParseBloodType(raw)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown blood type"))
			return
		}
		filter.BloodTypeNeeded = &bt
	}

	requests, err := h.service.ListOpenRequests(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, "list open requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requestsToDTO(requests))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	request, err := h.service.GetRequest(r.Context(), requestID)
	if err != nil {
		h.writeServiceError(w, r, "get request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requestToDTO(request))
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	request, err := h.service.CancelRequest(r.Context(), principal, requestID)
	if err != nil {
		h.writeServiceError(w, r, "cancel request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requestToDTO(request))
}

func (h *Handler) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	body, err := httputil.Decode[submitResponseBody](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	donorID, err := id.ParseDonorID(body.DonorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	response, err := h.service.SubmitResponse(r.Context(), principal, service.SubmitResponseInput{
		RequestID: requestID,
		DonorID:   donorID,
		Decision:  models.ResponseStatus(body.Decision),
		Message:   body.Message,
	})
	if err != nil {
		h.writeServiceError(w, r, "submit response", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, responseToDTO(response))
}

func (h *Handler) handleListResponses(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var status *models.ResponseStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := models.ParseResponseStatus(raw)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "unknown response status"))
			return
		}
		status = &parsed
	}

	responses, err := h.service.ListResponses(r.Context(), principal, requestID, status)
	if err != nil {
		h.writeServiceError(w, r, "list responses", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, responsesToDTO(responses))
}

func (h *Handler) handleCompleteResponse(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	responseID, err := id.ParseResponseID(chi.URLParam(r, "responseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	response, err := h.service.CompleteResponse(r.Context(), principal, responseID)
	if err != nil {
		h.writeServiceError(w, r, "complete response", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, responseToDTO(response))
}

// handleCompatibleRequests lists the open requests a donor could serve.
func (h *Handler) handleCompatibleRequests(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	donorID, err := id.ParseDonorID(r.URL.Query().Get("donor_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	requests, err := h.service.CompatibleOpenRequests(r.Context(), principal, donorID)
	if err != nil {
		h.writeServiceError(w, r, "compatible requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, requestsToDTO(requests))
}

// handleRunSweep triggers the expiration sweep on demand. Admin only; the
// scheduled sweeper is the usual caller.
func (h *Handler) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	if !principal.IsAdmin() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only admins may trigger the sweep"))
		return
	}

	result, err := h.service.RunExpirationSweep(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "expiration sweep", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sweepResultDTO{Expired: result.Expired, Skipped: result.Skipped})
}
