package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"hemabank/internal/donation/models"
	id "hemabank/pkg/domain"
)

// Memory is the in-memory store. One mutex covers all three entity maps so
// the completion write is atomic without further machinery.
type Memory struct {
	mu        sync.RWMutex
	donors    map[id.DonorID]*models.Donor
	requests  map[id.RequestID]*models.DonationRequest
	responses map[id.ResponseID]*models.DonationResponse
	// pairIndex enforces the one-response-per-donor-per-request invariant.
	pairIndex map[pairKey]id.ResponseID
}

type pairKey struct {
	request id.RequestID
	donor   id.DonorID
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		donors:    make(map[id.DonorID]*models.Donor),
		requests:  make(map[id.RequestID]*models.DonationRequest),
		responses: make(map[id.ResponseID]*models.DonationResponse),
		pairIndex: make(map[pairKey]id.ResponseID),
	}
}

func copyDonor(d *models.Donor) *models.Donor {
	clone := *d
	if d.LastDonationDate != nil {
		t := *d.LastDonationDate
		clone.LastDonationDate = &t
	}
	return &clone
}

func copyRequest(r *models.DonationRequest) *models.DonationRequest {
	clone := *r
	if r.BloodTypeNeeded != nil {
		bt := *r.BloodTypeNeeded
		clone.BloodTypeNeeded = &bt
	}
	return &clone
}

func copyResponse(r *models.DonationResponse) *models.DonationResponse {
	clone := *r
	return &clone
}

// ----------------------------------------------------------------------------
// Donors
// ----------------------------------------------------------------------------

func (m *Memory) GetDonor(_ context.Context, donorID id.DonorID) (*models.Donor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	donor, ok := m.donors[donorID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyDonor(donor), nil
}

// SaveDonor inserts a new donor with version 1.
func (m *Memory) SaveDonor(_ context.Context, donor *models.Donor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := copyDonor(donor)
	clone.Version = 1
	m.donors[donor.ID] = clone
	donor.Version = 1
	return nil
}

// UpdateDonor writes the donor back conditionally on the version being
// unchanged since the read, then bumps it.
func (m *Memory) UpdateDonor(_ context.Context, donor *models.Donor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateDonorLocked(donor)
}

func (m *Memory) updateDonorLocked(donor *models.Donor) error {
	current, ok := m.donors[donor.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != donor.Version {
		return ErrVersionConflict
	}
	clone := copyDonor(donor)
	clone.Version++
	m.donors[donor.ID] = clone
	donor.Version = clone.Version
	return nil
}

// ----------------------------------------------------------------------------
// Requests
// ----------------------------------------------------------------------------

func (m *Memory) GetRequest(_ context.Context, requestID id.RequestID) (*models.DonationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	request, ok := m.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRequest(request), nil
}

func (m *Memory) CreateRequest(_ context.Context, request *models.DonationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := copyRequest(request)
	clone.Version = 1
	m.requests[request.ID] = clone
	request.Version = 1
	return nil
}

func (m *Memory) UpdateRequest(_ context.Context, request *models.DonationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateRequestLocked(request)
}

func (m *Memory) updateRequestLocked(request *models.DonationRequest) error {
	current, ok := m.requests[request.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != request.Version {
		return ErrVersionConflict
	}
	clone := copyRequest(request)
	clone.Version++
	m.requests[request.ID] = clone
	request.Version = clone.Version
	return nil
}

// ListOpenRequests returns OPEN requests matching the filter, ordered by
// creation time ascending.
func (m *Memory) ListOpenRequests(_ context.Context, filter OpenRequestFilter) ([]models.DonationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.DonationRequest
	for _, request := range m.requests {
		if request.Status != models.RequestOpen {
			continue
		}
		if filter.Urgency != "" && request.Urgency != filter.Urgency {
			continue
		}
		if filter.BloodTypeNeeded != nil {
			if request.BloodTypeNeeded == nil || *request.BloodTypeNeeded != *filter.BloodTypeNeeded {
				continue
			}
		}
		out = append(out, *copyRequest(request))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListExpirableRequests returns OPEN requests whose deadline passed before asOf.
func (m *Memory) ListExpirableRequests(_ context.Context, asOf time.Time) ([]models.DonationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.DonationRequest
	for _, request := range m.requests {
		if request.Status == models.RequestOpen && request.NeededBy.Before(asOf) {
			out = append(out, *copyRequest(request))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ----------------------------------------------------------------------------
// Responses
// ----------------------------------------------------------------------------

func (m *Memory) GetResponse(_ context.Context, responseID id.ResponseID) (*models.DonationResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	response, ok := m.responses[responseID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyResponse(response), nil
}

// CreateResponse inserts a response, enforcing the (request, donor)
// uniqueness invariant atomically with the insert.
func (m *Memory) CreateResponse(_ context.Context, response *models.DonationResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey{request: response.RequestID, donor: response.DonorID}
	if _, exists := m.pairIndex[key]; exists {
		return ErrDuplicateResponse
	}

	clone := copyResponse(response)
	clone.Version = 1
	m.responses[response.ID] = clone
	m.pairIndex[key] = response.ID
	response.Version = 1
	return nil
}

func (m *Memory) updateResponseLocked(response *models.DonationResponse) error {
	current, ok := m.responses[response.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != response.Version {
		return ErrVersionConflict
	}
	clone := copyResponse(response)
	clone.Version++
	m.responses[response.ID] = clone
	response.Version = clone.Version
	return nil
}

// ListResponsesByRequest returns responses for a request, optionally filtered
// by status, ordered by creation time ascending.
func (m *Memory) ListResponsesByRequest(_ context.Context, requestID id.RequestID, status *models.ResponseStatus) ([]models.DonationResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.DonationResponse
	for _, response := range m.responses {
		if response.RequestID != requestID {
			continue
		}
		if status != nil && response.Status != *status {
			continue
		}
		out = append(out, *copyResponse(response))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ----------------------------------------------------------------------------
// Completion
// ----------------------------------------------------------------------------

// ApplyCompletion writes the completion unit under one lock. Any version
// mismatch aborts the whole unit with ErrVersionConflict and no partial write.
func (m *Memory) ApplyCompletion(_ context.Context, c Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Guard every version before mutating anything.
	if current, ok := m.responses[c.Response.ID]; !ok {
		return ErrNotFound
	} else if current.Version != c.Response.Version {
		return ErrVersionConflict
	}
	if current, ok := m.donors[c.Donor.ID]; !ok {
		return ErrNotFound
	} else if current.Version != c.Donor.Version {
		return ErrVersionConflict
	}
	if c.Request != nil {
		if current, ok := m.requests[c.Request.ID]; !ok {
			return ErrNotFound
		} else if current.Version != c.Request.Version {
			return ErrVersionConflict
		}
	}

	if err := m.updateResponseLocked(c.Response); err != nil {
		return err
	}
	if err := m.updateDonorLocked(c.Donor); err != nil {
		return err
	}
	if c.Request != nil {
		if err := m.updateRequestLocked(c.Request); err != nil {
			return err
		}
	}
	return nil
}
