// Package store provides persistence for the donation domain: an in-memory
// implementation for tests and single-node use, and a PostgreSQL
// implementation for production. Both enforce the same contract: conditional
// writes guarded by entity versions, and unique-pair enforcement on responses.
//
// Stores are pure I/O. Validation, authorization and state machine rules live
// in the service layer; the store only refuses writes that would violate the
// version guard or the uniqueness constraint.
package store

import (
	"errors"

	"hemabank/internal/donation/models"
)

var (
	// ErrNotFound keeps storage-level misses consistent across implementations.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict signals that the entity changed since it was read.
	// The service maps it to the concurrent-modification domain error.
	ErrVersionConflict = errors.New("version conflict")

	// ErrDuplicateResponse signals a second response for the same
	// (request, donor) pair. In PostgreSQL this is the translated unique
	// constraint violation.
	ErrDuplicateResponse = errors.New("duplicate response for request and donor")
)

// OpenRequestFilter narrows ListOpen results. Zero values mean no filtering.
type OpenRequestFilter struct {
	Urgency         models.Urgency
	BloodTypeNeeded *models.BloodType
}

// Tables lists the donation tables in truncation-safe order, for test setup.
var Tables = []string{"donation_responses", "donation_requests", "donors"}

// Completion is the atomic unit written by the completion protocol: the
// response flips to COMPLETED, the donor's last-donation date is stamped, and
// the parent request is fulfilled when still open. All three writes are
// version-guarded and succeed or fail together.
type Completion struct {
	Donor    *models.Donor
	Response *models.DonationResponse
	// Request is nil when the parent request was already fulfilled by this
	// same response and needs no further write.
	Request *models.DonationRequest
}
