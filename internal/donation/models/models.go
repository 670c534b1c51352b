// Package models holds the donation domain entities, the blood type
// compatibility matrix, the eligibility rules, and the request/response state
// machines. Everything here is pure; persistence and orchestration live in the
// store and service packages.
package models

import (
	"time"

	id "hemabank/pkg/domain"
)

// DonorSex mirrors the registration form's closed set.
type DonorSex string

const (
	DonorSexMale   DonorSex = "MALE"
	DonorSexFemale DonorSex = "FEMALE"
)

// Donor is a dog registered for blood donation. The engine reads donors and
// writes exactly one field, LastDonationDate, through the completion protocol.
// Version guards that write.
type Donor struct {
	ID               id.DonorID
	OwnerID          id.UserID
	Name             string
	Breed            string
	DateOfBirth      time.Time
	WeightKg         float64
	Sex              DonorSex
	BloodType        BloodType
	LastDonationDate *time.Time
	MedicalNotes     string
	Active           bool
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AgeYears derives the donor's age in whole years at the given date.
func (d *Donor) AgeYears(asOf time.Time) int {
	return int(asOf.Sub(d.DateOfBirth).Hours() / 24 / 365)
}

// Urgency orders requests for presentation; higher sorts first.
type Urgency string

const (
	UrgencyRoutine  Urgency = "ROUTINE"
	UrgencyUrgent   Urgency = "URGENT"
	UrgencyCritical Urgency = "CRITICAL"
)

// urgencyRank gives the ordering ROUTINE < URGENT < CRITICAL.
var urgencyRank = map[Urgency]int{
	UrgencyRoutine:  0,
	UrgencyUrgent:   1,
	UrgencyCritical: 2,
}

// Rank returns the sort weight of the urgency tier.
func (u Urgency) Rank() int { return urgencyRank[u] }

// ParseUrgency converts a raw string to an Urgency, returning false for
// unknown values.
func ParseUrgency(s string) (Urgency, bool) {
	switch Urgency(s) {
	case UrgencyRoutine, UrgencyUrgent, UrgencyCritical:
		return Urgency(s), true
	}
	return "", false
}

// RequestStatus values mirror the request_status enum in PostgreSQL.
//
// Valid status graph:
//
//	OPEN ──► FULFILLED
//	  │ ├──► CANCELLED
//	  └─┴──► EXPIRED
//
// FULFILLED, CANCELLED and EXPIRED are terminal.
type RequestStatus string

const (
	RequestOpen      RequestStatus = "OPEN"
	RequestFulfilled RequestStatus = "FULFILLED"
	RequestCancelled RequestStatus = "CANCELLED"
	RequestExpired   RequestStatus = "EXPIRED"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestOpen: {RequestFulfilled, RequestCancelled, RequestExpired},
	// terminal states have no outgoing transitions
}

// CanTransition reports whether moving from → to is permitted.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

// ParseRequestStatus converts a raw string to a RequestStatus, returning false
// for unknown values.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case RequestOpen, RequestFulfilled, RequestCancelled, RequestExpired:
		return RequestStatus(s), true
	}
	return "", false
}

// Volume bounds for a donation request, in milliliters.
const (
	MinVolumeML = 50
	MaxVolumeML = 500
)

// DonationRequest is a clinic's posted need for blood. Created OPEN, it moves
// through the state machine and is never deleted.
type DonationRequest struct {
	ID        id.RequestID
	ClinicID  id.ClinicID
	CreatedBy id.UserID
	// BloodTypeNeeded nil means any compatible type is accepted.
	BloodTypeNeeded *BloodType
	VolumeML        int
	Urgency         Urgency
	PatientInfo     string
	NeededBy        time.Time
	Status          RequestStatus
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ResponseStatus values mirror the response_status enum in PostgreSQL.
//
// ACCEPTED ──► COMPLETED; DECLINED and COMPLETED are terminal.
type ResponseStatus string

const (
	ResponseAccepted  ResponseStatus = "ACCEPTED"
	ResponseDeclined  ResponseStatus = "DECLINED"
	ResponseCompleted ResponseStatus = "COMPLETED"
)

var responseTransitions = map[ResponseStatus][]ResponseStatus{
	ResponseAccepted: {ResponseCompleted},
}

// CanTransition reports whether moving from → to is permitted.
func (s ResponseStatus) CanTransition(to ResponseStatus) bool {
	for _, allowed := range responseTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ParseResponseStatus converts a raw string to a ResponseStatus, returning
// false for unknown values.
func ParseResponseStatus(s string) (ResponseStatus, bool) {
	switch ResponseStatus(s) {
	case ResponseAccepted, ResponseDeclined, ResponseCompleted:
		return ResponseStatus(s), true
	}
	return "", false
}

// DonationResponse is a dog owner's commitment or refusal against a request.
// At most one response exists per (request, donor) pair.
type DonationResponse struct {
	ID        id.ResponseID
	RequestID id.RequestID
	DonorID   id.DonorID
	OwnerID   id.UserID
	Status    ResponseStatus
	Message   string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
