package handler

import (
	"time"

	"hemabank/internal/donation/models"
	id "hemabank/pkg/domain"
)

// createRequestBody is the POST /requests payload.
type createRequestBody struct {
	BloodTypeNeeded *string   `json:"blood_type_needed"`
	VolumeML        int       `json:"volume_ml"`
	Urgency         string    `json:"urgency"`
	PatientInfo     string    `json:"patient_info"`
	NeededBy        time.Time `json:"needed_by"`
}

// submitResponseBody is the POST /requests/{requestID}/responses payload.
type submitResponseBody struct {
	DonorID  string `json:"donor_id"`
	Decision string `json:"decision"`
	Message  string `json:"message"`
}

type donationRequestDTO struct {
	ID              id.RequestID `json:"id"`
	ClinicID        id.ClinicID  `json:"clinic_id"`
	CreatedBy       id.UserID    `json:"created_by"`
	BloodTypeNeeded *string      `json:"blood_type_needed"`
	VolumeML        int          `json:"volume_ml"`
	Urgency         string       `json:"urgency"`
	PatientInfo     string       `json:"patient_info,omitempty"`
	NeededBy        time.Time    `json:"needed_by"`
	Status          string       `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func requestToDTO(r *models.DonationRequest) donationRequestDTO {
	dto := donationRequestDTO{
		ID:          r.ID,
		ClinicID:    r.ClinicID,
		CreatedBy:   r.CreatedBy,
		VolumeML:    r.VolumeML,
		Urgency:     string(r.Urgency),
		PatientInfo: r.PatientInfo,
		NeededBy:    r.NeededBy,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.BloodTypeNeeded != nil {
		bt := string(*r.BloodTypeNeeded)
		dto.BloodTypeNeeded = &bt
	}
	return dto
}

func requestsToDTO(requests []models.DonationRequest) []donationRequestDTO {
	out := make([]donationRequestDTO, 0, len(requests))
	for i := range requests {
		out = append(out, requestToDTO(&requests[i]))
	}
	return out
}

type donationResponseDTO struct {
	ID        id.ResponseID `json:"id"`
	RequestID id.RequestID  `json:"request_id"`
	DonorID   id.DonorID    `json:"donor_id"`
	OwnerID   id.UserID     `json:"owner_id"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func responseToDTO(r *models.DonationResponse) donationResponseDTO {
	return donationResponseDTO{
		ID:        r.ID,
		RequestID: r.RequestID,
		DonorID:   r.DonorID,
		OwnerID:   r.OwnerID,
		Status:    string(r.Status),
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func responsesToDTO(responses []models.DonationResponse) []donationResponseDTO {
	out := make([]donationResponseDTO, 0, len(responses))
	for i := range responses {
		out = append(out, responseToDTO(&responses[i]))
	}
	return out
}

type sweepResultDTO struct {
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
}
