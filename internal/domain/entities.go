package domain

import (
	"time"

	"github.com/google/uuid"
)

// BloodRequest asks the bank for units of one blood group. Created Pending;
// the approval workflow moves it exactly once to Approved or Rejected and is
// the only component that mutates Status.
type BloodRequest struct {
	ID          string     `json:"id"`
	BloodGroup  BloodGroup `json:"bloodgroup"`
	Units       int        `json:"units"`
	Status      Status     `json:"status"`
	RequestedBy string     `json:"requested_by"`
	PatientName string     `json:"patient_name"`
	PatientAge  int        `json:"patient_age,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

// NewBloodRequest creates a Pending request with domain invariant validation.
func NewBloodRequest(group BloodGroup, units int, requestedBy, patientName string, patientAge int, reason string, now time.Time) (BloodRequest, error) {
	if !group.IsValid() {
		return BloodRequest{}, ErrUnknownBloodGroup
	}
	if units <= 0 {
		return BloodRequest{}, ErrInvalidUnits
	}
	return BloodRequest{
		ID:          uuid.NewString(),
		BloodGroup:  group,
		Units:       units,
		Status:      StatusPending,
		RequestedBy: requestedBy,
		PatientName: patientName,
		PatientAge:  patientAge,
		Reason:      reason,
		CreatedAt:   now,
	}, nil
}

// BloodDonation offers units of one blood group. Same lifecycle shape as
// BloodRequest but approval credits stock instead of debiting it.
type BloodDonation struct {
	ID          string     `json:"id"`
	BloodGroup  BloodGroup `json:"bloodgroup"`
	Units       int        `json:"units"`
	Status      Status     `json:"status"`
	DonorID     string     `json:"donor_id"`
	Disease     string     `json:"disease,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}

// NewBloodDonation creates a Pending donation with domain invariant validation.
func NewBloodDonation(group BloodGroup, units int, donorID, disease string, now time.Time) (BloodDonation, error) {
	if !group.IsValid() {
		return BloodDonation{}, ErrUnknownBloodGroup
	}
	if units <= 0 {
		return BloodDonation{}, ErrInvalidUnits
	}
	return BloodDonation{
		ID:         uuid.NewString(),
		BloodGroup: group,
		Units:      units,
		Status:     StatusPending,
		DonorID:    donorID,
		Disease:    disease,
		CreatedAt:  now,
	}, nil
}
