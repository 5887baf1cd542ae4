package models

import "time"

// TripPlanRequest is the payload sent to the email-dispatch collaborator.
// Places is a by-value snapshot of the traveller's selection.
type TripPlanRequest struct {
	Name   string  `json:"name" validate:"required,min=2"`
	Email  string  `json:"email" validate:"required,email"`
	Phone  string  `json:"phone" validate:"required,min=10"`
	Notes  string  `json:"notes,omitempty"`
	Places []Place `json:"places" validate:"required,min=1"`
}

// ContactRequest is a general inquiry from the contact page or a tour page
type ContactRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,min=10"`
	Subject string `json:"subject,omitempty" validate:"max=140"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
	TourID  string `json:"tourId,omitempty"`
}

// DispatchResult is the email-dispatch collaborator's response
type DispatchResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	EmailID string `json:"emailId,omitempty"`
}

// InquiryKind distinguishes trip plans from general contact messages
type InquiryKind string

const (
	InquiryKindTripPlan InquiryKind = "trip_plan"
	InquiryKindContact  InquiryKind = "contact"
)

// InquiryStatus records the delivery outcome
type InquiryStatus string

const (
	InquiryStatusSent   InquiryStatus = "sent"
	InquiryStatusFailed InquiryStatus = "failed"
)

// Inquiry is the stored record of one submission, kept for the admin inbox
type Inquiry struct {
	ID        string        `json:"id"`
	Kind      InquiryKind   `json:"kind"`
	Status    InquiryStatus `json:"status"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Subject   string        `json:"subject,omitempty"`
	Message   string        `json:"message,omitempty"`
	TourID    string        `json:"tour_id,omitempty"`
	Places    []Place       `json:"places,omitempty"`
	EmailID   string        `json:"email_id,omitempty"`
	Error     string        `json:"error,omitempty"`
	ClientIP  string        `json:"client_ip,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}
