package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidTransition is returned when a status change is not legal
	// from the lead's current status. It signals a defect in the caller,
	// not user error.
	ErrInvalidTransition = errors.New("invalid lead status transition")

	// ErrMissingPhone is returned when a lead has no phone number
	ErrMissingPhone = errors.New("lead phone is required")
)
