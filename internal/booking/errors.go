package booking

import "errors"

var (
	// ErrDuplicateActiveBooking is returned when the lead already holds an
	// active booking.
	ErrDuplicateActiveBooking = errors.New("booking: lead already has an active booking")
	// ErrNoActiveBooking is returned when no active booking exists for the lead.
	ErrNoActiveBooking = errors.New("booking: no active booking for lead")
	// ErrSlotNotFound is returned when the requested class/time does not exist
	// in the schedule.
	ErrSlotNotFound = errors.New("booking: no class at the requested time")
	// ErrSlotInPast is returned when the requested slot has already started.
	ErrSlotInPast = errors.New("booking: slot is in the past")
	// ErrSlotFull is returned when the class has no remaining capacity.
	ErrSlotFull = errors.New("booking: class is full")
)
