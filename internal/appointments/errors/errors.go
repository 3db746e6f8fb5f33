package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrSlotTaken is returned when an active appointment already holds the
	// professional's start time.
	ErrSlotTaken = errors.New("time slot already booked")

	// ErrSlotLocked is returned when another writer holds a lock on the slot.
	ErrSlotLocked = errors.New("time slot is locked by another booking")

	// ErrStatusChanged is returned when a conditional status write finds the
	// appointment no longer in the expected status.
	ErrStatusChanged = errors.New("appointment status changed concurrently")
)
