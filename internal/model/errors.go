package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a referenced campaign does not exist
	ErrNotFound = errors.New("campaign not found")

	// ErrInvalidState is returned when a status transition is not allowed from the current status
	ErrInvalidState = errors.New("invalid campaign state")

	// ErrInvalidID is returned for malformed campaign identifiers, before any store access
	ErrInvalidID = errors.New("invalid campaign id")

	// ErrInvalidArgument is returned when campaign fields violate their invariants
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDataConsistency marks writes against campaigns that vanished underneath an order
	ErrDataConsistency = errors.New("campaign data consistency")
)

// ParseID parses a campaign identifier
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: nil uuid", ErrInvalidID)
	}
	return id, nil
}
