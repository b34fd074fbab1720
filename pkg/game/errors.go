package game

import "errors"

var (
	// ErrQuotaExceeded indicates the daily limit for an action kind is used up.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrNoActiveResource indicates the referenced user holds nothing today.
	ErrNoActiveResource = errors.New("no active resource today")

	// ErrInvalidTarget indicates a missing, self-referential or unresolved target.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrFeatureDisabled indicates the contest feature is turned off for the group.
	ErrFeatureDisabled = errors.New("contest feature is disabled")

	// ErrNoSuchRequest indicates accept/reject referenced a request that does
	// not exist or names a different counterparty.
	ErrNoSuchRequest = errors.New("no matching exchange request")

	// ErrForbidden indicates a privileged operation by a non-privileged actor.
	ErrForbidden = errors.New("operation requires admin privileges")
)
