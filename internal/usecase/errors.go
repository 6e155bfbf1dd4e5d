package usecase

import "errors"

var (
	// ErrAlreadySelected rejects a selection pass for a cycle that already
	// has articles; the caller must reset the cycle first.
	ErrAlreadySelected = errors.New("cycle already has selected articles")

	// ErrInvalidTransition rejects an illegal lifecycle move.
	ErrInvalidTransition = errors.New("invalid cycle transition")

	// ErrCycleTerminal rejects any mutating action on a sent cycle.
	ErrCycleTerminal = errors.New("cycle is in terminal state")

	// ErrPositionOutOfRange rejects a reorder target outside 1..K.
	ErrPositionOutOfRange = errors.New("target position out of range")

	// ErrNoOrdering rejects position edits before review positions exist.
	ErrNoOrdering = errors.New("cycle has no active ordering yet")

	// ErrNoCriteria rejects a rating run with no enabled criteria.
	ErrNoCriteria = errors.New("no enabled rating criteria configured")
)
