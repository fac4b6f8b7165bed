package training

import "errors"

// Sentinel errors shared by all training subpackages. Repos and services wrap
// these with context via fmt.Errorf and %w; handlers match them with errors.Is
// to pick the response status.
var (
	// ErrNotFound: the referenced entity does not exist or does not belong
	// to the caller's owner scope. Both cases look the same to the caller.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput: malformed input, e.g. iterations < 1 or an unknown
	// set type value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidStateTransition: the operation does not apply to the entity
	// in its current state (e.g. completing a rest day action on a workout day).
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrMissingWorkoutTemplate: a workout day without an attached workout
	// template cannot be started.
	ErrMissingWorkoutTemplate = errors.New("plan day has no workout template")

	// ErrCannotMoveFurther: exercise order swap requested past the first or
	// last position.
	ErrCannotMoveFurther = errors.New("cannot move exercise further")

	// ErrConflict: a concurrent writer already satisfied the operation and
	// the idempotent path could not silently absorb it.
	ErrConflict = errors.New("conflicting concurrent update")
)
