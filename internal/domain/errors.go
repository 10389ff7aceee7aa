package domain

import (
	"errors"
	"fmt"
)

var (
	// Lookup errors
	ErrTransactionNotFound = errors.New("transaction not found")

	// Input errors
	ErrInvalidStage         = errors.New("invalid stage")
	ErrInvalidTransition    = errors.New("invalid stage transition")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidValue         = errors.New("invalid value")

	// Storage errors
	ErrConflict    = errors.New("transaction was modified concurrently")
	ErrPersistence = errors.New("failed to persist transaction")
	ErrCreation    = errors.New("transaction creation failed")
)

// InvalidTransitionError is returned when the requested stage is not the
// successor of the current one.
type InvalidTransitionError struct {
	Current   Stage
	Requested Stage
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf(
		"invalid stage transition: you cannot jump from %q to %q, each stage must be completed step-by-step",
		e.Current, e.Requested,
	)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// MissingRequiredFieldError is returned when a stage needs data the request did not carry.
type MissingRequiredFieldError struct {
	Field string
	Stage Stage
}

func (e *MissingRequiredFieldError) Error() string {
	if e.Stage.IsValid() {
		return fmt.Sprintf("%s: %s must be provided for stage %q", ErrMissingRequiredField, e.Field, e.Stage)
	}
	return fmt.Sprintf("%s: %s", ErrMissingRequiredField, e.Field)
}

func (e *MissingRequiredFieldError) Unwrap() error { return ErrMissingRequiredField }

// InvalidValueError is returned when a field carries a value outside its domain.
type InvalidValueError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %s=%s %s", ErrInvalidValue, e.Field, e.Value, e.Reason)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

// PersistenceError wraps a storage failure that happened while saving a transition.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// CreationError wraps a storage failure that happened while creating a transaction.
type CreationError struct {
	Err error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCreation, e.Err)
}

func (e *CreationError) Unwrap() []error { return []error{ErrCreation, e.Err} }
