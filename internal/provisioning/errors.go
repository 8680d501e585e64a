package provisioning

import (
	"errors"
	"fmt"
)

var (
	// ErrDomainNotFound means the parent domain is not in the zone registry.
	ErrDomainNotFound = errors.New("domain not found")
	// ErrNotFound means no record matched both the name and the owner.
	ErrNotFound = errors.New("record not found")
)

// ConflictError reports that a name is already taken, or could not be shown
// to be free.
type ConflictError struct {
	Name string
	// Unverified is set when the provider could not answer and the
	// existence policy treats that as taken.
	Unverified bool
}

func (e *ConflictError) Error() string {
	if e.Unverified {
		return fmt.Sprintf("%s could not be verified as available, try again later", e.Name)
	}
	return fmt.Sprintf("%s already exists", e.Name)
}

// ProviderError carries the provider's rejection message verbatim.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// PersistenceError reports that the provider record exists but the ledger
// write failed, so local state has diverged from the provider.
type PersistenceError struct {
	Name string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s was created at the provider but could not be recorded: %v", e.Name, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ValidationError reports a malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
