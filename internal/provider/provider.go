// Package provider talks to the remote DNS provider that actually hosts the
// parent zones.
//
// The rest of the service only sees the Client interface and the plain
// Record and Result types defined here; SDK types stay inside the
// implementation.
package provider

import (
	"context"
	"errors"

	"github.com/jroosing/subzone/internal/zones"
)

// ErrExistenceUnknown is returned by RecordExists when the provider could not
// give a trustworthy answer (transport failure, malformed response or an
// explicit failure flag). It always wraps the underlying cause.
var ErrExistenceUnknown = errors.New("record existence could not be determined")

// Record is a DNS record to create at the provider.
type Record struct {
	Type    string
	Name    string // fully-qualified
	Content string
	Proxied bool
}

// Result is the outcome of a create call.
type Result struct {
	Success      bool
	ErrorMessage string // provider message, verbatim
	RecordID     string
}

// Client is the provider contract.
type Client interface {
	// RecordExists reports whether any record named fqdn exists in zone.
	RecordExists(ctx context.Context, zone zones.Zone, fqdn string) (bool, error)
	// CreateRecord creates rec in zone. Failures are reported in Result,
	// never as a panic or error.
	CreateRecord(ctx context.Context, zone zones.Zone, rec Record) Result
}
