// Package auth gates ledger access on an ownership token.
//
// The token is an opaque string, in practice the record content (often an IP
// address) supplied when the record was created. It is not a credential.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jroosing/subzone/internal/ledger"
)

// ErrUnauthorized is returned when a token owns no records.
var ErrUnauthorized = errors.New("unauthorized")

// Authorizer resolves ownership tokens against the ledger.
type Authorizer struct {
	store ledger.Store
}

// NewAuthorizer creates an Authorizer backed by store.
func NewAuthorizer(store ledger.Store) *Authorizer {
	return &Authorizer{store: store}
}

// Authorize returns the records owned by token. An empty token, or one that
// owns nothing, yields ErrUnauthorized.
func (a *Authorizer) Authorize(ctx context.Context, token string) ([]ledger.Record, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	records, err := a.store.FindByOwner(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up records: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrUnauthorized
	}
	return records, nil
}
