// Package ledger provides the local record of subdomains this service has
// provisioned.
//
// The ledger is independent of the DNS provider's own state. Every entry is
// keyed by its fully-qualified name, which is unique within a store, and
// carries an owner used to scope visibility and updates.
//
// Two backends exist:
//   - FileStore: a JSON array rewritten in full on every mutation (default)
//   - SQLStore:  a SQLite database with migrations managed by golang-migrate
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrDuplicate is returned when a write would give two entries the same name.
var ErrDuplicate = errors.New("record name already present in ledger")

// Record is a subdomain created by this service.
type Record struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Proxied   bool      `json:"proxied"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Patch holds the fields an authorized update may change. Owner is never patched.
type Patch struct {
	Name    string
	Type    string
	Content string
	Proxied bool
}

func (p Patch) apply(r *Record) {
	r.Name = p.Name
	r.Type = p.Type
	r.Content = p.Content
	r.Proxied = p.Proxied
}

// Store is the ledger contract shared by all backends.
type Store interface {
	// Append adds rec, rejecting a duplicate name with ErrDuplicate.
	Append(ctx context.Context, rec Record) error
	// FindByOwner returns the entries owned by owner in insertion order.
	FindByOwner(ctx context.Context, owner string) ([]Record, error)
	// UpdateByNameAndOwner patches the entry matching both oldName and owner.
	// It reports whether an entry was updated and never creates one.
	UpdateByNameAndOwner(ctx context.Context, oldName, owner string, patch Patch) (bool, error)
	// Contains reports whether an entry named name exists.
	Contains(ctx context.Context, name string) (bool, error)
	// All returns every entry in insertion order.
	All(ctx context.Context) ([]Record, error)
	Health(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open opens the ledger backend named by driver at path.
func Open(driver, path string, logger *slog.Logger) (Store, error) {
	switch driver {
	case DriverFile, "":
		s, err := OpenFile(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", driver)
	}
}

func filterOwner(records []Record, owner string) []Record {
	out := make([]Record, 0)
	for _, r := range records {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out
}
