// Package provisioning implements subdomain provisioning: availability
// checks, creation at the DNS provider with ledger bookkeeping, and
// owner-scoped updates.
//
// Creation runs in this order, and each step stops the operation on failure:
//
//  1. normalize the request and resolve the parent zone
//  2. take the per-name lock
//  3. reject names already in the ledger or at the provider
//  4. create the record at the provider
//  5. append it to the ledger
//  6. send a best-effort notification
//
// A ledger failure at step 5 does not undo step 4. It is reported as the
// CreatedNotPersisted outcome together with a *PersistenceError.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jroosing/subzone/internal/auth"
	"github.com/jroosing/subzone/internal/ledger"
	"github.com/jroosing/subzone/internal/lock"
	"github.com/jroosing/subzone/internal/logging"
	"github.com/jroosing/subzone/internal/notify"
	"github.com/jroosing/subzone/internal/provider"
	"github.com/jroosing/subzone/internal/zones"
)

// Outcome classifies a successful provider mutation.
type Outcome int

const (
	// Created means the provider record exists and the ledger has it.
	Created Outcome = iota + 1
	// CreatedNotPersisted means the provider record exists but the ledger
	// write failed.
	CreatedNotPersisted
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case CreatedNotPersisted:
		return "created_not_persisted"
	default:
		return "unknown"
	}
}

// CreateRequest is a request to provision one subdomain.
type CreateRequest struct {
	Subdomain string
	Domain    string
	Type      string
	Content   string
	Proxied   bool
	// Owner binds the record to an ownership token. Empty means the
	// normalized content.
	Owner string
}

// CreateResult describes a creation that reached the provider successfully.
type CreateResult struct {
	Outcome      Outcome
	Record       ledger.Record
	RecordID     string
	Notification notify.Result
}

// UpdateRequest carries the new values for an owned record.
type UpdateRequest struct {
	OldName string
	Name    string
	Type    string
	Content string
	Proxied bool
}

// Options tunes orchestrator policy.
type Options struct {
	// FailOpen treats an unanswerable provider existence check as "absent"
	// instead of refusing the creation.
	FailOpen bool
}

// Deps are the orchestrator's collaborators. Notifier, Locker and Authorizer
// default to Nop, an in-process KeyedMutex and an Authorizer over Store.
type Deps struct {
	Zones      *zones.Registry
	Provider   provider.Client
	Store      ledger.Store
	Authorizer *auth.Authorizer
	Notifier   notify.Dispatcher
	Locker     lock.Locker
	Logger     *slog.Logger
}

// Orchestrator composes zones, provider, ledger and notifications.
type Orchestrator struct {
	zones    *zones.Registry
	provider provider.Client
	store    ledger.Store
	auth     *auth.Authorizer
	notifier notify.Dispatcher
	locker   lock.Locker
	logger   *slog.Logger
	opts     Options
	now      func() time.Time
}

// New creates an Orchestrator.
func New(deps Deps, opts Options) *Orchestrator {
	o := &Orchestrator{
		zones:    deps.Zones,
		provider: deps.Provider,
		store:    deps.Store,
		auth:     deps.Authorizer,
		notifier: deps.Notifier,
		locker:   deps.Locker,
		logger:   logging.Component(deps.Logger, "provisioning"),
		opts:     opts,
		now:      time.Now,
	}
	if o.zones == nil {
		o.zones, _ = zones.New()
	}
	if o.auth == nil {
		o.auth = auth.NewAuthorizer(o.store)
	}
	if o.notifier == nil {
		o.notifier = notify.Nop{}
	}
	if o.locker == nil {
		o.locker = lock.NewKeyedMutex()
	}
	return o
}

// Domains returns the registered parent domains.
func (o *Orchestrator) Domains() []string {
	return o.zones.Domains()
}

// CheckAvailability reports whether subdomain.domain is free at the provider.
// An unanswerable check returns an error wrapping provider.ErrExistenceUnknown.
func (o *Orchestrator) CheckAvailability(ctx context.Context, domain, subdomain string) (bool, error) {
	zone, err := o.resolveZone(domain)
	if err != nil {
		return false, err
	}
	label, err := NormalizeLabel(subdomain)
	if err != nil {
		return false, err
	}
	fqdn, err := ComposeFQDN(label, zone.ParentDomain)
	if err != nil {
		return false, err
	}

	exists, err := o.provider.RecordExists(ctx, zone, fqdn)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// CreateSubdomain provisions a subdomain. On success the result is non-nil.
// When the provider record was created but the ledger write failed, both the
// result (Outcome CreatedNotPersisted) and a *PersistenceError are returned.
func (o *Orchestrator) CreateSubdomain(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	zone, err := o.resolveZone(req.Domain)
	if err != nil {
		return nil, err
	}
	rec, err := o.buildRecord(zone, req)
	if err != nil {
		return nil, err
	}

	result, persistErr := o.claim(ctx, zone, rec)
	if result == nil {
		return nil, persistErr
	}

	// Notification failures are observed but never change the outcome.
	result.Notification = o.notifier.Notify(context.WithoutCancel(ctx),
		notify.CreatedMessage(rec.Name, rec.Content, rec.Type, rec.Proxied))
	if !result.Notification.Delivered {
		o.logger.Debug("creation notification skipped", "name", rec.Name, "detail", result.Notification.Detail)
	}

	return result, persistErr
}

func (o *Orchestrator) buildRecord(zone zones.Zone, req CreateRequest) (ledger.Record, error) {
	label, err := NormalizeLabel(req.Subdomain)
	if err != nil {
		return ledger.Record{}, err
	}
	fqdn, err := ComposeFQDN(label, zone.ParentDomain)
	if err != nil {
		return ledger.Record{}, err
	}
	recordType, err := NormalizeType(req.Type)
	if err != nil {
		return ledger.Record{}, err
	}
	content, err := NormalizeContent(recordType, req.Content)
	if err != nil {
		return ledger.Record{}, err
	}
	if err := CheckProxied(recordType, req.Proxied); err != nil {
		return ledger.Record{}, err
	}

	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		owner = content
	}

	return ledger.Record{
		Name:    fqdn,
		Type:    recordType,
		Content: content,
		Proxied: req.Proxied,
		Owner:   owner,
	}, nil
}

// claim runs the locked check, create and persist steps.
func (o *Orchestrator) claim(ctx context.Context, zone zones.Zone, rec ledger.Record) (*CreateResult, error) {
	unlock, err := o.locker.Lock(ctx, rec.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", rec.Name, err)
	}
	defer unlock()

	known, err := o.store.Contains(ctx, rec.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check ledger: %w", err)
	}
	if known {
		return nil, &ConflictError{Name: rec.Name}
	}

	exists, err := o.provider.RecordExists(ctx, zone, rec.Name)
	switch {
	case err != nil && !o.opts.FailOpen:
		o.logger.Warn("existence unknown, refusing creation", "name", rec.Name, "err", err)
		return nil, &ConflictError{Name: rec.Name, Unverified: true}
	case err != nil:
		o.logger.Warn("existence unknown, proceeding under fail-open policy", "name", rec.Name, "err", err)
	case exists:
		return nil, &ConflictError{Name: rec.Name}
	}

	res := o.provider.CreateRecord(ctx, zone, provider.Record{
		Type:    rec.Type,
		Name:    rec.Name,
		Content: rec.Content,
		Proxied: rec.Proxied,
	})
	if !res.Success {
		msg := res.ErrorMessage
		if msg == "" {
			msg = "provider rejected the record"
		}
		return nil, &ProviderError{Message: msg}
	}

	rec.CreatedAt = o.now().UTC()
	result := &CreateResult{Outcome: Created, Record: rec, RecordID: res.RecordID}

	// The provider record exists now; the ledger write must not be lost to
	// a cancelled request.
	if err := o.store.Append(context.WithoutCancel(ctx), rec); err != nil {
		o.logger.Error("provider record created but ledger write failed",
			"name", rec.Name, "record_id", res.RecordID, "err", err)
		result.Outcome = CreatedNotPersisted
		return result, &PersistenceError{Name: rec.Name, Err: err}
	}

	o.logger.Info("subdomain created", "name", rec.Name, "type", rec.Type, "proxied", rec.Proxied, "record_id", res.RecordID)
	return result, nil
}

// UpdateRecord applies req to the record named req.OldName owned by owner.
// It touches only the ledger; the provider record is left as it was.
func (o *Orchestrator) UpdateRecord(ctx context.Context, owner string, req UpdateRequest) error {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return auth.ErrUnauthorized
	}

	oldName, err := NormalizeName(req.OldName)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Field = "old_name"
		}
		return err
	}
	patch, err := o.buildPatch(req)
	if err != nil {
		return err
	}

	unlock, err := o.locker.Lock(ctx, patch.Name)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", patch.Name, err)
	}
	defer unlock()

	updated, err := o.store.UpdateByNameAndOwner(ctx, oldName, owner, patch)
	if errors.Is(err, ledger.ErrDuplicate) {
		return &ConflictError{Name: patch.Name}
	}
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if !updated {
		return ErrNotFound
	}

	o.logger.Info("record updated", "old_name", oldName, "name", patch.Name, "type", patch.Type)
	return nil
}

func (o *Orchestrator) buildPatch(req UpdateRequest) (ledger.Patch, error) {
	name, err := NormalizeName(req.Name)
	if err != nil {
		return ledger.Patch{}, err
	}
	if _, ok := o.zones.ZoneFor(name); !ok {
		return ledger.Patch{}, ErrDomainNotFound
	}
	recordType, err := NormalizeType(req.Type)
	if err != nil {
		return ledger.Patch{}, err
	}
	content, err := NormalizeContent(recordType, req.Content)
	if err != nil {
		return ledger.Patch{}, err
	}
	if err := CheckProxied(recordType, req.Proxied); err != nil {
		return ledger.Patch{}, err
	}
	return ledger.Patch{Name: name, Type: recordType, Content: content, Proxied: req.Proxied}, nil
}

// Authorize resolves an ownership token to the records it owns. The token
// matches as given or in its canonical content form, so "2001:DB8::1" finds
// records owned by "2001:db8::1". All returned records share one Owner.
func (o *Orchestrator) Authorize(ctx context.Context, token string) ([]ledger.Record, error) {
	err := auth.ErrUnauthorized
	for _, form := range OwnerForms(token) {
		var records []ledger.Record
		records, err = o.auth.Authorize(ctx, form)
		if !errors.Is(err, auth.ErrUnauthorized) {
			return records, err
		}
	}
	return nil, err
}

// Records returns the records owned by owner. Unlike Authorize, owning
// nothing is not an error.
func (o *Orchestrator) Records(ctx context.Context, owner string) ([]ledger.Record, error) {
	records, err := o.Authorize(ctx, owner)
	if errors.Is(err, auth.ErrUnauthorized) {
		return []ledger.Record{}, nil
	}
	return records, err
}

func (o *Orchestrator) resolveZone(domain string) (zones.Zone, error) {
	name, err := NormalizeDomain(domain)
	if err != nil {
		return zones.Zone{}, err
	}
	zone, ok := o.zones.Lookup(name)
	if !ok {
		return zones.Zone{}, ErrDomainNotFound
	}
	return zone, nil
}
