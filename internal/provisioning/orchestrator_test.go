package provisioning_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/subzone/internal/auth"
	"github.com/jroosing/subzone/internal/ledger"
	"github.com/jroosing/subzone/internal/notify"
	"github.com/jroosing/subzone/internal/provider"
	"github.com/jroosing/subzone/internal/provisioning"
	"github.com/jroosing/subzone/internal/zones"
)

// ===== Fakes =====

type fakeProvider struct {
	mu          sync.Mutex
	existing    map[string]bool
	existsErr   error
	rejectWith  string
	createDelay time.Duration

	existsCalls int
	createCalls int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{existing: map[string]bool{}}
}

func (f *fakeProvider) RecordExists(_ context.Context, _ zones.Zone, fqdn string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existing[fqdn], nil
}

func (f *fakeProvider) CreateRecord(_ context.Context, _ zones.Zone, rec provider.Record) provider.Result {
	time.Sleep(f.createDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.rejectWith != "" {
		return provider.Result{ErrorMessage: f.rejectWith}
	}
	f.existing[rec.Name] = true
	return provider.Result{Success: true, RecordID: fmt.Sprintf("rec-%d", f.createCalls)}
}

func (f *fakeProvider) creates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	fail     bool
}

func (n *fakeNotifier) Notify(_ context.Context, text string) notify.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	if n.fail {
		return notify.Result{Detail: "channel down"}
	}
	return notify.Result{Delivered: true}
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// brokenAppendStore fails every Append.
type brokenAppendStore struct {
	ledger.Store
}

func (brokenAppendStore) Append(context.Context, ledger.Record) error {
	return errors.New("disk full")
}

type harness struct {
	orch     *provisioning.Orchestrator
	provider *fakeProvider
	notifier *fakeNotifier
	store    ledger.Store
}

func newHarness(t *testing.T, opts provisioning.Options, wrap func(ledger.Store) ledger.Store) *harness {
	t.Helper()

	reg, err := zones.New(
		zones.Zone{ParentDomain: "example.com", ZoneID: "z1", APIKey: "k1"},
		zones.Zone{ParentDomain: "example.org", ZoneID: "z2", APIKey: "k2"},
	)
	require.NoError(t, err)

	store, err := ledger.OpenFile(filepath.Join(t.TempDir(), "records.json"), nil)
	require.NoError(t, err)

	var s ledger.Store = store
	if wrap != nil {
		s = wrap(store)
	}

	h := &harness{provider: newFakeProvider(), notifier: &fakeNotifier{}, store: store}
	h.orch = provisioning.New(provisioning.Deps{
		Zones:    reg,
		Provider: h.provider,
		Store:    s,
		Notifier: h.notifier,
	}, opts)
	return h
}

func (h *harness) ledger(t *testing.T) []ledger.Record {
	t.Helper()
	all, err := h.store.All(context.Background())
	require.NoError(t, err)
	return all
}

func createReq(sub, content string) provisioning.CreateRequest {
	return provisioning.CreateRequest{Subdomain: sub, Domain: "example.com", Type: "A", Content: content}
}

// ===== Scenarios =====

func TestCreate_Scenario1_Success(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)

	res, err := h.orch.CreateSubdomain(context.Background(), provisioning.CreateRequest{
		Subdomain: "app", Domain: "example.com", Type: "A", Content: "1.2.3.4", Owner: "1.2.3.4",
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, provisioning.Created, res.Outcome)
	assert.Equal(t, "rec-1", res.RecordID)
	assert.True(t, res.Notification.Delivered)

	all := h.ledger(t)
	require.Len(t, all, 1)
	assert.Equal(t, "app.example.com", all[0].Name)
	assert.Equal(t, "1.2.3.4", all[0].Content)
	assert.Equal(t, "A", all[0].Type)
	assert.False(t, all[0].Proxied)
	assert.Equal(t, "1.2.3.4", all[0].Owner)
	assert.False(t, all[0].CreatedAt.IsZero())

	require.Equal(t, 1, h.notifier.count())
	assert.Equal(t, notify.CreatedMessage("app.example.com", "1.2.3.4", "A", false), h.notifier.messages[0])
}

func TestCreate_Scenario2_RepeatIsConflict(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	ctx := context.Background()

	_, err := h.orch.CreateSubdomain(ctx, createReq("app", "1.2.3.4"))
	require.NoError(t, err)

	res, err := h.orch.CreateSubdomain(ctx, createReq("app", "1.2.3.4"))
	assert.Nil(t, res)
	var conflict *provisioning.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.False(t, conflict.Unverified)
	assert.Contains(t, err.Error(), "already exists")

	assert.Len(t, h.ledger(t), 1)
	assert.Equal(t, 1, h.provider.creates())
	assert.Equal(t, 1, h.notifier.count())
}

func TestCreate_Scenario3_UnknownDomain(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)

	_, err := h.orch.CreateSubdomain(context.Background(), provisioning.CreateRequest{
		Subdomain: "app", Domain: "unknown.tld", Type: "A", Content: "1.2.3.4",
	})
	require.ErrorIs(t, err, provisioning.ErrDomainNotFound)
	assert.Equal(t, 0, h.provider.existsCalls)
	assert.Equal(t, 0, h.provider.creates())
	assert.Empty(t, h.ledger(t))
}

func TestCreate_Scenario4_OwnershipIsolation(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	ctx := context.Background()

	_, err := h.orch.CreateSubdomain(ctx, createReq("app", "1.2.3.4"))
	require.NoError(t, err)
	_, err = h.orch.CreateSubdomain(ctx, createReq("other", "5.6.7.8"))
	require.NoError(t, err)

	records, err := h.orch.Authorize(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "app.example.com", records[0].Name)

	_, err = h.orch.Authorize(ctx, "9.9.9.9")
	require.ErrorIs(t, err, auth.ErrUnauthorized)

	none, err := h.orch.Records(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreate_Scenario5_ProviderRejection(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	h.provider.rejectWith = "rate limited"

	res, err := h.orch.CreateSubdomain(context.Background(), createReq("app", "1.2.3.4"))
	assert.Nil(t, res)
	var perr *provisioning.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "rate limited", perr.Message)

	assert.Empty(t, h.ledger(t))
	assert.Equal(t, 0, h.notifier.count())
}

func TestAuthorize_CanonicalTokenForms(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	ctx := context.Background()

	_, err := h.orch.CreateSubdomain(ctx, provisioning.CreateRequest{
		Subdomain: "v6", Domain: "example.com", Type: "AAAA", Content: "2001:DB8::1",
	})
	require.NoError(t, err)

	for _, token := range []string{"2001:db8::1", "2001:DB8::1", " 2001:db8:0::1 "} {
		records, err := h.orch.Authorize(ctx, token)
		require.NoError(t, err, token)
		require.Len(t, records, 1)
		assert.Equal(t, "2001:db8::1", records[0].Owner)
	}

	owned, err := h.orch.Records(ctx, "2001:DB8::1")
	require.NoError(t, err)
	assert.Len(t, owned, 1)

	_, err = h.orch.Authorize(ctx, "2001:db8::2")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestCreate_InternationalizedParentDomain(t *testing.T) {
	reg, err := zones.New(zones.Zone{ParentDomain: "bücher.de", ZoneID: "z1", APIKey: "k1"})
	require.NoError(t, err)
	store, err := ledger.OpenFile(filepath.Join(t.TempDir(), "records.json"), nil)
	require.NoError(t, err)
	orch := provisioning.New(provisioning.Deps{Zones: reg, Provider: newFakeProvider(), Store: store}, provisioning.Options{})
	ctx := context.Background()

	free, err := orch.CheckAvailability(ctx, "bücher.de", "shop")
	require.NoError(t, err)
	assert.True(t, free)

	_, err = orch.CreateSubdomain(ctx, provisioning.CreateRequest{
		Subdomain: "shop", Domain: "bücher.de", Type: "A", Content: "1.2.3.4",
	})
	require.NoError(t, err)

	_, err = orch.CreateSubdomain(ctx, provisioning.CreateRequest{
		Subdomain: "shop", Domain: "xn--bcher-kva.de", Type: "A", Content: "1.2.3.4",
	})
	var conflict *provisioning.ConflictError
	require.ErrorAs(t, err, &conflict, "both spellings name the same record")

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "shop.xn--bcher-kva.de", all[0].Name)

	require.NoError(t, orch.UpdateRecord(ctx, "1.2.3.4", provisioning.UpdateRequest{
		OldName: "shop.xn--bcher-kva.de", Name: "laden.bücher.de", Type: "A", Content: "1.2.3.4",
	}))
}

// ===== Properties =====

func TestCreate_IdempotentRejectionForProviderRecords(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	h.provider.existing["taken.example.com"] = true

	for i := 0; i < 3; i++ {
		_, err := h.orch.CreateSubdomain(context.Background(), createReq("taken", "1.2.3.4"))
		var conflict *provisioning.ConflictError
		require.ErrorAs(t, err, &conflict)
	}

	assert.Equal(t, 0, h.provider.creates())
	assert.Empty(t, h.ledger(t))
	assert.Equal(t, 0, h.notifier.count())
}

func TestCreate_LedgerPrecheckSkipsProvider(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	require.NoError(t, h.store.Append(context.Background(), ledger.Record{Name: "app.example.com", Type: "A", Content: "1.2.3.4", Owner: "1.2.3.4"}))

	_, err := h.orch.CreateSubdomain(context.Background(), createReq("app", "1.2.3.4"))
	var conflict *provisioning.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 0, h.provider.existsCalls)
	assert.Equal(t, 0, h.provider.creates())
}

func TestCreate_ExistenceUnknownFailsClosed(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	h.provider.existsErr = fmt.Errorf("%w: timeout", provider.ErrExistenceUnknown)

	_, err := h.orch.CreateSubdomain(context.Background(), createReq("app", "1.2.3.4"))
	var conflict *provisioning.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, conflict.Unverified)
	assert.Equal(t, 0, h.provider.creates())
	assert.Empty(t, h.ledger(t))
}

func TestCreate_ExistenceUnknownFailOpen(t *testing.T) {
	h := newHarness(t, provisioning.Options{FailOpen: true}, nil)
	h.provider.existsErr = fmt.Errorf("%w: timeout", provider.ErrExistenceUnknown)

	res, err := h.orch.CreateSubdomain(context.Background(), createReq("app", "1.2.3.4"))
	require.NoError(t, err)
	assert.Equal(t, provisioning.Created, res.Outcome)
	assert.Equal(t, 1, h.provider.creates())
}

func TestCreate_PersistenceFailureIsDistinctOutcome(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, func(s ledger.Store) ledger.Store {
		return brokenAppendStore{Store: s}
	})

	res, err := h.orch.CreateSubdomain(context.Background(), createReq("app", "1.2.3.4"))
	require.NotNil(t, res)
	assert.Equal(t, provisioning.CreatedNotPersisted, res.Outcome)

	var perr *provisioning.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "app.example.com", perr.Name)
	assert.Contains(t, err.Error(), "disk full")

	assert.Equal(t, 1, h.provider.creates())
	assert.Empty(t, h.ledger(t))
	assert.Equal(t, 1, h.notifier.count(), "the provider record exists, so the operator is told")
}

func TestCreate_NotificationFailureKeepsOutcome(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	h.notifier.fail = true

	res, err := h.orch.CreateSubdomain(context.Background(), createReq("app", "1.2.3.4"))
	require.NoError(t, err)
	assert.Equal(t, provisioning.Created, res.Outcome)
	assert.False(t, res.Notification.Delivered)
	assert.Len(t, h.ledger(t), 1)
}

func TestCreate_NoOrphanLedgerEntries(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	ctx := context.Background()

	h.provider.rejectWith = "quota exceeded"
	_, err := h.orch.CreateSubdomain(ctx, createReq("a", "1.2.3.4"))
	require.Error(t, err)

	h.provider.rejectWith = ""
	_, err = h.orch.CreateSubdomain(ctx, createReq("b", "1.2.3.4"))
	require.NoError(t, err)

	for _, r := range h.ledger(t) {
		assert.True(t, h.provider.existing[r.Name], "ledger entry %s has no provider record", r.Name)
	}
}

func TestCreate_ConcurrentSameNameCreatesOnce(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	h.provider.createDelay = 5 * time.Millisecond

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.orch.CreateSubdomain(context.Background(), createReq("race", "1.2.3.4"))
			mu.Lock()
			defer mu.Unlock()
			var conflict *provisioning.ConflictError
			switch {
			case err == nil:
				created++
			case errors.As(err, &conflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, h.provider.creates())
	assert.Len(t, h.ledger(t), 1)
}

func TestCreate_Normalization(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)

	res, err := h.orch.CreateSubdomain(context.Background(), provisioning.CreateRequest{
		Subdomain: "  App ", Domain: " EXAMPLE.com ", Type: "cname", Content: "Target.Example.NET.", Proxied: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", res.Record.Name)
	assert.Equal(t, "CNAME", res.Record.Type)
	assert.Equal(t, "target.example.net", res.Record.Content)
	assert.Equal(t, "target.example.net", res.Record.Owner, "owner defaults to content")
}

func TestCreate_ValidationFailsFast(t *testing.T) {
	tests := []struct {
		name  string
		req   provisioning.CreateRequest
		field string
	}{
		{"empty subdomain", provisioning.CreateRequest{Domain: "example.com", Type: "A", Content: "1.2.3.4"}, "subdomain"},
		{"empty domain", provisioning.CreateRequest{Subdomain: "app", Type: "A", Content: "1.2.3.4"}, "domain"},
		{"bad type", provisioning.CreateRequest{Subdomain: "app", Domain: "example.com", Type: "PTR", Content: "1.2.3.4"}, "type"},
		{"bad content", provisioning.CreateRequest{Subdomain: "app", Domain: "example.com", Type: "A", Content: "nope"}, "content"},
		{"proxied txt", provisioning.CreateRequest{Subdomain: "app", Domain: "example.com", Type: "TXT", Content: "hi", Proxied: true}, "proxied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, provisioning.Options{}, nil)
			_, err := h.orch.CreateSubdomain(context.Background(), tt.req)
			var ve *provisioning.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, 0, h.provider.existsCalls)
		})
	}
}

// ===== CheckAvailability =====

func TestCheckAvailability(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	h.provider.existing["taken.example.com"] = true
	ctx := context.Background()

	free, err := h.orch.CheckAvailability(ctx, "example.com", "free")
	require.NoError(t, err)
	assert.True(t, free)

	free, err = h.orch.CheckAvailability(ctx, "Example.com", "TAKEN")
	require.NoError(t, err)
	assert.False(t, free)

	_, err = h.orch.CheckAvailability(ctx, "unknown.tld", "app")
	require.ErrorIs(t, err, provisioning.ErrDomainNotFound)

	h.provider.existsErr = fmt.Errorf("%w: boom", provider.ErrExistenceUnknown)
	_, err = h.orch.CheckAvailability(ctx, "example.com", "free")
	require.ErrorIs(t, err, provider.ErrExistenceUnknown)
}

// ===== UpdateRecord =====

func seedRecord(t *testing.T, h *harness, sub, content string) {
	t.Helper()
	_, err := h.orch.CreateSubdomain(context.Background(), createReq(sub, content))
	require.NoError(t, err)
}

func TestUpdate_OwnedRecord(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	seedRecord(t, h, "app", "1.2.3.4")
	creates := h.provider.creates()

	err := h.orch.UpdateRecord(context.Background(), "1.2.3.4", provisioning.UpdateRequest{
		OldName: "app.example.com", Name: "API.example.org", Type: "A", Content: "5.6.7.8", Proxied: true,
	})
	require.NoError(t, err)

	all := h.ledger(t)
	require.Len(t, all, 1)
	assert.Equal(t, "api.example.org", all[0].Name)
	assert.Equal(t, "5.6.7.8", all[0].Content)
	assert.True(t, all[0].Proxied)
	assert.Equal(t, "1.2.3.4", all[0].Owner, "owner binding never changes")
	assert.Equal(t, creates, h.provider.creates(), "update does not contact the provider")
}

func TestUpdate_NeverTouchesOtherOwners(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	seedRecord(t, h, "app", "1.2.3.4")

	err := h.orch.UpdateRecord(context.Background(), "9.9.9.9", provisioning.UpdateRequest{
		OldName: "app.example.com", Name: "app.example.com", Type: "A", Content: "9.9.9.9",
	})
	require.ErrorIs(t, err, provisioning.ErrNotFound)

	all := h.ledger(t)
	require.Len(t, all, 1)
	assert.Equal(t, "1.2.3.4", all[0].Content)
}

func TestUpdate_Errors(t *testing.T) {
	h := newHarness(t, provisioning.Options{}, nil)
	seedRecord(t, h, "app", "1.2.3.4")
	seedRecord(t, h, "web", "1.2.3.4")
	ctx := context.Background()

	base := provisioning.UpdateRequest{OldName: "app.example.com", Name: "app.example.com", Type: "A", Content: "1.2.3.4"}

	t.Run("no owner", func(t *testing.T) {
		require.ErrorIs(t, h.orch.UpdateRecord(ctx, "", base), auth.ErrUnauthorized)
	})

	t.Run("unknown zone", func(t *testing.T) {
		req := base
		req.Name = "app.unknown.tld"
		require.ErrorIs(t, h.orch.UpdateRecord(ctx, "1.2.3.4", req), provisioning.ErrDomainNotFound)
	})

	t.Run("bare parent domain", func(t *testing.T) {
		req := base
		req.Name = "example.com"
		require.ErrorIs(t, h.orch.UpdateRecord(ctx, "1.2.3.4", req), provisioning.ErrDomainNotFound)
	})

	t.Run("rename collision", func(t *testing.T) {
		req := base
		req.Name = "web.example.com"
		var conflict *provisioning.ConflictError
		require.ErrorAs(t, h.orch.UpdateRecord(ctx, "1.2.3.4", req), &conflict)
	})

	t.Run("bad old name", func(t *testing.T) {
		req := base
		req.OldName = ""
		var ve *provisioning.ValidationError
		require.ErrorAs(t, h.orch.UpdateRecord(ctx, "1.2.3.4", req), &ve)
		assert.Equal(t, "old_name", ve.Field)
	})

	t.Run("bad content", func(t *testing.T) {
		req := base
		req.Type = "AAAA"
		var ve *provisioning.ValidationError
		require.ErrorAs(t, h.orch.UpdateRecord(ctx, "1.2.3.4", req), &ve)
	})

	assert.Len(t, h.ledger(t), 2)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "created", provisioning.Created.String())
	assert.Equal(t, "created_not_persisted", provisioning.CreatedNotPersisted.String())
	assert.Equal(t, "unknown", provisioning.Outcome(0).String())
}
