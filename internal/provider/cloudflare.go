package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cloudflare/cloudflare-go"

	"github.com/jroosing/subzone/internal/logging"
	"github.com/jroosing/subzone/internal/zones"
)

// Options configures the Cloudflare client.
type Options struct {
	BaseURL    string        // empty uses the public API
	TTL        int           // 1 means automatic
	Timeout    time.Duration // per call
	RateLimit  float64       // requests per second; 0 keeps the SDK default
	HTTPClient *http.Client
}

// Cloudflare implements Client on the Cloudflare v4 API.
//
// Each zone carries its own credentials. An API handle is built lazily per
// credential pair and reused for later calls.
type Cloudflare struct {
	opts   Options
	logger *slog.Logger

	mu   sync.Mutex
	apis map[string]*cloudflare.API
}

// NewCloudflare creates a Cloudflare client.
func NewCloudflare(opts Options, logger *slog.Logger) *Cloudflare {
	if opts.TTL <= 0 {
		opts.TTL = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Cloudflare{
		opts:   opts,
		logger: logging.Component(logger, "provider"),
		apis:   make(map[string]*cloudflare.API),
	}
}

// api returns the cached handle for the zone's credentials.
func (c *Cloudflare) api(zone zones.Zone) (*cloudflare.API, error) {
	key := zone.APIKey + "\x00" + zone.Email

	c.mu.Lock()
	defer c.mu.Unlock()

	if api, ok := c.apis[key]; ok {
		return api, nil
	}

	// Provider errors must reach the caller verbatim, so the SDK's own
	// retry loop is switched off.
	opts := []cloudflare.Option{cloudflare.UsingRetryPolicy(0, 0, 0)}
	if c.opts.BaseURL != "" {
		opts = append(opts, cloudflare.BaseURL(strings.TrimRight(c.opts.BaseURL, "/")))
	}
	if c.opts.RateLimit > 0 {
		opts = append(opts, cloudflare.UsingRateLimit(c.opts.RateLimit))
	}
	opts = append(opts, cloudflare.HTTPClient(wrapHTTPClient(c.opts.HTTPClient)))

	var (
		api *cloudflare.API
		err error
	)
	if zone.Email != "" {
		api, err = cloudflare.New(zone.APIKey, zone.Email, opts...)
	} else {
		api, err = cloudflare.NewWithAPIToken(zone.APIKey, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudflare client: %w", err)
	}

	c.apis[key] = api
	return api, nil
}

// RecordExists implements Client.
func (c *Cloudflare) RecordExists(ctx context.Context, zone zones.Zone, fqdn string) (bool, error) {
	api, err := c.api(zone)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExistenceUnknown, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	ctx, rep := withReply(ctx)

	records, _, err := api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(zone.ZoneID), cloudflare.ListDNSRecordsParams{
		Name:       fqdn,
		ResultInfo: cloudflare.ResultInfo{Page: 1, PerPage: 5},
	})
	if err != nil {
		c.logger.Warn("existence check failed", "zone", zone.ParentDomain, "name", fqdn, "err", err)
		return false, fmt.Errorf("%w: %s", ErrExistenceUnknown, replyMessage(rep, err))
	}
	if msg, rejected := rep.rejection(); rejected {
		c.logger.Warn("existence check rejected", "zone", zone.ParentDomain, "name", fqdn, "err", msg)
		return false, fmt.Errorf("%w: %s", ErrExistenceUnknown, msg)
	}
	return len(records) > 0, nil
}

// CreateRecord implements Client.
func (c *Cloudflare) CreateRecord(ctx context.Context, zone zones.Zone, rec Record) Result {
	api, err := c.api(zone)
	if err != nil {
		return Result{ErrorMessage: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	ctx, rep := withReply(ctx)

	proxied := rec.Proxied
	created, err := api.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(zone.ZoneID), cloudflare.CreateDNSRecordParams{
		Type:    rec.Type,
		Name:    rec.Name,
		Content: rec.Content,
		Proxied: &proxied,
		TTL:     c.opts.TTL,
	})
	if err != nil {
		msg := replyMessage(rep, err)
		c.logger.Warn("record create rejected", "zone", zone.ParentDomain, "name", rec.Name, "type", rec.Type, "err", msg)
		return Result{ErrorMessage: msg}
	}
	if msg, rejected := rep.rejection(); rejected {
		if msg == "" {
			msg = "provider rejected the request"
		}
		c.logger.Warn("record create rejected", "zone", zone.ParentDomain, "name", rec.Name, "type", rec.Type, "err", msg)
		return Result{ErrorMessage: msg}
	}
	if created.ID == "" {
		return Result{ErrorMessage: "provider returned no record id"}
	}

	c.logger.Info("record created", "zone", zone.ParentDomain, "name", rec.Name, "type", rec.Type, "id", created.ID)
	return Result{Success: true, RecordID: created.ID}
}

// replyMessage prefers the messages in the reply body over the SDK error,
// which loses them on 429 replies.
func replyMessage(rep *reply, err error) string {
	if msg, rejected := rep.rejection(); rejected && msg != "" {
		return msg
	}
	return errorMessage(err)
}

// errorMessage extracts the provider's own messages from an SDK error.
func errorMessage(err error) string {
	var withMessages interface{ ErrorMessages() []string }
	if errors.As(err, &withMessages) {
		if msgs := withMessages.ErrorMessages(); len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	var cfErr *cloudflare.Error
	if errors.As(err, &cfErr) && len(cfErr.ErrorMessages) > 0 {
		return strings.Join(cfErr.ErrorMessages, "; ")
	}
	return err.Error()
}
