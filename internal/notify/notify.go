// Package notify delivers best-effort operator notifications.
//
// Delivery never fails the caller: every outcome, including a disabled
// channel, is reported through Result.
package notify

import (
	"context"
	"fmt"
)

// Result describes a delivery attempt.
type Result struct {
	Delivered bool
	Detail    string
}

// Dispatcher sends a text message to the operator channel.
type Dispatcher interface {
	Notify(ctx context.Context, text string) Result
}

// Nop is a Dispatcher for when no channel is configured.
type Nop struct{}

// Notify implements Dispatcher.
func (Nop) Notify(context.Context, string) Result {
	return Result{Detail: "notifications disabled"}
}

// CreatedMessage renders the record-created notification.
func CreatedMessage(fqdn, content, recordType string, proxied bool) string {
	return fmt.Sprintf("✅ *Subdomain Created*\n`%s` → `%s`\nType: `%s`\nProxy: `%t`", fqdn, content, recordType, proxied)
}
