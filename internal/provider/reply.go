package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cloudflare/cloudflare-go"
)

// reply holds the raw status and body of the last API response of one call.
// The SDK drops the body of 429 replies and the envelope of 2xx replies, and
// both may carry the provider's own error messages.
type reply struct {
	status int
	body   []byte
}

type replyKey struct{}

func withReply(ctx context.Context) (context.Context, *reply) {
	r := &reply{}
	return context.WithValue(ctx, replyKey{}, r), r
}

// rejection reports whether the reply envelope says success:false and
// returns its errors[].message values joined.
func (r *reply) rejection() (string, bool) {
	if len(r.body) == 0 {
		return "", false
	}
	var env cloudflare.Response
	if err := json.Unmarshal(r.body, &env); err != nil || env.Success {
		return "", false
	}
	msgs := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		}
	}
	return strings.Join(msgs, "; "), true
}

// replyTransport copies response bodies into the reply attached to the
// request context, if any.
type replyTransport struct {
	base http.RoundTripper
}

func (t replyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	r, ok := req.Context().Value(replyKey{}).(*reply)
	if err != nil || !ok {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	r.status = resp.StatusCode
	r.body = body
	return resp, nil
}

// wrapHTTPClient returns a copy of client whose transport records replies.
func wrapHTTPClient(client *http.Client) *http.Client {
	var wrapped http.Client
	if client != nil {
		wrapped = *client
	}
	base := wrapped.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped.Transport = replyTransport{base: base}
	return &wrapped
}
