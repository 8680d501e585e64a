package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jroosing/subzone/internal/logging"
)

// TelegramOptions configures the Telegram bot channel.
type TelegramOptions struct {
	Token   string
	ChatID  string
	APIURL  string // defaults to https://api.telegram.org
	Timeout time.Duration
}

// Telegram sends messages through the Telegram Bot API.
type Telegram struct {
	opts       TelegramOptions
	httpClient *http.Client
	logger     *slog.Logger
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewTelegram creates a Telegram dispatcher.
func NewTelegram(opts TelegramOptions, logger *slog.Logger) *Telegram {
	if opts.APIURL == "" {
		opts.APIURL = "https://api.telegram.org"
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Telegram{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     logging.Component(logger, "notify"),
	}
}

// New returns a Telegram dispatcher when both token and chat id are set,
// otherwise Nop.
func New(opts TelegramOptions, logger *slog.Logger) Dispatcher {
	if opts.Token == "" || opts.ChatID == "" {
		return Nop{}
	}
	return NewTelegram(opts, logger)
}

// Notify implements Dispatcher.
func (t *Telegram) Notify(ctx context.Context, text string) Result {
	if t.opts.Token == "" || t.opts.ChatID == "" {
		return Nop{}.Notify(ctx, text)
	}

	res := t.send(ctx, text)
	if !res.Delivered {
		t.logger.Warn("notification not delivered", "detail", res.Detail)
	}
	return res
}

func (t *Telegram) send(ctx context.Context, text string) Result {
	ctx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	body, err := json.Marshal(sendMessageRequest{ChatID: t.opts.ChatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return Result{Detail: fmt.Sprintf("encode message: %v", err)}
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.opts.APIURL, t.opts.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// The error string carries the URL, which contains the bot token.
		return Result{Detail: strings.ReplaceAll(err.Error(), t.opts.Token, "<token>")}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Result{Detail: fmt.Sprintf("read response: %v", err)}
	}

	var parsed apiResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := fmt.Sprintf("telegram returned %d", resp.StatusCode)
		if parsed.Description != "" {
			detail += ": " + parsed.Description
		}
		return Result{Detail: detail}
	}
	if !parsed.OK {
		if parsed.Description != "" {
			return Result{Detail: parsed.Description}
		}
		return Result{Detail: "telegram reported failure"}
	}
	return Result{Delivered: true}
}
