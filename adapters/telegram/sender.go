package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"dipwatch/internal/notify"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	DefaultTimeout = 30 * time.Second
)

// ErrRejected is returned when the Bot API answers ok=false.
var ErrRejected = errors.New("telegram: message rejected")

type Options struct {
	Token   string
	ChatID  string
	BaseURL string
	Timeout time.Duration
}

type Sender struct {
	token  string
	chatID string
	http   *resty.Client
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func New(opts Options) (*Sender, error) {
	if opts.Token == "" || opts.ChatID == "" {
		return nil, fmt.Errorf("%w: telegram token and chat id are required", notify.ErrNotConfigured)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Sender{
		token:  opts.Token,
		chatID: opts.ChatID,
		http: resty.New().
			SetBaseURL(opts.BaseURL).
			SetTimeout(opts.Timeout),
	}, nil
}

func (s *Sender) Name() string { return "telegram" }

// Send posts text as HTML to the configured chat. No retry.
func (s *Sender) Send(ctx context.Context, text string) error {
	var out apiResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{
			ChatID:                s.chatID,
			Text:                  text,
			ParseMode:             "HTML",
			DisableWebPagePreview: true,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/bot" + s.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", redacted{err: err, secret: s.token})
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("telegram sendMessage: status %d: %s", resp.StatusCode(), out.Description)
	}
	if !out.OK {
		return fmt.Errorf("%w: %s", ErrRejected, out.Description)
	}
	return nil
}

// redacted hides the bot token that transport errors echo back in the URL.
type redacted struct {
	err    error
	secret string
}

func (r redacted) Error() string { return strings.ReplaceAll(r.err.Error(), r.secret, "***") }

func (r redacted) Unwrap() error { return r.err }
