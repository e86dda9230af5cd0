// Package notify defines the outbound alert sink.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotConfigured is returned when a sink lacks its credentials or
// destination. It is raised at construction, before any send.
var ErrNotConfigured = errors.New("notify: sink not configured")

// Sender delivers one rendered alert.
type Sender interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// LogSender writes the alert to the log instead of delivering it.
type LogSender struct {
	Logger *slog.Logger
}

func NewLogSender(l *slog.Logger) *LogSender {
	if l == nil {
		l = slog.Default()
	}
	return &LogSender{Logger: l}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, text string) error {
	s.Logger.InfoContext(ctx, "alert (dry run)", "text", text)
	return nil
}
