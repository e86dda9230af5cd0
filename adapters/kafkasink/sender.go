package kafkasink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"dipwatch/internal/notify"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertCommand is the envelope consumers receive; Target keys the message
// so one destination keeps its order.
type AlertCommand struct {
	Target  string    `json:"target"`
	Subject string    `json:"subject"`
	Content string    `json:"content"`
	Format  string    `json:"format"`
	SentAt  time.Time `json:"sent_at"`
}

type Options struct {
	Brokers []string
	Topic   string
	Target  string
	Subject string
}

type Sender struct {
	w       messageWriter
	target  string
	subject string
	now     func() time.Time
}

func New(opts Options) (*Sender, error) {
	if len(opts.Brokers) == 0 || opts.Topic == "" {
		return nil, fmt.Errorf("%w: kafka brokers and topic are required", notify.ErrNotConfigured)
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(opts.Brokers...),
		Topic:        opts.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return newWithWriter(w, opts), nil
}

func newWithWriter(w messageWriter, opts Options) *Sender {
	if opts.Subject == "" {
		opts.Subject = "dip alert"
	}
	return &Sender{w: w, target: opts.Target, subject: opts.Subject, now: time.Now}
}

func (s *Sender) Name() string { return "kafka" }

func (s *Sender) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(AlertCommand{
		Target:  s.target,
		Subject: s.subject,
		Content: text,
		Format:  "html",
		SentAt:  s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal alert command: %w", err)
	}
	if err := s.w.WriteMessages(ctx, kafka.Message{Key: []byte(s.target), Value: payload}); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (s *Sender) Close() error { return s.w.Close() }
