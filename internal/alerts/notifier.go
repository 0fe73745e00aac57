package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/soltixdb/insights/internal/analytics/anomaly"
	"github.com/soltixdb/insights/internal/config"
	"github.com/soltixdb/insights/internal/logging"
)

// Notifier publishes business anomalies as alerts on "<subject>.<tenant>"
type Notifier struct {
	queue   Queue
	codec   *Codec
	subject string
	timeout time.Duration
	logger  *logging.Logger
	now     func() time.Time
}

// NewNotifier wraps an existing queue
func NewNotifier(queue Queue, cfg config.AlertsConfig, logger *logging.Logger) (*Notifier, error) {
	codec, err := NewCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "insights.alerts"
	}
	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		queue:   queue,
		codec:   codec,
		subject: subject,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// NewNotifierFromConfig creates the configured backend and a notifier on top
func NewNotifierFromConfig(cfg config.AlertsConfig, logger *logging.Logger) (*Notifier, error) {
	q, err := NewQueue(cfg)
	if err != nil {
		return nil, fmt.Errorf("create alert queue: %w", err)
	}
	n, err := NewNotifier(q, cfg, logger)
	if err != nil {
		_ = q.Close()
		return nil, err
	}
	return n, nil
}

// Subject returns the subject alerts for tenantID are published on
func (n *Notifier) Subject(tenantID string) string {
	return Subject(n.subject, tenantID)
}

// Notify publishes one alert per anomaly and returns how many were accepted.
// Alerts that fail to encode are logged and skipped.
func (n *Notifier) Notify(ctx context.Context, tenantID string, found []anomaly.BusinessAnomaly) (int, error) {
	if len(found) == 0 {
		return 0, nil
	}

	subject := n.Subject(tenantID)
	now := n.now().UTC()
	messages := make([]BatchMessage, 0, len(found))
	for _, a := range found {
		alert := FromBusinessAnomaly(tenantID, a, now)
		data, err := n.codec.Encode(alert)
		if err != nil {
			n.logger.Warn("Failed to encode alert", "metric", a.Metric, "error", err)
			continue
		}
		messages = append(messages, BatchMessage{Subject: subject, Data: data})
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	sent, err := n.queue.PublishBatch(ctx, messages)
	if err != nil {
		return sent, fmt.Errorf("publish alerts to %s: %w", subject, err)
	}
	if sent < len(messages) {
		n.logger.Warn("Some alerts were not published",
			"subject", subject,
			"sent", sent,
			"total", len(messages))
	}
	return sent, nil
}

// Watch decodes alerts arriving on subject and passes them to fn.
// Undecodable messages are logged and acknowledged.
func (n *Notifier) Watch(subject string, fn func(Alert) error) error {
	return n.queue.Subscribe(subject, func(data []byte) error {
		a, err := n.codec.Decode(data)
		if err != nil {
			n.logger.Warn("Dropping undecodable alert", "subject", subject, "error", err)
			return nil
		}
		return fn(a)
	})
}

// Close closes the underlying queue
func (n *Notifier) Close() error {
	return n.queue.Close()
}
