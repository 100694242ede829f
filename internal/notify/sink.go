// Package notify emits delivery notifications for downstream consumers:
// inventory decrement, live dashboards. Emission is best-effort by design;
// the committed ledger write is the source of truth and a lost notification
// never rolls it back.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/stvaldivia/delivery-engine/internal/domain"
	"github.com/stvaldivia/delivery-engine/internal/metrics"
)

// Notice is the payload emitted after a successful ledger append.
type Notice struct {
	Ticket        string    `json:"ticket"`
	Item          string    `json:"item"`
	Quantity      int       `json:"quantity"`
	Operator      string    `json:"operator"`
	Location      string    `json:"location"`
	AdminOverride bool      `json:"admin_override"`
	Timestamp     time.Time `json:"timestamp"`
}

func NoticeFromEvent(ev domain.DeliveryEvent) Notice {
	return Notice{
		Ticket:        ev.TicketID,
		Item:          ev.ItemName,
		Quantity:      ev.Quantity,
		Operator:      ev.Operator,
		Location:      ev.Location,
		AdminOverride: ev.AdminOverride,
		Timestamp:     ev.DeliveredAt,
	}
}

// Sink consumes delivery events. Implementations must swallow their own
// failures.
type Sink interface {
	DeliveryRecorded(ctx context.Context, ev domain.DeliveryEvent)
}

// LogSink writes notices to the application log. The default when no
// webhook is configured.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) DeliveryRecorded(_ context.Context, ev domain.DeliveryEvent) {
	n := NoticeFromEvent(ev)
	s.logger.Printf("delivery recorded ticket=%s item=%q qty=%d operator=%s location=%s override=%v",
		n.Ticket, n.Item, n.Quantity, n.Operator, n.Location, n.AdminOverride)
}

const webhookTimeout = 3 * time.Second

// WebhookSink POSTs notices as JSON to a downstream automation endpoint.
// Failures are logged and counted, never returned.
type WebhookSink struct {
	url    string
	http   *http.Client
	logger *log.Logger
}

func NewWebhookSink(url string, logger *log.Logger) *WebhookSink {
	if logger == nil {
		logger = log.Default()
	}
	return &WebhookSink{
		url:    url,
		http:   &http.Client{Timeout: webhookTimeout},
		logger: logger,
	}
}

func (s *WebhookSink) DeliveryRecorded(ctx context.Context, ev domain.DeliveryEvent) {
	if err := s.post(ctx, NoticeFromEvent(ev)); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		s.logger.Printf("WARN: delivery notification failed: %v", err)
	}
}

func (s *WebhookSink) post(ctx context.Context, n Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
