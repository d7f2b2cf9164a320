package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/orbio/invoice-gateway/internal/model"
	"github.com/orbio/invoice-gateway/internal/queue"
	"github.com/orbio/invoice-gateway/pkg/logger"
	"github.com/orbio/invoice-gateway/pkg/prom"
	"github.com/valyala/fasthttp"
)

type CompanyRepository interface {
	GetCompany(ctx context.Context, companyID int64) (*model.Company, error)
}

// WebhookDispatcher turns order.paid events into a webhook call on the
// company's configured URL. Companies without a webhook URL get a log line
// for the owner and nothing else.
type WebhookDispatcher struct {
	companyRepo CompanyRepository
	dedupe      *Dedupe
	client      *fasthttp.Client
	timeout     time.Duration
}

func NewWebhookDispatcher(companyRepo CompanyRepository, dedupe *Dedupe) *WebhookDispatcher {
	return &WebhookDispatcher{
		companyRepo: companyRepo,
		dedupe:      dedupe,
		client: &fasthttp.Client{
			MaxConnsPerHost:     64,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: time.Minute,
		},
		timeout: 10 * time.Second,
	}
}

func (d *WebhookDispatcher) GetType() string {
	return "order.paid"
}

// Dispatch handles one consumed event. A nil return acks the message; an
// error leaves it pending for redelivery.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, queueMessage *queue.Message) error {
	var event model.OrderPaidEvent
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("failed to unmarshal order.paid event", "message_id", queueMessage.ID, "error", err)
		// a malformed payload will never succeed on retry, ack it
		return nil
	}

	if err := d.dedupe.Acquire(event.EventID); err != nil {
		if errors.Is(err, ErrAlreadyNotified) {
			logger.Info("event already notified, skipping", "event_id", event.EventID)
			return nil
		}
		// another consumer holds the lock, retry later
		return err
	}

	company, err := d.companyRepo.GetCompany(ctx, event.CompanyID)
	if err != nil {
		_ = d.dedupe.Release(event.EventID)
		logger.Error("failed to load company for notification",
			"event_id", event.EventID, "company_id", event.CompanyID, "error", err)
		return err
	}

	start := time.Now()
	if company.WebhookURL != "" {
		if err := d.deliver(company.WebhookURL, &event); err != nil {
			_ = d.dedupe.Release(event.EventID)
			prom.IncCounterVec(prom.SystemNotifications, prom.MetricNotificationsFailed, event.Channel)
			return err
		}
	}

	logger.Info("order paid",
		"event_id", event.EventID,
		"owner_email", company.OwnerEmail,
		"order_id", event.OrderID,
		"customer_id", event.CustomerID,
		"amount", event.Amount,
		"currency", event.Currency,
		"channel", event.Channel)

	if err := d.dedupe.MarkDone(event.EventID); err != nil {
		logger.Warn("failed to mark event as notified", "event_id", event.EventID, "error", err)
	}

	prom.IncCounterVec(prom.SystemNotifications, prom.MetricNotificationsDispatched, event.Channel)
	prom.AddNotificationDispatchDuration(time.Since(start).Seconds(), event.Channel)
	return nil
}

func (d *WebhookDispatcher) deliver(url string, event *model.OrderPaidEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-Event-ID", event.EventID)
	req.SetBody(body)

	if err := d.client.DoTimeout(req, resp, d.timeout); err != nil {
		return fmt.Errorf("webhook delivery to %s: %w", url, err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook delivery to %s: status %d", url, resp.StatusCode())
	}
	return nil
}
