// Package webhook delivers signed event notifications, e.g. when a
// translation job finishes.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// DefaultRetryDelays is the wait before each attempt: immediately, then
// after 1s, 5s and 30s.
var DefaultRetryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Store is the persistence the webhook service needs. *database.DB satisfies it.
type Store interface {
	GetActiveWebhooksForEvent(ctx context.Context, event string, apiKeyID *string) ([]models.Webhook, error)
	CreateWebhookDelivery(ctx context.Context, d *models.WebhookDelivery) error
	UpdateWebhookDelivery(ctx context.Context, d *models.WebhookDelivery) error
}

// Service handles webhook notification delivery.
type Service struct {
	store       Store
	client      *http.Client
	retryDelays []time.Duration
	shutdownCh  chan struct{} // Signals pending deliveries to stop
	wg          sync.WaitGroup

	mu     sync.Mutex // Guards closed so wg.Add never races wg.Wait
	closed bool
}

// New creates a new webhook service.
func New(store Store) *Service {
	return &Service{
		store: store,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryDelays: DefaultRetryDelays,
		shutdownCh:  make(chan struct{}),
	}
}

// Shutdown signals all pending webhook deliveries to stop and waits for
// in-flight attempts to record their outcome. Events sent afterwards are
// dropped.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.shutdownCh)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// GenerateSecret creates a random HMAC secret for a webhook.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SignPayload creates an HMAC-SHA256 signature for a payload.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature produced by SignPayload in constant time.
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// NotifyEvent sends event to every active webhook subscribed to it. When
// apiKeyID is set only that key's webhooks are notified. Delivery happens
// asynchronously with retries.
func (s *Service) NotifyEvent(ctx context.Context, event string, apiKeyID *string, data interface{}) {
	select {
	case <-s.shutdownCh:
		log.Printf("⚠️  Webhook service stopped; dropping event %s", event)
		return
	default:
	}

	webhooks, err := s.store.GetActiveWebhooksForEvent(ctx, event, apiKeyID)
	if err != nil {
		log.Printf("⚠️  Failed to get webhooks for event %s: %v", event, err)
		return
	}

	if len(webhooks) == 0 {
		return
	}

	payload := models.WebhookPayload{
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Failed to marshal webhook payload: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Printf("⚠️  Webhook service stopped; dropping event %s", event)
		return
	}
	for _, wh := range webhooks {
		s.wg.Add(1)
		go func(wh models.Webhook) {
			defer s.wg.Done()
			s.deliverWithRetry(wh, event, payloadJSON)
		}(wh)
	}
}

// deliverWithRetry attempts to deliver a webhook, waiting retryDelays[i]
// before attempt i. Delivery respects shutdown signals.
func (s *Service) deliverWithRetry(wh models.Webhook, event string, payloadJSON []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	delivery := &models.WebhookDelivery{
		WebhookID: wh.ID,
		Event:     event,
		Payload:   string(payloadJSON),
		Status:    "pending",
	}

	if err := s.store.CreateWebhookDelivery(ctx, delivery); err != nil {
		log.Printf("⚠️  Failed to create webhook delivery record: %v", err)
		return
	}

	for attempt := 0; attempt < len(s.retryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-s.shutdownCh:
				log.Printf("⚠️  Webhook delivery aborted due to shutdown: %s → %s", event, wh.URL)
				s.finish(ctx, delivery, "shutdown during delivery")
				return
			case <-ctx.Done():
				log.Printf("⚠️  Webhook delivery timed out: %s → %s", event, wh.URL)
				s.finish(ctx, delivery, "delivery timeout")
				return
			case <-time.After(s.retryDelays[attempt]):
			}
		}

		delivery.Attempts = attempt + 1
		statusCode, err := s.deliver(ctx, wh, payloadJSON)
		delivery.ResponseCode = statusCode

		if err == nil && statusCode >= 200 && statusCode < 300 {
			delivery.Status = "success"
			now := time.Now()
			delivery.DeliveredAt = &now
			delivery.LastError = ""
			if updateErr := s.store.UpdateWebhookDelivery(ctx, delivery); updateErr != nil {
				log.Printf("⚠️  Failed to update delivery record: %v", updateErr)
			}
			log.Printf("✅ Webhook delivered: %s → %s (attempt %d)", event, wh.URL, attempt+1)
			return
		}

		if err != nil {
			delivery.LastError = err.Error()
		} else {
			delivery.LastError = fmt.Sprintf("HTTP %d", statusCode)
		}
		if updateErr := s.store.UpdateWebhookDelivery(ctx, delivery); updateErr != nil {
			log.Printf("⚠️  Failed to update delivery record: %v", updateErr)
		}

		log.Printf("⚠️  Webhook delivery failed (attempt %d/%d): %s → %s: %s",
			attempt+1, len(s.retryDelays), event, wh.URL, delivery.LastError)
	}

	s.finish(ctx, delivery, delivery.LastError)
	log.Printf("❌ Webhook delivery failed permanently: %s → %s", event, wh.URL)
}

func (s *Service) finish(ctx context.Context, d *models.WebhookDelivery, reason string) {
	d.Status = "failed"
	d.LastError = reason
	if err := s.store.UpdateWebhookDelivery(context.WithoutCancel(ctx), d); err != nil {
		log.Printf("⚠️  Failed to update delivery record: %v", err)
	}
}

// deliver sends a single webhook HTTP request.
func (s *Service) deliver(ctx context.Context, wh models.Webhook, payloadJSON []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", wh.URL, bytes.NewReader(payloadJSON))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PDFToolsAPI-Webhook/1.0")

	if wh.Secret != "" {
		req.Header.Set(SignatureHeader, SignPayload(payloadJSON, wh.Secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}
