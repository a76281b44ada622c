package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

type fakeStore struct {
	mu         sync.Mutex
	webhooks   []models.Webhook
	gotKey     *string
	deliveries []models.WebhookDelivery
}

func (f *fakeStore) GetActiveWebhooksForEvent(_ context.Context, _ string, apiKeyID *string) ([]models.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotKey = apiKeyID
	return f.webhooks, nil
}

func (f *fakeStore) CreateWebhookDelivery(_ context.Context, d *models.WebhookDelivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = "del-1"
	return nil
}

func (f *fakeStore) UpdateWebhookDelivery(_ context.Context, d *models.WebhookDelivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, *d)
	return nil
}

func (f *fakeStore) last() models.WebhookDelivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deliveries[len(f.deliveries)-1]
}

func TestSignPayload(t *testing.T) {
	sig := SignPayload([]byte(`{"event":"x"}`), "secret")
	assert.Len(t, sig, 64)
	assert.True(t, VerifySignature([]byte(`{"event":"x"}`), "secret", sig))
	assert.False(t, VerifySignature([]byte(`{"event":"y"}`), "secret", sig))
	assert.False(t, VerifySignature([]byte(`{"event":"x"}`), "other", sig))
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestNotifyEvent_SignedDelivery(t *testing.T) {
	var body []byte
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		sig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := &fakeStore{webhooks: []models.Webhook{{ID: "wh-1", URL: srv.URL, Secret: "s3cret"}}}
	svc := New(store)

	key := "key-1"
	svc.NotifyEvent(context.Background(), models.EventTranslationCompleted, &key, map[string]string{"id": "tr-1"})
	svc.Shutdown()

	assert.Equal(t, &key, store.gotKey)
	assert.True(t, VerifySignature(body, "s3cret", sig))

	var payload struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, models.EventTranslationCompleted, payload.Event)
	assert.Equal(t, "tr-1", payload.Data["id"])

	d := store.last()
	assert.Equal(t, "success", d.Status)
	assert.Equal(t, 1, d.Attempts)
	assert.Equal(t, http.StatusNoContent, d.ResponseCode)
}

func TestNotifyEvent_RetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := &fakeStore{webhooks: []models.Webhook{{ID: "wh-1", URL: srv.URL}}}
	svc := New(store)
	svc.retryDelays = []time.Duration{0, time.Millisecond, time.Millisecond}

	svc.NotifyEvent(context.Background(), models.EventTranslationFailed, nil, nil)
	svc.wg.Wait()

	assert.Equal(t, int32(3), hits.Load())
	d := store.last()
	assert.Equal(t, "failed", d.Status)
	assert.Equal(t, 3, d.Attempts)
	assert.Equal(t, "HTTP 500", d.LastError)
}

func TestNotifyEvent_RecoversOnRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &fakeStore{webhooks: []models.Webhook{{ID: "wh-1", URL: srv.URL}}}
	svc := New(store)
	svc.retryDelays = []time.Duration{0, time.Millisecond}

	svc.NotifyEvent(context.Background(), models.EventDocumentCreated, nil, nil)
	svc.wg.Wait()

	d := store.last()
	assert.Equal(t, "success", d.Status)
	assert.Equal(t, 2, d.Attempts)
	assert.NotNil(t, d.DeliveredAt)
}

func TestNotifyEvent_NoWebhooks(t *testing.T) {
	store := &fakeStore{}
	svc := New(store)
	svc.NotifyEvent(context.Background(), models.EventDocumentCreated, nil, nil)
	svc.Shutdown()
	assert.Empty(t, store.deliveries)
}

func TestNotifyEvent_AfterShutdown(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &fakeStore{webhooks: []models.Webhook{{ID: "wh-1", URL: srv.URL}}}
	svc := New(store)
	svc.Shutdown()
	svc.Shutdown() // idempotent

	svc.NotifyEvent(context.Background(), models.EventTranslationFailed, nil, nil)
	svc.wg.Wait()
	time.Sleep(20 * time.Millisecond)

	assert.Zero(t, hits.Load())
	assert.Empty(t, store.deliveries)
}

func TestShutdown_WaitsForInFlightDelivery(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &fakeStore{webhooks: []models.Webhook{{ID: "wh-1", URL: srv.URL}}}
	svc := New(store)
	svc.NotifyEvent(context.Background(), models.EventTranslationCompleted, nil, nil)

	require.Eventually(t, func() bool { return hits.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		svc.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Shutdown returned while a delivery was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}
	assert.Equal(t, "success", store.last().Status)
}
