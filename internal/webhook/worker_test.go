package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/fire_risk_grid/internal/config"
	"github.com/shenikar/fire_risk_grid/internal/models"
)

func newTestWorker(url string) *WebhookWorker {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		WebhookURL:        url,
		WebhookSecret:     "s3cret",
		WebhookTimeout:    time.Second,
		WebhookMaxRetries: 3,
		WebhookBaseDelay:  time.Millisecond,
	}
	return NewWebhookWorker(nil, logger, cfg)
}

func testEvent(t *testing.T) (SnapshotEvent, string) {
	t.Helper()
	snapshot := &models.Snapshot{
		ID:          uuid.New(),
		GeneratedAt: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
		Estimates: []models.RiskEstimate{
			{Latitude: 36, Longitude: -119, Probability: 0.1},
			{Latitude: 37, Longitude: -120, Probability: 0.5},
		},
	}
	event := NewSnapshotEvent(snapshot, 0.21)
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return event, string(payload)
}

func TestNewSnapshotEvent(t *testing.T) {
	event, _ := testEvent(t)

	assert.Equal(t, 2, event.PointCount)
	require.Len(t, event.HighRisk, 1)
	assert.Equal(t, 0.5, event.HighRisk[0].Probability)
}

func TestProcessWebhookEvent_SignedDelivery(t *testing.T) {
	event, payload := testEvent(t)

	var gotSignature string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	worker := newTestWorker(srv.URL)
	ok := worker.processWebhookEvent(context.Background(), event, payload)

	require.True(t, ok)
	assert.Equal(t, payload, string(gotBody))
	assert.Equal(t, generateHMACSHA256(payload, "s3cret"), gotSignature)
}

func TestProcessWebhookEvent_RetriesThenSucceeds(t *testing.T) {
	event, payload := testEvent(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	worker := newTestWorker(srv.URL)
	ok := worker.processWebhookEvent(context.Background(), event, payload)

	assert.True(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProcessWebhookEvent_GivesUp(t *testing.T) {
	event, payload := testEvent(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	worker := newTestWorker(srv.URL)
	ok := worker.processWebhookEvent(context.Background(), event, payload)

	assert.False(t, ok)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProcessWebhookEvent_NoURL(t *testing.T) {
	event, payload := testEvent(t)

	worker := newTestWorker("")
	assert.False(t, worker.processWebhookEvent(context.Background(), event, payload))
}
