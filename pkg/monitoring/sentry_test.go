package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/cyberguard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_NoDSN(t *testing.T) {
	enabled, err := Init(config.SentryConfig{}, "test", "1.0.0")

	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestCaptureError_Tags(t *testing.T) {
	var (
		mu       sync.Mutex
		captured []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@example.com/1",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			mu.Lock()
			captured = append(captured, event)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)

	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	CaptureError(ctx, errors.New("analysis failed"), map[string]string{"analysis_id": "a-1"})
	CaptureError(ctx, nil, nil)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, captured, 1)
	assert.Equal(t, "a-1", captured[0].Tags["analysis_id"])
}
