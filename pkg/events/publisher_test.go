package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/richxcame/cyberguard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "cyberguard.analysis.completed", Subject("cyberguard", TypeAnalysisCompleted))
	assert.Equal(t, "analysis.completed", Subject("", TypeAnalysisCompleted))
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(TypeAnalysisCompleted, "cyberguard-api", map[string]interface{}{"fraudScore": 85})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, TypeAnalysisCompleted, event.Type)
	assert.False(t, event.Time.IsZero())

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"analysis.completed"`)
	assert.Contains(t, string(raw), `"fraudScore":85`)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}

	assert.NoError(t, p.Publish(context.Background(), NewEvent(TypeScamReported, "test", nil)))
	assert.True(t, p.IsConnected())
	p.Close()
}

func TestNewNATSPublisher_Unreachable(t *testing.T) {
	_, err := NewNATSPublisher(config.EventsConfig{URL: "nats://127.0.0.1:1"}, "test")
	assert.Error(t, err)
}
