package nats

import (
	"encoding/json"
	"testing"
	"time"

	"chromir-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.MODEL_CREATED", Subject(events.TypeModelCreated))
}

func TestDecode(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	raw, err := json.Marshal(events.NewEnvelope(events.BaseEvent{
		Type:       events.TypeTrainingOrphaned,
		Data:       map[string]interface{}{"fal_model_id": "req-9"},
		OccurredAt: at,
	}))
	require.NoError(t, err)

	env, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, events.TypeTrainingOrphaned, env.Type)
	assert.Equal(t, "req-9", env.Data["fal_model_id"])
	assert.True(t, at.Equal(env.OccurredAt))

	_, err = Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)
}
