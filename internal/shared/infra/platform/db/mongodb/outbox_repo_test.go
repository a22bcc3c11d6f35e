package mongodb

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFromOutboxDocument_NormalizesPayload(t *testing.T) {
	id := uuid.New()
	doc := outboxDocument{
		ID:        id.String(),
		EventType: "task.created",
		Payload: bson.D{
			{Key: "title", Value: "Deploy"},
			{Key: "tags", Value: bson.A{"a", bson.D{{Key: "k", Value: "v"}}}},
		},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	evt, err := fromOutboxDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, id, evt.ID)
	raw, err := json.Marshal(evt.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Deploy","tags":["a",{"k":"v"}]}`, string(raw))
}

func TestFromOutboxDocument_InvalidID(t *testing.T) {
	_, err := fromOutboxDocument(outboxDocument{ID: "nope"})
	assert.Error(t, err)
}

func TestJSONShape_UsesJSONNames(t *testing.T) {
	type payload struct {
		ID    uuid.UUID `json:"id"`
		Title string    `json:"title"`
	}
	id := uuid.New()

	out, err := jsonShape(payload{ID: id, Title: "Deploy"})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"id": id.String(), "title": "Deploy"}, out)
}
