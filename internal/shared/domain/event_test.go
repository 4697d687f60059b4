package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/reserva/internal/shared/domain"
)

type noteAdded struct {
	domain.BaseEvent
	Text string `json:"text"`
}

type notebook struct {
	domain.EventRecorder
}

func (n *notebook) add(text string) {
	n.Record(&noteAdded{BaseEvent: domain.NewBaseEvent("1", "Notebook", "notebook.note_added"), Text: text})
}

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()
	event := domain.NewBaseEvent("42", "Notebook", "notebook.created")

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "42", event.AggregateID())
	assert.Equal(t, "Notebook", event.AggregateType())
	assert.Equal(t, "notebook.created", event.RoutingKey())
	assert.WithinDuration(t, before, event.OccurredAt(), time.Second)
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
}

func TestBaseEvent(t *testing.T) {
	t.Run("carries metadata", func(t *testing.T) {
		event := domain.NewBaseEvent("42", "Notebook", "notebook.created")
		metadata := domain.EventMetadata{CorrelationID: uuid.New(), CausationID: uuid.New(), Actor: "1001"}

		event.SetMetadata(metadata)

		assert.Equal(t, metadata, event.Metadata())
	})

	t.Run("marshals only the payload", func(t *testing.T) {
		data, err := json.Marshal(noteAdded{BaseEvent: domain.NewBaseEvent("42", "Notebook", "notebook.note_added"), Text: "hi"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"text":"hi"}`, string(data))
	})
}

func TestEventRecorder(t *testing.T) {
	var n notebook
	assert.Empty(t, n.DomainEvents())

	n.add("first")
	n.add("second")
	require.Len(t, n.DomainEvents(), 2)
	assert.Equal(t, "second", n.DomainEvents()[1].(*noteAdded).Text)

	var source domain.EventSource = &n
	source.ClearDomainEvents()
	assert.Empty(t, n.DomainEvents())
}
