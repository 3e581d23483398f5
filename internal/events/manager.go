package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Publisher is the engine-facing side of the event system.
type Publisher interface {
	Publish(data EventData)
}

// Event is a journaled audit record with its assigned identity.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// Manager assigns identities to audit records, appends them to the journal
// and fans them out to live subscribers. Journal and hub are both optional;
// a Manager with neither still logs every record.
type Manager struct {
	journal *Journal
	hub     *Hub
	log     zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(journal *Journal, hub *Hub, log zerolog.Logger) *Manager {
	return &Manager{
		journal: journal,
		hub:     hub,
		log:     log.With().Str("component", "events").Logger(),
	}
}

// Publish records a single audit event. Journal failures are logged rather
// than propagated: the ledger mutation the event describes has already
// committed, and the audit trail must not be able to veto it.
func (m *Manager) Publish(data EventData) {
	evt := Event{
		ID:        uuid.New().String(),
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	m.log.Info().
		Str("event_id", evt.ID).
		Str("event_type", string(evt.Type)).
		Msg("Event published")

	if m.journal != nil {
		if err := m.journal.Append(evt); err != nil {
			m.log.Error().Err(err).Str("event_id", evt.ID).Msg("Failed to journal event")
		}
	}

	if m.hub != nil {
		m.hub.Broadcast(evt)
	}
}

// NopPublisher discards all events. Used in tests and wherever no journal is wired.
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(EventData) {}
