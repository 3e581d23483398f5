package events

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/quantfold/vault/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "journal.db"),
		Profile: database.ProfileLedger,
		Name:    "journal",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	j, err := NewJournal(db.Conn(), zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, err)
	return j
}

func TestJournalAppendAndRecent(t *testing.T) {
	j := newTestJournal(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, j.Append(Event{
		ID:        "evt-1",
		Type:      DepositMade,
		Timestamp: base,
		Data:      &DepositData{Payer: "dana", Amount: 1_000, Receiver: "dana", SharesMinted: 1_000},
	}))
	require.NoError(t, j.Append(Event{
		ID:        "evt-2",
		Type:      CapitalDeployed,
		Timestamp: base.Add(time.Minute),
		Data:      &CapitalDeployedData{TotalCapital: 1_000},
	}))

	events, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// newest first
	assert.Equal(t, "evt-2", events[0].ID)
	assert.Equal(t, CapitalDeployed, events[0].Type)
	assert.Equal(t, "evt-1", events[1].ID)
	assert.JSONEq(t, `{"payer":"dana","amount":1000,"receiver":"dana","shares_minted":1000}`, string(events[1].Data))
}

func TestJournalByType(t *testing.T) {
	j := newTestJournal(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, data := range []EventData{
		&DepositData{Payer: "dana", Amount: 100, Receiver: "dana", SharesMinted: 100},
		&CapitalDeployedData{TotalCapital: 100},
		&DepositData{Payer: "erin", Amount: 200, Receiver: "erin", SharesMinted: 200},
	} {
		require.NoError(t, j.Append(Event{
			ID:        string(rune('a' + i)),
			Type:      data.EventType(),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Data:      data,
		}))
	}

	events, err := j.ByType(DepositMade, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, evt := range events {
		assert.Equal(t, DepositMade, evt.Type)
	}
}

func TestJournalRecentLimit(t *testing.T) {
	j := newTestJournal(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(Event{
			ID:        string(rune('a' + i)),
			Type:      QueueTrimmed,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Data:      &QueueTrimmedData{Removed: i},
		}))
	}

	events, err := j.Recent(2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
