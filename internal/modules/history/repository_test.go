package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/quantfold/vault/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(db.Conn(), zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, err)
	return repo
}

func TestRepositoryRecordAndRecent(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, price := range []float64{1.0, 1.1, 1.05} {
		require.NoError(t, repo.Record(Snapshot{
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
			TotalValue:  uint64(1_000 * (i + 1)),
			TotalShares: 1_000,
			SharePrice:  price,
		}))
	}

	snaps, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	// oldest to newest, ready for return computation
	assert.Equal(t, 1.0, snaps[0].SharePrice)
	assert.Equal(t, 1.05, snaps[2].SharePrice)
	assert.Equal(t, uint64(3_000), snaps[2].TotalValue)
}

func TestRepositoryRecentKeepsLatestWindow(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(Snapshot{
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			SharePrice: float64(i),
		}))
	}

	snaps, err := repo.Recent(2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)

	// the window is the newest rows, still ordered oldest first
	assert.Equal(t, 3.0, snaps[0].SharePrice)
	assert.Equal(t, 4.0, snaps[1].SharePrice)
}

func TestRepositoryRecentEmpty(t *testing.T) {
	repo := newTestRepository(t)

	snaps, err := repo.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
