package scheduler

import (
	"testing"

	"github.com/quantfold/vault/internal/events"
	"github.com/quantfold/vault/internal/fund"
	"github.com/quantfold/vault/internal/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchedulerFund(t *testing.T) *fund.Fund {
	t.Helper()
	f, err := fund.New(fund.Config{
		Custody:  "custody",
		Owner:    "alice",
		Treasury: "treasury",
	}, token.New(), token.NewShares(), events.NopPublisher{}, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, err)
	return f
}

func TestNewRegistersConfiguredJobs(t *testing.T) {
	s, err := New(Config{
		Fund:              newSchedulerFund(t),
		Operator:          "alice",
		RebalanceSchedule: "0 * * * *",
		QueueTrimSchedule: "45 0 * * 0",
		Log:               zerolog.New(nil).Level(zerolog.Disabled),
	})
	require.NoError(t, err)
	require.NotNil(t, s)

	s.Start()
	s.Stop()
}

func TestNewRejectsMalformedSchedule(t *testing.T) {
	_, err := New(Config{
		Fund:              newSchedulerFund(t),
		Operator:          "alice",
		RebalanceSchedule: "not a cron expression",
		Log:               zerolog.New(nil).Level(zerolog.Disabled),
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rebalance")
}

func TestEmptySchedulesDisableEverything(t *testing.T) {
	s, err := New(Config{
		Fund:     newSchedulerFund(t),
		Operator: "alice",
		Log:      zerolog.New(nil).Level(zerolog.Disabled),
	})
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
