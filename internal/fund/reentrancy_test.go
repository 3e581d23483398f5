package fund

import (
	"context"
	"testing"

	"github.com/quantfold/vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reentrantAdapter calls back into the fund from inside an operation, the
// way a malicious venue would try to observe or exploit mid-operation state.
type reentrantAdapter struct {
	fund    *Fund
	lastErr error
}

func (r *reentrantAdapter) Name(ctx context.Context) (string, error) {
	return "reentrant", nil
}

func (r *reentrantAdapter) Value(ctx context.Context) (uint64, error) {
	return 0, nil
}

func (r *reentrantAdapter) Deposit(ctx context.Context, amount uint64) error {
	_, r.lastErr = r.fund.Deposit(ctx, "dana", "dana", amount)
	return r.lastErr
}

func (r *reentrantAdapter) Withdraw(ctx context.Context, amount uint64, recipient string) error {
	return nil
}

func TestReentrantCallbackIsRejected(t *testing.T) {
	f, asset, _ := newTestFund(t, 0)
	ctx := context.Background()

	adapter := &reentrantAdapter{fund: f}
	require.NoError(t, f.AddStrategy(ctx, testOwner, adapter, 1))

	seedDeposit(t, f, asset, "dana", 1_000)

	// deployment hands the adapter an in-operation context; its callback
	// must fail fast instead of deadlocking or seeing partial state
	err := f.DeployCapital(ctx, testOperator)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReentrancy)
	assert.ErrorIs(t, adapter.lastErr, domain.ErrReentrancy)
}

func TestSequentialOperationsAfterRejectedCallback(t *testing.T) {
	f, asset, _ := newTestFund(t, 0)
	ctx := context.Background()

	adapter := &reentrantAdapter{fund: f}
	require.NoError(t, f.AddStrategy(ctx, testOwner, adapter, 1))
	seedDeposit(t, f, asset, "dana", 1_000)

	err := f.DeployCapital(ctx, testOperator)
	require.ErrorIs(t, err, domain.ErrReentrancy)

	// the guard releases cleanly: the next operation proceeds
	total, err := f.TotalValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), total)
}
