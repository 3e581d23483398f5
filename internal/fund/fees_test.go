package fund

import (
	"context"
	"testing"

	"github.com/quantfold/vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectFeesMintsTreasuryShares(t *testing.T) {
	f, asset, shares := newTestFund(t, 10)
	ctx := context.Background()

	seedDeposit(t, f, asset, "dana", 1_000_000)
	require.NoError(t, asset.Mint(ctx, testCustody, 100_000))

	// fee on the 100_000 gain is 10_000 of value; at supply 1_000_000 over
	// value 1_100_000 that prices to 9_090 shares
	minted, err := f.CollectFees(ctx, testOperator)
	require.NoError(t, err)
	assert.Equal(t, uint64(9_090), minted)

	bal, err := shares.BalanceOf(ctx, testTreasury)
	require.NoError(t, err)
	assert.Equal(t, uint64(9_090), bal)

	// dilution, not withdrawal: the fund's value is untouched
	total, err := f.TotalValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_100_000), total)

	status, err := f.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_100_000), status.PrincipalAfterFees)
}

func TestCollectFeesNoGains(t *testing.T) {
	f, asset, _ := newTestFund(t, 10)
	ctx := context.Background()

	seedDeposit(t, f, asset, "dana", 1_000_000)

	// new principal is not a gain
	_, err := f.CollectFees(ctx, testOperator)
	assert.ErrorIs(t, err, domain.ErrNoGains)
}

func TestCollectFeesIsNotRepeatable(t *testing.T) {
	f, asset, _ := newTestFund(t, 10)
	ctx := context.Background()

	seedDeposit(t, f, asset, "dana", 1_000_000)
	require.NoError(t, asset.Mint(ctx, testCustody, 100_000))

	_, err := f.CollectFees(ctx, testOperator)
	require.NoError(t, err)

	// the baseline moved to the current value, so the same gain cannot be
	// charged twice
	_, err = f.CollectFees(ctx, testOperator)
	assert.ErrorIs(t, err, domain.ErrNoGains)
}

func TestCollectFeesZeroRate(t *testing.T) {
	f, asset, shares := newTestFund(t, 0)
	ctx := context.Background()

	seedDeposit(t, f, asset, "dana", 1_000_000)
	require.NoError(t, asset.Mint(ctx, testCustody, 100_000))

	minted, err := f.CollectFees(ctx, testOperator)
	require.NoError(t, err)
	assert.Zero(t, minted)

	bal, err := shares.BalanceOf(ctx, testTreasury)
	require.NoError(t, err)
	assert.Zero(t, bal)

	// the baseline still advances
	_, err = f.CollectFees(ctx, testOperator)
	assert.ErrorIs(t, err, domain.ErrNoGains)
}

func TestCollectFeesUnauthorized(t *testing.T) {
	f, _, _ := newTestFund(t, 10)

	_, err := f.CollectFees(context.Background(), "eve")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCollectFeesDilutesHolders(t *testing.T) {
	f, asset, _ := newTestFund(t, 50)
	ctx := context.Background()

	seedDeposit(t, f, asset, "dana", 1_000)
	require.NoError(t, asset.Mint(ctx, testCustody, 1_000))

	// the fee on the 1_000 gain is 500 of value, priced at the pre-mint
	// share price: 250 shares on a supply of 1_000
	minted, err := f.CollectFees(ctx, testOperator)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), minted)

	danaValue, err := f.BalanceOf(ctx, "dana")
	require.NoError(t, err)
	treasuryValue, err := f.BalanceOf(ctx, testTreasury)
	require.NoError(t, err)

	// post-mint the 1_250 shares split the unchanged 2_000 of value
	assert.Equal(t, uint64(1_600), danaValue)
	assert.Equal(t, uint64(400), treasuryValue)
	assert.Equal(t, uint64(2_000), danaValue+treasuryValue)
}
