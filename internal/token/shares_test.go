package token

import (
	"context"
	"testing"

	"github.com/quantfold/vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharesMintAndBurn(t *testing.T) {
	s := NewShares()
	ctx := context.Background()

	require.NoError(t, s.Mint(ctx, "alice", 100))
	require.NoError(t, s.Mint(ctx, "bob", 50))

	supply, err := s.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), supply)

	require.NoError(t, s.Burn(ctx, "alice", 40))

	bal, err := s.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(60), bal)

	supply, err = s.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(110), supply)

	err = s.Burn(ctx, "alice", 61)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestSharesTransferFrom(t *testing.T) {
	s := NewShares()
	ctx := context.Background()

	require.NoError(t, s.Mint(ctx, "alice", 100))

	err := s.TransferFrom(ctx, "custody", "alice", "custody", 100)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)

	require.NoError(t, s.Approve(ctx, "alice", "custody", 100))
	require.NoError(t, s.TransferFrom(ctx, "custody", "alice", "custody", 100))

	bal, err := s.BalanceOf(ctx, "custody")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal)

	// locking shares never changes the supply
	supply, err := s.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), supply)
}
