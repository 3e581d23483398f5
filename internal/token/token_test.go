package token

import (
	"context"
	"testing"

	"github.com/quantfold/vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenTransfer(t *testing.T) {
	tok := New()
	ctx := context.Background()

	require.NoError(t, tok.Mint(ctx, "alice", 100))
	require.NoError(t, tok.Transfer(ctx, "alice", "bob", 40))

	bal, err := tok.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(60), bal)

	bal, err = tok.BalanceOf(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(40), bal)

	err = tok.Transfer(ctx, "alice", "bob", 61)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestTokenTransferFrom(t *testing.T) {
	tok := New()
	ctx := context.Background()

	require.NoError(t, tok.Mint(ctx, "alice", 100))

	// no allowance yet
	err := tok.TransferFrom(ctx, "carol", "alice", "bob", 10)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)

	require.NoError(t, tok.Approve(ctx, "alice", "carol", 50))
	require.NoError(t, tok.TransferFrom(ctx, "carol", "alice", "bob", 30))

	// the allowance is consumed by exactly the spent amount
	allowed, err := tok.Allowance(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), allowed)

	err = tok.TransferFrom(ctx, "carol", "alice", "bob", 21)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)

	// allowance covers it, balance does not
	require.NoError(t, tok.Approve(ctx, "alice", "carol", 500))
	err = tok.TransferFrom(ctx, "carol", "alice", "bob", 80)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestTokenValidation(t *testing.T) {
	tok := New()
	ctx := context.Background()

	assert.ErrorIs(t, tok.Mint(ctx, "", 1), domain.ErrInvalidArgument)
	assert.ErrorIs(t, tok.Approve(ctx, "", "bob", 1), domain.ErrInvalidArgument)
	assert.ErrorIs(t, tok.Transfer(ctx, "alice", "", 1), domain.ErrInvalidArgument)
	assert.ErrorIs(t, tok.TransferFrom(ctx, "", "alice", "bob", 1), domain.ErrInvalidArgument)
}
