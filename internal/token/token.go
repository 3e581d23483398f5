// Package token provides in-memory reference implementations of the
// external asset-custody and share-ledger interfaces. The real fund runs
// against the platform's fungible-token primitives; these implementations
// back the server binary and the test suite.
package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/quantfold/vault/internal/domain"
)

// Token is an in-memory fungible token with owner/spender allowance
// accounting, matching the standard transferFrom/transfer/approve/balanceOf
// capability the engine assumes.
type Token struct {
	mu         sync.Mutex
	balances   map[string]uint64
	allowances map[string]map[string]uint64 // owner -> spender -> amount
}

// New creates an empty token.
func New() *Token {
	return &Token{
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
}

// Mint credits an account out of thin air. Not part of the engine-facing
// interface; used for seeding tests and dev-mode faucets.
func (t *Token) Mint(ctx context.Context, account string, amount uint64) error {
	if account == "" {
		return fmt.Errorf("%w: empty account", domain.ErrInvalidArgument)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[account] += amount
	return nil
}

// BalanceOf implements domain.AssetToken
func (t *Token) BalanceOf(ctx context.Context, account string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account], nil
}

// Allowance implements domain.AssetToken
func (t *Token) Allowance(ctx context.Context, owner, spender string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowances[owner][spender], nil
}

// Approve implements domain.AssetToken
func (t *Token) Approve(ctx context.Context, owner, spender string, amount uint64) error {
	if owner == "" || spender == "" {
		return fmt.Errorf("%w: owner and spender are required", domain.ErrInvalidArgument)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[string]uint64)
	}
	t.allowances[owner][spender] = amount
	return nil
}

// Transfer implements domain.AssetToken
func (t *Token) Transfer(ctx context.Context, from, to string, amount uint64) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: from and to accounts are required", domain.ErrInvalidArgument)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom implements domain.AssetToken
func (t *Token) TransferFrom(ctx context.Context, spender, owner, to string, amount uint64) error {
	if spender == "" || owner == "" || to == "" {
		return fmt.Errorf("%w: spender, owner and to accounts are required", domain.ErrInvalidArgument)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowances[owner][spender]
	if allowed < amount {
		return fmt.Errorf("%w: %s allows %s to spend %d, needs %d", domain.ErrInsufficientAllowance, owner, spender, allowed, amount)
	}
	if err := t.move(owner, to, amount); err != nil {
		return err
	}
	t.allowances[owner][spender] = allowed - amount
	return nil
}

// move transfers balance between accounts. Caller holds the mutex.
func (t *Token) move(from, to string, amount uint64) error {
	if t.balances[from] < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", domain.ErrInsufficientBalance, from, t.balances[from], amount)
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}
