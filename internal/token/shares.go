package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/quantfold/vault/internal/domain"
)

// Shares is an in-memory fungible share ledger. The engine owning the
// instance is the only caller of Mint and Burn; holders interact through
// allowances and TransferFrom.
type Shares struct {
	mu         sync.Mutex
	balances   map[string]uint64
	allowances map[string]map[string]uint64 // owner -> spender -> amount
	supply     uint64
}

// NewShares creates an empty share ledger.
func NewShares() *Shares {
	return &Shares{
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
}

// Mint implements domain.ShareLedger
func (s *Shares) Mint(ctx context.Context, account string, shares uint64) error {
	if account == "" {
		return fmt.Errorf("%w: empty account", domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[account] += shares
	s.supply += shares
	return nil
}

// Burn implements domain.ShareLedger
func (s *Shares) Burn(ctx context.Context, account string, shares uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[account] < shares {
		return fmt.Errorf("%w: %s holds %d shares, burning %d", domain.ErrInsufficientBalance, account, s.balances[account], shares)
	}
	s.balances[account] -= shares
	s.supply -= shares
	return nil
}

// TotalSupply implements domain.ShareLedger
func (s *Shares) TotalSupply(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supply, nil
}

// BalanceOf implements domain.ShareLedger
func (s *Shares) BalanceOf(ctx context.Context, account string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[account], nil
}

// Allowance implements domain.ShareLedger
func (s *Shares) Allowance(ctx context.Context, owner, spender string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allowances[owner][spender], nil
}

// Approve sets a spender allowance. Redeemers approve the fund's custody
// account before requesting redemption.
func (s *Shares) Approve(ctx context.Context, owner, spender string, amount uint64) error {
	if owner == "" || spender == "" {
		return fmt.Errorf("%w: owner and spender are required", domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allowances[owner] == nil {
		s.allowances[owner] = make(map[string]uint64)
	}
	s.allowances[owner][spender] = amount
	return nil
}

// TransferFrom implements domain.ShareLedger
func (s *Shares) TransferFrom(ctx context.Context, spender, owner, to string, shares uint64) error {
	if spender == "" || owner == "" || to == "" {
		return fmt.Errorf("%w: spender, owner and to accounts are required", domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed := s.allowances[owner][spender]
	if allowed < shares {
		return fmt.Errorf("%w: %s allows %s to move %d shares, needs %d", domain.ErrInsufficientAllowance, owner, spender, allowed, shares)
	}
	if s.balances[owner] < shares {
		return fmt.Errorf("%w: %s holds %d shares, moving %d", domain.ErrInsufficientBalance, owner, s.balances[owner], shares)
	}
	s.balances[owner] -= shares
	s.balances[to] += shares
	s.allowances[owner][spender] = allowed - shares
	return nil
}
