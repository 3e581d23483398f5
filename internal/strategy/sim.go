// Package strategy provides an in-memory strategy venue backed by the
// reference asset token. It stands in for real yield venues in the server
// binary and in tests; external gains are simulated by minting into the
// venue's account.
package strategy

import (
	"context"
	"fmt"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/token"
)

// Sim is a strategy venue whose holdings live in a dedicated account on the
// asset token. Deposits pull from the fund's custody account; withdrawals
// push to the requested recipient.
type Sim struct {
	name    string
	account string
	custody string
	asset   *token.Token
}

// NewSim creates a simulated venue. The venue's token account is derived
// from its name so two venues never share holdings.
func NewSim(name, custody string, asset *token.Token) *Sim {
	return &Sim{
		name:    name,
		account: "strategy:" + name,
		custody: custody,
		asset:   asset,
	}
}

// Name implements domain.StrategyAdapter
func (s *Sim) Name(ctx context.Context) (string, error) {
	return s.name, nil
}

// Value implements domain.StrategyAdapter
func (s *Sim) Value(ctx context.Context) (uint64, error) {
	return s.asset.BalanceOf(ctx, s.account)
}

// Deposit implements domain.StrategyAdapter
func (s *Sim) Deposit(ctx context.Context, amount uint64) error {
	if err := s.asset.Transfer(ctx, s.custody, s.account, amount); err != nil {
		return fmt.Errorf("venue %s deposit: %w", s.name, err)
	}
	return nil
}

// Withdraw implements domain.StrategyAdapter
func (s *Sim) Withdraw(ctx context.Context, amount uint64, recipient string) error {
	if err := s.asset.Transfer(ctx, s.account, recipient, amount); err != nil {
		return fmt.Errorf("venue %s withdraw: %w", s.name, err)
	}
	return nil
}

// Accrue simulates external yield by minting gain into the venue's account.
func (s *Sim) Accrue(ctx context.Context, gain uint64) error {
	return s.asset.Mint(ctx, s.account, gain)
}

var _ domain.StrategyAdapter = (*Sim)(nil)
