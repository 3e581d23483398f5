// Package domain contains the engine-facing interfaces for external
// collaborators (strategy venues, the backing-asset custody and the share
// ledger) plus the error taxonomy shared across modules.
//
// All amounts are unsigned integers denominated in the smallest unit of the
// backing asset. Accounts are opaque string identifiers assigned by the
// execution platform; the engine never interprets them.
package domain

import "context"

// StrategyAdapter is a yield-generating venue the fund can allocate capital
// to. Adapters are external and untrusted: any call may fail, and a failure
// aborts the enclosing engine operation. Adapters must tolerate having their
// name and value queried twice during registration.
type StrategyAdapter interface {
	// Name returns the venue's immutable display name.
	Name(ctx context.Context) (string, error)

	// Value returns the total asset value currently held by the venue.
	Value(ctx context.Context) (uint64, error)

	// Deposit pulls amount of the backing asset from the fund's custody
	// account into the venue.
	Deposit(ctx context.Context, amount uint64) error

	// Withdraw pushes amount of the backing asset out of the venue to the
	// recipient account.
	Withdraw(ctx context.Context, amount uint64, recipient string) error
}

// AssetToken is the backing-asset transfer primitive. The from/owner account
// is explicit on every call because the engine acts on behalf of depositors
// and redeemers rather than as the asset's sole holder.
type AssetToken interface {
	BalanceOf(ctx context.Context, account string) (uint64, error)
	Allowance(ctx context.Context, owner, spender string) (uint64, error)
	Approve(ctx context.Context, owner, spender string, amount uint64) error
	Transfer(ctx context.Context, from, to string, amount uint64) error

	// TransferFrom moves amount from owner to the destination account using
	// the spender's allowance.
	TransferFrom(ctx context.Context, spender, owner, to string, amount uint64) error
}

// ShareLedger is the fungible share-token ledger. Mint and Burn are callable
// only by the engine that owns the ledger instance.
type ShareLedger interface {
	Mint(ctx context.Context, account string, shares uint64) error
	Burn(ctx context.Context, account string, shares uint64) error
	TotalSupply(ctx context.Context) (uint64, error)
	BalanceOf(ctx context.Context, account string) (uint64, error)
	Allowance(ctx context.Context, owner, spender string) (uint64, error)
	TransferFrom(ctx context.Context, spender, owner, to string, shares uint64) error
}
