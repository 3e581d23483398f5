package domain

import "errors"

// Sentinel errors for the fund engine. Every failure is terminal to the
// attempted operation only: callers observe pre-call state and may resubmit.
var (
	// ErrInvalidArgument indicates a malformed or out-of-bounds parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthorized indicates the caller lacks the required capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidAdapter indicates a strategy adapter failed its registration probes.
	ErrInvalidAdapter = errors.New("invalid strategy adapter")

	// ErrZeroShares indicates a deposit small enough to mint zero shares,
	// which would silently dilute the depositor.
	ErrZeroShares = errors.New("deposit computes zero shares")

	// ErrInsufficientBalance indicates an account balance below the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance indicates a spender allowance below the requested amount.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrRange indicates an index outside the addressed collection.
	ErrRange = errors.New("index out of range")

	// ErrInsufficientLiquidity indicates the liquidity cascade could not cover
	// a redemption batch's shortfall even after draining every strategy.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrNoGains indicates fee collection was attempted with no value gained
	// since the last accrual.
	ErrNoGains = errors.New("no gains to collect")

	// ErrReentrancy indicates an external collaborator called back into the
	// engine while an operation was still in flight.
	ErrReentrancy = errors.New("reentrant call detected")
)
