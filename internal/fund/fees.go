package fund

import (
	"context"
	"fmt"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/events"
)

// CollectFees accrues the performance fee on value gained since the last
// accrual and returns the share count minted to the treasury. Fails with
// ErrNoGains when the current value does not exceed the principal baseline.
func (f *Fund) CollectFees(ctx context.Context, caller string) (minted uint64, err error) {
	ctx, err = f.enter(ctx)
	if err != nil {
		return 0, err
	}
	defer f.exit()

	if !f.access.IsWhitelisted(caller) {
		return 0, fmt.Errorf("%w: %s may not collect fees", domain.ErrUnauthorized, caller)
	}

	current, err := f.totalValue(ctx)
	if err != nil {
		return 0, err
	}
	if current <= f.principalAfterFees {
		return 0, fmt.Errorf("%w: value %d, principal %d", domain.ErrNoGains, current, f.principalAfterFees)
	}

	snap := f.snapshot()
	defer func() {
		if err != nil {
			f.restore(snap)
		}
	}()
	return f.accrueFees(ctx, current)
}

// accrueFees mints fee shares to the treasury for the gain above the
// principal baseline and resets the baseline to the current value. Minting
// shares dilutes every holder proportionally, which is economically
// equivalent to withdrawing and paying out the fee without forcing an extra
// liquidity event. Caller holds the guard and has verified current against
// the baseline (or deliberately accrues on zero gain).
func (f *Fund) accrueFees(ctx context.Context, current uint64) (uint64, error) {
	gains := current - f.principalAfterFees
	feeValue, err := mulDiv(gains, f.feeRate, 100)
	if err != nil {
		return 0, err
	}

	var minted uint64
	if feeValue > 0 && current > 0 {
		supply, err := f.shares.TotalSupply(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to read share supply: %w", err)
		}
		minted, err = mulDiv(feeValue, supply, current)
		if err != nil {
			return 0, err
		}
		if minted > 0 {
			if err := f.shares.Mint(ctx, f.treasury, minted); err != nil {
				return 0, fmt.Errorf("failed to mint fee shares to treasury: %w", err)
			}
		}
	}
	f.principalAfterFees = current

	f.log.Info().
		Uint64("gains", gains).
		Uint64("fee_value", feeValue).
		Uint64("shares_minted", minted).
		Str("treasury", f.treasury).
		Msg("Protocol fees collected")
	f.events.Publish(&events.ProtocolFeesCollectedData{FeeValue: feeValue, SharesMinted: minted, Treasury: f.treasury})
	return minted, nil
}
