package fund

import (
	"context"
	"fmt"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/events"
)

// Deposit pulls amount of the backing asset from payer into fund custody and
// mints shares to receiver. The very first deposit (zero supply or zero fund
// value) bootstraps at 1:1; afterwards shares = floor(amount * supply /
// valueBefore) with big-integer intermediates. A deposit that would mint
// zero shares fails with ErrZeroShares rather than silently diluting the
// depositor. New principal is never treated as a taxable gain.
func (f *Fund) Deposit(ctx context.Context, payer, receiver string, amount uint64) (uint64, error) {
	ctx, err := f.enter(ctx)
	if err != nil {
		return 0, err
	}
	defer f.exit()

	if amount == 0 {
		return 0, fmt.Errorf("%w: deposit amount must be positive", domain.ErrInvalidArgument)
	}
	if payer == "" || receiver == "" {
		return 0, fmt.Errorf("%w: payer and receiver accounts are required", domain.ErrInvalidArgument)
	}

	supply, err := f.shares.TotalSupply(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read share supply: %w", err)
	}
	valueBefore, err := f.totalValue(ctx)
	if err != nil {
		return 0, err
	}

	minted := amount
	if supply > 0 && valueBefore > 0 {
		minted, err = mulDiv(amount, supply, valueBefore)
		if err != nil {
			return 0, err
		}
	}
	if minted == 0 {
		return 0, fmt.Errorf("%w: %d against supply %d and value %d", domain.ErrZeroShares, amount, supply, valueBefore)
	}

	if err := f.asset.TransferFrom(ctx, f.custody, payer, f.custody, amount); err != nil {
		return 0, fmt.Errorf("failed to pull deposit from %s: %w", payer, err)
	}
	if err := f.shares.Mint(ctx, receiver, minted); err != nil {
		// the pull already happened: send the assets back
		if refundErr := f.asset.Transfer(ctx, f.custody, payer, amount); refundErr != nil {
			f.log.Error().Err(refundErr).Str("payer", payer).Uint64("amount", amount).Msg("Failed to refund pulled deposit")
		}
		return 0, fmt.Errorf("failed to mint shares to %s: %w", receiver, err)
	}
	f.principalAfterFees += amount

	f.log.Info().
		Str("payer", payer).
		Str("receiver", receiver).
		Uint64("amount", amount).
		Uint64("shares", minted).
		Msg("Deposit accepted")
	f.events.Publish(&events.DepositData{Payer: payer, Amount: amount, Receiver: receiver, SharesMinted: minted})
	return minted, nil
}

// BalanceOf returns the asset value of an account's shares at the current
// share price: floor(shareBalance * totalValue / totalSupply). The value is
// always recomputed, never stored.
func (f *Fund) BalanceOf(ctx context.Context, account string) (uint64, error) {
	ctx, err := f.enter(ctx)
	if err != nil {
		return 0, err
	}
	defer f.exit()
	return f.balanceOf(ctx, account)
}

func (f *Fund) balanceOf(ctx context.Context, account string) (uint64, error) {
	supply, err := f.shares.TotalSupply(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read share supply: %w", err)
	}
	if supply == 0 {
		return 0, nil
	}
	shareBal, err := f.shares.BalanceOf(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("failed to read share balance of %s: %w", account, err)
	}
	total, err := f.totalValue(ctx)
	if err != nil {
		return 0, err
	}
	return mulDiv(shareBal, total, supply)
}

// Transfer moves amount of asset value from one account to another by
// burning the equivalent share count from the sender and minting it to the
// recipient. A burn+mint pair is used rather than a balance delta because
// the share price can move between calls; the balance check and the
// burn+mint settle atomically at one price.
func (f *Fund) Transfer(ctx context.Context, from, to string, amount uint64) error {
	ctx, err := f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()

	if amount == 0 {
		return fmt.Errorf("%w: transfer amount must be positive", domain.ErrInvalidArgument)
	}
	if from == "" || to == "" {
		return fmt.Errorf("%w: sender and recipient accounts are required", domain.ErrInvalidArgument)
	}

	supply, err := f.shares.TotalSupply(ctx)
	if err != nil {
		return fmt.Errorf("failed to read share supply: %w", err)
	}
	total, err := f.totalValue(ctx)
	if err != nil {
		return err
	}
	if supply == 0 || total == 0 {
		return fmt.Errorf("%w: fund holds no value", domain.ErrInsufficientBalance)
	}

	shareBal, err := f.shares.BalanceOf(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to read share balance of %s: %w", from, err)
	}
	balance, err := mulDiv(shareBal, total, supply)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", domain.ErrInsufficientBalance, from, balance, amount)
	}

	shareAmount, err := mulDiv(amount, supply, total)
	if err != nil {
		return err
	}
	if err := f.shares.Burn(ctx, from, shareAmount); err != nil {
		return fmt.Errorf("failed to burn shares from %s: %w", from, err)
	}
	if err := f.shares.Mint(ctx, to, shareAmount); err != nil {
		// the burn already happened: put the sender's shares back
		if mintErr := f.shares.Mint(ctx, from, shareAmount); mintErr != nil {
			f.log.Error().Err(mintErr).Str("account", from).Uint64("shares", shareAmount).Msg("Failed to restore burned shares")
		}
		return fmt.Errorf("failed to mint shares to %s: %w", to, err)
	}

	f.log.Debug().
		Str("from", from).
		Str("to", to).
		Uint64("amount", amount).
		Uint64("shares", shareAmount).
		Msg("Value transferred")
	return nil
}
