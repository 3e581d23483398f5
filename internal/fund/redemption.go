package fund

import (
	"context"
	"fmt"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/events"
)

// RequestRedemption locks shareAmount of the requester's shares in fund
// custody and appends the request to the queue. Locked shares stay in total
// supply until the batch that settles them burns them. Returns the assigned
// queue index; the index is stable until the next TrimQueue.
func (f *Fund) RequestRedemption(ctx context.Context, requester string, shareAmount uint64) (int, error) {
	ctx, err := f.enter(ctx)
	if err != nil {
		return 0, err
	}
	defer f.exit()

	if shareAmount == 0 {
		return 0, fmt.Errorf("%w: redemption amount must be positive", domain.ErrInvalidArgument)
	}
	if requester == "" {
		return 0, fmt.Errorf("%w: requester account is required", domain.ErrInvalidArgument)
	}

	balance, err := f.shares.BalanceOf(ctx, requester)
	if err != nil {
		return 0, fmt.Errorf("failed to read share balance of %s: %w", requester, err)
	}
	if balance < shareAmount {
		return 0, fmt.Errorf("%w: %s holds %d shares, requested %d", domain.ErrInsufficientBalance, requester, balance, shareAmount)
	}

	if err := f.shares.TransferFrom(ctx, f.custody, requester, f.custody, shareAmount); err != nil {
		return 0, fmt.Errorf("failed to lock shares from %s: %w", requester, err)
	}

	f.queue = append(f.queue, RedemptionRequest{Requester: requester, Shares: shareAmount})
	index := len(f.queue) - 1

	f.log.Info().
		Str("requester", requester).
		Uint64("shares", shareAmount).
		Int("index", index).
		Msg("Redemption queued")
	f.events.Publish(&events.RedemptionRequestedData{Requester: requester, Shares: shareAmount, Index: index})
	return index, nil
}

// ProcessRedemptionsBatch settles the queue entries in [start, start+batchSize),
// clamped to the queue length. Pending fees are accrued first when the fund
// value exceeds the principal baseline, so redeemers neither absorb nor
// dodge them. If idle custody cannot cover the batch, the liquidity cascade
// raises exactly the shortfall from the strategies; if it cannot, the whole
// batch fails with ErrInsufficientLiquidity and no entry is paid. Settled
// entries are tombstoned in place, never removed. After the batch the
// principal baseline is reset to the fund's value.
//
// A failure rolls the batch back, including the external ledger: fee shares
// minted for this batch are burned again and a half-settled entry gets its
// locked shares re-minted into custody. Entries whose payout already left
// custody stay tombstoned; a paid entry is final and never re-armed.
func (f *Fund) ProcessRedemptionsBatch(ctx context.Context, caller string, start, batchSize int) (err error) {
	ctx, err = f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()

	if !f.access.IsWhitelisted(caller) {
		return fmt.Errorf("%w: %s may not process redemptions", domain.ErrUnauthorized, caller)
	}
	if start < 0 || batchSize <= 0 {
		return fmt.Errorf("%w: start %d, batch size %d", domain.ErrInvalidArgument, start, batchSize)
	}
	if start >= len(f.queue) {
		return fmt.Errorf("%w: start %d with queue length %d", domain.ErrRange, start, len(f.queue))
	}
	end := start + batchSize
	if end > len(f.queue) {
		end = len(f.queue)
	}

	snap := f.snapshot()
	var feeMinted uint64
	var settled []int
	defer func() {
		if err == nil {
			return
		}
		f.restore(snap)
		// paid entries are final: their tombstones survive the rollback
		for _, i := range settled {
			f.queue[i].Shares = 0
		}
		if feeMinted > 0 {
			if burnErr := f.shares.Burn(ctx, f.treasury, feeMinted); burnErr != nil {
				f.log.Error().Err(burnErr).Uint64("shares", feeMinted).Msg("Failed to reverse fee mint after aborted batch")
			}
		}
	}()

	current, err := f.totalValue(ctx)
	if err != nil {
		return err
	}
	if current > f.principalAfterFees {
		if feeMinted, err = f.accrueFees(ctx, current); err != nil {
			return err
		}
	}

	var sumShares uint64
	for _, req := range f.queue[start:end] {
		sumShares += req.Shares
	}
	if sumShares > 0 {
		supply, err := f.shares.TotalSupply(ctx)
		if err != nil {
			return fmt.Errorf("failed to read share supply: %w", err)
		}
		total, err := f.totalValue(ctx)
		if err != nil {
			return err
		}
		needed, err := mulDiv(sumShares, total, supply)
		if err != nil {
			return err
		}
		idle, err := f.asset.BalanceOf(ctx, f.custody)
		if err != nil {
			return fmt.Errorf("failed to read custody balance: %w", err)
		}
		if idle < needed {
			if err := f.raiseLiquidity(ctx, needed-idle); err != nil {
				return err
			}
		}
	}

	paid := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		req := f.queue[i]
		if req.Shares == 0 {
			// tombstone
			continue
		}
		supply, err := f.shares.TotalSupply(ctx)
		if err != nil {
			return fmt.Errorf("failed to read share supply: %w", err)
		}
		total, err := f.totalValue(ctx)
		if err != nil {
			return err
		}
		value, err := mulDiv(req.Shares, total, supply)
		if err != nil {
			return err
		}
		if err := f.shares.Burn(ctx, f.custody, req.Shares); err != nil {
			return fmt.Errorf("failed to burn locked shares: %w", err)
		}
		if value > 0 {
			if payErr := f.asset.Transfer(ctx, f.custody, req.Requester, value); payErr != nil {
				// the entry was not paid: put its locked shares back
				if mintErr := f.shares.Mint(ctx, f.custody, req.Shares); mintErr != nil {
					f.log.Error().Err(mintErr).Uint64("shares", req.Shares).Msg("Failed to restore locked shares after aborted payout")
				}
				return fmt.Errorf("failed to pay %s: %w", req.Requester, payErr)
			}
		}
		f.queue[i].Shares = 0
		settled = append(settled, i)
		paid = append(paid, req.Requester)
	}

	total, err := f.totalValue(ctx)
	if err != nil {
		return err
	}
	f.principalAfterFees = total

	f.log.Info().
		Int("start", start).
		Int("end", end).
		Int("paid", len(paid)).
		Msg("Redemption batch settled")
	f.events.Publish(&events.RedemptionProcessedData{Start: start, End: end, PaidAccounts: paid})
	return nil
}

// raiseLiquidity pulls shortfall out of the strategies into idle custody.
// Pass one walks the registry in reverse, withdrawing from each strategy an
// amount proportional to its weight (capped by its value and the remaining
// shortfall) so the allocation stays near its targets. Pass two walks
// forward and drains strategies outright until the shortfall is covered or
// every strategy is exhausted.
func (f *Fund) raiseLiquidity(ctx context.Context, shortfall uint64) error {
	var totalWeight uint64
	for _, w := range f.weights {
		totalWeight += w
	}

	remaining := shortfall
	if totalWeight > 0 {
		for i := len(f.strategies) - 1; i >= 0 && remaining > 0; i-- {
			v, err := f.strategies[i].Adapter.Value(ctx)
			if err != nil {
				return fmt.Errorf("strategy %q value query failed: %w", f.strategies[i].Name, err)
			}
			quota, err := mulDiv(shortfall, f.weights[i], totalWeight)
			if err != nil {
				return err
			}
			amount := minU64(minU64(quota, v), remaining)
			if amount == 0 {
				continue
			}
			if err := f.strategies[i].Adapter.Withdraw(ctx, amount, f.custody); err != nil {
				return fmt.Errorf("strategy %q withdraw of %d failed: %w", f.strategies[i].Name, amount, err)
			}
			remaining -= amount
		}
	}

	for i := 0; i < len(f.strategies) && remaining > 0; i++ {
		v, err := f.strategies[i].Adapter.Value(ctx)
		if err != nil {
			return fmt.Errorf("strategy %q value query failed: %w", f.strategies[i].Name, err)
		}
		amount := minU64(v, remaining)
		if amount == 0 {
			continue
		}
		if err := f.strategies[i].Adapter.Withdraw(ctx, amount, f.custody); err != nil {
			return fmt.Errorf("strategy %q withdraw of %d failed: %w", f.strategies[i].Name, amount, err)
		}
		remaining -= amount
	}

	if remaining > 0 {
		return fmt.Errorf("%w: still %d short after draining every strategy", domain.ErrInsufficientLiquidity, remaining)
	}
	return nil
}

// TrimQueue compacts the redemption queue by repeatedly swapping tombstoned
// entries with the tail and shrinking. Relative order of surviving entries
// is not preserved, and every index returned by a prior RequestRedemption is
// invalid afterwards. Returns the number of entries removed.
func (f *Fund) TrimQueue(ctx context.Context, caller string) (int, error) {
	_, err := f.enter(ctx)
	if err != nil {
		return 0, err
	}
	defer f.exit()

	if !f.access.IsWhitelisted(caller) {
		return 0, fmt.Errorf("%w: %s may not trim the queue", domain.ErrUnauthorized, caller)
	}

	removed := 0
	i := 0
	for i < len(f.queue) {
		if f.queue[i].Shares != 0 {
			i++
			continue
		}
		last := len(f.queue) - 1
		f.queue[i] = f.queue[last]
		f.queue = f.queue[:last]
		removed++
		// the swapped-in tail may itself be a tombstone: re-check slot i
	}

	f.log.Info().Int("removed", removed).Int("remaining", len(f.queue)).Msg("Redemption queue trimmed")
	f.events.Publish(&events.QueueTrimmedData{Removed: removed, Remaining: len(f.queue)})
	return removed, nil
}
