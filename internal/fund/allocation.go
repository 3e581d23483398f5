package fund

import (
	"context"
	"fmt"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/events"
)

// DeployCapital rebalances the fund toward its target weights in two phases.
//
// Phase one sheds: every strategy holding more than its target share
// (floor(totalCapital * weight / totalWeight)) is drawn down into idle
// custody. Phase two funds: in registry order, each underweight strategy
// receives min(target - current, remaining idle). Shedding first guarantees
// phase two never requests more capital than exists; registry order gives
// earlier-listed strategies priority when idle capital is scarce, so
// later-listed ones may end below target. With all weights zero the call is
// a no-op.
func (f *Fund) DeployCapital(ctx context.Context, caller string) error {
	ctx, err := f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()

	if !f.access.IsWhitelisted(caller) {
		return fmt.Errorf("%w: %s may not deploy capital", domain.ErrUnauthorized, caller)
	}

	var totalWeight uint64
	for _, w := range f.weights {
		totalWeight += w
	}
	if totalWeight == 0 {
		f.log.Debug().Msg("Deploy skipped: all weights zero")
		return nil
	}

	total, err := f.totalValue(ctx)
	if err != nil {
		return err
	}

	// Phase 1: pull overweight strategies back to target.
	for i, s := range f.strategies {
		v, err := s.Adapter.Value(ctx)
		if err != nil {
			return fmt.Errorf("strategy %q value query failed: %w", s.Name, err)
		}
		target, err := mulDiv(total, f.weights[i], totalWeight)
		if err != nil {
			return err
		}
		if v > target {
			if err := s.Adapter.Withdraw(ctx, v-target, f.custody); err != nil {
				return fmt.Errorf("strategy %q withdraw of %d failed: %w", s.Name, v-target, err)
			}
		}
	}

	// Phase 2: fund underweight strategies while idle capital lasts.
	idle, err := f.asset.BalanceOf(ctx, f.custody)
	if err != nil {
		return fmt.Errorf("failed to read custody balance: %w", err)
	}
	for i, s := range f.strategies {
		if idle == 0 {
			break
		}
		v, err := s.Adapter.Value(ctx)
		if err != nil {
			return fmt.Errorf("strategy %q value query failed: %w", s.Name, err)
		}
		target, err := mulDiv(total, f.weights[i], totalWeight)
		if err != nil {
			return err
		}
		if v >= target {
			continue
		}
		amount := minU64(target-v, idle)
		if amount == 0 {
			continue
		}
		if err := s.Adapter.Deposit(ctx, amount); err != nil {
			return fmt.Errorf("strategy %q deposit of %d failed: %w", s.Name, amount, err)
		}
		idle -= amount
	}

	f.log.Info().
		Uint64("total_capital", total).
		Uint64("total_weight", totalWeight).
		Msg("Capital deployed toward target weights")
	f.events.Publish(&events.CapitalDeployedData{TotalCapital: total})
	return nil
}
