package fund

import (
	"context"
	"fmt"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/events"
)

// AddStrategy registers a strategy venue with the given target weight. The
// adapter is probed for both its name and its value before acceptance; an
// adapter that fails either probe is rejected with ErrInvalidAdapter.
// Adapters must tolerate being probed twice.
func (f *Fund) AddStrategy(ctx context.Context, caller string, adapter domain.StrategyAdapter, weight uint64) error {
	ctx, err := f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()

	if !f.access.IsWhitelisted(caller) {
		return fmt.Errorf("%w: %s may not add strategies", domain.ErrUnauthorized, caller)
	}
	if adapter == nil {
		return fmt.Errorf("%w: nil adapter", domain.ErrInvalidAdapter)
	}

	name, err := adapter.Name(ctx)
	if err != nil {
		return fmt.Errorf("%w: name probe failed: %v", domain.ErrInvalidAdapter, err)
	}
	if name == "" {
		return fmt.Errorf("%w: empty name", domain.ErrInvalidAdapter)
	}
	if _, err := adapter.Value(ctx); err != nil {
		return fmt.Errorf("%w: value probe failed: %v", domain.ErrInvalidAdapter, err)
	}

	f.strategies = append(f.strategies, StrategyEntry{Adapter: adapter, Name: name})
	f.weights = append(f.weights, weight)
	index := len(f.strategies) - 1

	f.log.Info().
		Str("strategy", name).
		Uint64("weight", weight).
		Int("index", index).
		Msg("Strategy registered")
	f.events.Publish(&events.StrategyAddedData{Name: name, Weight: weight, Index: index})
	return nil
}

// SetWeights atomically replaces every target weight. The slice must be the
// same length as the registry and must sum to a positive value.
func (f *Fund) SetWeights(ctx context.Context, caller string, weights []uint64) error {
	_, err := f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()

	if !f.access.IsWhitelisted(caller) {
		return fmt.Errorf("%w: %s may not set weights", domain.ErrUnauthorized, caller)
	}
	if len(weights) != len(f.strategies) {
		return fmt.Errorf("%w: %d weights for %d strategies", domain.ErrInvalidArgument, len(weights), len(f.strategies))
	}
	var sum uint64
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("%w: weights must sum to a positive value", domain.ErrInvalidArgument)
	}

	f.weights = append([]uint64(nil), weights...)

	f.log.Info().Ints64("weights", toInts64(weights)).Msg("Target weights replaced")
	f.events.Publish(&events.WeightsUpdatedData{Weights: append([]uint64(nil), weights...)})
	return nil
}

// RemoveStrategies removes registry entries by index using swap-with-last.
// Indexes are processed in the caller's order; each removal relocates the
// current tail, so overlapping index lists are order-sensitive and the
// caller is responsible for sorting or deduplicating them. Either every
// index is removed or none are.
func (f *Fund) RemoveStrategies(ctx context.Context, caller string, indexes []int) (err error) {
	_, err = f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()

	if !f.access.IsWhitelisted(caller) {
		return fmt.Errorf("%w: %s may not remove strategies", domain.ErrUnauthorized, caller)
	}

	snap := f.snapshot()
	defer func() {
		if err != nil {
			f.restore(snap)
		}
	}()

	removed := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(f.strategies) {
			return fmt.Errorf("%w: strategy index %d with %d registered", domain.ErrRange, idx, len(f.strategies))
		}
		removed = append(removed, f.strategies[idx].Name)
		last := len(f.strategies) - 1
		f.strategies[idx] = f.strategies[last]
		f.weights[idx] = f.weights[last]
		f.strategies = f.strategies[:last]
		f.weights = f.weights[:last]
	}

	f.log.Info().Strs("removed", removed).Int("remaining", len(f.strategies)).Msg("Strategies removed")
	f.events.Publish(&events.StrategiesRemovedData{Names: removed})
	return nil
}

// StrategyCount returns the number of registered strategies.
func (f *Fund) StrategyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.strategies)
}

// Weights returns a copy of the current target weights.
func (f *Fund) Weights() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.weights...)
}

func toInts64(ws []uint64) []int64 {
	out := make([]int64, len(ws))
	for i, w := range ws {
		out[i] = int64(w)
	}
	return out
}
