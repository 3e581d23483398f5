// Package fund implements the accounting and capital-allocation engine of a
// pooled investment fund: share accounting over deposits, weight-targeted
// capital deployment across strategy venues, a batch-settled redemption
// queue, and performance-fee accrual.
//
// The engine is a single aggregate. Every public operation is serialized,
// holds a reentrancy guard for its full duration, and either commits
// completely or leaves the fund's internal state exactly as it found it.
package fund

import (
	"context"
	"fmt"
	"sync"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/events"
	"github.com/rs/zerolog"
)

// StrategyEntry is a registered strategy venue. The name is fetched once at
// registration and never re-queried.
type StrategyEntry struct {
	Adapter domain.StrategyAdapter
	Name    string
}

// RedemptionRequest is one entry in the append-only redemption queue.
// Shares == 0 marks a tombstone: the request was settled (or was trimmed
// into this slot) and is permanently excluded from future settlement.
type RedemptionRequest struct {
	Requester string
	Shares    uint64
}

// Config holds the fund's static configuration.
type Config struct {
	// Custody is the engine's own account on the asset token and share
	// ledger. Pulled deposits, raised liquidity and locked shares all live
	// here.
	Custody string

	// Owner has full control and satisfies every narrower capability check.
	Owner string

	// Treasury receives minted performance-fee shares.
	Treasury string

	// TreasuryManager may change the treasury account, and nothing else.
	TreasuryManager string

	// FeeRatePercent is the performance fee on realized gains, 0-100.
	FeeRatePercent uint64

	// Operators are the initially whitelisted operator accounts.
	Operators []string
}

// Fund is the singleton fund aggregate.
type Fund struct {
	mu sync.Mutex

	asset   domain.AssetToken
	shares  domain.ShareLedger
	custody string

	access   *AccessRegistry
	treasury string
	feeRate  uint64

	// principalAfterFees is the fund value already fee-accounted: the
	// baseline for measuring future gains. It may lag totalValue between
	// collections.
	principalAfterFees uint64

	// strategies and weights are co-indexed and always equal length.
	strategies []StrategyEntry
	weights    []uint64

	queue []RedemptionRequest

	events events.Publisher
	log    zerolog.Logger
}

// New creates the fund aggregate.
func New(cfg Config, asset domain.AssetToken, shares domain.ShareLedger, publisher events.Publisher, log zerolog.Logger) (*Fund, error) {
	if asset == nil || shares == nil {
		return nil, fmt.Errorf("%w: asset token and share ledger are required", domain.ErrInvalidArgument)
	}
	if cfg.Custody == "" || cfg.Owner == "" || cfg.Treasury == "" {
		return nil, fmt.Errorf("%w: custody, owner and treasury accounts are required", domain.ErrInvalidArgument)
	}
	if cfg.FeeRatePercent > 100 {
		return nil, fmt.Errorf("%w: fee rate %d exceeds 100 percent", domain.ErrInvalidArgument, cfg.FeeRatePercent)
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &Fund{
		asset:    asset,
		shares:   shares,
		custody:  cfg.Custody,
		access:   NewAccessRegistry(cfg.Owner, cfg.TreasuryManager, cfg.Operators),
		treasury: cfg.Treasury,
		feeRate:  cfg.FeeRatePercent,
		events:   publisher,
		log:      log.With().Str("component", "fund").Logger(),
	}, nil
}

// opKey marks a context as belonging to an in-flight engine operation.
type opKey struct{}

// enter serializes the operation and arms the reentrancy guard. The returned
// context must be used for every external call made during the operation: a
// strategy or ledger that calls back into the engine with it is rejected
// with ErrReentrancy before it can observe partially-updated state. The
// guard rides on context propagation: a callback that drops the context is
// indistinguishable from a concurrent caller and blocks on the mutex rather
// than failing fast, deadlocking if made synchronously from inside the
// operation.
func (f *Fund) enter(ctx context.Context) (context.Context, error) {
	if ctx.Value(opKey{}) != nil {
		return nil, domain.ErrReentrancy
	}
	f.mu.Lock()
	return context.WithValue(ctx, opKey{}, struct{}{}), nil
}

func (f *Fund) exit() {
	f.mu.Unlock()
}

// snapshot captures the fund's internal state so a failed operation can
// restore it. External side effects are ordered so that validation precedes
// them; where an external mutation can still be followed by a failure, the
// error path compensates it (refunding a pulled deposit, re-minting burned
// shares, burning an uncommitted fee mint) before the snapshot is restored.
type snapshot struct {
	principalAfterFees uint64
	treasury           string
	feeRate            uint64
	strategies         []StrategyEntry
	weights            []uint64
	queue              []RedemptionRequest
}

func (f *Fund) snapshot() snapshot {
	return snapshot{
		principalAfterFees: f.principalAfterFees,
		treasury:           f.treasury,
		feeRate:            f.feeRate,
		strategies:         append([]StrategyEntry(nil), f.strategies...),
		weights:            append([]uint64(nil), f.weights...),
		queue:              append([]RedemptionRequest(nil), f.queue...),
	}
}

func (f *Fund) restore(s snapshot) {
	f.principalAfterFees = s.principalAfterFees
	f.treasury = s.treasury
	f.feeRate = s.feeRate
	f.strategies = s.strategies
	f.weights = s.weights
	f.queue = s.queue
}

// totalValue recomputes the fund's value: idle custody balance plus the sum
// of every strategy's reported value. Never cached. Caller holds the guard.
func (f *Fund) totalValue(ctx context.Context) (uint64, error) {
	total, err := f.asset.BalanceOf(ctx, f.custody)
	if err != nil {
		return 0, fmt.Errorf("failed to read custody balance: %w", err)
	}
	for _, s := range f.strategies {
		v, err := s.Adapter.Value(ctx)
		if err != nil {
			return 0, fmt.Errorf("strategy %q value query failed: %w", s.Name, err)
		}
		total += v
	}
	return total, nil
}

// TotalValue returns the fund's current value.
func (f *Fund) TotalValue(ctx context.Context) (uint64, error) {
	ctx, err := f.enter(ctx)
	if err != nil {
		return 0, err
	}
	defer f.exit()
	return f.totalValue(ctx)
}

// StrategyStatus describes one registered strategy for reporting.
type StrategyStatus struct {
	Name   string `json:"name"`
	Weight uint64 `json:"weight"`
	Value  uint64 `json:"value"`
}

// Status is a point-in-time view of the fund for reporting.
type Status struct {
	TotalValue         uint64           `json:"total_value"`
	IdleBalance        uint64           `json:"idle_balance"`
	TotalShares        uint64           `json:"total_shares"`
	PrincipalAfterFees uint64           `json:"principal_after_fees"`
	FeeRatePercent     uint64           `json:"fee_rate_percent"`
	Treasury           string           `json:"treasury"`
	Strategies         []StrategyStatus `json:"strategies"`
	QueueDepth         int              `json:"queue_depth"`
	QueueLive          int              `json:"queue_live"`
}

// Status reports the fund's current state.
func (f *Fund) Status(ctx context.Context) (Status, error) {
	ctx, err := f.enter(ctx)
	if err != nil {
		return Status{}, err
	}
	defer f.exit()

	idle, err := f.asset.BalanceOf(ctx, f.custody)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read custody balance: %w", err)
	}
	supply, err := f.shares.TotalSupply(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read share supply: %w", err)
	}

	total := idle
	strategies := make([]StrategyStatus, len(f.strategies))
	for i, s := range f.strategies {
		v, err := s.Adapter.Value(ctx)
		if err != nil {
			return Status{}, fmt.Errorf("strategy %q value query failed: %w", s.Name, err)
		}
		total += v
		strategies[i] = StrategyStatus{Name: s.Name, Weight: f.weights[i], Value: v}
	}

	live := 0
	for _, req := range f.queue {
		if req.Shares > 0 {
			live++
		}
	}

	return Status{
		TotalValue:         total,
		IdleBalance:        idle,
		TotalShares:        supply,
		PrincipalAfterFees: f.principalAfterFees,
		FeeRatePercent:     f.feeRate,
		Treasury:           f.treasury,
		Strategies:         strategies,
		QueueDepth:         len(f.queue),
		QueueLive:          live,
	}, nil
}

// Queue returns a copy of the redemption queue.
func (f *Fund) Queue() []RedemptionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RedemptionRequest(nil), f.queue...)
}

// SetTreasury changes the account that receives fee shares. Allowed for the
// owner and the treasury manager.
func (f *Fund) SetTreasury(ctx context.Context, caller, account string) error {
	_, err := f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()

	if !f.access.CanManageTreasury(caller) {
		return fmt.Errorf("%w: %s may not change the treasury", domain.ErrUnauthorized, caller)
	}
	if account == "" {
		return fmt.Errorf("%w: empty treasury account", domain.ErrInvalidArgument)
	}
	f.treasury = account
	f.log.Info().Str("treasury", account).Str("caller", caller).Msg("Treasury account updated")
	return nil
}

// SetFeeRate changes the performance-fee rate. Owner only.
func (f *Fund) SetFeeRate(ctx context.Context, caller string, ratePercent uint64) error {
	_, err := f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()

	if !f.access.IsOwner(caller) {
		return fmt.Errorf("%w: %s may not change the fee rate", domain.ErrUnauthorized, caller)
	}
	if ratePercent > 100 {
		return fmt.Errorf("%w: fee rate %d exceeds 100 percent", domain.ErrInvalidArgument, ratePercent)
	}
	f.feeRate = ratePercent
	f.log.Info().Uint64("fee_rate", ratePercent).Str("caller", caller).Msg("Fee rate updated")
	return nil
}

// AddOperator whitelists an operator account. Owner only.
func (f *Fund) AddOperator(ctx context.Context, caller, account string) error {
	_, err := f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()
	return f.access.Whitelist(caller, account)
}

// RemoveOperator removes an operator from the whitelist. Owner only.
func (f *Fund) RemoveOperator(ctx context.Context, caller, account string) error {
	_, err := f.enter(ctx)
	if err != nil {
		return err
	}
	defer f.exit()
	return f.access.Unwhitelist(caller, account)
}
