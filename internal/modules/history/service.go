package history

import (
	"context"
	"time"

	"github.com/quantfold/vault/internal/fund"
	"github.com/rs/zerolog"
)

// Service captures share-price snapshots from the fund engine.
type Service struct {
	fund *fund.Fund
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new history service
func NewService(f *fund.Fund, repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		fund: f,
		repo: repo,
		log:  log.With().Str("service", "history").Logger(),
	}
}

// Capture records the current share price. A fund with no shares records a
// price of zero.
func (s *Service) Capture(ctx context.Context) error {
	status, err := s.fund.Status(ctx)
	if err != nil {
		return err
	}

	var price float64
	if status.TotalShares > 0 {
		price = float64(status.TotalValue) / float64(status.TotalShares)
	}

	snap := Snapshot{
		Timestamp:   time.Now().UTC(),
		TotalValue:  status.TotalValue,
		TotalShares: status.TotalShares,
		SharePrice:  price,
	}
	if err := s.repo.Record(snap); err != nil {
		return err
	}

	s.log.Debug().
		Uint64("total_value", status.TotalValue).
		Uint64("total_shares", status.TotalShares).
		Float64("share_price", price).
		Msg("Price snapshot recorded")
	return nil
}

// Stats returns return statistics over the most recent limit snapshots.
func (s *Service) Stats(limit int) (Stats, error) {
	snapshots, err := s.repo.Recent(limit)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(snapshots), nil
}
