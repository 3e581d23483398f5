package fund

import (
	"context"
	"errors"
	"testing"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/events"
	"github.com/quantfold/vault/internal/token"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCustody  = "vault:custody"
	testOwner    = "alice"
	testTreasury = "vault:treasury"
	testManager  = "mallory"
	testOperator = "bob"
)

func newTestFund(t *testing.T, feeRate uint64) (*Fund, *token.Token, *token.Shares) {
	t.Helper()
	asset := token.New()
	shares := token.NewShares()
	f, err := New(Config{
		Custody:         testCustody,
		Owner:           testOwner,
		Treasury:        testTreasury,
		TreasuryManager: testManager,
		FeeRatePercent:  feeRate,
		Operators:       []string{testOperator},
	}, asset, shares, events.NopPublisher{}, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, err)
	return f, asset, shares
}

// newFundWith builds a fund over caller-supplied ledgers, for tests that
// inject failing collaborators.
func newFundWith(t *testing.T, feeRate uint64, asset domain.AssetToken, shares domain.ShareLedger) *Fund {
	t.Helper()
	f, err := New(Config{
		Custody:         testCustody,
		Owner:           testOwner,
		Treasury:        testTreasury,
		TreasuryManager: testManager,
		FeeRatePercent:  feeRate,
		Operators:       []string{testOperator},
	}, asset, shares, events.NopPublisher{}, zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, err)
	return f
}

// seedDeposit funds an account with backing asset and deposits it.
func seedDeposit(t *testing.T, f *Fund, asset *token.Token, payer string, amount uint64) uint64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, asset.Mint(ctx, payer, amount))
	require.NoError(t, asset.Approve(ctx, payer, testCustody, amount))
	minted, err := f.Deposit(ctx, payer, payer, amount)
	require.NoError(t, err)
	return minted
}

// stubAdapter is a scriptable strategy venue for failure injection. Its
// holdings are virtual: value changes only through the recorded calls.
type stubAdapter struct {
	name        string
	nameErr     error
	value       uint64
	valueErr    error
	depositErr  error
	withdrawErr error

	deposits    []uint64
	withdrawals []uint64
}

func (s *stubAdapter) Name(ctx context.Context) (string, error) {
	return s.name, s.nameErr
}

func (s *stubAdapter) Value(ctx context.Context) (uint64, error) {
	return s.value, s.valueErr
}

func (s *stubAdapter) Deposit(ctx context.Context, amount uint64) error {
	if s.depositErr != nil {
		return s.depositErr
	}
	s.deposits = append(s.deposits, amount)
	s.value += amount
	return nil
}

func (s *stubAdapter) Withdraw(ctx context.Context, amount uint64, recipient string) error {
	if s.withdrawErr != nil {
		return s.withdrawErr
	}
	s.withdrawals = append(s.withdrawals, amount)
	s.value -= amount
	return nil
}

func TestNewValidation(t *testing.T) {
	asset := token.New()
	shares := token.NewShares()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "missing custody",
			cfg:  Config{Owner: testOwner, Treasury: testTreasury},
		},
		{
			name: "missing owner",
			cfg:  Config{Custody: testCustody, Treasury: testTreasury},
		},
		{
			name: "fee rate above 100",
			cfg:  Config{Custody: testCustody, Owner: testOwner, Treasury: testTreasury, FeeRatePercent: 101},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, asset, shares, nil, log)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	_, err := New(Config{Custody: testCustody, Owner: testOwner, Treasury: testTreasury}, nil, nil, nil, log)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestStatusReportsFundState(t *testing.T) {
	f, asset, _ := newTestFund(t, 10)
	ctx := context.Background()

	seedDeposit(t, f, asset, "dana", 1_000_000)
	require.NoError(t, f.AddStrategy(ctx, testOwner, &stubAdapter{name: "venue-a"}, 50))

	status, err := f.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), status.TotalValue)
	assert.Equal(t, uint64(1_000_000), status.IdleBalance)
	assert.Equal(t, uint64(1_000_000), status.TotalShares)
	assert.Equal(t, uint64(1_000_000), status.PrincipalAfterFees)
	assert.Equal(t, uint64(10), status.FeeRatePercent)
	assert.Len(t, status.Strategies, 1)
	assert.Equal(t, "venue-a", status.Strategies[0].Name)
	assert.Equal(t, 0, status.QueueDepth)
}

func TestSetTreasury(t *testing.T) {
	f, _, _ := newTestFund(t, 10)
	ctx := context.Background()

	// treasury manager may change the treasury
	require.NoError(t, f.SetTreasury(ctx, testManager, "new-treasury"))

	// operators may not
	err := f.SetTreasury(ctx, testOperator, "hijacked")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	status, err := f.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-treasury", status.Treasury)
}

func TestSetFeeRate(t *testing.T) {
	f, _, _ := newTestFund(t, 10)
	ctx := context.Background()

	require.NoError(t, f.SetFeeRate(ctx, testOwner, 20))

	err := f.SetFeeRate(ctx, testOwner, 101)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	err = f.SetFeeRate(ctx, testManager, 5)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestOperatorManagement(t *testing.T) {
	f, _, _ := newTestFund(t, 0)
	ctx := context.Background()

	require.NoError(t, f.AddOperator(ctx, testOwner, "carol"))
	require.NoError(t, f.AddStrategy(ctx, "carol", &stubAdapter{name: "venue-a"}, 1))

	require.NoError(t, f.RemoveOperator(ctx, testOwner, "carol"))
	err := f.AddStrategy(ctx, "carol", &stubAdapter{name: "venue-b"}, 1)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	err = f.AddOperator(ctx, testOperator, "eve")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestOperationFailureLeavesStateUntouched(t *testing.T) {
	f, asset, shares := newTestFund(t, 10)
	ctx := context.Background()
	seedDeposit(t, f, asset, "dana", 1_000)

	before, err := f.Status(ctx)
	require.NoError(t, err)

	// a deposit with no allowance fails after validation
	require.NoError(t, asset.Mint(ctx, "erin", 500))
	_, err = f.Deposit(ctx, "erin", "erin", 500)
	require.ErrorIs(t, err, domain.ErrInsufficientAllowance)

	after, err := f.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	supply, err := shares.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), supply)
}

func TestQueueReturnsCopy(t *testing.T) {
	f, asset, shares := newTestFund(t, 0)
	ctx := context.Background()
	seedDeposit(t, f, asset, "dana", 1_000)
	require.NoError(t, shares.Approve(ctx, "dana", testCustody, 1_000))
	_, err := f.RequestRedemption(ctx, "dana", 400)
	require.NoError(t, err)

	q := f.Queue()
	require.Len(t, q, 1)
	q[0].Shares = 0

	assert.Equal(t, uint64(400), f.Queue()[0].Shares)
}

func TestAdapterErrorAbortsOperation(t *testing.T) {
	f, asset, _ := newTestFund(t, 0)
	ctx := context.Background()
	seedDeposit(t, f, asset, "dana", 1_000)
	require.NoError(t, f.AddStrategy(ctx, testOwner, &stubAdapter{name: "venue-a"}, 1))

	// break the adapter after registration
	broken := errors.New("venue offline")
	f.strategies[0].Adapter.(*stubAdapter).valueErr = broken

	_, err := f.TotalValue(ctx)
	assert.ErrorIs(t, err, broken)
}
