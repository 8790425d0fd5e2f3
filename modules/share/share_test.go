package share_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/modules/assets"
	"github.com/fair-squares/go-fairsquares/modules/balances"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
	"github.com/fair-squares/go-fairsquares/modules/share"
)

var (
	charlie  = common.AccountFromSeed("//Charlie")
	dave     = common.AccountFromSeed("//Dave")
	eve      = common.AccountFromSeed("//Eve")
	ferdie   = common.AccountFromSeed("//Ferdie")
	houseKey = common.AssetKey{Collection: 0, Item: 0}
)

type fakeFund struct {
	reservations map[common.AssetKey]housingfund.FundOperation
	validated    []common.AssetKey
}

func (f *fakeFund) Reservation(houseID common.AssetKey) (housingfund.FundOperation, bool) {
	op, ok := f.reservations[houseID]
	return op, ok
}

func (f *fakeFund) ValidateHouseBidding(houseID common.AssetKey) error {
	f.validated = append(f.validated, houseID)
	return nil
}

type fakeLifecycle struct {
	price  common.Balance
	buyers map[common.AssetKey]common.AccountID
}

func (l *fakeLifecycle) DoBuy(key common.AssetKey, buyer common.AccountID) error {
	if l.buyers == nil {
		l.buyers = make(map[common.AssetKey]common.AccountID)
	}
	l.buyers[key] = buyer
	return nil
}

func (l *fakeLifecycle) PriceOf(common.AssetKey) (common.Balance, error) {
	return l.price, nil
}

type shareEnv struct {
	system    *runtime.Runtime
	bal       *balances.Pallet
	tokens    *assets.Pallet
	fund      *fakeFund
	lifecycle *fakeLifecycle
	pallet    *share.Pallet
}

func newShareEnv(t *testing.T, price common.Balance, cohort []housingfund.ContributorShare) *shareEnv {
	t.Helper()
	system := runtime.New()
	bal := balances.New(system)
	tokens := assets.New(system)
	fund := &fakeFund{reservations: map[common.AssetKey]housingfund.FundOperation{
		houseKey: {HouseID: houseKey, Amount: price, Contributions: cohort},
	}}
	lifecycle := &fakeLifecycle{price: price}
	pallet := share.New(system, share.Params{Fees: 1_000}, bal, fund, lifecycle, tokens)

	bal.Deposit(pallet.FeesAccount(), 10_000)
	system.InitializeBlock(1)
	return &shareEnv{
		system:    system,
		bal:       bal,
		tokens:    tokens,
		fund:      fund,
		lifecycle: lifecycle,
		pallet:    pallet,
	}
}

// S1 numbers: a 40,000 purchase held 37.5%/62.5% becomes 375 and 625 of the
// 1000 tokens, with no residue.
func TestCreateVirtualDistributesTokens(t *testing.T) {
	env := newShareEnv(t, 40_000, []housingfund.ContributorShare{
		{Account: dave, Amount: 15_000},
		{Account: eve, Amount: 25_000},
	})
	require.NoError(t, env.pallet.CreateVirtual(houseKey))

	va := houseKey.VirtualAccount()
	ownership, ok := env.pallet.OwnershipOf(houseKey)
	require.True(t, ok)
	assert.Equal(t, va, ownership.VirtualAccount)
	assert.Equal(t, assets.ClassID(0), ownership.TokenID)
	assert.Equal(t, []common.AccountID{dave, eve}, ownership.Owners)
	assert.Equal(t, common.BlockNumber(1), ownership.Created)

	assert.Equal(t, common.Balance(375), env.tokens.BalanceOf(0, dave))
	assert.Equal(t, common.Balance(625), env.tokens.BalanceOf(0, eve))
	assert.Zero(t, env.tokens.BalanceOf(0, va))
	assert.Equal(t, share.TokenSupply, env.tokens.TotalSupply(0))

	md, ok := env.tokens.ClassMetadata(0)
	require.True(t, ok)
	assert.Equal(t, "FairOwner_nbr0", md.Name)
	assert.Equal(t, "FO0", md.Symbol)

	owners, ok := env.pallet.OwnersOf(va)
	require.True(t, ok)
	assert.Equal(t, share.TokenSupply, owners.Supply)
	assert.Equal(t, []share.OwnerBalance{
		{Account: dave, Balance: 375},
		{Account: eve, Balance: 625},
	}, owners.Owners)

	// The virtual account got its fee seed, bought the house and the fund
	// reservation was settled.
	assert.Equal(t, common.Balance(1_000), env.bal.FreeBalance(va))
	assert.Equal(t, common.Balance(9_000), env.bal.FreeBalance(env.pallet.FeesAccount()))
	assert.Equal(t, va, env.lifecycle.buyers[houseKey])
	assert.Equal(t, []common.AssetKey{houseKey}, env.fund.validated)

	assert.True(t, env.pallet.IsOwner(houseKey, dave))
	assert.False(t, env.pallet.IsOwner(houseKey, charlie))

	got, ok := env.pallet.AssetOfVirtual(va)
	require.True(t, ok)
	assert.Equal(t, houseKey, got)
}

// Three near-equal slices of 40,000 each round to 333 tokens; the one token of
// rounding residue stays with the virtual account.
func TestCreateVirtualRoundingResidue(t *testing.T) {
	env := newShareEnv(t, 40_000, []housingfund.ContributorShare{
		{Account: dave, Amount: 13_333},
		{Account: eve, Amount: 13_333},
		{Account: ferdie, Amount: 13_334},
	})
	require.NoError(t, env.pallet.CreateVirtual(houseKey))

	va := houseKey.VirtualAccount()
	assert.Equal(t, common.Balance(333), env.tokens.BalanceOf(0, dave))
	assert.Equal(t, common.Balance(333), env.tokens.BalanceOf(0, eve))
	assert.Equal(t, common.Balance(333), env.tokens.BalanceOf(0, ferdie))
	assert.Equal(t, common.Balance(1), env.tokens.BalanceOf(0, va))
	assert.Equal(t, share.TokenSupply, env.tokens.TotalSupply(0))
}

func TestCreateVirtualRequiresReservation(t *testing.T) {
	env := newShareEnv(t, 40_000, nil)
	err := env.pallet.CreateVirtual(common.AssetKey{Collection: 0, Item: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotFound))
}

func TestCreateVirtualTwiceConflicts(t *testing.T) {
	env := newShareEnv(t, 40_000, []housingfund.ContributorShare{
		{Account: dave, Amount: 40_000},
	})
	require.NoError(t, env.pallet.CreateVirtual(houseKey))

	err := env.pallet.CreateVirtual(houseKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ConflictSetting))
}

func TestRentCycleCounters(t *testing.T) {
	env := newShareEnv(t, 40_000, []housingfund.ContributorShare{
		{Account: dave, Amount: 40_000},
	})
	require.NoError(t, env.pallet.CreateVirtual(houseKey))

	require.NoError(t, env.pallet.IncrementRentNbr(houseKey))
	require.NoError(t, env.pallet.IncrementRentNbr(houseKey))
	ownership, ok := env.pallet.OwnershipOf(houseKey)
	require.True(t, ok)
	assert.Equal(t, uint32(2), ownership.RentNbr)

	require.NoError(t, env.pallet.ResetRentNbr(houseKey))
	ownership, _ = env.pallet.OwnershipOf(houseKey)
	assert.Zero(t, ownership.RentNbr)

	err := env.pallet.IncrementRentNbr(common.AssetKey{Collection: 0, Item: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotFound))
}
