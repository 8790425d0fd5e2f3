package finalizer_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/finalizer"
	"github.com/fair-squares/go-fairsquares/modules/onboarding"
	"github.com/fair-squares/go-fairsquares/modules/roles"
)

var (
	admin    = common.AccountFromSeed("//Admin")
	bob      = common.AccountFromSeed("//Bob")
	charlie  = common.AccountFromSeed("//Charlie")
	dave     = common.AccountFromSeed("//Dave")
	george   = common.AccountFromSeed("//George")
	houseKey = common.AssetKey{Collection: 0, Item: 0}
)

type fakeLifecycle struct {
	houses map[common.AssetKey]onboarding.Asset
}

func (l *fakeLifecycle) House(key common.AssetKey) (onboarding.Asset, bool) {
	asset, ok := l.houses[key]
	return asset, ok
}

func (l *fakeLifecycle) TransitionStatus(key common.AssetKey, to onboarding.AssetStatus) error {
	asset := l.houses[key]
	asset.Status = to
	l.houses[key] = asset
	return nil
}

type fakeNFTs struct {
	owners map[common.AssetKey]common.AccountID
}

func (n *fakeNFTs) OwnerOf(key common.AssetKey) (common.AccountID, error) {
	owner, ok := n.owners[key]
	if !ok {
		return common.AccountID{}, errors.Wrapf(errs.CollectionOrItemUnknown, "item %s", key)
	}
	return owner, nil
}

type fakeFund struct {
	cancelled []common.AssetKey
}

func (f *fakeFund) CancelHouseBidding(houseID common.AssetKey) error {
	f.cancelled = append(f.cancelled, houseID)
	return nil
}

type finalizerEnv struct {
	system    *runtime.Runtime
	lifecycle *fakeLifecycle
	nfts      *fakeNFTs
	fund      *fakeFund
	pallet    *finalizer.Pallet
}

// newFinalizerEnv stands up a house owned by bob the seller, with charlie as
// the notary, in the given lifecycle status.
func newFinalizerEnv(t *testing.T, status onboarding.AssetStatus) *finalizerEnv {
	t.Helper()
	system := runtime.New()
	reg := roles.New(system, roles.Params{MaxMembers: 100, MaxRoles: 3}, admin)
	reg.ForceAssign(bob, common.RoleSeller)
	reg.ForceAssign(charlie, common.RoleNotary)

	lifecycle := &fakeLifecycle{houses: map[common.AssetKey]onboarding.Asset{
		houseKey: {Status: status},
	}}
	nfts := &fakeNFTs{owners: map[common.AssetKey]common.AccountID{houseKey: bob}}
	fund := &fakeFund{}
	pallet := finalizer.New(system, reg, lifecycle, nfts, fund)

	system.InitializeBlock(1)
	return &finalizerEnv{system: system, lifecycle: lifecycle, nfts: nfts, fund: fund, pallet: pallet}
}

func findEvent[T types.Event](t *testing.T, system *runtime.Runtime) T {
	t.Helper()
	for _, rec := range system.Events() {
		if e, ok := rec.Event.(T); ok {
			return e
		}
	}
	var zero T
	t.Fatalf("no %T event deposited", zero)
	return zero
}

// The notary validation rides the dispatch table like any signed extrinsic.
func TestValidateMovesToFinalised(t *testing.T) {
	env := newFinalizerEnv(t, onboarding.StatusFinalising)

	err := env.system.Dispatch(types.Signed(charlie),
		types.NewCall(common.ModuleFinalizer, "validate_transaction_asset", &finalizer.AssetArgs{Collection: 0, Item: 0}))
	require.NoError(t, err)

	assert.Equal(t, onboarding.StatusFinalised, env.lifecycle.houses[houseKey].Status)
	assert.Empty(t, env.fund.cancelled)
	validated := findEvent[finalizer.TransactionValidated](t, env.system)
	assert.Equal(t, charlie, validated.Notary)
}

func TestValidateGuards(t *testing.T) {
	env := newFinalizerEnv(t, onboarding.StatusFinalising)

	// Only the notary can validate.
	require.Error(t, env.pallet.ValidateTransactionAsset(dave, houseKey))

	err := env.pallet.ValidateTransactionAsset(charlie, common.AssetKey{Collection: 0, Item: 9})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.CollectionOrItemUnknown))

	require.NoError(t, env.lifecycle.TransitionStatus(houseKey, onboarding.StatusOnboarded))
	err = env.pallet.ValidateTransactionAsset(charlie, houseKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.HouseHasNotFinalisingStatus))
}

func TestRejectReleasesReservation(t *testing.T) {
	env := newFinalizerEnv(t, onboarding.StatusFinalising)

	require.NoError(t, env.pallet.RejectTransactionAsset(charlie, houseKey))
	assert.Equal(t, onboarding.StatusRejected, env.lifecycle.houses[houseKey].Status)
	assert.Equal(t, []common.AssetKey{houseKey}, env.fund.cancelled)
	rejected := findEvent[finalizer.TransactionRejected](t, env.system)
	assert.Equal(t, charlie, rejected.Notary)
}

func TestRejectRequiresFinalisingStatus(t *testing.T) {
	env := newFinalizerEnv(t, onboarding.StatusFinalised)

	err := env.pallet.RejectTransactionAsset(charlie, houseKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.HouseHasNotFinalisingStatus))
	assert.Empty(t, env.fund.cancelled)
}

func TestCancelGuards(t *testing.T) {
	env := newFinalizerEnv(t, onboarding.StatusFinalised)

	// Sellers only, and only the selling owner of this house.
	require.Error(t, env.pallet.CancelTransactionAsset(dave, houseKey))

	env.nfts.owners[houseKey] = george
	err := env.pallet.CancelTransactionAsset(bob, houseKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotTheHouseOwner))
	env.nfts.owners[houseKey] = bob

	// Cancellation is only open after the notary validated.
	require.NoError(t, env.lifecycle.TransitionStatus(houseKey, onboarding.StatusFinalising))
	err = env.pallet.CancelTransactionAsset(bob, houseKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.HouseHasNotFinalisedStatus))
	assert.Empty(t, env.fund.cancelled)
}

func TestCancelReleasesReservation(t *testing.T) {
	env := newFinalizerEnv(t, onboarding.StatusFinalised)

	require.NoError(t, env.pallet.CancelTransactionAsset(bob, houseKey))
	assert.Equal(t, onboarding.StatusCancelled, env.lifecycle.houses[houseKey].Status)
	assert.Equal(t, []common.AssetKey{houseKey}, env.fund.cancelled)
	cancelled := findEvent[finalizer.TransactionCancelled](t, env.system)
	assert.Equal(t, bob, cancelled.Seller)
}
