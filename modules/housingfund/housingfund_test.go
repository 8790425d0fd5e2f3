package housingfund_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/modules/balances"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
	"github.com/fair-squares/go-fairsquares/modules/roles"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
)

var (
	admin = common.AccountFromSeed("//Admin")
	dave  = common.AccountFromSeed("//Dave")
	eve   = common.AccountFromSeed("//Eve")
	bob   = common.AccountFromSeed("//Bob")
)

type fundEnv struct {
	system *runtime.Runtime
	bal    *balances.Pallet
	fund   *housingfund.Pallet
}

func newFundEnv(t *testing.T) *fundEnv {
	t.Helper()
	system := runtime.New()
	bal := balances.New(system)
	reg := roles.New(system, roles.Params{MaxMembers: 100, MaxRoles: 3}, admin)
	fund := housingfund.New(system, housingfund.Params{MinContribution: 1_000}, bal, reg)

	for _, who := range []common.AccountID{dave, eve} {
		bal.Deposit(who, 1_000_000)
		reg.ForceAssign(who, common.RoleInvestor)
	}
	bal.Deposit(bob, 1_000_000)
	return &fundEnv{system: system, bal: bal, fund: fund}
}

func TestContributeChecks(t *testing.T) {
	env := newFundEnv(t)

	err := env.fund.Contribute(bob, 10_000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotAnInvestor))

	err = env.fund.Contribute(dave, 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ContributionTooSmall))

	err = env.fund.Contribute(dave, 2_000_000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotEnoughToContribute))
}

func TestContributeMovesFundsAndShares(t *testing.T) {
	env := newFundEnv(t)

	require.NoError(t, env.fund.Contribute(dave, 15_000))
	assert.Equal(t, common.Balance(985_000), env.bal.FreeBalance(dave))
	assert.Equal(t, common.Balance(15_000), env.bal.FreeBalance(env.fund.FundAccount()))

	info := env.fund.FundBalance()
	assert.Equal(t, common.Balance(15_000), info.Total)
	assert.Equal(t, common.Balance(15_000), info.Transferable)
	assert.Zero(t, info.Reserved)

	c, ok := env.fund.ContributionOf(dave)
	require.True(t, ok)
	assert.Equal(t, common.Balance(15_000), c.Available)
	assert.Equal(t, fixedmath.One, c.Share)
	require.Len(t, c.Contributions, 1)

	require.NoError(t, env.fund.Contribute(eve, 35_000))
	c, _ = env.fund.ContributionOf(dave)
	assert.Equal(t, fixedmath.FromPercent(30), c.Share)
	c, _ = env.fund.ContributionOf(eve)
	assert.Equal(t, fixedmath.FromPercent(70), c.Share)
}

func TestWithdraw(t *testing.T) {
	env := newFundEnv(t)

	err := env.fund.Withdraw(dave, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotAContributor))

	require.NoError(t, env.fund.Contribute(dave, 15_000))

	err = env.fund.Withdraw(dave, 15_001)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotEnoughFundToWithdraw))

	require.NoError(t, env.fund.Withdraw(dave, 5_000))
	assert.Equal(t, common.Balance(990_000), env.bal.FreeBalance(dave))

	c, _ := env.fund.ContributionOf(dave)
	assert.Equal(t, common.Balance(10_000), c.Available)
	assert.True(t, c.HasWithdrawn)
	require.Len(t, c.Withdraws, 1)

	info := env.fund.FundBalance()
	assert.Equal(t, common.Balance(10_000), info.Total)
	assert.Equal(t, common.Balance(10_000), info.Transferable)
}

func houseKey() common.AssetKey {
	return common.AssetKey{Collection: 0, Item: 0}
}

func cohort() []housingfund.ContributorShare {
	return []housingfund.ContributorShare{
		{Account: dave, Amount: 15_000},
		{Account: eve, Amount: 25_000},
	}
}

func TestHouseBiddingReservesCohort(t *testing.T) {
	env := newFundEnv(t)
	require.NoError(t, env.fund.Contribute(dave, 15_000))
	require.NoError(t, env.fund.Contribute(eve, 35_000))

	require.NoError(t, env.fund.HouseBidding(houseKey(), 40_000, cohort()))

	err := env.fund.HouseBidding(houseKey(), 40_000, cohort())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ConflictSetting))

	info := env.fund.FundBalance()
	assert.Equal(t, common.Balance(40_000), info.Reserved)
	assert.Equal(t, common.Balance(10_000), info.Transferable)
	assert.Equal(t, common.Balance(50_000), info.Total)
	assert.Equal(t, common.Balance(40_000), env.bal.ReservedBalance(env.fund.FundAccount()))

	c, _ := env.fund.ContributionOf(dave)
	assert.Zero(t, c.Available)
	assert.Equal(t, common.Balance(15_000), c.Reserved)
	c, _ = env.fund.ContributionOf(eve)
	assert.Equal(t, common.Balance(10_000), c.Available)
	assert.Equal(t, common.Balance(25_000), c.Reserved)

	op, ok := env.fund.Reservation(houseKey())
	require.True(t, ok)
	assert.Equal(t, common.Balance(40_000), op.Amount)
	assert.Equal(t, cohort(), op.Contributions)

	// A reserved slice cannot be withdrawn.
	err = env.fund.Withdraw(dave, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotEnoughFundToWithdraw))
}

func TestHouseBiddingRejectsOverdrawnCohort(t *testing.T) {
	env := newFundEnv(t)
	require.NoError(t, env.fund.Contribute(dave, 15_000))

	err := env.fund.HouseBidding(houseKey(), 40_000, cohort())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotAContributor))

	require.NoError(t, env.fund.Contribute(eve, 20_000))
	err = env.fund.HouseBidding(houseKey(), 40_000, cohort())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotEnoughAvailableBalance))
}

func TestCancelHouseBiddingRestoresState(t *testing.T) {
	env := newFundEnv(t)
	require.NoError(t, env.fund.Contribute(dave, 15_000))
	require.NoError(t, env.fund.Contribute(eve, 35_000))
	require.NoError(t, env.fund.HouseBidding(houseKey(), 40_000, cohort()))

	require.NoError(t, env.fund.CancelHouseBidding(houseKey()))

	err := env.fund.CancelHouseBidding(houseKey())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotFound))

	info := env.fund.FundBalance()
	assert.Zero(t, info.Reserved)
	assert.Equal(t, common.Balance(50_000), info.Transferable)
	assert.Zero(t, env.bal.ReservedBalance(env.fund.FundAccount()))

	c, _ := env.fund.ContributionOf(dave)
	assert.Equal(t, common.Balance(15_000), c.Available)
	assert.Zero(t, c.Reserved)

	_, ok := env.fund.Reservation(houseKey())
	assert.False(t, ok)
}

func TestValidateHouseBiddingSettles(t *testing.T) {
	env := newFundEnv(t)
	require.NoError(t, env.fund.Contribute(dave, 15_000))
	require.NoError(t, env.fund.Contribute(eve, 35_000))
	require.NoError(t, env.fund.HouseBidding(houseKey(), 40_000, cohort()))

	require.NoError(t, env.fund.ValidateHouseBidding(houseKey()))

	info := env.fund.FundBalance()
	assert.Zero(t, info.Reserved)
	assert.Equal(t, common.Balance(40_000), info.Contributed)
	assert.Equal(t, common.Balance(10_000), info.Transferable)

	c, _ := env.fund.ContributionOf(dave)
	assert.Zero(t, c.Reserved)
	assert.Equal(t, common.Balance(15_000), c.Contributed)
	c, _ = env.fund.ContributionOf(eve)
	assert.Equal(t, common.Balance(25_000), c.Contributed)
	assert.Equal(t, common.Balance(10_000), c.Available)

	_, ok := env.fund.Reservation(houseKey())
	assert.False(t, ok)
	op, ok := env.fund.Purchase(houseKey())
	require.True(t, ok)
	assert.Equal(t, common.Balance(40_000), op.Amount)
}

// Contributors must come back ordered by account id so the bidding engine
// iterates identically on every replica.
func TestContributorsDeterministicOrder(t *testing.T) {
	env := newFundEnv(t)
	require.NoError(t, env.fund.Contribute(eve, 35_000))
	require.NoError(t, env.fund.Contribute(dave, 15_000))

	contributors := env.fund.Contributors()
	require.Len(t, contributors, 2)
	assert.Less(t, contributors[0].Account.String(), contributors[1].Account.String())
}
