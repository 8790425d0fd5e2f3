package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/fair-squares/go-fairsquares/modules/finalizer"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
	"github.com/fair-squares/go-fairsquares/modules/identity"
	"github.com/fair-squares/go-fairsquares/modules/management"
	"github.com/fair-squares/go-fairsquares/modules/nft"
	"github.com/fair-squares/go-fairsquares/modules/onboarding"
	"github.com/fair-squares/go-fairsquares/modules/roles"
	"github.com/fair-squares/go-fairsquares/modules/tenancy"
	"github.com/fair-squares/go-fairsquares/modules/voting"
)

var (
	alice   = common.AccountFromSeed("//Alice")
	bob     = common.AccountFromSeed("//Bob")
	charlie = common.AccountFromSeed("//Charlie")
	dave    = common.AccountFromSeed("//Dave")
	eve     = common.AccountFromSeed("//Eve")
	ferdie  = common.AccountFromSeed("//Ferdie")
	george  = common.AccountFromSeed("//George")
	henry   = common.AccountFromSeed("//Henry")

	houseKey = common.AssetKey{Collection: 0, Item: 0}
)

const endowment common.Balance = 1_000_000

// testGenesis extends the dev layout with a servicer who can open the house
// collection and an extra account applying for the representative role.
func testGenesis() chain.Genesis {
	return chain.Genesis{
		Endowed: map[common.AccountID]common.Balance{
			alice: endowment, bob: endowment, charlie: endowment,
			dave: endowment, eve: endowment, ferdie: endowment,
			george: endowment, henry: endowment,
		},
		Council: []common.AccountID{alice, bob, charlie},
		Admin:   alice,
		Roles: map[common.AccountID]common.Role{
			bob:     common.RoleSeller,
			charlie: common.RoleNotary,
			dave:    common.RoleInvestor,
			eve:     common.RoleInvestor,
			ferdie:  common.RoleTenant,
			george:  common.RoleServicer,
		},
		FeesBalance: endowment,
	}
}

func newTestChain(t *testing.T) *chain.Chain {
	t.Helper()
	return chain.New(chain.DefaultParams(), testGenesis())
}

func submit(t *testing.T, c *chain.Chain, who common.AccountID, call types.Call) {
	t.Helper()
	require.NoError(t, c.Submit(types.Signed(who), call))
}

// proposeHouse walks the pre-vote steps shared by every lifecycle test: the
// servicer opens a collection, the investors seed the pool and the seller
// submits a 40,000 house. It leaves the chain at block 4 with the asset in
// review.
func proposeHouse(t *testing.T, c *chain.Chain) common.Hash {
	t.Helper()
	c.NextBlock() // 1
	submit(t, c, george, types.NewCall(common.ModuleNFT, "create_collection", &nft.CreateCollectionArgs{Name: "HOUSES"}))

	c.NextBlock() // 2
	submit(t, c, dave, types.NewCall(common.ModuleHousingFund, "contribute", &housingfund.AmountArgs{Amount: 15_000}))
	c.NextBlock() // 3
	submit(t, c, eve, types.NewCall(common.ModuleHousingFund, "contribute", &housingfund.AmountArgs{Amount: 35_000}))

	c.NextBlock() // 4
	submit(t, c, bob, types.NewCall(common.ModuleOnboarding, "create_and_submit_proposal", &onboarding.CreateProposalArgs{
		Collection: 0,
		Price:      40_000,
		Metadata:   "12 Main Street",
		Submit:     true,
		MaxTenants: 1,
	}))

	house, ok := c.Onboarding.House(houseKey)
	require.True(t, ok)
	require.Equal(t, onboarding.StatusReviewing, house.Status)
	return house.ProposalHash
}

// councilApproves casts three aye votes and closes the motion, opening the
// investor referendum.
func councilApproves(t *testing.T, c *chain.Chain, hash common.Hash) {
	t.Helper()
	for _, member := range []common.AccountID{alice, bob, charlie} {
		submit(t, c, member, types.NewCall(common.ModuleVoting, "council_vote", &voting.VoteArgs{ProposalHash: hash, Approve: true}))
	}
	submit(t, c, alice, types.NewCall(common.ModuleVoting, "council_close_vote", &voting.CloseArgs{ProposalHash: hash}))
}

func TestFullLifecycle(t *testing.T) {
	c := newTestChain(t)
	hash := proposeHouse(t, c)

	// Stage 1: the council approves at block 5; the pass call moves the
	// asset into the investor vote.
	c.NextBlock() // 5
	councilApproves(t, c, hash)
	house, _ := c.Onboarding.House(houseKey)
	assert.Equal(t, onboarding.StatusVoting, house.Status)

	// Stage 2: both investors approve the referendum that ends at block 25.
	c.NextBlock() // 6
	for _, inv := range []common.AccountID{dave, eve} {
		submit(t, c, inv, types.NewCall(common.ModuleVoting, "investor_vote", &voting.VoteArgs{ProposalHash: hash, Approve: true}))
	}

	c.RunToBlock(29)
	house, _ = c.Onboarding.House(houseKey)
	assert.Equal(t, onboarding.StatusVoting, house.Status)

	// Block 30: the scheduled enactment onboards the asset, then the bidding
	// scan assembles the cohort in the same block.
	c.RunToBlock(30)
	house, _ = c.Onboarding.House(houseKey)
	require.Equal(t, onboarding.StatusFinalising, house.Status)
	op, ok := c.Fund.Reservation(houseKey)
	require.True(t, ok)
	require.Equal(t, []housingfund.ContributorShare{
		{Account: dave, Amount: 15_000},
		{Account: eve, Amount: 25_000},
	}, op.Contributions)
	assert.Equal(t, common.Balance(40_000), c.Balances.ReservedBalance(c.Fund.FundAccount()))

	// The notary validates; the next scan settles the purchase.
	c.NextBlock() // 31
	submit(t, c, charlie, types.NewCall(common.ModuleFinalizer, "validate_transaction_asset", &finalizer.AssetArgs{Collection: 0, Item: 0}))

	c.RunToBlock(35)
	house, _ = c.Onboarding.House(houseKey)
	require.Equal(t, onboarding.StatusPurchased, house.Status)

	// Settlement: the seller got the price and the full deposit back.
	assert.Equal(t, common.Balance(1_040_000), c.Balances.FreeBalance(bob))
	assert.Zero(t, c.Balances.ReservedBalance(bob))

	va := houseKey.VirtualAccount()
	owner, err := c.NFT.OwnerOf(houseKey)
	require.NoError(t, err)
	assert.Equal(t, va, owner)

	ownership, ok := c.Share.OwnershipOf(houseKey)
	require.True(t, ok)
	assert.Equal(t, va, ownership.VirtualAccount)
	assert.Equal(t, []common.AccountID{dave, eve}, ownership.Owners)
	assert.Equal(t, common.Balance(375), c.Assets.BalanceOf(ownership.TokenID, dave))
	assert.Equal(t, common.Balance(625), c.Assets.BalanceOf(ownership.TokenID, eve))
	assert.Equal(t, common.Balance(1_000), c.Balances.FreeBalance(va)) // fees seed

	info := c.Fund.FundBalance()
	assert.Equal(t, common.Balance(50_000), info.Total)
	assert.Equal(t, common.Balance(10_000), info.Transferable)
	assert.Zero(t, info.Reserved)
	assert.Equal(t, common.Balance(40_000), info.Contributed)
	_, ok = c.Fund.Purchase(houseKey)
	assert.True(t, ok)

	// Owners elect a representative. Each owner chips in the 500 deposit.
	c.NextBlock() // 36
	submit(t, c, henry, types.NewCall(common.ModuleRoles, "apply", &roles.ApplyArgs{Role: common.RoleRepresentative}))
	submit(t, c, dave, types.NewCall(common.ModuleManagement, "launch_representative_session", &management.LaunchRepresentativeArgs{
		Collection: 0, Item: 0,
		Candidate: henry,
		Purpose:   management.PurposeElection,
	}))
	repIndex, ok := c.Management.PendingIndexOf(henry)
	require.True(t, ok)

	c.NextBlock() // 37
	for _, owner := range []common.AccountID{dave, eve} {
		submit(t, c, owner, types.NewCall(common.ModuleManagement, "owners_vote", &management.OwnersVoteArgs{ReferendumIndex: repIndex, Vote: true}))
	}

	// Referendum ends at 56, enacts at 61.
	c.RunToBlock(61)
	assert.True(t, c.Roles.HasRole(henry, common.RoleRepresentative))
	house, _ = c.Onboarding.House(houseKey)
	require.NotNil(t, house.Representative)
	assert.Equal(t, henry, *house.Representative)
	rv, ok := c.Management.ProposalOf(repIndex)
	require.True(t, ok)
	assert.Equal(t, management.ResultAccepted, rv.VoteResult)

	// Tenant admission: request, owner referendum, guaranty escrow.
	c.NextBlock() // 62
	submit(t, c, ferdie, types.NewCall(common.ModuleTenancy, "request_asset", &tenancy.RequestAssetArgs{
		Collection: 0, Item: 0,
		Info: identity.Info{Legal: "Ferdie Tenant", Email: "ferdie@example.com"},
	}))

	c.NextBlock() // 63
	submit(t, c, henry, types.NewCall(common.ModuleManagement, "launch_tenant_session", &management.LaunchTenantArgs{
		Collection: 0, Item: 0, Tenant: ferdie,
	}))
	tenantIndex, ok := c.Management.PendingIndexOf(ferdie)
	require.True(t, ok)

	c.NextBlock() // 64
	for _, owner := range []common.AccountID{dave, eve} {
		submit(t, c, owner, types.NewCall(common.ModuleManagement, "owners_vote", &management.OwnersVoteArgs{ReferendumIndex: tenantIndex, Vote: true}))
	}

	// Referendum ends at 83, enacts at 88: the guaranty escrow opens for
	// three months of rent (3% of 40,000 / 12 = 100 a month).
	c.RunToBlock(88)
	detail, ok := c.Payment.Get(ferdie, va)
	require.True(t, ok)
	assert.Equal(t, common.Balance(300), detail.Amount)

	c.NextBlock() // 89
	submit(t, c, ferdie, types.NewCall(common.ModuleTenancy, "pay_guaranty_deposit", &tenancy.AssetArgs{Collection: 0, Item: 0}))
	tenant, ok := c.Tenancy.TenantOf(ferdie)
	require.True(t, ok)
	require.NotNil(t, tenant.AssetAccount)
	assert.Equal(t, va, *tenant.AssetAccount)
	assert.Equal(t, common.Balance(100), tenant.Rent)
	assert.Equal(t, common.BlockNumber(89), tenant.ContractStart)
	assert.Equal(t, uint8(12), tenant.RemainingPayments)
	assert.Equal(t, common.Balance(999_700), c.Balances.FreeBalance(ferdie))
	house, _ = c.Onboarding.House(houseKey)
	assert.Equal(t, []common.AccountID{ferdie}, house.Tenants)
	assert.Zero(t, house.MaxTenants)

	// One rent cycle, then the sweep at block 95 splits it: 5% maintenance
	// reserved on the virtual account, the rest paid out 375/625.
	c.RunToBlock(90)
	c.NextBlock() // 91
	submit(t, c, ferdie, types.NewCall(common.ModuleTenancy, "pay_rent", &tenancy.PayRentArgs{}))
	ownership, _ = c.Share.OwnershipOf(houseKey)
	assert.Equal(t, uint32(1), ownership.RentNbr)

	daveBefore := c.Balances.FreeBalance(dave)
	eveBefore := c.Balances.FreeBalance(eve)
	c.RunToBlock(95)
	assert.Equal(t, daveBefore+35, c.Balances.FreeBalance(dave))
	assert.Equal(t, eveBefore+59, c.Balances.FreeBalance(eve))
	assert.Equal(t, common.Balance(5), c.Balances.ReservedBalance(va))
	ownership, _ = c.Share.OwnershipOf(houseKey)
	assert.Zero(t, ownership.RentNbr)

	tenant, _ = c.Tenancy.TenantOf(ferdie)
	assert.Equal(t, uint8(11), tenant.RemainingPayments)
	assert.Equal(t, common.Balance(1_100), tenant.RemainingRent)
}

// A council that votes the proposal down leaves the motion to lapse; the
// stage-1 watcher rejects the asset back to the seller with a 10% slash.
func TestCouncilRejectionSlashesTenth(t *testing.T) {
	c := newTestChain(t)
	hash := proposeHouse(t, c)

	c.NextBlock() // 5
	for _, member := range []common.AccountID{alice, bob, charlie} {
		submit(t, c, member, types.NewCall(common.ModuleVoting, "council_vote", &voting.VoteArgs{ProposalHash: hash, Approve: false}))
	}
	submit(t, c, alice, types.NewCall(common.ModuleVoting, "council_close_vote", &voting.CloseArgs{ProposalHash: hash}))

	// Watcher deadline is 29; the first check block after it is 30.
	c.RunToBlock(30)
	house, _ := c.Onboarding.House(houseKey)
	assert.Equal(t, onboarding.StatusRejected, house.Status)
	assert.Equal(t, common.Balance(3_600), c.Onboarding.DepositOf(houseKey))
	assert.Equal(t, common.Balance(996_000), c.Balances.FreeBalance(bob))
	assert.Equal(t, common.Balance(3_600), c.Balances.ReservedBalance(bob))
	_, ok := c.Voting.Proposal(hash)
	assert.False(t, ok)

	// The seller can rework and resubmit the same asset.
	c.NextBlock()
	submit(t, c, bob, types.NewCall(common.ModuleOnboarding, "submit_awaiting", &onboarding.SubmitAwaitingArgs{Collection: 0, Item: 0}))
	house, _ = c.Onboarding.House(houseKey)
	assert.Equal(t, onboarding.StatusReviewing, house.Status)
}

// Investors voting the referendum down trigger the stage-2 watcher: the NFT
// is burned and the whole proposal deposit slashed.
func TestInvestorRejectionDestroysAsset(t *testing.T) {
	c := newTestChain(t)
	hash := proposeHouse(t, c)

	c.NextBlock() // 5
	councilApproves(t, c, hash)

	c.NextBlock() // 6
	for _, inv := range []common.AccountID{dave, eve} {
		submit(t, c, inv, types.NewCall(common.ModuleVoting, "investor_vote", &voting.VoteArgs{ProposalHash: hash, Approve: false}))
	}

	// Referendum ends rejected at 25; the watcher fires at its deadline 30.
	c.RunToBlock(30)
	house, _ := c.Onboarding.House(houseKey)
	assert.Equal(t, onboarding.StatusSlash, house.Status)
	assert.Zero(t, c.Onboarding.DepositOf(houseKey))
	assert.Equal(t, common.Balance(996_000), c.Balances.FreeBalance(bob))
	assert.Zero(t, c.Balances.ReservedBalance(bob))
	_, err := c.NFT.OwnerOf(houseKey)
	assert.Error(t, err)

	// The pool was never touched.
	info := c.Fund.FundBalance()
	assert.Equal(t, common.Balance(50_000), info.Transferable)
	assert.Zero(t, info.Reserved)
}

// After the notary validates, the seller can still withdraw the sale. The
// fund reservation is unwound, every contributor slice becomes available
// again and the asset parks in its terminal cancelled state.
func TestSellerCancelsAfterNotaryValidation(t *testing.T) {
	c := newTestChain(t)
	hash := proposeHouse(t, c)

	c.NextBlock() // 5
	councilApproves(t, c, hash)
	c.NextBlock() // 6
	for _, inv := range []common.AccountID{dave, eve} {
		submit(t, c, inv, types.NewCall(common.ModuleVoting, "investor_vote", &voting.VoteArgs{ProposalHash: hash, Approve: true}))
	}

	// Block 30 onboards the asset and reserves the cohort's 40,000.
	c.RunToBlock(30)
	house, _ := c.Onboarding.House(houseKey)
	require.Equal(t, onboarding.StatusFinalising, house.Status)

	c.NextBlock() // 31
	submit(t, c, charlie, types.NewCall(common.ModuleFinalizer, "validate_transaction_asset", &finalizer.AssetArgs{Collection: 0, Item: 0}))
	house, _ = c.Onboarding.House(houseKey)
	require.Equal(t, onboarding.StatusFinalised, house.Status)

	// The seller cancels before the settlement scan at 35 can buy.
	c.NextBlock() // 32
	submit(t, c, bob, types.NewCall(common.ModuleFinalizer, "cancel_transaction_asset", &finalizer.AssetArgs{Collection: 0, Item: 0}))

	house, _ = c.Onboarding.House(houseKey)
	assert.Equal(t, onboarding.StatusCancelled, house.Status)

	// The reservation is unwound: nothing reserved, every slice available.
	info := c.Fund.FundBalance()
	assert.Equal(t, common.Balance(50_000), info.Total)
	assert.Equal(t, common.Balance(50_000), info.Transferable)
	assert.Zero(t, info.Reserved)
	assert.Zero(t, info.Contributed)
	assert.Zero(t, c.Balances.ReservedBalance(c.Fund.FundAccount()))
	_, ok := c.Fund.Reservation(houseKey)
	assert.False(t, ok)

	contribution, ok := c.Fund.ContributionOf(dave)
	require.True(t, ok)
	assert.Equal(t, common.Balance(15_000), contribution.Available)
	assert.Zero(t, contribution.Reserved)
	contribution, _ = c.Fund.ContributionOf(eve)
	assert.Equal(t, common.Balance(35_000), contribution.Available)
	assert.Zero(t, contribution.Reserved)

	// The seller keeps the house and their proposal deposit stays reserved.
	owner, err := c.NFT.OwnerOf(houseKey)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)
	assert.Equal(t, common.Balance(4_000), c.Onboarding.DepositOf(houseKey))
	assert.Equal(t, common.Balance(996_000), c.Balances.FreeBalance(bob))
	assert.Equal(t, common.Balance(4_000), c.Balances.ReservedBalance(bob))

	// The next scans ignore the cancelled asset: no purchase, no tokens.
	c.RunToBlock(40)
	house, _ = c.Onboarding.House(houseKey)
	assert.Equal(t, onboarding.StatusCancelled, house.Status)
	_, ok = c.Fund.Purchase(houseKey)
	assert.False(t, ok)
	_, ok = c.Share.OwnershipOf(houseKey)
	assert.False(t, ok)
}
