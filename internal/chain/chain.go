// Package chain wires every pallet into one runtime: construction order,
// genesis state and block production. It is the single place that knows the
// full dependency graph.
package chain

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/assets"
	"github.com/fair-squares/go-fairsquares/modules/balances"
	"github.com/fair-squares/go-fairsquares/modules/bidding"
	"github.com/fair-squares/go-fairsquares/modules/collective"
	"github.com/fair-squares/go-fairsquares/modules/democracy"
	"github.com/fair-squares/go-fairsquares/modules/finalizer"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
	"github.com/fair-squares/go-fairsquares/modules/identity"
	"github.com/fair-squares/go-fairsquares/modules/management"
	"github.com/fair-squares/go-fairsquares/modules/nft"
	"github.com/fair-squares/go-fairsquares/modules/onboarding"
	"github.com/fair-squares/go-fairsquares/modules/payment"
	"github.com/fair-squares/go-fairsquares/modules/roles"
	"github.com/fair-squares/go-fairsquares/modules/share"
	"github.com/fair-squares/go-fairsquares/modules/tenancy"
	"github.com/fair-squares/go-fairsquares/modules/voting"
)

// Genesis is the initial chain state.
type Genesis struct {
	// Endowed maps accounts to their starting free balance.
	Endowed map[common.AccountID]common.Balance
	// Council lists the house-council members.
	Council []common.AccountID
	// Admin approves role applications.
	Admin common.AccountID
	// Roles pre-assigns platform roles.
	Roles map[common.AccountID]common.Role
	// FeesBalance endows the platform fees account that seeds virtual
	// accounts.
	FeesBalance common.Balance
}

// Chain is the assembled runtime with every pallet reachable for queries.
type Chain struct {
	System *runtime.Runtime

	Balances   *balances.Pallet
	Roles      *roles.Pallet
	NFT        *nft.Pallet
	Assets     *assets.Pallet
	Payment    *payment.Pallet
	Identity   *identity.Pallet
	Collective *collective.Pallet
	Democracy  *democracy.Pallet

	Fund       *housingfund.Pallet
	Onboarding *onboarding.Pallet
	Voting     *voting.Pallet
	Bidding    *bidding.Pallet
	Share      *share.Pallet
	Finalizer  *finalizer.Pallet
	Tenancy    *tenancy.Pallet
	Management *management.Pallet

	block common.BlockNumber
}

// New assembles the runtime. Pallets that reference each other are wired in
// two phases: constructors first, then the late-bound setters.
func New(params Params, genesis Genesis) *Chain {
	system := runtime.New()

	c := &Chain{System: system}
	c.Balances = balances.New(system)
	c.Roles = roles.New(system, params.Roles, genesis.Admin)
	c.NFT = nft.New(system, c.Roles)
	c.Assets = assets.New(system)
	c.Payment = payment.New(system, c.Balances)
	c.Identity = identity.New(system)
	c.Collective = collective.New(system, params.Collective, genesis.Council)
	c.Democracy = democracy.New(system)

	c.Fund = housingfund.New(system, params.Fund, c.Balances, c.Roles)
	c.Onboarding = onboarding.New(system, params.Onboarding, c.Balances, c.Roles, c.NFT, c.Fund)
	c.Voting = voting.New(system, params.Voting, c.Collective, c.Democracy, c.Balances, c.Roles)
	c.Onboarding.SetVotingEngine(c.Voting)
	c.Share = share.New(system, params.Share, c.Balances, c.Fund, c.Onboarding, c.Assets)
	c.Bidding = bidding.New(system, params.Bidding, c.Fund, c.Onboarding)
	c.Bidding.SetDistributor(c.Share)
	c.Finalizer = finalizer.New(system, c.Roles, c.Onboarding, c.NFT, c.Fund)
	c.Tenancy = tenancy.New(system, params.Tenancy, c.Balances, c.Roles, c.Identity, c.Payment, c.Onboarding, c.Share)
	c.Management = management.New(system, params.Management, c.Balances, c.Roles, c.Democracy, c.Share, c.Assets, c.Onboarding, c.Tenancy)

	for _, p := range []runtime.Pallet{
		c.Balances, c.Roles, c.NFT, c.Assets, c.Payment, c.Identity,
		c.Collective, c.Democracy,
		c.Fund, c.Onboarding, c.Voting, c.Bidding, c.Share, c.Finalizer,
		c.Tenancy, c.Management,
	} {
		system.AddPallet(p)
	}
	// Hook order: referenda tally before the watchers and the engines that
	// consume their outcomes.
	system.AddHook(c.Democracy)
	system.AddHook(c.Voting)
	system.AddHook(c.Bidding)
	system.AddHook(c.Management)

	c.applyGenesis(genesis)
	return c
}

func (c *Chain) applyGenesis(genesis Genesis) {
	for who, amount := range genesis.Endowed {
		c.Balances.Deposit(who, amount)
	}
	if genesis.FeesBalance > 0 {
		c.Balances.Deposit(c.Share.FeesAccount(), genesis.FeesBalance)
	}
	for who, role := range genesis.Roles {
		c.Roles.ForceAssign(who, role)
	}
}

// CurrentBlock returns the last produced block number.
func (c *Chain) CurrentBlock() common.BlockNumber {
	return c.block
}

// NextBlock advances one block: scheduled enactments fire, then hooks run.
func (c *Chain) NextBlock() common.BlockNumber {
	c.block++
	c.System.InitializeBlock(c.block)
	return c.block
}

// RunToBlock produces blocks up to and including n.
func (c *Chain) RunToBlock(n common.BlockNumber) {
	for c.block < n {
		c.NextBlock()
	}
}

// Submit applies one signed operation atomically.
func (c *Chain) Submit(origin types.Origin, call types.Call) error {
	return c.System.ApplyExtrinsic(origin, call)
}
