package common

type Module string

const (
	// Chain primitive pallets.
	ModuleBalances   Module = "balances"
	ModuleRoles      Module = "roles"
	ModuleNFT        Module = "nft"
	ModuleAssets     Module = "assets"
	ModulePayment    Module = "payment"
	ModuleIdentity   Module = "identity"
	ModuleCollective Module = "collective"
	ModuleDemocracy  Module = "democracy"

	// Core components.
	ModuleHousingFund Module = "housing_fund"
	ModuleOnboarding  Module = "onboarding"
	ModuleVoting      Module = "voting"
	ModuleBidding     Module = "bidding"
	ModuleShare       Module = "share_distributor"
	ModuleManagement  Module = "asset_management"
	ModuleFinalizer   Module = "finalizer"
	ModuleTenancy     Module = "tenancy"
)

func (m Module) String() string {
	return string(m)
}
