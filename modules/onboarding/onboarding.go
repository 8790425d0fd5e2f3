// Package onboarding carries a seller's house from submission through the
// governance pipeline: it mints the NFT, reserves the proposal fee, stores
// the compensating calls for every governance outcome and drives the asset
// status machine up to the final buy settlement.
package onboarding

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/nft"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
)

type Params struct {
	// ProposalFee is the fraction of the asking price reserved from the
	// seller at submission.
	ProposalFee fixedmath.Percent
	// SlashedFee is the fraction of the reserved deposit burned when the
	// council rejects the proposal.
	SlashedFee fixedmath.Percent
}

type Currency interface {
	FreeBalance(who common.AccountID) common.Balance
	Transfer(from, to common.AccountID, amount common.Balance) error
	Reserve(who common.AccountID, amount common.Balance) error
	Unreserve(who common.AccountID, amount common.Balance) common.Balance
	SlashReserved(who common.AccountID, amount common.Balance, fraction fixedmath.Percent) common.Balance
}

type RoleRegistry interface {
	EnsureRole(who common.AccountID, role common.Role) error
}

// NFTRegistry is the slice of the nft pallet the lifecycle needs.
type NFTRegistry interface {
	Mint(collection common.CollectionID, owner common.AccountID, infos nft.ItemInfo) (common.ItemID, error)
	Transfer(key common.AssetKey, to common.AccountID) error
	Burn(key common.AssetKey) error
	OwnerOf(key common.AssetKey) (common.AccountID, error)
	CollectionExists(collection common.CollectionID) bool
}

// VotingEngine starts the two-stage referendum over a submitted proposal.
type VotingEngine interface {
	SubmitProposal(who common.AccountID, proposal, passCall, councilFailCall, democracyFailCall types.Call) (common.Hash, error)
}

// Fund exposes the pooled account that pays for houses at settlement.
type Fund interface {
	FundAccount() common.AccountID
}

type storage struct {
	houses   map[common.AssetKey]Asset
	vcalls   map[common.AssetKey]Vcalls
	deposits map[common.AssetKey]common.Balance
}

func (s *storage) clone() *storage {
	houses := make(map[common.AssetKey]Asset, len(s.houses))
	for k, v := range s.houses {
		houses[k] = v.clone()
	}
	vcalls := make(map[common.AssetKey]Vcalls, len(s.vcalls))
	for k, v := range s.vcalls {
		vcalls[k] = v
	}
	deposits := make(map[common.AssetKey]common.Balance, len(s.deposits))
	for k, v := range s.deposits {
		deposits[k] = v
	}
	return &storage{houses: houses, vcalls: vcalls, deposits: deposits}
}

type Pallet struct {
	system   *runtime.Runtime
	params   Params
	currency Currency
	roles    RoleRegistry
	nfts     NFTRegistry
	voting   VotingEngine
	fund     Fund
	s        *storage
}

func New(system *runtime.Runtime, params Params, currency Currency, roles RoleRegistry, nfts NFTRegistry, fund Fund) *Pallet {
	p := &Pallet{
		system:   system,
		params:   params,
		currency: currency,
		roles:    roles,
		nfts:     nfts,
		fund:     fund,
		s: &storage{
			houses:   make(map[common.AssetKey]Asset),
			vcalls:   make(map[common.AssetKey]Vcalls),
			deposits: make(map[common.AssetKey]common.Balance),
		},
	}
	p.registerCalls()
	return p
}

// SetVotingEngine wires the voting pallet after construction. The two
// pallets reference each other, so one side is attached late.
func (p *Pallet) SetVotingEngine(v VotingEngine) {
	p.voting = v
}

func (p *Pallet) Module() common.Module { return common.ModuleOnboarding }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

type CreateProposalArgs struct {
	Collection common.CollectionID `json:"collection"`
	Price      common.Balance      `json:"price"`
	Metadata   string              `json:"metadata"`
	Submit     bool                `json:"submit"`
	MaxTenants uint8               `json:"max_tenants"`
}

type SetPriceArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
	Price      common.Balance      `json:"price"`
}

type SubmitAwaitingArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
	Price      *common.Balance     `json:"price"`
}

type AssetArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
}

type ChangeStatusArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
	Status     AssetStatus         `json:"status"`
}

func (p *Pallet) registerCalls() {
	p.system.RegisterCall(common.ModuleOnboarding, "create_and_submit_proposal",
		func() any { return new(CreateProposalArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*CreateProposalArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "onboarding.create_and_submit_proposal args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			_, err = p.CreateAndSubmitProposal(who, a.Collection, a.Price, a.Metadata, a.Submit, a.MaxTenants)
			return err
		})
	p.system.RegisterCall(common.ModuleOnboarding, "set_price",
		func() any { return new(SetPriceArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*SetPriceArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "onboarding.set_price args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.SetPrice(who, common.AssetKey{Collection: a.Collection, Item: a.Item}, a.Price)
		})
	p.system.RegisterCall(common.ModuleOnboarding, "submit_awaiting",
		func() any { return new(SubmitAwaitingArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*SubmitAwaitingArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "onboarding.submit_awaiting args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.SubmitAwaiting(who, common.AssetKey{Collection: a.Collection, Item: a.Item}, a.Price)
		})
	p.system.RegisterCall(common.ModuleOnboarding, "reject_edit",
		func() any { return new(AssetArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*AssetArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "onboarding.reject_edit args")
			}
			if err := ensurePrivileged(origin); err != nil {
				return err
			}
			return p.RejectEdit(common.AssetKey{Collection: a.Collection, Item: a.Item})
		})
	p.system.RegisterCall(common.ModuleOnboarding, "reject_destroy",
		func() any { return new(AssetArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*AssetArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "onboarding.reject_destroy args")
			}
			if err := ensurePrivileged(origin); err != nil {
				return err
			}
			return p.RejectDestroy(common.AssetKey{Collection: a.Collection, Item: a.Item})
		})
	p.system.RegisterCall(common.ModuleOnboarding, "change_status",
		func() any { return new(ChangeStatusArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*ChangeStatusArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "onboarding.change_status args")
			}
			key := common.AssetKey{Collection: a.Collection, Item: a.Item}
			// Enactment callbacks arrive under root or council origin; the
			// stage-2 enactment runs re-signed by the seller.
			if origin.Kind == types.OriginSigned {
				owner, err := p.nfts.OwnerOf(key)
				if err != nil {
					return err
				}
				if owner != origin.Signer {
					return errors.Wrapf(errs.NotTheHouseOwner, "account %s", origin.Signer)
				}
			}
			return p.TransitionStatus(key, a.Status)
		})
}

// ensurePrivileged accepts root and council origins, the only sources of
// compensating rollback dispatches.
func ensurePrivileged(origin types.Origin) error {
	if origin.Kind != types.OriginRoot && origin.Kind != types.OriginCouncil {
		return errors.Wrapf(errs.BadOrigin, "%s origin", origin.Kind)
	}
	return nil
}

// CreateAndSubmitProposal mints a new house NFT in the seller's collection,
// reserves the proposal fee, stores the asset record with its compensating
// calls and, when submit is set, pushes it straight into review.
func (p *Pallet) CreateAndSubmitProposal(seller common.AccountID, collection common.CollectionID, price common.Balance, metadata string, submit bool, maxTenants uint8) (common.AssetKey, error) {
	if err := p.roles.EnsureRole(seller, common.RoleSeller); err != nil {
		return common.AssetKey{}, err
	}
	if !p.nfts.CollectionExists(collection) {
		return common.AssetKey{}, errors.Wrapf(errs.CollectionOrItemUnknown, "collection %d", collection)
	}
	fee := p.params.ProposalFee.Mul(price)
	if p.currency.FreeBalance(seller) < fee {
		return common.AssetKey{}, errors.Wrapf(errs.InsufficientBalance, "proposal fee %d", fee)
	}
	if err := p.currency.Reserve(seller, fee); err != nil {
		return common.AssetKey{}, err
	}

	infos := nft.ItemInfo{Metadata: metadata}
	item, err := p.nfts.Mint(collection, seller, infos)
	if err != nil {
		return common.AssetKey{}, err
	}
	key := common.AssetKey{Collection: collection, Item: item}

	now := p.system.Now()
	assetPrice := price
	p.s.houses[key] = Asset{
		Status:     StatusEditing,
		Created:    now,
		Infos:      infos,
		Price:      &assetPrice,
		MaxTenants: maxTenants,
	}
	p.s.deposits[key] = fee
	p.s.vcalls[key] = Vcalls{
		RejectEdit:      types.NewCall(common.ModuleOnboarding, "reject_edit", &AssetArgs{Collection: collection, Item: item}),
		RejectDestroy:   types.NewCall(common.ModuleOnboarding, "reject_destroy", &AssetArgs{Collection: collection, Item: item}),
		DemocracyStatus: types.NewCall(common.ModuleOnboarding, "change_status", &ChangeStatusArgs{Collection: collection, Item: item, Status: StatusVoting}),
		AfterVoteStatus: types.NewCall(common.ModuleOnboarding, "change_status", &ChangeStatusArgs{Collection: collection, Item: item, Status: StatusOnboarded}),
	}

	p.system.Deposit(ProposalCreated{Seller: seller, Key: key, Price: price, Block: now})

	if submit {
		if err := p.doSubmitProposal(seller, key); err != nil {
			return common.AssetKey{}, err
		}
	}
	return key, nil
}

// SetPrice updates the asking price while the asset is still editable.
func (p *Pallet) SetPrice(seller common.AccountID, key common.AssetKey, price common.Balance) error {
	asset, ok := p.s.houses[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	if asset.Status != StatusEditing && asset.Status != StatusRejected {
		return errors.Wrapf(errs.CannotEditItem, "house %s is %s", key, asset.Status)
	}
	owner, err := p.nfts.OwnerOf(key)
	if err != nil {
		return err
	}
	if owner != seller {
		return errors.Wrapf(errs.NotTheHouseOwner, "account %s", seller)
	}
	asset = asset.clone()
	*asset.Price = price
	p.s.houses[key] = asset
	p.system.Deposit(PriceUpdated{Key: key, Price: price, Block: p.system.Now()})
	return nil
}

// SubmitAwaiting moves an editable asset into review, optionally updating
// the price first.
func (p *Pallet) SubmitAwaiting(seller common.AccountID, key common.AssetKey, price *common.Balance) error {
	asset, ok := p.s.houses[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	if asset.Status != StatusEditing && asset.Status != StatusRejected {
		return errors.Wrapf(errs.CannotSubmitItem, "house %s is %s", key, asset.Status)
	}
	if price != nil {
		if err := p.SetPrice(seller, key, *price); err != nil {
			return err
		}
	} else {
		owner, err := p.nfts.OwnerOf(key)
		if err != nil {
			return err
		}
		if owner != seller {
			return errors.Wrapf(errs.NotTheHouseOwner, "account %s", seller)
		}
	}
	return p.doSubmitProposal(seller, key)
}

// doSubmitProposal transitions the asset into review and opens stage 1 of
// the two-stage referendum with the stored compensating calls.
func (p *Pallet) doSubmitProposal(seller common.AccountID, key common.AssetKey) error {
	vcalls := p.s.vcalls[key]
	hash, err := p.voting.SubmitProposal(seller,
		vcalls.AfterVoteStatus,
		vcalls.DemocracyStatus,
		vcalls.RejectEdit,
		vcalls.RejectDestroy,
	)
	if err != nil {
		return err
	}
	if err := p.TransitionStatus(key, StatusReviewing); err != nil {
		return err
	}
	asset := p.s.houses[key].clone()
	asset.ProposalHash = hash
	p.s.houses[key] = asset
	p.system.Deposit(ProposalSubmitted{Key: key, ProposalHash: hash, Block: p.system.Now()})
	return nil
}

// RejectEdit is the stage-1 rollback: the council said no, a tenth of the
// seller's deposit is burned and the asset goes back to the seller for
// editing and resubmission.
func (p *Pallet) RejectEdit(key common.AssetKey) error {
	asset, ok := p.s.houses[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	if asset.Status != StatusReviewing && asset.Status != StatusVoting {
		return errors.Wrapf(errs.InvalidStatusTransition, "house %s is %s", key, asset.Status)
	}
	seller, err := p.nfts.OwnerOf(key)
	if err != nil {
		return err
	}
	slashed := p.currency.SlashReserved(seller, p.s.deposits[key], p.params.SlashedFee)
	p.s.deposits[key] -= slashed

	asset = asset.clone()
	asset.Status = StatusRejected
	p.s.houses[key] = asset
	p.system.Deposit(RejectedForEditing{Key: key, Slashed: slashed, Block: p.system.Now()})
	return nil
}

// RejectDestroy is the stage-2 rollback: investors said no, the NFT is
// burned and the whole reserved deposit is slashed.
func (p *Pallet) RejectDestroy(key common.AssetKey) error {
	asset, ok := p.s.houses[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	if asset.Status != StatusReviewing && asset.Status != StatusVoting {
		return errors.Wrapf(errs.InvalidStatusTransition, "house %s is %s", key, asset.Status)
	}
	seller, err := p.nfts.OwnerOf(key)
	if err != nil {
		return err
	}
	slashed := p.currency.SlashReserved(seller, p.s.deposits[key], fixedmath.FromPercent(100))
	delete(p.s.deposits, key)
	if err := p.nfts.Burn(key); err != nil {
		return err
	}

	asset = asset.clone()
	asset.Status = StatusSlash
	p.s.houses[key] = asset
	p.system.Deposit(RejectedForDestruction{Key: key, Slashed: slashed, Block: p.system.Now()})
	return nil
}

var validTransitions = map[AssetStatus][]AssetStatus{
	StatusEditing:    {StatusReviewing},
	StatusRejected:   {StatusReviewing},
	StatusReviewing:  {StatusVoting, StatusRejected},
	StatusVoting:     {StatusOnboarded, StatusRejected, StatusSlash},
	StatusOnboarded:  {StatusFinalising},
	StatusFinalising: {StatusFinalised, StatusRejected},
	StatusFinalised:  {StatusPurchased, StatusCancelled},
}

// TransitionStatus moves the asset along the status machine, refusing any
// edge outside the lifecycle graph.
func (p *Pallet) TransitionStatus(key common.AssetKey, to AssetStatus) error {
	asset, ok := p.s.houses[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	allowed := false
	for _, next := range validTransitions[asset.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Wrapf(errs.InvalidStatusTransition, "house %s: %s -> %s", key, asset.Status, to)
	}
	from := asset.Status
	asset = asset.clone()
	asset.Status = to
	p.s.houses[key] = asset
	p.system.Deposit(StatusChanged{Key: key, From: from, To: to, Block: p.system.Now()})
	return nil
}

// DoBuy executes settlement: the seller's deposit is released, the fund's
// bid reservation is unlocked and paid out to the seller, and the NFT moves
// to the buyer (the asset's virtual account).
func (p *Pallet) DoBuy(key common.AssetKey, buyer common.AccountID) error {
	asset, ok := p.s.houses[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	if asset.Status != StatusFinalised {
		return errors.Wrapf(errs.HouseHasNotFinalisedStatus, "house %s is %s", key, asset.Status)
	}
	if asset.Price == nil {
		return errors.Wrapf(errs.NoneValue, "house %s has no price", key)
	}
	price := *asset.Price
	seller, err := p.nfts.OwnerOf(key)
	if err != nil {
		return err
	}

	p.currency.Unreserve(seller, p.s.deposits[key])
	delete(p.s.deposits, key)

	fundAccount := p.fund.FundAccount()
	p.currency.Unreserve(fundAccount, price)
	if err := p.currency.Transfer(fundAccount, seller, price); err != nil {
		return err
	}
	if err := p.nfts.Transfer(key, buyer); err != nil {
		return err
	}
	if err := p.TransitionStatus(key, StatusPurchased); err != nil {
		return err
	}
	p.system.Deposit(HouseBought{Key: key, Buyer: buyer, Price: price, Block: p.system.Now()})
	return nil
}

// House returns one asset record.
func (p *Pallet) House(key common.AssetKey) (Asset, bool) {
	asset, ok := p.s.houses[key]
	if !ok {
		return Asset{}, false
	}
	return asset.clone(), true
}

// HouseRecord pairs an asset with its key for iteration.
type HouseRecord struct {
	Key   common.AssetKey
	Asset Asset
}

// HousesByStatus returns all assets in the given status, ordered by key so
// the periodic scans are deterministic.
func (p *Pallet) HousesByStatus(status AssetStatus) []HouseRecord {
	out := make([]HouseRecord, 0)
	for key, asset := range p.s.houses {
		if asset.Status == status {
			out = append(out, HouseRecord{Key: key, Asset: asset.clone()})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Collection != out[j].Key.Collection {
			return out[i].Key.Collection < out[j].Key.Collection
		}
		return out[i].Key.Item < out[j].Key.Item
	})
	return out
}

// Houses returns every asset ordered by key.
func (p *Pallet) Houses() []HouseRecord {
	out := make([]HouseRecord, 0, len(p.s.houses))
	for key, asset := range p.s.houses {
		out = append(out, HouseRecord{Key: key, Asset: asset.clone()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Collection != out[j].Key.Collection {
			return out[i].Key.Collection < out[j].Key.Collection
		}
		return out[i].Key.Item < out[j].Key.Item
	})
	return out
}

// PriceOf returns the asking price of an asset.
func (p *Pallet) PriceOf(key common.AssetKey) (common.Balance, error) {
	asset, ok := p.s.houses[key]
	if !ok {
		return 0, errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	if asset.Price == nil {
		return 0, errors.Wrapf(errs.NoneValue, "house %s has no price", key)
	}
	return *asset.Price, nil
}

// VcallsOf returns the stored compensating calls for an asset.
func (p *Pallet) VcallsOf(key common.AssetKey) (Vcalls, bool) {
	v, ok := p.s.vcalls[key]
	return v, ok
}

// SetRepresentative binds or clears an asset's elected representative.
func (p *Pallet) SetRepresentative(key common.AssetKey, rep *common.AccountID) error {
	asset, ok := p.s.houses[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	asset = asset.clone()
	asset.Representative = rep
	p.s.houses[key] = asset
	return nil
}

// AddTenant appends a tenant to the asset, consuming one tenancy slot.
func (p *Pallet) AddTenant(key common.AssetKey, tenant common.AccountID) error {
	asset, ok := p.s.houses[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	if asset.MaxTenants == 0 {
		return errors.Wrapf(errs.MaximumNumberOfTenantsReached, "house %s", key)
	}
	asset = asset.clone()
	asset.Tenants = append(asset.Tenants, tenant)
	asset.MaxTenants--
	p.s.houses[key] = asset
	return nil
}

// RemoveTenant drops a tenant from the asset, freeing a tenancy slot.
func (p *Pallet) RemoveTenant(key common.AssetKey, tenant common.AccountID) error {
	asset, ok := p.s.houses[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	asset = asset.clone()
	for i, t := range asset.Tenants {
		if t == tenant {
			asset.Tenants = append(asset.Tenants[:i], asset.Tenants[i+1:]...)
			asset.MaxTenants++
			p.s.houses[key] = asset
			return nil
		}
	}
	return errors.Wrapf(errs.NotATenant, "account %s on house %s", tenant, key)
}

// DepositOf returns the seller's still-reserved proposal deposit.
func (p *Pallet) DepositOf(key common.AssetKey) common.Balance {
	return p.s.deposits[key]
}
