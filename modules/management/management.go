// Package management governs an owned asset after purchase: owner referenda
// electing or demoting a representative, tenant-admission referenda, and the
// periodic rent sweep that reserves maintenance fees and pays owners pro
// rata to their share tokens.
package management

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/assets"
	"github.com/fair-squares/go-fairsquares/modules/democracy"
	"github.com/fair-squares/go-fairsquares/modules/share"
	"github.com/fair-squares/go-fairsquares/modules/tenancy"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
	"github.com/fair-squares/go-fairsquares/pkg/logger"
	"github.com/fair-squares/go-fairsquares/pkg/logger/slogx"
)

type Params struct {
	// CheckPeriod is the interval of both the referendum sync and the rent
	// sweep.
	CheckPeriod common.BlockNumber
	// RentCheck throttles tenant-debt events.
	RentCheck common.BlockNumber
	// VotingPeriod and Delay configure the owner referenda.
	VotingPeriod common.BlockNumber
	Delay        common.BlockNumber
	// MinimumDeposit is transferred by every owner to the virtual account
	// so it can fund the referendum preimage.
	MinimumDeposit common.Balance
	// Maintenance is the fraction of each distribution reserved for
	// repairs.
	Maintenance fixedmath.Percent
	// Lease is the contract length in months, ContractLength the same in
	// blocks; together they give the per-block rent rate.
	Lease          uint8
	ContractLength common.BlockNumber
}

type Currency interface {
	Transfer(from, to common.AccountID, amount common.Balance) error
	Reserve(who common.AccountID, amount common.Balance) error
}

type RoleRegistry interface {
	EnsureRole(who common.AccountID, role common.Role) error
	Pending(role common.Role) []common.AccountID
	ForceAssign(who common.AccountID, role common.Role)
	Revoke(who common.AccountID)
}

// Referenda is the democracy surface for owner votes.
type Referenda interface {
	NotePreimage(depositor common.AccountID, call types.Call, deposit common.Balance) (common.Hash, error)
	StartReferendum(preimageHash common.Hash, threshold democracy.Threshold, votingPeriod, delay common.BlockNumber) (democracy.ReferendumIndex, error)
	Vote(who common.AccountID, index democracy.ReferendumIndex, aye bool, weight common.Balance, conviction democracy.Conviction) error
	ReferendumInfo(index democracy.ReferendumIndex) (democracy.Referendum, bool)
}

// Shares is the ownership surface.
type Shares interface {
	OwnershipOf(key common.AssetKey) (share.Ownership, bool)
	OwnersOf(va common.AccountID) (share.Owners, bool)
	AssetOfVirtual(va common.AccountID) (common.AssetKey, bool)
	IsOwner(key common.AssetKey, who common.AccountID) bool
	ResetRentNbr(key common.AssetKey) error
}

// TokenRegistry reads share-token balances for vote weighting and payout.
type TokenRegistry interface {
	BalanceOf(id assets.ClassID, who common.AccountID) common.Balance
	TotalSupply(id assets.ClassID) common.Balance
}

// Lifecycle binds representatives onto the asset record.
type Lifecycle interface {
	SetRepresentative(key common.AssetKey, rep *common.AccountID) error
}

// Tenancies is the tenant surface for admission and the rent sweep.
type Tenancies interface {
	TenantOf(who common.AccountID) (tenancy.Tenant, bool)
	ActiveTenants() []tenancy.Tenant
	CreateGuarantyRequest(tenant common.AccountID, key common.AssetKey) error
}

type Pallet struct {
	system    *runtime.Runtime
	params    Params
	currency  Currency
	roles     RoleRegistry
	referenda Referenda
	shares    Shares
	tokens    TokenRegistry
	lifecycle Lifecycle
	tenants   Tenancies
	s         *storage
}

func New(system *runtime.Runtime, params Params, currency Currency, roles RoleRegistry, referenda Referenda, shares Shares, tokens TokenRegistry, lifecycle Lifecycle, tenants Tenancies) *Pallet {
	p := &Pallet{
		system:    system,
		params:    params,
		currency:  currency,
		roles:     roles,
		referenda: referenda,
		shares:    shares,
		tokens:    tokens,
		lifecycle: lifecycle,
		tenants:   tenants,
		s: &storage{
			proposalsLog:     make(map[democracy.ReferendumIndex]RepVote),
			proposalsIndexes: make(map[common.AccountID]democracy.ReferendumIndex),
		},
	}
	p.registerCalls()
	return p
}

func (p *Pallet) Module() common.Module { return common.ModuleManagement }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

type LaunchRepresentativeArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
	Candidate  common.AccountID    `json:"candidate"`
	Purpose    SessionPurpose      `json:"purpose"`
}

type LaunchTenantArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
	Tenant     common.AccountID    `json:"tenant"`
}

type OwnersVoteArgs struct {
	ReferendumIndex democracy.ReferendumIndex `json:"referendum_index"`
	Vote            bool                      `json:"vote"`
}

type EnactmentArgs struct {
	Candidate  common.AccountID    `json:"candidate"`
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
}

type ExecuteCallArgs struct {
	Call types.Call `json:"call"`
}

func (p *Pallet) registerCalls() {
	p.system.RegisterCall(common.ModuleManagement, "launch_representative_session",
		func() any { return new(LaunchRepresentativeArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*LaunchRepresentativeArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "asset_management.launch_representative_session args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			_, err = p.LaunchRepresentativeSession(who, common.AssetKey{Collection: a.Collection, Item: a.Item}, a.Candidate, a.Purpose)
			return err
		})
	p.system.RegisterCall(common.ModuleManagement, "launch_tenant_session",
		func() any { return new(LaunchTenantArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*LaunchTenantArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "asset_management.launch_tenant_session args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			_, err = p.LaunchTenantSession(who, common.AssetKey{Collection: a.Collection, Item: a.Item}, a.Tenant)
			return err
		})
	p.system.RegisterCall(common.ModuleManagement, "owners_vote",
		func() any { return new(OwnersVoteArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*OwnersVoteArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "asset_management.owners_vote args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.OwnersVote(who, a.ReferendumIndex, a.Vote)
		})

	enactment := func(method string, handler func(candidate common.AccountID, key common.AssetKey) error) {
		p.system.RegisterCall(common.ModuleManagement, method,
			func() any { return new(EnactmentArgs) },
			func(origin types.Origin, args any) error {
				a, ok := args.(*EnactmentArgs)
				if !ok {
					return errors.Wrapf(errs.InvalidArgument, "asset_management.%s args", method)
				}
				if err := types.EnsureRoot(origin); err != nil {
					return err
				}
				return handler(a.Candidate, common.AssetKey{Collection: a.Collection, Item: a.Item})
			})
	}
	enactment("representative_approval", p.RepresentativeApproval)
	enactment("demote_representative", p.DemoteRepresentative)
	enactment("tenant_approval", p.TenantApproval)

	// Root can force an enactment that the scheduler missed, for example
	// after its preimage failed to dispatch.
	p.system.RegisterCall(common.ModuleManagement, "execute_call_dispatch",
		func() any { return new(ExecuteCallArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*ExecuteCallArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "asset_management.execute_call_dispatch args")
			}
			if err := types.EnsureRoot(origin); err != nil {
				return err
			}
			return p.system.Dispatch(types.Root(), a.Call)
		})
}

// LaunchRepresentativeSession opens an owner referendum electing or demoting
// the asset's representative. Every owner chips in MinimumDeposit so the
// virtual account can fund the preimage.
func (p *Pallet) LaunchRepresentativeSession(caller common.AccountID, key common.AssetKey, candidate common.AccountID, purpose SessionPurpose) (democracy.ReferendumIndex, error) {
	if purpose != PurposeElection && purpose != PurposeDemotion {
		return 0, errors.Wrapf(errs.InvalidArgument, "purpose %q", purpose)
	}
	if !p.shares.IsOwner(key, caller) {
		return 0, errors.Wrapf(errs.NotAnOwner, "account %s on house %s", caller, key)
	}
	if purpose == PurposeElection {
		if !p.isPendingRepresentative(candidate) {
			return 0, errors.Wrapf(errs.NotARepresentative, "account %s is not awaiting approval", candidate)
		}
	} else {
		if err := p.roles.EnsureRole(candidate, common.RoleRepresentative); err != nil {
			return 0, err
		}
	}

	method := "representative_approval"
	if purpose == PurposeDemotion {
		method = "demote_representative"
	}
	call := types.NewCall(common.ModuleManagement, method, &EnactmentArgs{
		Candidate:  candidate,
		Collection: key.Collection,
		Item:       key.Item,
	})
	return p.openSession(caller, key, candidate, purpose, call)
}

// LaunchTenantSession opens an owner referendum admitting a tenant who has
// requested the asset. Only the asset's representative can launch it.
func (p *Pallet) LaunchTenantSession(caller common.AccountID, key common.AssetKey, tenant common.AccountID) (democracy.ReferendumIndex, error) {
	if err := p.roles.EnsureRole(caller, common.RoleRepresentative); err != nil {
		return 0, err
	}
	ownership, ok := p.shares.OwnershipOf(key)
	if !ok {
		return 0, errors.Wrapf(errs.AssetDoesNotExist, "house %s has no virtual account", key)
	}
	t, ok := p.tenants.TenantOf(tenant)
	if !ok || !t.Registered {
		return 0, errors.Wrapf(errs.NotATenant, "account %s", tenant)
	}
	if t.AssetRequested == nil || *t.AssetRequested != ownership.VirtualAccount {
		return 0, errors.Wrapf(errs.TenantAssetNotLinked, "account %s did not request house %s", tenant, key)
	}

	call := types.NewCall(common.ModuleManagement, "tenant_approval", &EnactmentArgs{
		Candidate:  tenant,
		Collection: key.Collection,
		Item:       key.Item,
	})
	return p.openSession(caller, key, tenant, PurposeTenant, call)
}

// openSession collects the per-owner deposit, notes the preimage under the
// virtual account and starts the referendum.
func (p *Pallet) openSession(caller common.AccountID, key common.AssetKey, candidate common.AccountID, purpose SessionPurpose, call types.Call) (democracy.ReferendumIndex, error) {
	ownership, ok := p.shares.OwnershipOf(key)
	if !ok {
		return 0, errors.Wrapf(errs.AssetDoesNotExist, "house %s has no virtual account", key)
	}
	if _, live := p.s.proposalsIndexes[candidate]; live {
		return 0, errors.Wrapf(errs.AlreadyWaiting, "account %s already has a live referendum", candidate)
	}
	va := ownership.VirtualAccount
	for _, owner := range ownership.Owners {
		if err := p.currency.Transfer(owner, va, p.params.MinimumDeposit); err != nil {
			return 0, err
		}
	}

	hash, err := p.referenda.NotePreimage(va, call, p.params.MinimumDeposit)
	if err != nil {
		return 0, err
	}
	index, err := p.referenda.StartReferendum(hash, democracy.SimpleMajority, p.params.VotingPeriod, p.params.Delay)
	if err != nil {
		return 0, err
	}

	now := p.system.Now()
	p.s.proposalsLog[index] = RepVote{
		Caller:         caller,
		VirtualAccount: va,
		Candidate:      candidate,
		Purpose:        purpose,
		VoteResult:     ResultAwaiting,
		When:           now,
		CollectionID:   key.Collection,
		ItemID:         key.Item,
	}
	p.s.proposalsIndexes[candidate] = index

	p.system.Deposit(SessionLaunched{
		Key:             key,
		Candidate:       candidate,
		Purpose:         purpose,
		ReferendumIndex: index,
		Block:           now,
	})
	return index, nil
}

// OwnersVote casts a share-token-weighted vote on an owner referendum.
func (p *Pallet) OwnersVote(voter common.AccountID, index democracy.ReferendumIndex, vote bool) error {
	rv, ok := p.s.proposalsLog[index]
	if !ok {
		return errors.Wrapf(errs.NotAValidReferendum, "referendum %d", index)
	}
	key := rv.Key()
	if !p.shares.IsOwner(key, voter) {
		return errors.Wrapf(errs.NotAnOwner, "account %s on house %s", voter, key)
	}
	ownership, ok := p.shares.OwnershipOf(key)
	if !ok {
		return errors.Wrapf(errs.AssetDoesNotExist, "house %s", key)
	}
	weight := p.tokens.BalanceOf(ownership.TokenID, voter)
	if err := p.referenda.Vote(voter, index, vote, weight, democracy.ConvictionLocked1x); err != nil {
		return err
	}
	p.system.Deposit(OwnersVoted{Voter: voter, ReferendumIndex: index, Vote: vote, Weight: weight, Block: p.system.Now()})
	return nil
}

// RepresentativeApproval enacts an accepted election: the candidate gains
// the Representative role and is bound to the asset.
func (p *Pallet) RepresentativeApproval(candidate common.AccountID, key common.AssetKey) error {
	p.roles.ForceAssign(candidate, common.RoleRepresentative)
	if err := p.lifecycle.SetRepresentative(key, &candidate); err != nil {
		return err
	}
	p.system.Deposit(RepresentativeApproved{Key: key, Representative: candidate, Block: p.system.Now()})
	return nil
}

// DemoteRepresentative enacts an accepted demotion.
func (p *Pallet) DemoteRepresentative(candidate common.AccountID, key common.AssetKey) error {
	p.roles.Revoke(candidate)
	if err := p.lifecycle.SetRepresentative(key, nil); err != nil {
		return err
	}
	p.system.Deposit(RepresentativeDemoted{Key: key, Representative: candidate, Block: p.system.Now()})
	return nil
}

// TenantApproval enacts an accepted admission: the guaranty-deposit escrow
// is opened for the tenant to settle.
func (p *Pallet) TenantApproval(tenant common.AccountID, key common.AssetKey) error {
	if err := p.tenants.CreateGuarantyRequest(tenant, key); err != nil {
		return err
	}
	p.system.Deposit(GuarantyPaymentRequested{Key: key, Tenant: tenant, Block: p.system.Now()})
	return nil
}

// ProposalOf returns the referendum metadata by index.
func (p *Pallet) ProposalOf(index democracy.ReferendumIndex) (RepVote, bool) {
	rv, ok := p.s.proposalsLog[index]
	return rv, ok
}

// PendingIndexOf returns the live referendum for a candidate.
func (p *Pallet) PendingIndexOf(candidate common.AccountID) (democracy.ReferendumIndex, bool) {
	index, ok := p.s.proposalsIndexes[candidate]
	return index, ok
}

// OnInitialize syncs completed referendum outcomes into the proposals log,
// then runs the rent sweep.
func (p *Pallet) OnInitialize(n common.BlockNumber) {
	if p.params.CheckPeriod == 0 || n%p.params.CheckPeriod != 0 {
		return
	}
	p.syncReferenda()
	p.rentSweep(n)
}

func (p *Pallet) syncReferenda() {
	candidates := make([]common.AccountID, 0, len(p.s.proposalsIndexes))
	for candidate := range p.s.proposalsIndexes {
		candidates = append(candidates, candidate)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].String() < candidates[j].String()
	})

	for _, candidate := range candidates {
		index := p.s.proposalsIndexes[candidate]
		ref, ok := p.referenda.ReferendumInfo(index)
		if !ok {
			delete(p.s.proposalsIndexes, candidate)
			continue
		}
		if ref.Status == democracy.StatusOngoing {
			continue
		}
		rv := p.s.proposalsLog[index]
		if ref.Status == democracy.StatusApproved {
			rv.VoteResult = ResultAccepted
		} else {
			rv.VoteResult = ResultRejected
		}
		p.s.proposalsLog[index] = rv
		delete(p.s.proposalsIndexes, candidate)
	}
}

// rentSweep distributes collected rent cycles to owners and reports tenants
// in arrears.
func (p *Pallet) rentSweep(n common.BlockNumber) {
	for _, t := range p.tenants.ActiveTenants() {
		va := *t.AssetAccount
		key, ok := p.shares.AssetOfVirtual(va)
		if !ok {
			continue
		}
		ownership, ok := p.shares.OwnershipOf(key)
		if !ok {
			continue
		}

		if ownership.RentNbr > 0 {
			p.distributeRent(n, key, va, ownership, t.Rent)
		}

		if p.params.RentCheck == 0 || n%p.params.RentCheck != 0 {
			continue
		}
		annual := t.Rent * common.Balance(p.params.Lease)
		if p.params.ContractLength == 0 {
			continue
		}
		rpb := annual / common.Balance(p.params.ContractLength)
		elapsed := common.Balance(n - t.ContractStart)
		amountDue := elapsed * rpb
		paid := common.Balance(p.params.Lease-t.RemainingPayments) * t.Rent
		if paid < amountDue {
			p.system.Deposit(TenantDebt{
				Tenant: t.AccountID,
				Key:    key,
				Debt:   amountDue - paid,
				Block:  n,
			})
		}
	}
}

// distributeRent reserves the maintenance cut first so the owner transfers
// cannot drain the virtual account below it, then pays owners pro rata to
// their token balance.
func (p *Pallet) distributeRent(n common.BlockNumber, key common.AssetKey, va common.AccountID, ownership share.Ownership, rent common.Balance) {
	total := rent * common.Balance(ownership.RentNbr)
	maintenance := p.params.Maintenance.Mul(total)
	distribute := total - maintenance

	if err := p.currency.Reserve(va, maintenance); err != nil {
		logger.Warn("Maintenance reservation failed",
			slogx.String("house", key.String()),
			slogx.Error(err),
		)
		return
	}
	p.system.Deposit(MaintenanceFeesPayment{Key: key, Amount: maintenance, Block: n})

	owners, ok := p.shares.OwnersOf(va)
	if !ok || owners.Supply == 0 {
		return
	}
	paidTo := make([]common.AccountID, 0, len(owners.Owners))
	for _, o := range owners.Owners {
		balance := p.tokens.BalanceOf(owners.TokenID, o.Account)
		amount, err := fixedmath.MulDiv(distribute, balance, p.tokens.TotalSupply(owners.TokenID))
		if err != nil || amount == 0 {
			continue
		}
		if err := p.currency.Transfer(va, o.Account, amount); err != nil {
			logger.Warn("Rent payout transfer failed",
				slogx.String("house", key.String()),
				slogx.String("owner", o.Account.String()),
				slogx.Error(err),
			)
			continue
		}
		paidTo = append(paidTo, o.Account)
	}

	p.system.Deposit(RentDistributed{Key: key, Owners: paidTo, Amount: distribute, Block: n})
	if err := p.shares.ResetRentNbr(key); err != nil {
		logger.Warn("Rent cycle reset failed",
			slogx.String("house", key.String()),
			slogx.Error(err),
		)
	}
}

func (p *Pallet) isPendingRepresentative(candidate common.AccountID) bool {
	for _, who := range p.roles.Pending(common.RoleRepresentative) {
		if who == candidate {
			return true
		}
	}
	return false
}
