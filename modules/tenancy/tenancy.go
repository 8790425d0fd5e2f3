// Package tenancy handles the tenant side of an asset: the initial request
// with identity registration, the guaranty-deposit escrow settlement that
// starts the contract, and the monthly rent payments feeding the rent engine.
package tenancy

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/identity"
	"github.com/fair-squares/go-fairsquares/modules/onboarding"
	"github.com/fair-squares/go-fairsquares/modules/payment"
	"github.com/fair-squares/go-fairsquares/modules/share"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
)

type Params struct {
	// Lease is the contract length in months.
	Lease uint8
	// Guaranty is the deposit size in months of rent.
	Guaranty uint8
	// RoR is the annual rate of return on the asset price; monthly rent is
	// RoR * price / Lease.
	RoR fixedmath.Percent
}

// Tenant is the per-account tenancy record.
type Tenant struct {
	AccountID         common.AccountID   `json:"account_id"`
	Rent              common.Balance     `json:"rent"`
	Age               common.BlockNumber `json:"age"`
	AssetAccount      *common.AccountID  `json:"asset_account"`
	AssetRequested    *common.AccountID  `json:"asset_requested"`
	ContractStart     common.BlockNumber `json:"contract_start"`
	RemainingRent     common.Balance     `json:"remaining_rent"`
	RemainingPayments uint8              `json:"remaining_payments"`
	Registered        bool               `json:"registered"`
}

func (t Tenant) clone() Tenant {
	if t.AssetAccount != nil {
		va := *t.AssetAccount
		t.AssetAccount = &va
	}
	if t.AssetRequested != nil {
		va := *t.AssetRequested
		t.AssetRequested = &va
	}
	return t
}

type Currency interface {
	Transfer(from, to common.AccountID, amount common.Balance) error
}

type RoleRegistry interface {
	EnsureRole(who common.AccountID, role common.Role) error
}

// IdentityRegistry records tenant personal info.
type IdentityRegistry interface {
	SetIdentity(who common.AccountID, info identity.Info)
}

// Escrow is the payment primitive holding the guaranty deposit.
type Escrow interface {
	Request(payer, payee common.AccountID, amount common.Balance) error
	Get(payer, payee common.AccountID) (payment.Detail, bool)
	Settle(payer, payee common.AccountID) (common.Balance, error)
}

// Lifecycle is the onboarding surface tenancy needs.
type Lifecycle interface {
	PriceOf(key common.AssetKey) (common.Balance, error)
	AddTenant(key common.AssetKey, tenant common.AccountID) error
	House(key common.AssetKey) (onboarding.Asset, bool)
}

// Shares resolves virtual accounts and tracks collected rent cycles.
type Shares interface {
	OwnershipOf(key common.AssetKey) (share.Ownership, bool)
	AssetOfVirtual(va common.AccountID) (common.AssetKey, bool)
	IncrementRentNbr(key common.AssetKey) error
}

type storage struct {
	tenants map[common.AccountID]Tenant
}

func (s *storage) clone() *storage {
	tenants := make(map[common.AccountID]Tenant, len(s.tenants))
	for k, v := range s.tenants {
		tenants[k] = v.clone()
	}
	return &storage{tenants: tenants}
}

type Pallet struct {
	system     *runtime.Runtime
	params     Params
	currency   Currency
	roles      RoleRegistry
	identities IdentityRegistry
	escrow     Escrow
	lifecycle  Lifecycle
	shares     Shares
	s          *storage
}

func New(system *runtime.Runtime, params Params, currency Currency, roles RoleRegistry, identities IdentityRegistry, escrow Escrow, lifecycle Lifecycle, shares Shares) *Pallet {
	p := &Pallet{
		system:     system,
		params:     params,
		currency:   currency,
		roles:      roles,
		identities: identities,
		escrow:     escrow,
		lifecycle:  lifecycle,
		shares:     shares,
		s:          &storage{tenants: make(map[common.AccountID]Tenant)},
	}
	p.registerCalls()
	return p
}

func (p *Pallet) Module() common.Module { return common.ModuleTenancy }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

type RequestAssetArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
	Info       identity.Info       `json:"info"`
}

type AssetArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
}

type PayRentArgs struct{}

func (p *Pallet) registerCalls() {
	p.system.RegisterCall(common.ModuleTenancy, "request_asset",
		func() any { return new(RequestAssetArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*RequestAssetArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "tenancy.request_asset args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.RequestAsset(who, a.Info, common.AssetKey{Collection: a.Collection, Item: a.Item})
		})
	p.system.RegisterCall(common.ModuleTenancy, "pay_guaranty_deposit",
		func() any { return new(AssetArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*AssetArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "tenancy.pay_guaranty_deposit args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.PayGuarantyDeposit(who, common.AssetKey{Collection: a.Collection, Item: a.Item})
		})
	p.system.RegisterCall(common.ModuleTenancy, "pay_rent",
		func() any { return new(PayRentArgs) },
		func(origin types.Origin, args any) error {
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.PayRent(who)
		})
}

// MonthlyRent derives one month of rent from the asset price.
func (p *Pallet) MonthlyRent(price common.Balance) common.Balance {
	if p.params.Lease == 0 {
		return 0
	}
	return p.params.RoR.Mul(price) / common.Balance(p.params.Lease)
}

// GuarantyAmount is the deposit owed before a contract starts.
func (p *Pallet) GuarantyAmount(price common.Balance) common.Balance {
	return common.Balance(p.params.Guaranty) * p.MonthlyRent(price)
}

// RequestAsset registers the tenant's interest in an asset with tenancy
// slots left, recording their identity along the way.
func (p *Pallet) RequestAsset(who common.AccountID, info identity.Info, key common.AssetKey) error {
	if err := p.roles.EnsureRole(who, common.RoleTenant); err != nil {
		return err
	}
	ownership, ok := p.shares.OwnershipOf(key)
	if !ok {
		return errors.Wrapf(errs.AssetDoesNotExist, "house %s has no virtual account", key)
	}
	va := ownership.VirtualAccount
	house, ok := p.lifecycle.House(key)
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	if house.MaxTenants == 0 {
		return errors.Wrapf(errs.MaximumNumberOfTenantsReached, "house %s", key)
	}

	p.identities.SetIdentity(who, info)

	t, exists := p.s.tenants[who]
	if !exists {
		t = Tenant{AccountID: who, Age: p.system.Now()}
	}
	t = t.clone()
	t.AssetRequested = &va
	t.Registered = true
	p.s.tenants[who] = t

	p.system.Deposit(TenancyRequested{Tenant: who, Key: key, Block: p.system.Now()})
	return nil
}

// CreateGuarantyRequest opens the deposit escrow after the owners voted the
// tenant in. Called by the asset-management enactment.
func (p *Pallet) CreateGuarantyRequest(tenant common.AccountID, key common.AssetKey) error {
	t, ok := p.s.tenants[tenant]
	if !ok || !t.Registered {
		return errors.Wrapf(errs.NotATenant, "account %s", tenant)
	}
	ownership, ok := p.shares.OwnershipOf(key)
	if !ok {
		return errors.Wrapf(errs.AssetDoesNotExist, "house %s has no virtual account", key)
	}
	va := ownership.VirtualAccount
	if t.AssetRequested == nil || *t.AssetRequested != va {
		return errors.Wrapf(errs.TenantAssetNotLinked, "account %s did not request house %s", tenant, key)
	}
	price, err := p.lifecycle.PriceOf(key)
	if err != nil {
		return err
	}

	t = t.clone()
	t.Rent = p.MonthlyRent(price)
	p.s.tenants[tenant] = t

	return p.escrow.Request(tenant, va, p.GuarantyAmount(price))
}

// PayGuarantyDeposit settles the escrow and starts the tenancy contract.
func (p *Pallet) PayGuarantyDeposit(who common.AccountID, key common.AssetKey) error {
	if err := p.roles.EnsureRole(who, common.RoleTenant); err != nil {
		return err
	}
	t, ok := p.s.tenants[who]
	if !ok {
		return errors.Wrapf(errs.NotATenant, "account %s", who)
	}
	ownership, ok := p.shares.OwnershipOf(key)
	if !ok {
		return errors.Wrapf(errs.AssetDoesNotExist, "house %s has no virtual account", key)
	}
	va := ownership.VirtualAccount
	if _, ok := p.escrow.Get(who, va); !ok {
		return errors.Wrapf(errs.NotAValidPayment, "no guaranty request for %s on house %s", who, key)
	}
	amount, err := p.escrow.Settle(who, va)
	if err != nil {
		return err
	}
	if err := p.lifecycle.AddTenant(key, who); err != nil {
		return err
	}

	now := p.system.Now()
	t = t.clone()
	t.AssetAccount = &va
	t.AssetRequested = nil
	t.ContractStart = now
	t.RemainingPayments = p.params.Lease
	t.RemainingRent = t.Rent * common.Balance(p.params.Lease)
	p.s.tenants[who] = t

	p.system.Deposit(GuarantyPaid{Tenant: who, Key: key, Amount: amount, Block: now})
	return nil
}

// PayRent transfers one month of rent into the asset's virtual account and
// records the cycle for the next distribution sweep.
func (p *Pallet) PayRent(who common.AccountID) error {
	t, ok := p.s.tenants[who]
	if !ok || t.AssetAccount == nil {
		return errors.Wrapf(errs.TenantAssetNotLinked, "account %s", who)
	}
	if t.RemainingPayments == 0 {
		return errors.Wrapf(errs.NoRentToPay, "account %s", who)
	}
	va := *t.AssetAccount
	if err := p.currency.Transfer(who, va, t.Rent); err != nil {
		return err
	}
	key, ok := p.shares.AssetOfVirtual(va)
	if !ok {
		return errors.Wrapf(errs.AssetDoesNotExist, "virtual account %s", va)
	}
	if err := p.shares.IncrementRentNbr(key); err != nil {
		return err
	}

	t = t.clone()
	t.RemainingPayments--
	if t.RemainingRent >= t.Rent {
		t.RemainingRent -= t.Rent
	} else {
		t.RemainingRent = 0
	}
	p.s.tenants[who] = t

	p.system.Deposit(RentPaid{Tenant: who, Key: key, Amount: t.Rent, Block: p.system.Now()})
	return nil
}

// TenantOf returns one tenancy record.
func (p *Pallet) TenantOf(who common.AccountID) (Tenant, bool) {
	t, ok := p.s.tenants[who]
	if !ok {
		return Tenant{}, false
	}
	return t.clone(), true
}

// ActiveTenants returns every tenant bound to an asset, ordered by account
// id for the deterministic rent sweep.
func (p *Pallet) ActiveTenants() []Tenant {
	out := make([]Tenant, 0, len(p.s.tenants))
	for _, t := range p.s.tenants {
		if t.AssetAccount != nil {
			out = append(out, t.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AccountID.String() < out[j].AccountID.String()
	})
	return out
}
