// Package share finishes a purchase: it derives the asset's virtual account,
// routes the buy settlement through it, issues exactly 1000 ownership tokens
// and distributes them to the investor cohort pro rata to their reserved
// contributions.
package share

import (
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/assets"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
)

// TokenSupply is the fixed number of ownership tokens minted per asset.
const TokenSupply common.Balance = 1000

type Params struct {
	// Fees seeds each new virtual account from the platform fees account
	// so it can pay deposits of its own.
	Fees common.Balance
}

type Currency interface {
	Transfer(from, to common.AccountID, amount common.Balance) error
}

// Fund is the housing-fund surface consumed at settlement.
type Fund interface {
	Reservation(houseID common.AssetKey) (housingfund.FundOperation, bool)
	ValidateHouseBidding(houseID common.AssetKey) error
}

// Lifecycle is the onboarding surface consumed at settlement.
type Lifecycle interface {
	DoBuy(key common.AssetKey, buyer common.AccountID) error
	PriceOf(key common.AssetKey) (common.Balance, error)
}

// TokenRegistry is the fungible-asset surface for share tokens.
type TokenRegistry interface {
	ForceCreate(id assets.ClassID, owner common.AccountID) error
	SetMetadata(id assets.ClassID, md assets.Metadata) error
	Mint(id assets.ClassID, issuer, to common.AccountID, amount common.Balance) error
	ForceTransfer(id assets.ClassID, from, to common.AccountID, amount common.Balance) error
	BalanceOf(id assets.ClassID, who common.AccountID) common.Balance
	TotalSupply(id assets.ClassID) common.Balance
}

// OwnerBalance is one holder's slice of an asset's 1000 tokens.
type OwnerBalance struct {
	Account common.AccountID `json:"account"`
	Balance common.Balance   `json:"balance"`
}

// Ownership is the per-asset record keyed by (collection, item).
type Ownership struct {
	VirtualAccount common.AccountID   `json:"virtual_account"`
	Owners         []common.AccountID `json:"owners"`
	Created        common.BlockNumber `json:"created"`
	TokenID        assets.ClassID     `json:"token_id"`
	// RentNbr counts rent cycles collected into the virtual account and
	// not yet distributed.
	RentNbr uint32 `json:"rent_nbr"`
}

func (o Ownership) clone() Ownership {
	o.Owners = append([]common.AccountID(nil), o.Owners...)
	return o
}

// Owners is the per-virtual-account record.
type Owners struct {
	Owners         []OwnerBalance     `json:"owners"`
	CreatedAtBlock common.BlockNumber `json:"created_at_block"`
	TokenID        assets.ClassID     `json:"token_id"`
	Supply         common.Balance     `json:"supply"`
}

func (o Owners) clone() Owners {
	o.Owners = append([]OwnerBalance(nil), o.Owners...)
	return o
}

type storage struct {
	virtual     map[common.AssetKey]Ownership
	tokens      map[common.AccountID]Owners
	nextTokenID assets.ClassID
}

func (s *storage) clone() *storage {
	virtual := make(map[common.AssetKey]Ownership, len(s.virtual))
	for k, v := range s.virtual {
		virtual[k] = v.clone()
	}
	tokens := make(map[common.AccountID]Owners, len(s.tokens))
	for k, v := range s.tokens {
		tokens[k] = v.clone()
	}
	return &storage{virtual: virtual, tokens: tokens, nextTokenID: s.nextTokenID}
}

type Pallet struct {
	system      *runtime.Runtime
	params      Params
	currency    Currency
	fund        Fund
	lifecycle   Lifecycle
	tokens      TokenRegistry
	feesAccount common.AccountID
	s           *storage
}

func New(system *runtime.Runtime, params Params, currency Currency, fund Fund, lifecycle Lifecycle, tokens TokenRegistry) *Pallet {
	p := &Pallet{
		system:      system,
		params:      params,
		currency:    currency,
		fund:        fund,
		lifecycle:   lifecycle,
		tokens:      tokens,
		feesAccount: common.DeriveSubAccount("fs/fees"),
		s: &storage{
			virtual: make(map[common.AssetKey]Ownership),
			tokens:  make(map[common.AccountID]Owners),
		},
	}
	p.registerCalls()
	return p
}

func (p *Pallet) Module() common.Module { return common.ModuleShare }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

// FeesAccount is the platform account that seeds virtual accounts.
func (p *Pallet) FeesAccount() common.AccountID {
	return p.feesAccount
}

type CreateVirtualArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
}

func (p *Pallet) registerCalls() {
	p.system.RegisterCall(common.ModuleShare, "create_virtual",
		func() any { return new(CreateVirtualArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*CreateVirtualArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "share_distributor.create_virtual args")
			}
			if err := types.EnsureRoot(origin); err != nil {
				return err
			}
			return p.CreateVirtual(common.AssetKey{Collection: a.Collection, Item: a.Item})
		})
}

// CreateVirtual executes the five settlement steps in order: derive and seed
// the virtual account, route the buy through it, create and mint the token
// class, distribute the tokens, then settle the fund reservation.
func (p *Pallet) CreateVirtual(key common.AssetKey) error {
	if _, exists := p.s.virtual[key]; exists {
		return errors.Wrapf(errs.ConflictSetting, "house %s already has a virtual account", key)
	}
	op, ok := p.fund.Reservation(key)
	if !ok {
		return errors.Wrapf(errs.NotFound, "no reservation for house %s", key)
	}
	price, err := p.lifecycle.PriceOf(key)
	if err != nil {
		return err
	}

	va := key.VirtualAccount()
	now := p.system.Now()
	if err := p.currency.Transfer(p.feesAccount, va, p.params.Fees); err != nil {
		return err
	}

	tokenID := p.s.nextTokenID
	p.s.nextTokenID++
	p.s.virtual[key] = Ownership{VirtualAccount: va, Created: now, TokenID: tokenID}
	p.s.tokens[va] = Owners{CreatedAtBlock: now, TokenID: tokenID}
	p.system.Deposit(VirtualCreated{Key: key, VirtualAccount: va, Block: now})

	if err := p.lifecycle.DoBuy(key, va); err != nil {
		return err
	}
	if err := p.createTokens(tokenID, va); err != nil {
		return err
	}
	if err := p.distributeTokens(key, va, tokenID, price, op.Contributions); err != nil {
		return err
	}
	return p.fund.ValidateHouseBidding(key)
}

func (p *Pallet) createTokens(tokenID assets.ClassID, va common.AccountID) error {
	if err := p.tokens.ForceCreate(tokenID, va); err != nil {
		return err
	}
	md := assets.Metadata{
		Name:     fmt.Sprintf("FairOwner_nbr%d", tokenID),
		Symbol:   fmt.Sprintf("FO%d", tokenID),
		Decimals: 1,
	}
	if err := p.tokens.SetMetadata(tokenID, md); err != nil {
		return err
	}
	if err := p.tokens.Mint(tokenID, va, va, TokenSupply); err != nil {
		return err
	}
	owners := p.s.tokens[va]
	owners.Supply = TokenSupply
	p.s.tokens[va] = owners
	return nil
}

// distributeTokens converts each cohort member's reserved amount into whole
// tokens, rounding half up and capping at what the virtual account still
// holds; rounding residue stays with the virtual account.
func (p *Pallet) distributeTokens(key common.AssetKey, va common.AccountID, tokenID assets.ClassID, price common.Balance, cohort []housingfund.ContributorShare) error {
	remaining := TokenSupply
	ownership := p.s.virtual[key].clone()
	owners := p.s.tokens[va].clone()

	for _, member := range cohort {
		share, err := fixedmath.MulDivRound(member.Amount, TokenSupply, price)
		if err != nil {
			return err
		}
		if share > remaining {
			share = remaining
		}
		if share == 0 {
			continue
		}
		if err := p.tokens.ForceTransfer(tokenID, va, member.Account, share); err != nil {
			return err
		}
		remaining -= share
		ownership.Owners = append(ownership.Owners, member.Account)
		owners.Owners = append(owners.Owners, OwnerBalance{Account: member.Account, Balance: share})
	}

	p.s.virtual[key] = ownership
	p.s.tokens[va] = owners
	p.system.Deposit(SharesDistributed{
		Key:            key,
		VirtualAccount: va,
		TokenID:        tokenID,
		Owners:         owners.Owners,
		Block:          p.system.Now(),
	})
	return nil
}

// OwnershipOf returns the per-asset ownership record.
func (p *Pallet) OwnershipOf(key common.AssetKey) (Ownership, bool) {
	o, ok := p.s.virtual[key]
	if !ok {
		return Ownership{}, false
	}
	return o.clone(), true
}

// OwnersOf returns the per-virtual-account token record.
func (p *Pallet) OwnersOf(va common.AccountID) (Owners, bool) {
	o, ok := p.s.tokens[va]
	if !ok {
		return Owners{}, false
	}
	return o.clone(), true
}

// AssetOfVirtual resolves a virtual account back to its asset key.
func (p *Pallet) AssetOfVirtual(va common.AccountID) (common.AssetKey, bool) {
	for key, o := range p.s.virtual {
		if o.VirtualAccount == va {
			return key, true
		}
	}
	return common.AssetKey{}, false
}

// IsOwner reports whether the account holds share tokens of the asset.
func (p *Pallet) IsOwner(key common.AssetKey, who common.AccountID) bool {
	o, ok := p.s.virtual[key]
	if !ok {
		return false
	}
	return p.tokens.BalanceOf(o.TokenID, who) > 0
}

// VirtualRecord pairs an asset key with its ownership for iteration.
type VirtualRecord struct {
	Key       common.AssetKey
	Ownership Ownership
}

// Virtuals returns every ownership record ordered by key.
func (p *Pallet) Virtuals() []VirtualRecord {
	out := make([]VirtualRecord, 0, len(p.s.virtual))
	for key, o := range p.s.virtual {
		out = append(out, VirtualRecord{Key: key, Ownership: o.clone()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Collection != out[j].Key.Collection {
			return out[i].Key.Collection < out[j].Key.Collection
		}
		return out[i].Key.Item < out[j].Key.Item
	})
	return out
}

// IncrementRentNbr records one collected rent cycle for the asset.
func (p *Pallet) IncrementRentNbr(key common.AssetKey) error {
	o, ok := p.s.virtual[key]
	if !ok {
		return errors.Wrapf(errs.NotFound, "no virtual account for house %s", key)
	}
	o = o.clone()
	o.RentNbr++
	p.s.virtual[key] = o
	return nil
}

// ResetRentNbr clears the collected-cycle counter after distribution.
func (p *Pallet) ResetRentNbr(key common.AssetKey) error {
	o, ok := p.s.virtual[key]
	if !ok {
		return errors.Wrapf(errs.NotFound, "no virtual account for house %s", key)
	}
	o = o.clone()
	o.RentNbr = 0
	p.s.virtual[key] = o
	return nil
}
