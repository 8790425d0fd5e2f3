// Package finalizer is the notary checkpoint between a reserved bid and the
// actual purchase: the notary validates or rejects the transaction, and the
// seller can still cancel a validated one before settlement.
package finalizer

import (
	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/onboarding"
)

type RoleRegistry interface {
	EnsureRole(who common.AccountID, role common.Role) error
}

type Lifecycle interface {
	House(key common.AssetKey) (onboarding.Asset, bool)
	TransitionStatus(key common.AssetKey, to onboarding.AssetStatus) error
}

type NFTRegistry interface {
	OwnerOf(key common.AssetKey) (common.AccountID, error)
}

type Fund interface {
	CancelHouseBidding(houseID common.AssetKey) error
}

// Pallet is stateless: the asset registry and the fund own all state it
// touches.
type Pallet struct {
	system    *runtime.Runtime
	roles     RoleRegistry
	lifecycle Lifecycle
	nfts      NFTRegistry
	fund      Fund
}

func New(system *runtime.Runtime, roles RoleRegistry, lifecycle Lifecycle, nfts NFTRegistry, fund Fund) *Pallet {
	p := &Pallet{system: system, roles: roles, lifecycle: lifecycle, nfts: nfts, fund: fund}
	p.registerCalls()
	return p
}

func (p *Pallet) Module() common.Module { return common.ModuleFinalizer }
func (p *Pallet) Snapshot() any         { return struct{}{} }
func (p *Pallet) Restore(any)           {}

type AssetArgs struct {
	Collection common.CollectionID `json:"collection"`
	Item       common.ItemID       `json:"item"`
}

func (p *Pallet) registerCalls() {
	register := func(method string, handler func(who common.AccountID, key common.AssetKey) error) {
		p.system.RegisterCall(common.ModuleFinalizer, method,
			func() any { return new(AssetArgs) },
			func(origin types.Origin, args any) error {
				a, ok := args.(*AssetArgs)
				if !ok {
					return errors.Wrapf(errs.InvalidArgument, "finalizer.%s args", method)
				}
				who, err := types.EnsureSigned(origin)
				if err != nil {
					return err
				}
				return handler(who, common.AssetKey{Collection: a.Collection, Item: a.Item})
			})
	}
	register("validate_transaction_asset", p.ValidateTransactionAsset)
	register("reject_transaction_asset", p.RejectTransactionAsset)
	register("cancel_transaction_asset", p.CancelTransactionAsset)
}

// ValidateTransactionAsset moves a finalising asset to Finalised, clearing
// it for settlement on the next scan.
func (p *Pallet) ValidateTransactionAsset(notary common.AccountID, key common.AssetKey) error {
	if err := p.roles.EnsureRole(notary, common.RoleNotary); err != nil {
		return err
	}
	if err := p.ensureStatus(key, onboarding.StatusFinalising, errs.HouseHasNotFinalisingStatus); err != nil {
		return err
	}
	if err := p.lifecycle.TransitionStatus(key, onboarding.StatusFinalised); err != nil {
		return err
	}
	p.system.Deposit(TransactionValidated{Key: key, Notary: notary, Block: p.system.Now()})
	return nil
}

// RejectTransactionAsset rejects a finalising asset and releases the fund
// reservation.
func (p *Pallet) RejectTransactionAsset(notary common.AccountID, key common.AssetKey) error {
	if err := p.roles.EnsureRole(notary, common.RoleNotary); err != nil {
		return err
	}
	if err := p.ensureStatus(key, onboarding.StatusFinalising, errs.HouseHasNotFinalisingStatus); err != nil {
		return err
	}
	if err := p.lifecycle.TransitionStatus(key, onboarding.StatusRejected); err != nil {
		return err
	}
	if err := p.fund.CancelHouseBidding(key); err != nil {
		return err
	}
	p.system.Deposit(TransactionRejected{Key: key, Notary: notary, Block: p.system.Now()})
	return nil
}

// CancelTransactionAsset lets the selling owner withdraw a validated asset
// before settlement; the fund reservation is released.
func (p *Pallet) CancelTransactionAsset(seller common.AccountID, key common.AssetKey) error {
	if err := p.roles.EnsureRole(seller, common.RoleSeller); err != nil {
		return err
	}
	owner, err := p.nfts.OwnerOf(key)
	if err != nil {
		return err
	}
	if owner != seller {
		return errors.Wrapf(errs.NotTheHouseOwner, "account %s", seller)
	}
	if err := p.ensureStatus(key, onboarding.StatusFinalised, errs.HouseHasNotFinalisedStatus); err != nil {
		return err
	}
	if err := p.lifecycle.TransitionStatus(key, onboarding.StatusCancelled); err != nil {
		return err
	}
	if err := p.fund.CancelHouseBidding(key); err != nil {
		return err
	}
	p.system.Deposit(TransactionCancelled{Key: key, Seller: seller, Block: p.system.Now()})
	return nil
}

func (p *Pallet) ensureStatus(key common.AssetKey, want onboarding.AssetStatus, kind errs.ErrorKind) error {
	asset, ok := p.lifecycle.House(key)
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "house %s", key)
	}
	if asset.Status != want {
		return errors.Wrapf(kind, "house %s is %s", key, asset.Status)
	}
	return nil
}
