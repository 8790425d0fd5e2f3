// Package assets is the fungible token primitive used for share tokens: new
// token classes with a fixed supply, a single issuer and force-transfer
// support for the distributor.
package assets

import (
	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
)

type ClassID = uint32

type Metadata struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type Class struct {
	Owner    common.AccountID `json:"owner"`
	Issuer   common.AccountID `json:"issuer"`
	Supply   common.Balance   `json:"supply"`
	Metadata Metadata         `json:"metadata"`
}

type holderKey struct {
	class ClassID
	who   common.AccountID
}

type storage struct {
	classes  map[ClassID]Class
	balances map[holderKey]common.Balance
}

func (s *storage) clone() *storage {
	classes := make(map[ClassID]Class, len(s.classes))
	for k, v := range s.classes {
		classes[k] = v
	}
	balances := make(map[holderKey]common.Balance, len(s.balances))
	for k, v := range s.balances {
		balances[k] = v
	}
	return &storage{classes: classes, balances: balances}
}

type Pallet struct {
	system *runtime.Runtime
	s      *storage
}

func New(system *runtime.Runtime) *Pallet {
	return &Pallet{
		system: system,
		s: &storage{
			classes:  make(map[ClassID]Class),
			balances: make(map[holderKey]common.Balance),
		},
	}
}

func (p *Pallet) Module() common.Module { return common.ModuleAssets }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

// ForceCreate registers a new token class with a single issuer.
func (p *Pallet) ForceCreate(id ClassID, owner common.AccountID) error {
	if _, exists := p.s.classes[id]; exists {
		return errors.Wrapf(errs.ConflictSetting, "token class %d already exists", id)
	}
	p.s.classes[id] = Class{Owner: owner, Issuer: owner}
	return nil
}

// SetMetadata attaches name/symbol/decimals to a class.
func (p *Pallet) SetMetadata(id ClassID, md Metadata) error {
	class, ok := p.s.classes[id]
	if !ok {
		return errors.Wrapf(errs.NotFound, "token class %d", id)
	}
	class.Metadata = md
	p.s.classes[id] = class
	return nil
}

// Mint issues new units to `to`. Only the class issuer may mint.
func (p *Pallet) Mint(id ClassID, issuer, to common.AccountID, amount common.Balance) error {
	class, ok := p.s.classes[id]
	if !ok {
		return errors.Wrapf(errs.NotFound, "token class %d", id)
	}
	if class.Issuer != issuer {
		return errors.Wrapf(errs.NotTheTokenOwner, "account %s is not the issuer of class %d", issuer, id)
	}
	class.Supply += amount
	p.s.classes[id] = class
	key := holderKey{class: id, who: to}
	p.s.balances[key] += amount
	return nil
}

// Transfer moves units between holders.
func (p *Pallet) Transfer(id ClassID, from, to common.AccountID, amount common.Balance) error {
	fromKey := holderKey{class: id, who: from}
	if p.s.balances[fromKey] < amount {
		return errors.Wrapf(errs.InsufficientBalance, "class %d holder %s", id, from)
	}
	p.s.balances[fromKey] -= amount
	p.s.balances[holderKey{class: id, who: to}] += amount
	return nil
}

// ForceTransfer moves units without the holder's signature. Distributor only.
func (p *Pallet) ForceTransfer(id ClassID, from, to common.AccountID, amount common.Balance) error {
	return p.Transfer(id, from, to, amount)
}

func (p *Pallet) BalanceOf(id ClassID, who common.AccountID) common.Balance {
	return p.s.balances[holderKey{class: id, who: who}]
}

func (p *Pallet) TotalSupply(id ClassID) common.Balance {
	return p.s.classes[id].Supply
}

func (p *Pallet) ClassMetadata(id ClassID) (Metadata, bool) {
	class, ok := p.s.classes[id]
	return class.Metadata, ok
}
