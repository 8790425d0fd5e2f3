// Package balances is the native currency primitive: free/reserved balances
// per account, transfers, reservations and slashing. Total issuance only
// changes through explicit genesis deposits and slashes.
package balances

import (
	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
)

type AccountData struct {
	Free     common.Balance `json:"free"`
	Reserved common.Balance `json:"reserved"`
}

type storage struct {
	accounts map[common.AccountID]AccountData
	issuance common.Balance
}

func (s *storage) clone() *storage {
	accounts := make(map[common.AccountID]AccountData, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	return &storage{accounts: accounts, issuance: s.issuance}
}

type Pallet struct {
	system *runtime.Runtime
	s      *storage
}

func New(system *runtime.Runtime) *Pallet {
	return &Pallet{
		system: system,
		s:      &storage{accounts: make(map[common.AccountID]AccountData)},
	}
}

func (p *Pallet) Module() common.Module { return common.ModuleBalances }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

// Deposit mints new funds into an account. Genesis and dev faucet only.
func (p *Pallet) Deposit(who common.AccountID, amount common.Balance) {
	acct := p.s.accounts[who]
	acct.Free += amount
	p.s.accounts[who] = acct
	p.s.issuance += amount
}

func (p *Pallet) FreeBalance(who common.AccountID) common.Balance {
	return p.s.accounts[who].Free
}

func (p *Pallet) ReservedBalance(who common.AccountID) common.Balance {
	return p.s.accounts[who].Reserved
}

func (p *Pallet) TotalIssuance() common.Balance {
	return p.s.issuance
}

// Transfer moves free balance between accounts.
func (p *Pallet) Transfer(from, to common.AccountID, amount common.Balance) error {
	fromAcct := p.s.accounts[from]
	if fromAcct.Free < amount {
		return errors.Wrapf(errs.InsufficientBalance, "account %s has %d, needs %d", from, fromAcct.Free, amount)
	}
	fromAcct.Free -= amount
	p.s.accounts[from] = fromAcct

	toAcct := p.s.accounts[to]
	toAcct.Free += amount
	p.s.accounts[to] = toAcct
	return nil
}

// Reserve moves free balance into the account's reserved bucket.
func (p *Pallet) Reserve(who common.AccountID, amount common.Balance) error {
	acct := p.s.accounts[who]
	if acct.Free < amount {
		return errors.Wrapf(errs.InsufficientBalance, "account %s has %d free, cannot reserve %d", who, acct.Free, amount)
	}
	acct.Free -= amount
	acct.Reserved += amount
	p.s.accounts[who] = acct
	return nil
}

// Unreserve moves reserved balance back to free. Unreserving more than is
// reserved releases only what is there, mirroring the currency primitive.
func (p *Pallet) Unreserve(who common.AccountID, amount common.Balance) common.Balance {
	acct := p.s.accounts[who]
	if amount > acct.Reserved {
		amount = acct.Reserved
	}
	acct.Reserved -= amount
	acct.Free += amount
	p.s.accounts[who] = acct
	return amount
}

// SlashReserved burns a fraction of the given reserved amount and releases
// nothing; the slashed value leaves total issuance. Returns the amount burnt.
func (p *Pallet) SlashReserved(who common.AccountID, amount common.Balance, fraction fixedmath.Percent) common.Balance {
	acct := p.s.accounts[who]
	slash := fraction.Mul(amount)
	if slash > acct.Reserved {
		slash = acct.Reserved
	}
	acct.Reserved -= slash
	p.s.accounts[who] = acct
	p.s.issuance -= slash
	return slash
}
