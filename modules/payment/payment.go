// Package payment is the escrow primitive: a payee requests a payment from a
// payer, the payer later settles or either side cancels.
package payment

import (
	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
)

type State string

const (
	PaymentRequested State = "requested"
	PaymentSettled   State = "settled"
	PaymentCancelled State = "cancelled"
)

type Detail struct {
	Amount common.Balance     `json:"amount"`
	State  State              `json:"state"`
	When   common.BlockNumber `json:"when"`
}

type pairKey struct {
	payer common.AccountID
	payee common.AccountID
}

type storage struct {
	payments map[pairKey]Detail
}

func (s *storage) clone() *storage {
	payments := make(map[pairKey]Detail, len(s.payments))
	for k, v := range s.payments {
		payments[k] = v
	}
	return &storage{payments: payments}
}

// Currency is the slice of the balances pallet the escrow needs.
type Currency interface {
	Transfer(from, to common.AccountID, amount common.Balance) error
}

type Pallet struct {
	system   *runtime.Runtime
	currency Currency
	s        *storage
}

func New(system *runtime.Runtime, currency Currency) *Pallet {
	return &Pallet{
		system:   system,
		currency: currency,
		s:        &storage{payments: make(map[pairKey]Detail)},
	}
}

func (p *Pallet) Module() common.Module { return common.ModulePayment }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

// Request opens a payment demand from payer to payee.
func (p *Pallet) Request(payer, payee common.AccountID, amount common.Balance) error {
	key := pairKey{payer: payer, payee: payee}
	if existing, ok := p.s.payments[key]; ok && existing.State == PaymentRequested {
		return errors.Wrapf(errs.PaymentAlreadyInProcess, "payment %s -> %s", payer, payee)
	}
	p.s.payments[key] = Detail{Amount: amount, State: PaymentRequested, When: p.system.Now()}
	return nil
}

// Get returns the payment detail between payer and payee.
func (p *Pallet) Get(payer, payee common.AccountID) (Detail, bool) {
	d, ok := p.s.payments[pairKey{payer: payer, payee: payee}]
	return d, ok
}

// Settle executes a requested payment by moving funds payer -> payee.
func (p *Pallet) Settle(payer, payee common.AccountID) (common.Balance, error) {
	key := pairKey{payer: payer, payee: payee}
	detail, ok := p.s.payments[key]
	if !ok || detail.State != PaymentRequested {
		return 0, errors.Wrapf(errs.NotAValidPayment, "payment %s -> %s", payer, payee)
	}
	if err := p.currency.Transfer(payer, payee, detail.Amount); err != nil {
		return 0, err
	}
	detail.State = PaymentSettled
	detail.When = p.system.Now()
	p.s.payments[key] = detail
	return detail.Amount, nil
}

// Cancel voids a requested payment.
func (p *Pallet) Cancel(payer, payee common.AccountID) error {
	key := pairKey{payer: payer, payee: payee}
	detail, ok := p.s.payments[key]
	if !ok || detail.State != PaymentRequested {
		return errors.Wrapf(errs.NotAValidPayment, "payment %s -> %s", payer, payee)
	}
	detail.State = PaymentCancelled
	detail.When = p.system.Now()
	p.s.payments[key] = detail
	return nil
}
