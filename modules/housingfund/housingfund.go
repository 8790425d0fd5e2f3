// Package housingfund is the investors' contribution pool: it tracks
// available/reserved/contributed balances per contributor, reserves cohort
// shares when a house bid is placed, and releases or settles them when the
// sale falls through or completes.
package housingfund

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
)

type Params struct {
	MinContribution common.Balance
}

// Currency is the slice of the balances pallet the fund needs.
type Currency interface {
	FreeBalance(who common.AccountID) common.Balance
	Transfer(from, to common.AccountID, amount common.Balance) error
	Reserve(who common.AccountID, amount common.Balance) error
	Unreserve(who common.AccountID, amount common.Balance) common.Balance
}

// RoleRegistry gates contribute/withdraw to investors.
type RoleRegistry interface {
	EnsureRole(who common.AccountID, role common.Role) error
}

type storage struct {
	contributions map[common.AccountID]Contribution
	fund          FundInfo
	reservations  map[common.AssetKey]FundOperation
	purchases     map[common.AssetKey]FundOperation
}

func (s *storage) clone() *storage {
	contributions := make(map[common.AccountID]Contribution, len(s.contributions))
	for k, v := range s.contributions {
		contributions[k] = v.clone()
	}
	reservations := make(map[common.AssetKey]FundOperation, len(s.reservations))
	for k, v := range s.reservations {
		reservations[k] = v.clone()
	}
	purchases := make(map[common.AssetKey]FundOperation, len(s.purchases))
	for k, v := range s.purchases {
		purchases[k] = v.clone()
	}
	return &storage{contributions: contributions, fund: s.fund, reservations: reservations, purchases: purchases}
}

type Pallet struct {
	system   *runtime.Runtime
	params   Params
	currency Currency
	roles    RoleRegistry
	account  common.AccountID
	s        *storage
}

func New(system *runtime.Runtime, params Params, currency Currency, roles RoleRegistry) *Pallet {
	p := &Pallet{
		system:   system,
		params:   params,
		currency: currency,
		roles:    roles,
		account:  common.DeriveSubAccount("fs/fund"),
		s: &storage{
			contributions: make(map[common.AccountID]Contribution),
			reservations:  make(map[common.AssetKey]FundOperation),
			purchases:     make(map[common.AssetKey]FundOperation),
		},
	}
	p.registerCalls()
	return p
}

func (p *Pallet) Module() common.Module { return common.ModuleHousingFund }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

// FundAccount is the pallet-owned account that holds pooled funds.
func (p *Pallet) FundAccount() common.AccountID {
	return p.account
}

func (p *Pallet) FundBalance() FundInfo {
	return p.s.fund
}

type AmountArgs struct {
	Amount common.Balance `json:"amount"`
}

func (p *Pallet) registerCalls() {
	p.system.RegisterCall(common.ModuleHousingFund, "contribute",
		func() any { return new(AmountArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*AmountArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "housing_fund.contribute args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.Contribute(who, a.Amount)
		})
	p.system.RegisterCall(common.ModuleHousingFund, "withdraw",
		func() any { return new(AmountArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*AmountArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "housing_fund.withdraw args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.Withdraw(who, a.Amount)
		})
}

// Contribute moves funds from an investor into the pool.
func (p *Pallet) Contribute(who common.AccountID, amount common.Balance) error {
	if err := p.roles.EnsureRole(who, common.RoleInvestor); err != nil {
		return err
	}
	if amount < p.params.MinContribution {
		return errors.Wrapf(errs.ContributionTooSmall, "%d below minimum %d", amount, p.params.MinContribution)
	}
	if p.currency.FreeBalance(who) < amount {
		return errors.Wrapf(errs.NotEnoughToContribute, "account %s", who)
	}
	if err := p.currency.Transfer(who, p.account, amount); err != nil {
		return err
	}

	now := p.system.Now()
	c := p.s.contributions[who].clone()
	c.Available += amount
	c.BlockNumber = now
	c.Contributions = append(c.Contributions, ContributionLog{Amount: amount, Block: now})
	p.s.contributions[who] = c

	p.s.fund.Transferable += amount
	p.s.fund.Total += amount
	p.updateShares()

	p.system.Deposit(ContributeSucceeded{Account: who, Amount: amount, Block: now})
	return nil
}

// Withdraw moves available funds from the pool back to the investor.
func (p *Pallet) Withdraw(who common.AccountID, amount common.Balance) error {
	if err := p.roles.EnsureRole(who, common.RoleInvestor); err != nil {
		return err
	}
	c, ok := p.s.contributions[who]
	if !ok {
		return errors.Wrapf(errs.NotAContributor, "account %s", who)
	}
	if amount > c.Available {
		return errors.Wrapf(errs.NotEnoughFundToWithdraw, "account %s has %d available", who, c.Available)
	}
	if p.s.fund.Transferable < amount {
		return errors.Wrapf(errs.NotEnoughInTransferableForWithdraw, "transferable %d", p.s.fund.Transferable)
	}
	if err := p.currency.Transfer(p.account, who, amount); err != nil {
		return err
	}

	now := p.system.Now()
	c = c.clone()
	c.Available -= amount
	c.HasWithdrawn = true
	c.BlockNumber = now
	c.Withdraws = append(c.Withdraws, ContributionLog{Amount: amount, Block: now})
	p.s.contributions[who] = c

	p.s.fund.Transferable -= amount
	p.s.fund.Total -= amount
	p.updateShares()

	p.system.Deposit(WithdrawalSucceeded{Account: who, Amount: amount, Block: now})
	return nil
}

// HouseBidding reserves each cohort member's slice and the aggregate amount
// for the given house. Called by the bidding engine.
func (p *Pallet) HouseBidding(houseID common.AssetKey, amount common.Balance, contributions []ContributorShare) error {
	if _, exists := p.s.reservations[houseID]; exists {
		return errors.Wrapf(errs.ConflictSetting, "house %s already has a reservation", houseID)
	}
	for _, share := range contributions {
		c, ok := p.s.contributions[share.Account]
		if !ok {
			return errors.Wrapf(errs.NotAContributor, "account %s", share.Account)
		}
		if !c.CanReserve(share.Amount) {
			return errors.Wrapf(errs.NotEnoughAvailableBalance, "account %s", share.Account)
		}
	}
	if err := p.currency.Reserve(p.account, amount); err != nil {
		return err
	}

	for _, share := range contributions {
		c := p.s.contributions[share.Account].clone()
		c.Available -= share.Amount
		c.Reserved += share.Amount
		p.s.contributions[share.Account] = c
	}

	now := p.system.Now()
	p.s.reservations[houseID] = FundOperation{
		AccountID:     p.account,
		HouseID:       houseID,
		Amount:        amount,
		BlockNumber:   now,
		Contributions: append([]ContributorShare(nil), contributions...),
	}
	p.s.fund.Reserved += amount
	p.s.fund.Transferable -= amount

	p.system.Deposit(FundReservationSucceeded{HouseID: houseID, Amount: amount, Block: now})
	return nil
}

// CancelHouseBidding releases a reservation after a notary rejection or a
// seller cancellation.
func (p *Pallet) CancelHouseBidding(houseID common.AssetKey) error {
	op, ok := p.s.reservations[houseID]
	if !ok {
		return errors.Wrapf(errs.NotFound, "no reservation for house %s", houseID)
	}
	p.currency.Unreserve(p.account, op.Amount)
	for _, share := range op.Contributions {
		c := p.s.contributions[share.Account].clone()
		c.Reserved -= share.Amount
		c.Available += share.Amount
		p.s.contributions[share.Account] = c
	}
	delete(p.s.reservations, houseID)
	p.s.fund.Reserved -= op.Amount
	p.s.fund.Transferable += op.Amount

	p.system.Deposit(FundReservationCancelled{HouseID: houseID, Amount: op.Amount, Block: p.system.Now()})
	return nil
}

// ValidateHouseBidding settles a reservation once the virtual account exists:
// contributor balances move from reserved to contributed and the record moves
// to Purchases. The currency itself is released by the buy settlement.
func (p *Pallet) ValidateHouseBidding(houseID common.AssetKey) error {
	op, ok := p.s.reservations[houseID]
	if !ok {
		return errors.Wrapf(errs.NotFound, "no reservation for house %s", houseID)
	}
	for _, share := range op.Contributions {
		c := p.s.contributions[share.Account].clone()
		c.Reserved -= share.Amount
		c.Contributed += share.Amount
		p.s.contributions[share.Account] = c
	}
	delete(p.s.reservations, houseID)
	p.s.purchases[houseID] = op
	p.s.fund.Reserved -= op.Amount
	p.s.fund.Contributed += op.Amount

	p.system.Deposit(FundReservationValidated{HouseID: houseID, Amount: op.Amount, Block: p.system.Now()})
	return nil
}

// ContributionOf returns one contributor's pool state.
func (p *Pallet) ContributionOf(who common.AccountID) (Contribution, bool) {
	c, ok := p.s.contributions[who]
	if !ok {
		return Contribution{}, false
	}
	return c.clone(), true
}

// ContributorState is a snapshot row used by the bidding engine.
type ContributorState struct {
	Account     common.AccountID
	Available   common.Balance
	BlockNumber common.BlockNumber
}

// Contributors returns every contributor ordered by account id so iteration
// is deterministic across replicas.
func (p *Pallet) Contributors() []ContributorState {
	out := make([]ContributorState, 0, len(p.s.contributions))
	for who, c := range p.s.contributions {
		out = append(out, ContributorState{Account: who, Available: c.Available, BlockNumber: c.BlockNumber})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account.String() < out[j].Account.String()
	})
	return out
}

// Reservation returns the live bid record for a house.
func (p *Pallet) Reservation(houseID common.AssetKey) (FundOperation, bool) {
	op, ok := p.s.reservations[houseID]
	if !ok {
		return FundOperation{}, false
	}
	return op.clone(), true
}

// Purchase returns the settled bid record for a house.
func (p *Pallet) Purchase(houseID common.AssetKey) (FundOperation, bool) {
	op, ok := p.s.purchases[houseID]
	if !ok {
		return FundOperation{}, false
	}
	return op.clone(), true
}

// updateShares recomputes every contributor's share of the pool.
func (p *Pallet) updateShares() {
	for who, c := range p.s.contributions {
		c.Share = fixedmath.RatioOf(c.Available, p.s.fund.Total)
		p.s.contributions[who] = c
	}
}
