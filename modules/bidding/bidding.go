// Package bidding periodically scans onboarded assets, assembles an investor
// cohort under the min/max-share rules and asks the housing fund to reserve
// each member's slice, then hands finalised assets to the share distributor.
package bidding

import (
	"sort"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
	"github.com/fair-squares/go-fairsquares/modules/onboarding"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
	"github.com/fair-squares/go-fairsquares/pkg/logger"
	"github.com/fair-squares/go-fairsquares/pkg/logger/slogx"
)

type Params struct {
	// NewAssetScanPeriod is the hook interval in blocks.
	NewAssetScanPeriod common.BlockNumber
	// MinShare and MaxShare bound one investor's slice of a single asset.
	MinShare fixedmath.Percent
	MaxShare fixedmath.Percent
}

// Fund is the housing-fund surface the engine drives.
type Fund interface {
	FundBalance() housingfund.FundInfo
	Contributors() []housingfund.ContributorState
	HouseBidding(houseID common.AssetKey, amount common.Balance, contributions []housingfund.ContributorShare) error
}

// Lifecycle is the onboarding surface the engine drives.
type Lifecycle interface {
	HousesByStatus(status onboarding.AssetStatus) []onboarding.HouseRecord
	PriceOf(key common.AssetKey) (common.Balance, error)
	TransitionStatus(key common.AssetKey, to onboarding.AssetStatus) error
}

// Distributor finishes the purchase of a finalised asset.
type Distributor interface {
	CreateVirtual(key common.AssetKey) error
}

// Pallet is stateless: everything it needs lives in the fund and the asset
// registry, so Snapshot and Restore carry nothing.
type Pallet struct {
	system      *runtime.Runtime
	params      Params
	fund        Fund
	lifecycle   Lifecycle
	distributor Distributor
}

func New(system *runtime.Runtime, params Params, fund Fund, lifecycle Lifecycle) *Pallet {
	p := &Pallet{system: system, params: params, fund: fund, lifecycle: lifecycle}
	p.registerCalls()
	return p
}

type ForceProcessArgs struct{}

// The scan passes also exist as root dispatchables so an operator can retry
// a skipped asset without waiting for the next scan block.
func (p *Pallet) registerCalls() {
	force := func(method string, process func(n common.BlockNumber)) {
		p.system.RegisterCall(common.ModuleBidding, method,
			func() any { return new(ForceProcessArgs) },
			func(origin types.Origin, _ any) error {
				if err := types.EnsureRoot(origin); err != nil {
					return err
				}
				process(p.system.Now())
				return nil
			})
	}
	force("force_process_onboarded_asset", p.processOnboardedAssets)
	force("force_process_finalised_asset", p.processFinalisedAssets)
}

// SetDistributor wires the share distributor after construction.
func (p *Pallet) SetDistributor(d Distributor) {
	p.distributor = d
}

func (p *Pallet) Module() common.Module { return common.ModuleBidding }
func (p *Pallet) Snapshot() any         { return struct{}{} }
func (p *Pallet) Restore(any)           {}

func (p *Pallet) OnInitialize(n common.BlockNumber) {
	if p.params.NewAssetScanPeriod == 0 || n%p.params.NewAssetScanPeriod != 0 {
		return
	}
	p.processOnboardedAssets(n)
	p.processFinalisedAssets(n)
}

// processOnboardedAssets tries to assemble and reserve a cohort for every
// asset waiting in Onboarded. A skipped asset is retried on the next scan.
func (p *Pallet) processOnboardedAssets(n common.BlockNumber) {
	for _, house := range p.lifecycle.HousesByStatus(onboarding.StatusOnboarded) {
		price, err := p.lifecycle.PriceOf(house.Key)
		if err != nil {
			logger.Warn("Onboarded asset without price",
				slogx.String("house", house.Key.String()),
				slogx.Error(err),
			)
			continue
		}
		if p.fund.FundBalance().Transferable < price {
			p.system.Deposit(HousingFundNotEnough{Key: house.Key, Price: price, Block: n})
			continue
		}
		cohort := p.createInvestorList(price)
		if len(cohort) == 0 {
			p.system.Deposit(FailedToAssembleInvestors{Key: house.Key, Price: price, Block: n})
			continue
		}
		if err := p.fund.HouseBidding(house.Key, price, cohort); err != nil {
			logger.Warn("House bidding reservation failed",
				slogx.String("house", house.Key.String()),
				slogx.Error(err),
			)
			continue
		}
		if err := p.lifecycle.TransitionStatus(house.Key, onboarding.StatusFinalising); err != nil {
			logger.Warn("Asset transition to finalising failed",
				slogx.String("house", house.Key.String()),
				slogx.Error(err),
			)
			continue
		}
		p.system.Deposit(HouseBiddingSucceeded{Key: house.Key, Price: price, Cohort: cohort, Block: n})
	}
}

// processFinalisedAssets completes notary-validated purchases.
func (p *Pallet) processFinalisedAssets(n common.BlockNumber) {
	for _, house := range p.lifecycle.HousesByStatus(onboarding.StatusFinalised) {
		if err := p.distributor.CreateVirtual(house.Key); err != nil {
			logger.Warn("Virtual account creation failed",
				slogx.String("house", house.Key.String()),
				slogx.Error(err),
			)
			p.system.Deposit(SellAssetToInvestorsFailed{Key: house.Key, Block: n})
			continue
		}
		p.system.Deposit(SellAssetToInvestorsSuccessful{Key: house.Key, Block: n})
	}
}

type candidate struct {
	account  common.AccountID
	block    common.BlockNumber
	value    common.Balance
	availPct fixedmath.Percent
}

// createInvestorList selects a cohort whose slices sum to amount exactly.
// Candidates are clamped to [MinShare, MaxShare] of the price, dropped when
// they cannot meet MinShare and walked oldest contribution first.
func (p *Pallet) createInvestorList(amount common.Balance) []housingfund.ContributorShare {
	minAmount := p.params.MinShare.Mul(amount)
	maxAmount := p.params.MaxShare.Mul(amount)

	var cands []candidate
	for _, c := range p.fund.Contributors() {
		if c.Available < minAmount {
			continue
		}
		value := c.Available
		if value > maxAmount {
			value = maxAmount
		}
		cands = append(cands, candidate{
			account:  c.Account,
			block:    c.BlockNumber,
			value:    value,
			availPct: fixedmath.RatioOf(value, amount),
		})
	}
	// Contributors() is account-ordered; a stable sort makes block ties
	// break on account id.
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].block < cands[j].block })

	n := len(cands)
	if n == 0 {
		return nil
	}
	var total common.Balance
	for _, c := range cands {
		total += c.value
	}

	minCount := int(fixedmath.One / p.params.MinShare)
	maxCount := int(fixedmath.One / p.params.MaxShare)
	if total < amount || n < maxCount {
		return nil
	}

	var assigned []fixedmath.Percent
	switch {
	case n >= minCount:
		cands = cands[:minCount]
		assigned = make([]fixedmath.Percent, minCount)
		for i := range assigned {
			assigned[i] = p.params.MinShare
		}
	case n == maxCount:
		assigned = make([]fixedmath.Percent, n)
		for i := range assigned {
			assigned[i] = p.params.MaxShare
		}
	default:
		remaining := fixedmath.One
		for k, c := range cands {
			left := fixedmath.Percent(len(cands) - k)
			var give fixedmath.Percent
			switch {
			case k == len(cands)-1:
				give = remaining
			case c.availPct >= remaining:
				give = remaining / left
			default:
				medianDiff := (remaining - c.availPct) / (left - 1)
				if medianDiff < p.params.MinShare {
					give = remaining / left
				} else {
					give = c.availPct
				}
			}
			if give > remaining {
				give = remaining
			}
			assigned = append(assigned, give)
			remaining -= give
			if remaining == 0 {
				break
			}
		}
	}

	shares := make([]housingfund.ContributorShare, len(assigned))
	var sum common.Balance
	var totalPct fixedmath.Percent
	for i, pct := range assigned {
		shares[i] = housingfund.ContributorShare{Account: cands[i].account, Amount: pct.Mul(amount)}
		sum += shares[i].Amount
		totalPct += pct
	}
	// Floor rounding can leave dust; the youngest selected member absorbs
	// it so the slices sum to the price exactly.
	if totalPct == fixedmath.One && sum < amount {
		shares[len(shares)-1].Amount += amount - sum
	}
	return shares
}
