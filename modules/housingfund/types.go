package housingfund

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
)

// ContributionLog is one deposit or withdrawal in a contributor's history.
type ContributionLog struct {
	Amount common.Balance     `json:"amount"`
	Block  common.BlockNumber `json:"block"`
}

// Contribution is the per-investor pool state. The three buckets partition
// everything the investor has paid in and not withdrawn:
// available + reserved + contributed == total deposited - total withdrawn.
type Contribution struct {
	Available     common.Balance     `json:"available"`
	Reserved      common.Balance     `json:"reserved"`
	Contributed   common.Balance     `json:"contributed"`
	Share         fixedmath.Percent  `json:"share"`
	BlockNumber   common.BlockNumber `json:"block_number"`
	HasWithdrawn  bool               `json:"has_withdrawn"`
	Contributions []ContributionLog  `json:"contributions"`
	Withdraws     []ContributionLog  `json:"withdraws"`
}

func (c Contribution) clone() Contribution {
	c.Contributions = append([]ContributionLog(nil), c.Contributions...)
	c.Withdraws = append([]ContributionLog(nil), c.Withdraws...)
	return c
}

// CanReserve reports whether the contributor's available bucket covers the
// given amount.
func (c Contribution) CanReserve(amount common.Balance) bool {
	return c.Available >= amount
}

// FundInfo is the aggregate pool, with total always equal to
// transferable + reserved + contributed.
type FundInfo struct {
	Total        common.Balance `json:"total"`
	Transferable common.Balance `json:"transferable"`
	Reserved     common.Balance `json:"reserved"`
	Contributed  common.Balance `json:"contributed"`
}

// ContributorShare is one investor's slice of a house bid.
type ContributorShare struct {
	Account common.AccountID `json:"account"`
	Amount  common.Balance   `json:"amount"`
}

// FundOperation is a per-asset bid record, stored first under Reservations
// and moved to Purchases on settlement.
type FundOperation struct {
	AccountID     common.AccountID   `json:"account_id"`
	HouseID       common.AssetKey    `json:"house_id"`
	Amount        common.Balance     `json:"amount"`
	BlockNumber   common.BlockNumber `json:"block_number"`
	Contributions []ContributorShare `json:"contributions"`
}

func (op FundOperation) clone() FundOperation {
	op.Contributions = append([]ContributorShare(nil), op.Contributions...)
	return op
}
