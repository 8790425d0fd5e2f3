package onboarding

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/nft"
)

// AssetStatus is the lifecycle state of a tokenized house.
type AssetStatus string

const (
	StatusEditing    AssetStatus = "editing"
	StatusReviewing  AssetStatus = "reviewing"
	StatusVoting     AssetStatus = "voting"
	StatusOnboarded  AssetStatus = "onboarded"
	StatusFinalising AssetStatus = "finalising"
	StatusFinalised  AssetStatus = "finalised"
	StatusPurchased  AssetStatus = "purchased"
	StatusRejected   AssetStatus = "rejected"
	StatusSlash      AssetStatus = "slash"
	StatusCancelled  AssetStatus = "cancelled"
)

// Terminal reports whether the status ends the lifecycle for this listing.
func (s AssetStatus) Terminal() bool {
	return s == StatusPurchased || s == StatusSlash || s == StatusCancelled
}

// Asset is the hub entity of the platform. It is never deleted, only moved
// to a terminal status.
type Asset struct {
	Status         AssetStatus        `json:"status"`
	Created        common.BlockNumber `json:"created"`
	Infos          nft.ItemInfo       `json:"infos"`
	Price          *common.Balance    `json:"price"`
	Representative *common.AccountID  `json:"representative"`
	Tenants        []common.AccountID `json:"tenants"`
	ProposalHash   common.Hash        `json:"proposal_hash"`
	MaxTenants     uint8              `json:"max_tenants"`
}

func (a Asset) clone() Asset {
	if a.Price != nil {
		price := *a.Price
		a.Price = &price
	}
	if a.Representative != nil {
		rep := *a.Representative
		a.Representative = &rep
	}
	a.Tenants = append([]common.AccountID(nil), a.Tenants...)
	return a
}

// Vcalls holds the four compensating/enactment calls stored alongside an
// asset when it enters review, so governance outcomes can be applied blocks
// later without re-deriving the calls.
type Vcalls struct {
	RejectEdit      types.Call `json:"reject_edit"`
	RejectDestroy   types.Call `json:"reject_destroy"`
	DemocracyStatus types.Call `json:"democracy_status"`
	AfterVoteStatus types.Call `json:"after_vote_status"`
}
