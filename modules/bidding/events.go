package bidding

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
)

type HousingFundNotEnough struct {
	Key   common.AssetKey    `json:"key"`
	Price common.Balance     `json:"price"`
	Block common.BlockNumber `json:"block"`
}

func (HousingFundNotEnough) EventModule() common.Module { return common.ModuleBidding }
func (HousingFundNotEnough) EventName() string          { return "HousingFundNotEnough" }

type FailedToAssembleInvestors struct {
	Key   common.AssetKey    `json:"key"`
	Price common.Balance     `json:"price"`
	Block common.BlockNumber `json:"block"`
}

func (FailedToAssembleInvestors) EventModule() common.Module { return common.ModuleBidding }
func (FailedToAssembleInvestors) EventName() string          { return "FailedToAssembleInvestors" }

type HouseBiddingSucceeded struct {
	Key    common.AssetKey                `json:"key"`
	Price  common.Balance                 `json:"price"`
	Cohort []housingfund.ContributorShare `json:"cohort"`
	Block  common.BlockNumber             `json:"block"`
}

func (HouseBiddingSucceeded) EventModule() common.Module { return common.ModuleBidding }
func (HouseBiddingSucceeded) EventName() string          { return "HouseBiddingSucceeded" }

type SellAssetToInvestorsSuccessful struct {
	Key   common.AssetKey    `json:"key"`
	Block common.BlockNumber `json:"block"`
}

func (SellAssetToInvestorsSuccessful) EventModule() common.Module { return common.ModuleBidding }
func (SellAssetToInvestorsSuccessful) EventName() string          { return "SellAssetToInvestorsSuccessful" }

type SellAssetToInvestorsFailed struct {
	Key   common.AssetKey    `json:"key"`
	Block common.BlockNumber `json:"block"`
}

func (SellAssetToInvestorsFailed) EventModule() common.Module { return common.ModuleBidding }
func (SellAssetToInvestorsFailed) EventName() string          { return "SellAssetToInvestorsFailed" }
