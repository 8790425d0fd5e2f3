package housingfund

import "github.com/fair-squares/go-fairsquares/common"

type ContributeSucceeded struct {
	Account common.AccountID   `json:"account"`
	Amount  common.Balance     `json:"amount"`
	Block   common.BlockNumber `json:"block"`
}

func (ContributeSucceeded) EventModule() common.Module { return common.ModuleHousingFund }
func (ContributeSucceeded) EventName() string          { return "ContributeSucceeded" }

type WithdrawalSucceeded struct {
	Account common.AccountID   `json:"account"`
	Amount  common.Balance     `json:"amount"`
	Block   common.BlockNumber `json:"block"`
}

func (WithdrawalSucceeded) EventModule() common.Module { return common.ModuleHousingFund }
func (WithdrawalSucceeded) EventName() string          { return "WithdrawalSucceeded" }

type FundReservationSucceeded struct {
	HouseID common.AssetKey    `json:"house_id"`
	Amount  common.Balance     `json:"amount"`
	Block   common.BlockNumber `json:"block"`
}

func (FundReservationSucceeded) EventModule() common.Module { return common.ModuleHousingFund }
func (FundReservationSucceeded) EventName() string          { return "FundReservationSucceeded" }

type FundReservationCancelled struct {
	HouseID common.AssetKey    `json:"house_id"`
	Amount  common.Balance     `json:"amount"`
	Block   common.BlockNumber `json:"block"`
}

func (FundReservationCancelled) EventModule() common.Module { return common.ModuleHousingFund }
func (FundReservationCancelled) EventName() string          { return "FundReservationCancelled" }

type FundReservationValidated struct {
	HouseID common.AssetKey    `json:"house_id"`
	Amount  common.Balance     `json:"amount"`
	Block   common.BlockNumber `json:"block"`
}

func (FundReservationValidated) EventModule() common.Module { return common.ModuleHousingFund }
func (FundReservationValidated) EventName() string          { return "FundReservationValidated" }
