package tenancy

import "github.com/fair-squares/go-fairsquares/common"

type TenancyRequested struct {
	Tenant common.AccountID   `json:"tenant"`
	Key    common.AssetKey    `json:"key"`
	Block  common.BlockNumber `json:"block"`
}

func (TenancyRequested) EventModule() common.Module { return common.ModuleTenancy }
func (TenancyRequested) EventName() string          { return "TenancyRequested" }

type GuarantyPaid struct {
	Tenant common.AccountID   `json:"tenant"`
	Key    common.AssetKey    `json:"key"`
	Amount common.Balance     `json:"amount"`
	Block  common.BlockNumber `json:"block"`
}

func (GuarantyPaid) EventModule() common.Module { return common.ModuleTenancy }
func (GuarantyPaid) EventName() string          { return "GuarantyPaid" }

type RentPaid struct {
	Tenant common.AccountID   `json:"tenant"`
	Key    common.AssetKey    `json:"key"`
	Amount common.Balance     `json:"amount"`
	Block  common.BlockNumber `json:"block"`
}

func (RentPaid) EventModule() common.Module { return common.ModuleTenancy }
func (RentPaid) EventName() string          { return "RentPaid" }
