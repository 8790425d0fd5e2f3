package management

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/modules/democracy"
)

type SessionLaunched struct {
	Key             common.AssetKey           `json:"key"`
	Candidate       common.AccountID          `json:"candidate"`
	Purpose         SessionPurpose            `json:"purpose"`
	ReferendumIndex democracy.ReferendumIndex `json:"referendum_index"`
	Block           common.BlockNumber        `json:"block"`
}

func (SessionLaunched) EventModule() common.Module { return common.ModuleManagement }
func (SessionLaunched) EventName() string          { return "SessionLaunched" }

type OwnersVoted struct {
	Voter           common.AccountID          `json:"voter"`
	ReferendumIndex democracy.ReferendumIndex `json:"referendum_index"`
	Vote            bool                      `json:"vote"`
	Weight          common.Balance            `json:"weight"`
	Block           common.BlockNumber        `json:"block"`
}

func (OwnersVoted) EventModule() common.Module { return common.ModuleManagement }
func (OwnersVoted) EventName() string          { return "OwnersVoted" }

type RepresentativeApproved struct {
	Key            common.AssetKey    `json:"key"`
	Representative common.AccountID   `json:"representative"`
	Block          common.BlockNumber `json:"block"`
}

func (RepresentativeApproved) EventModule() common.Module { return common.ModuleManagement }
func (RepresentativeApproved) EventName() string          { return "RepresentativeApproved" }

type RepresentativeDemoted struct {
	Key            common.AssetKey    `json:"key"`
	Representative common.AccountID   `json:"representative"`
	Block          common.BlockNumber `json:"block"`
}

func (RepresentativeDemoted) EventModule() common.Module { return common.ModuleManagement }
func (RepresentativeDemoted) EventName() string          { return "RepresentativeDemoted" }

type GuarantyPaymentRequested struct {
	Key    common.AssetKey    `json:"key"`
	Tenant common.AccountID   `json:"tenant"`
	Block  common.BlockNumber `json:"block"`
}

func (GuarantyPaymentRequested) EventModule() common.Module { return common.ModuleManagement }
func (GuarantyPaymentRequested) EventName() string          { return "GuarantyPaymentRequested" }

type MaintenanceFeesPayment struct {
	Key    common.AssetKey    `json:"key"`
	Amount common.Balance     `json:"amount"`
	Block  common.BlockNumber `json:"block"`
}

func (MaintenanceFeesPayment) EventModule() common.Module { return common.ModuleManagement }
func (MaintenanceFeesPayment) EventName() string          { return "MaintenanceFeesPayment" }

type RentDistributed struct {
	Key    common.AssetKey    `json:"key"`
	Owners []common.AccountID `json:"owners"`
	Amount common.Balance     `json:"amount"`
	Block  common.BlockNumber `json:"block"`
}

func (RentDistributed) EventModule() common.Module { return common.ModuleManagement }
func (RentDistributed) EventName() string          { return "RentDistributed" }

type TenantDebt struct {
	Tenant common.AccountID   `json:"tenant"`
	Key    common.AssetKey    `json:"key"`
	Debt   common.Balance     `json:"debt"`
	Block  common.BlockNumber `json:"block"`
}

func (TenantDebt) EventModule() common.Module { return common.ModuleManagement }
func (TenantDebt) EventName() string          { return "TenantDebt" }
