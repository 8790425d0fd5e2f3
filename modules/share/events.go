package share

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/modules/assets"
)

type VirtualCreated struct {
	Key            common.AssetKey    `json:"key"`
	VirtualAccount common.AccountID   `json:"virtual_account"`
	Block          common.BlockNumber `json:"block"`
}

func (VirtualCreated) EventModule() common.Module { return common.ModuleShare }
func (VirtualCreated) EventName() string          { return "VirtualCreated" }

type SharesDistributed struct {
	Key            common.AssetKey    `json:"key"`
	VirtualAccount common.AccountID   `json:"virtual_account"`
	TokenID        assets.ClassID     `json:"token_id"`
	Owners         []OwnerBalance     `json:"owners"`
	Block          common.BlockNumber `json:"block"`
}

func (SharesDistributed) EventModule() common.Module { return common.ModuleShare }
func (SharesDistributed) EventName() string          { return "SharesDistributed" }
