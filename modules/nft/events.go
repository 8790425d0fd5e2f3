package nft

import "github.com/fair-squares/go-fairsquares/common"

type CollectionCreated struct {
	Collection common.CollectionID `json:"collection"`
	Owner      common.AccountID    `json:"owner"`
	Name       string              `json:"name"`
}

func (CollectionCreated) EventModule() common.Module { return common.ModuleNFT }
func (CollectionCreated) EventName() string          { return "CollectionCreated" }

type ItemMinted struct {
	Key   common.AssetKey  `json:"key"`
	Owner common.AccountID `json:"owner"`
}

func (ItemMinted) EventModule() common.Module { return common.ModuleNFT }
func (ItemMinted) EventName() string          { return "ItemMinted" }

type ItemTransferred struct {
	Key  common.AssetKey  `json:"key"`
	From common.AccountID `json:"from"`
	To   common.AccountID `json:"to"`
}

func (ItemTransferred) EventModule() common.Module { return common.ModuleNFT }
func (ItemTransferred) EventName() string          { return "ItemTransferred" }

type ItemBurned struct {
	Key common.AssetKey `json:"key"`
}

func (ItemBurned) EventModule() common.Module { return common.ModuleNFT }
func (ItemBurned) EventName() string          { return "ItemBurned" }
