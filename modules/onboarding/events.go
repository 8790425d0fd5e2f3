package onboarding

import "github.com/fair-squares/go-fairsquares/common"

type ProposalCreated struct {
	Seller common.AccountID   `json:"seller"`
	Key    common.AssetKey    `json:"key"`
	Price  common.Balance     `json:"price"`
	Block  common.BlockNumber `json:"block"`
}

func (ProposalCreated) EventModule() common.Module { return common.ModuleOnboarding }
func (ProposalCreated) EventName() string          { return "ProposalCreated" }

type ProposalSubmitted struct {
	Key          common.AssetKey    `json:"key"`
	ProposalHash common.Hash        `json:"proposal_hash"`
	Block        common.BlockNumber `json:"block"`
}

func (ProposalSubmitted) EventModule() common.Module { return common.ModuleOnboarding }
func (ProposalSubmitted) EventName() string          { return "ProposalSubmitted" }

type PriceUpdated struct {
	Key   common.AssetKey    `json:"key"`
	Price common.Balance     `json:"price"`
	Block common.BlockNumber `json:"block"`
}

func (PriceUpdated) EventModule() common.Module { return common.ModuleOnboarding }
func (PriceUpdated) EventName() string          { return "PriceUpdated" }

type RejectedForEditing struct {
	Key     common.AssetKey    `json:"key"`
	Slashed common.Balance     `json:"slashed"`
	Block   common.BlockNumber `json:"block"`
}

func (RejectedForEditing) EventModule() common.Module { return common.ModuleOnboarding }
func (RejectedForEditing) EventName() string          { return "RejectedForEditing" }

type RejectedForDestruction struct {
	Key     common.AssetKey    `json:"key"`
	Slashed common.Balance     `json:"slashed"`
	Block   common.BlockNumber `json:"block"`
}

func (RejectedForDestruction) EventModule() common.Module { return common.ModuleOnboarding }
func (RejectedForDestruction) EventName() string          { return "RejectedForDestruction" }

type StatusChanged struct {
	Key   common.AssetKey    `json:"key"`
	From  AssetStatus        `json:"from"`
	To    AssetStatus        `json:"to"`
	Block common.BlockNumber `json:"block"`
}

func (StatusChanged) EventModule() common.Module { return common.ModuleOnboarding }
func (StatusChanged) EventName() string          { return "StatusChanged" }

type HouseBought struct {
	Key   common.AssetKey    `json:"key"`
	Buyer common.AccountID   `json:"buyer"`
	Price common.Balance     `json:"price"`
	Block common.BlockNumber `json:"block"`
}

func (HouseBought) EventModule() common.Module { return common.ModuleOnboarding }
func (HouseBought) EventName() string          { return "HouseBought" }
