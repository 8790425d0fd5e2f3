package finalizer

import "github.com/fair-squares/go-fairsquares/common"

type TransactionValidated struct {
	Key    common.AssetKey    `json:"key"`
	Notary common.AccountID   `json:"notary"`
	Block  common.BlockNumber `json:"block"`
}

func (TransactionValidated) EventModule() common.Module { return common.ModuleFinalizer }
func (TransactionValidated) EventName() string          { return "TransactionValidated" }

type TransactionRejected struct {
	Key    common.AssetKey    `json:"key"`
	Notary common.AccountID   `json:"notary"`
	Block  common.BlockNumber `json:"block"`
}

func (TransactionRejected) EventModule() common.Module { return common.ModuleFinalizer }
func (TransactionRejected) EventName() string          { return "TransactionRejected" }

type TransactionCancelled struct {
	Key    common.AssetKey    `json:"key"`
	Seller common.AccountID   `json:"seller"`
	Block  common.BlockNumber `json:"block"`
}

func (TransactionCancelled) EventModule() common.Module { return common.ModuleFinalizer }
func (TransactionCancelled) EventName() string          { return "TransactionCancelled" }
