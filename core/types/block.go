package types

import "github.com/fair-squares/go-fairsquares/common"

// BlockHeader identifies a produced block.
type BlockHeader struct {
	Number common.BlockNumber `json:"number"`
	Hash   common.Hash        `json:"hash"`
	Parent common.Hash        `json:"parent"`
}
