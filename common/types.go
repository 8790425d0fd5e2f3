package common

import "fmt"

// Balance is an amount of the chain's native currency or of a share token,
// in the smallest unit.
type Balance = uint64

// BlockNumber counts blocks since genesis.
type BlockNumber = uint64

type (
	CollectionID = uint32
	ItemID       = uint32
)

// AssetKey is the globally unique (collection, item) pair identifying one
// tokenized house.
type AssetKey struct {
	Collection CollectionID `json:"collection"`
	Item       ItemID       `json:"item"`
}

func (k AssetKey) String() string {
	return fmt.Sprintf("%d/%d", k.Collection, k.Item)
}

// VirtualAccount derives the key-less account that holds an asset's NFT and
// acts as its rent treasury. One per AssetKey, never reused.
func (k AssetKey) VirtualAccount() AccountID {
	return DeriveSubAccount("fs/vacct",
		byte(k.Collection>>24), byte(k.Collection>>16), byte(k.Collection>>8), byte(k.Collection),
		byte(k.Item>>24), byte(k.Item>>16), byte(k.Item>>8), byte(k.Item),
	)
}

// Role is a per-account platform role. An account holds at most one role.
type Role string

const (
	RoleInvestor       Role = "investor"
	RoleSeller         Role = "seller"
	RoleServicer       Role = "servicer"
	RoleTenant         Role = "tenant"
	RoleNotary         Role = "notary"
	RoleRepresentative Role = "representative"
	RoleAdmin          Role = "admin"
)

func (r Role) String() string {
	return string(r)
}
