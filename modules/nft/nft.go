// Package nft is the non-fungible primitive backing house deeds: collections
// of uniquely keyed items with a single owner each.
package nft

import (
	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
)

// ItemInfo is the opaque metadata attached to a minted house deed.
type ItemInfo struct {
	Metadata string `json:"metadata"`
}

type Collection struct {
	Owner      common.AccountID `json:"owner"`
	Name       string           `json:"name"`
	ItemsCount common.ItemID    `json:"items_count"`
}

type Item struct {
	Owner common.AccountID `json:"owner"`
	Infos ItemInfo         `json:"infos"`
}

type storage struct {
	collections    map[common.CollectionID]Collection
	items          map[common.AssetKey]Item
	nextCollection common.CollectionID
}

func (s *storage) clone() *storage {
	collections := make(map[common.CollectionID]Collection, len(s.collections))
	for k, v := range s.collections {
		collections[k] = v
	}
	items := make(map[common.AssetKey]Item, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	return &storage{collections: collections, items: items, nextCollection: s.nextCollection}
}

type Pallet struct {
	system *runtime.Runtime
	roles  RoleRegistry
	s      *storage
}

// RoleRegistry is the slice of the roles pallet the NFT primitive needs.
type RoleRegistry interface {
	EnsureRole(who common.AccountID, role common.Role) error
}

func New(system *runtime.Runtime, roles RoleRegistry) *Pallet {
	p := &Pallet{
		system: system,
		roles:  roles,
		s: &storage{
			collections: make(map[common.CollectionID]Collection),
			items:       make(map[common.AssetKey]Item),
		},
	}
	p.registerCalls()
	return p
}

func (p *Pallet) Module() common.Module { return common.ModuleNFT }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

type CreateCollectionArgs struct {
	Name string `json:"name"`
}

func (p *Pallet) registerCalls() {
	p.system.RegisterCall(common.ModuleNFT, "create_collection",
		func() any { return new(CreateCollectionArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*CreateCollectionArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "nft.create_collection args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			_, err = p.CreateCollection(who, a.Name)
			return err
		})
}

// CreateCollection opens a new namespace of items. Servicers only.
func (p *Pallet) CreateCollection(who common.AccountID, name string) (common.CollectionID, error) {
	if err := p.roles.EnsureRole(who, common.RoleServicer); err != nil {
		return 0, errors.Wrap(errs.OnlyForServicers, err.Error())
	}
	id := p.s.nextCollection
	p.s.nextCollection++
	p.s.collections[id] = Collection{Owner: who, Name: name}
	p.system.Deposit(CollectionCreated{Collection: id, Owner: who, Name: name})
	return id, nil
}

// Mint creates the next item in a collection, owned by `owner`.
func (p *Pallet) Mint(collection common.CollectionID, owner common.AccountID, infos ItemInfo) (common.ItemID, error) {
	coll, ok := p.s.collections[collection]
	if !ok {
		return 0, errors.Wrapf(errs.CollectionOrItemUnknown, "collection %d", collection)
	}
	item := coll.ItemsCount
	coll.ItemsCount++
	p.s.collections[collection] = coll

	key := common.AssetKey{Collection: collection, Item: item}
	p.s.items[key] = Item{Owner: owner, Infos: infos}
	p.system.Deposit(ItemMinted{Key: key, Owner: owner})
	return item, nil
}

// Transfer reassigns an item's owner.
func (p *Pallet) Transfer(key common.AssetKey, to common.AccountID) error {
	item, ok := p.s.items[key]
	if !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "item %s", key)
	}
	from := item.Owner
	item.Owner = to
	p.s.items[key] = item
	p.system.Deposit(ItemTransferred{Key: key, From: from, To: to})
	return nil
}

// Burn destroys an item permanently.
func (p *Pallet) Burn(key common.AssetKey) error {
	if _, ok := p.s.items[key]; !ok {
		return errors.Wrapf(errs.CollectionOrItemUnknown, "item %s", key)
	}
	delete(p.s.items, key)
	p.system.Deposit(ItemBurned{Key: key})
	return nil
}

// OwnerOf returns the current owner of an item.
func (p *Pallet) OwnerOf(key common.AssetKey) (common.AccountID, error) {
	item, ok := p.s.items[key]
	if !ok {
		return common.AccountID{}, errors.Wrapf(errs.CollectionOrItemUnknown, "item %s", key)
	}
	return item.Owner, nil
}

// ItemInfos returns the metadata of an item.
func (p *Pallet) ItemInfos(key common.AssetKey) (ItemInfo, error) {
	item, ok := p.s.items[key]
	if !ok {
		return ItemInfo{}, errors.Wrapf(errs.CollectionOrItemUnknown, "item %s", key)
	}
	return item.Infos, nil
}

// CollectionExists reports whether the collection id is known.
func (p *Pallet) CollectionExists(collection common.CollectionID) bool {
	_, ok := p.s.collections[collection]
	return ok
}
