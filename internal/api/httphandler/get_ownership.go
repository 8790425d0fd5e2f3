package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/fair-squares/go-fairsquares/modules/share"
	"github.com/gofiber/fiber/v2"
)

type ownerBalance struct {
	Account string `json:"account"`
	Tokens  uint64 `json:"tokens"`
	// Percent is the owner's share of the supply, e.g. "37.5".
	Percent string `json:"percent"`
}

type getOwnershipResult struct {
	VirtualAccount string         `json:"virtual_account"`
	TokenId        uint32         `json:"token_id"`
	Supply         uint64         `json:"supply"`
	RentNbr        uint64         `json:"rent_nbr"`
	Created        uint64         `json:"created"`
	Owners         []ownerBalance `json:"owners"`
}

type getOwnershipResponse = HttpResponse[getOwnershipResult]

func (h *HttpHandler) GetOwnership(ctx *fiber.Ctx) (err error) {
	var req getHouseRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}

	var (
		ownership share.Ownership
		found     bool
		balances  map[common.AccountID]common.Balance
	)
	h.node.View(func(c *chain.Chain) {
		ownership, found = c.Share.OwnershipOf(req.AssetKey())
		if !found {
			return
		}
		balances = make(map[common.AccountID]common.Balance, len(ownership.Owners))
		for _, owner := range ownership.Owners {
			balances[owner] = c.Assets.BalanceOf(ownership.TokenID, owner)
		}
	})
	if !found {
		return errs.NewPublicError("no ownership record for this house")
	}

	owners := make([]ownerBalance, 0, len(ownership.Owners))
	for _, owner := range ownership.Owners {
		tokens := balances[owner]
		owners = append(owners, ownerBalance{
			Account: owner.String(),
			Tokens:  uint64(tokens),
			Percent: formatTokenShare(tokens),
		})
	}
	resp := getOwnershipResponse{
		Result: &getOwnershipResult{
			VirtualAccount: ownership.VirtualAccount.String(),
			TokenId:        uint32(ownership.TokenID),
			Supply:         share.TokenSupply,
			RentNbr:        uint64(ownership.RentNbr),
			Created:        uint64(ownership.Created),
			Owners:         owners,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
