package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/fair-squares/go-fairsquares/modules/onboarding"
	"github.com/gofiber/fiber/v2"
)

type getHouseRequest struct {
	Collection uint32 `params:"collection"`
	Item       uint32 `params:"item"`
}

func (r getHouseRequest) AssetKey() common.AssetKey {
	return common.AssetKey{
		Collection: common.CollectionID(r.Collection),
		Item:       common.ItemID(r.Item),
	}
}

type getHouseResult struct {
	Collection uint32           `json:"collection"`
	Item       uint32           `json:"item"`
	House      onboarding.Asset `json:"house"`
	Deposit    uint64           `json:"deposit"`
}

type getHouseResponse = HttpResponse[getHouseResult]

func (h *HttpHandler) GetHouse(ctx *fiber.Ctx) (err error) {
	var req getHouseRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}

	var (
		house   onboarding.Asset
		deposit common.Balance
		found   bool
	)
	h.node.View(func(c *chain.Chain) {
		house, found = c.Onboarding.House(req.AssetKey())
		deposit = c.Onboarding.DepositOf(req.AssetKey())
	})
	if !found {
		return errs.NewPublicError("house not found")
	}

	resp := getHouseResponse{
		Result: &getHouseResult{
			Collection: req.Collection,
			Item:       req.Item,
			House:      house,
			Deposit:    uint64(deposit),
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
