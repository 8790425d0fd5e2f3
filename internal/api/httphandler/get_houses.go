package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/fair-squares/go-fairsquares/modules/onboarding"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

type getHousesRequest struct {
	Status string `query:"status"`
}

func (r getHousesRequest) Validate() error {
	if r.Status == "" {
		return nil
	}
	valid := []string{
		string(onboarding.StatusEditing), string(onboarding.StatusReviewing),
		string(onboarding.StatusVoting), string(onboarding.StatusOnboarded),
		string(onboarding.StatusFinalising), string(onboarding.StatusFinalised),
		string(onboarding.StatusPurchased), string(onboarding.StatusRejected),
		string(onboarding.StatusSlash), string(onboarding.StatusCancelled),
	}
	if !lo.Contains(valid, r.Status) {
		return errs.NewPublicError("invalid status: " + r.Status)
	}
	return nil
}

type houseItem struct {
	Collection uint32           `json:"collection"`
	Item       uint32           `json:"item"`
	House      onboarding.Asset `json:"house"`
}

type getHousesResult struct {
	List []houseItem `json:"list"`
}

type getHousesResponse = HttpResponse[getHousesResult]

func (h *HttpHandler) GetHouses(ctx *fiber.Ctx) (err error) {
	var req getHousesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}

	var records []onboarding.HouseRecord
	h.node.View(func(c *chain.Chain) {
		if req.Status != "" {
			records = c.Onboarding.HousesByStatus(onboarding.AssetStatus(req.Status))
		} else {
			records = c.Onboarding.Houses()
		}
	})

	list := make([]houseItem, 0, len(records))
	for _, record := range records {
		list = append(list, houseItem{
			Collection: uint32(record.Key.Collection),
			Item:       uint32(record.Key.Item),
			House:      record.Asset,
		})
	}
	resp := getHousesResponse{
		Result: &getHousesResult{List: list},
	}
	return errors.WithStack(ctx.JSON(resp))
}
