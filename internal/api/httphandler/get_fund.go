package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
	"github.com/gofiber/fiber/v2"
)

type fundContributor struct {
	Account   string `json:"account"`
	Available uint64 `json:"available"`
	Since     uint64 `json:"since"`
}

type getFundResult struct {
	Account      string            `json:"account"`
	Total        uint64            `json:"total"`
	Transferable uint64            `json:"transferable"`
	Reserved     uint64            `json:"reserved"`
	Contributed  uint64            `json:"contributed"`
	Contributors []fundContributor `json:"contributors"`
}

type getFundResponse = HttpResponse[getFundResult]

func (h *HttpHandler) GetFund(ctx *fiber.Ctx) (err error) {
	var (
		account      string
		fund         housingfund.FundInfo
		contributors []housingfund.ContributorState
	)
	h.node.View(func(c *chain.Chain) {
		account = c.Fund.FundAccount().String()
		fund = c.Fund.FundBalance()
		contributors = c.Fund.Contributors()
	})

	list := make([]fundContributor, 0, len(contributors))
	for _, contributor := range contributors {
		list = append(list, fundContributor{
			Account:   contributor.Account.String(),
			Available: uint64(contributor.Available),
			Since:     uint64(contributor.BlockNumber),
		})
	}
	resp := getFundResponse{
		Result: &getFundResult{
			Account:      account,
			Total:        uint64(fund.Total),
			Transferable: uint64(fund.Transferable),
			Reserved:     uint64(fund.Reserved),
			Contributed:  uint64(fund.Contributed),
			Contributors: list,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
