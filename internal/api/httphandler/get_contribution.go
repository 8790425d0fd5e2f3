package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/fair-squares/go-fairsquares/modules/housingfund"
	"github.com/gofiber/fiber/v2"
)

type getContributionRequest struct {
	Account string `params:"account"`
}

type getContributionResult struct {
	Account      string                   `json:"account"`
	Contribution housingfund.Contribution `json:"contribution"`
	// SharePercent is the contributor's share of the fund, e.g. "37.5".
	SharePercent string `json:"share_percent"`
}

type getContributionResponse = HttpResponse[getContributionResult]

func (h *HttpHandler) GetContribution(ctx *fiber.Ctx) (err error) {
	var req getContributionRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	account, err := resolveAccount(req.Account)
	if err != nil {
		return errs.WithPublicMessage(err, "invalid account")
	}

	var (
		contribution housingfund.Contribution
		found        bool
	)
	h.node.View(func(c *chain.Chain) {
		contribution, found = c.Fund.ContributionOf(account)
	})
	if !found {
		return errs.NewPublicError("not a contributor")
	}

	resp := getContributionResponse{
		Result: &getContributionResult{
			Account:      account.String(),
			Contribution: contribution,
			SharePercent: formatPercent(contribution.Share),
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
