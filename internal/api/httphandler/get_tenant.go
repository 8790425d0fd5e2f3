package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/fair-squares/go-fairsquares/modules/tenancy"
	"github.com/gofiber/fiber/v2"
)

type getTenantRequest struct {
	Account string `params:"account"`
}

type getTenantResult struct {
	Tenant tenancy.Tenant `json:"tenant"`
	// House is set once the tenant is linked to an asset.
	House *houseItem `json:"house,omitempty"`
}

type getTenantResponse = HttpResponse[getTenantResult]

func (h *HttpHandler) GetTenant(ctx *fiber.Ctx) (err error) {
	var req getTenantRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	account, err := resolveAccount(req.Account)
	if err != nil {
		return errs.WithPublicMessage(err, "invalid account")
	}

	var (
		tenant tenancy.Tenant
		found  bool
		house  *houseItem
	)
	h.node.View(func(c *chain.Chain) {
		tenant, found = c.Tenancy.TenantOf(account)
		if !found || tenant.AssetAccount == nil {
			return
		}
		key, ok := c.Share.AssetOfVirtual(*tenant.AssetAccount)
		if !ok {
			return
		}
		if asset, ok := c.Onboarding.House(key); ok {
			house = &houseItem{
				Collection: uint32(key.Collection),
				Item:       uint32(key.Item),
				House:      asset,
			}
		}
	})
	if !found {
		return errs.NewPublicError("tenant not found")
	}

	resp := getTenantResponse{
		Result: &getTenantResult{
			Tenant: tenant,
			House:  house,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
