package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/gofiber/fiber/v2"
)

type getAccountRequest struct {
	Account string `params:"account"`
}

type getAccountResult struct {
	Account  string `json:"account"`
	Free     uint64 `json:"free"`
	Reserved uint64 `json:"reserved"`
	Role     string `json:"role,omitempty"`
}

type getAccountResponse = HttpResponse[getAccountResult]

func (h *HttpHandler) GetAccount(ctx *fiber.Ctx) (err error) {
	var req getAccountRequest
	if err := ctx.ParamsParser(&req); err != nil {
		return errors.WithStack(err)
	}
	account, err := resolveAccount(req.Account)
	if err != nil {
		return errs.WithPublicMessage(err, "invalid account")
	}

	var (
		free     common.Balance
		reserved common.Balance
		role     common.Role
		hasRole  bool
	)
	h.node.View(func(c *chain.Chain) {
		free = c.Balances.FreeBalance(account)
		reserved = c.Balances.ReservedBalance(account)
		role, hasRole = c.Roles.RoleOf(account)
	})

	result := &getAccountResult{
		Account:  account.String(),
		Free:     uint64(free),
		Reserved: uint64(reserved),
	}
	if hasRole {
		result.Role = role.String()
	}
	return errors.WithStack(ctx.JSON(getAccountResponse{Result: result}))
}
