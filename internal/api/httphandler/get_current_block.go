package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
)

type getCurrentBlockResult struct {
	Block uint64 `json:"block"`
}

type getCurrentBlockResponse = HttpResponse[getCurrentBlockResult]

func (h *HttpHandler) GetCurrentBlock(ctx *fiber.Ctx) (err error) {
	resp := getCurrentBlockResponse{
		Result: &getCurrentBlockResult{
			Block: uint64(h.node.CurrentBlock()),
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
