package httphandler

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/gofiber/fiber/v2"
)

type submitExtrinsicRequest struct {
	// Origin is "signed" (default), "root" or "council". The unsigned
	// origins are meant for development chains.
	Origin string          `json:"origin"`
	Signer string          `json:"signer"`
	Module string          `json:"module"`
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

func (r *submitExtrinsicRequest) Validate() error {
	var errList []error
	if r.Module == "" {
		errList = append(errList, errors.New("'module' is required"))
	}
	if r.Method == "" {
		errList = append(errList, errors.New("'method' is required"))
	}
	switch r.Origin {
	case "", "signed":
		if r.Signer == "" {
			errList = append(errList, errors.New("'signer' is required for signed calls"))
		}
	case "root", "council":
	default:
		errList = append(errList, errors.Errorf("unknown origin %q", r.Origin))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

func (r *submitExtrinsicRequest) origin() (types.Origin, error) {
	switch r.Origin {
	case "", "signed":
		signer, err := resolveAccount(r.Signer)
		if err != nil {
			return types.Origin{}, errs.WithPublicMessage(err, "invalid signer")
		}
		return types.Signed(signer), nil
	case "root":
		return types.Root(), nil
	case "council":
		return types.Council(), nil
	}
	return types.Origin{}, errs.NewPublicError("unknown origin " + r.Origin)
}

type submitExtrinsicResult struct {
	Block    uint64 `json:"block"`
	CallHash string `json:"call_hash"`
}

type submitExtrinsicResponse = HttpResponse[submitExtrinsicResult]

func (h *HttpHandler) SubmitExtrinsic(ctx *fiber.Ctx) (err error) {
	var req submitExtrinsicRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.WithPublicMessage(err, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}
	origin, err := req.origin()
	if err != nil {
		return errors.WithStack(err)
	}

	var call types.Call
	h.node.View(func(c *chain.Chain) {
		call, err = c.System.DecodeCall(common.Module(req.Module), req.Method, req.Args)
	})
	if err != nil {
		return errs.WithPublicMessage(err, "invalid call")
	}

	if err := h.node.SubmitExtrinsic(ctx.UserContext(), origin, call); err != nil {
		return errs.WithPublicMessage(err, "dispatch failed")
	}

	resp := submitExtrinsicResponse{
		Result: &submitExtrinsicResult{
			Block:    uint64(h.node.CurrentBlock()),
			CallHash: call.Hash().String(),
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
