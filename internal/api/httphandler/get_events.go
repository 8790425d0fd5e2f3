package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/modules/archive"
	"github.com/gofiber/fiber/v2"
)

const getEventsMaxLimit = 1000

type getEventsRequest struct {
	Module    string `query:"module"`
	Limit     int32  `query:"limit"`
	FromBlock uint64 `query:"fromBlock"`
	ToBlock   uint64 `query:"toBlock"`
}

func (r *getEventsRequest) Validate() error {
	var errList []error
	if r.Limit < 0 {
		errList = append(errList, errors.New("'limit' must be non-negative"))
	}
	if r.Limit > getEventsMaxLimit {
		errList = append(errList, errors.Errorf("'limit' cannot exceed %d", getEventsMaxLimit))
	}
	if r.Module == "" && r.ToBlock == 0 {
		errList = append(errList, errors.New("either 'module' or a block range is required"))
	}
	if r.ToBlock != 0 && r.FromBlock > r.ToBlock {
		errList = append(errList, errors.New("'fromBlock' must not exceed 'toBlock'"))
	}
	return errs.WithPublicMessage(errors.Join(errList...), "validation error")
}

func (r *getEventsRequest) ParseDefault() {
	if r.Limit == 0 {
		r.Limit = 100
	}
}

type getEventsResult struct {
	List []*archive.Event `json:"list"`
}

type getEventsResponse = HttpResponse[getEventsResult]

func (h *HttpHandler) GetEvents(ctx *fiber.Ctx) (err error) {
	if h.events == nil {
		return errs.NewPublicError("event archive is disabled")
	}

	var req getEventsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return errors.WithStack(err)
	}
	if err := req.Validate(); err != nil {
		return errors.WithStack(err)
	}
	req.ParseDefault()

	var events []*archive.Event
	if req.Module != "" {
		events, err = h.events.GetEventsByModule(ctx.UserContext(), req.Module, req.Limit)
	} else {
		events, err = h.events.GetEventsByBlockRange(ctx.UserContext(), common.BlockNumber(req.FromBlock), common.BlockNumber(req.ToBlock))
	}
	if err != nil {
		return errors.Wrap(err, "error during query events")
	}

	resp := getEventsResponse{
		Result: &getEventsResult{List: events},
	}
	return errors.WithStack(ctx.JSON(resp))
}
