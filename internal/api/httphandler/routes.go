package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/v1")

	r.Get("/block", h.GetCurrentBlock)
	r.Get("/houses", h.GetHouses)
	r.Get("/houses/:collection/:item", h.GetHouse)
	r.Get("/houses/:collection/:item/ownership", h.GetOwnership)
	r.Get("/fund", h.GetFund)
	r.Get("/fund/contributions/:account", h.GetContribution)
	r.Get("/tenants/:account", h.GetTenant)
	r.Get("/accounts/:account", h.GetAccount)
	r.Get("/events", h.GetEvents)
	r.Post("/extrinsics", h.SubmitExtrinsic)
	return nil
}
