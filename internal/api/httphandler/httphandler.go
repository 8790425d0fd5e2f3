package httphandler

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/internal/node"
	"github.com/fair-squares/go-fairsquares/modules/archive/datagateway"
	"github.com/fair-squares/go-fairsquares/modules/share"
	"github.com/fair-squares/go-fairsquares/pkg/fixedmath"
	"github.com/shopspring/decimal"
)

type HttpHandler struct {
	node   *node.Node
	events datagateway.EventDataGateway // nil when archiving is disabled
}

func New(node *node.Node, events datagateway.EventDataGateway) *HttpHandler {
	return &HttpHandler{
		node:   node,
		events: events,
	}
}

type HttpResponse[T any] struct {
	Error  *string `json:"error"`
	Result *T      `json:"result,omitempty"`
}

// resolveAccount accepts a hex-encoded account id or a "//Name" dev seed.
func resolveAccount(s string) (common.AccountID, error) {
	if strings.HasPrefix(s, "//") {
		return common.AccountFromSeed(s), nil
	}
	account, err := common.AccountFromHex(s)
	if err != nil {
		return common.AccountID{}, errors.WithStack(err)
	}
	return account, nil
}

// formatPercent renders a parts-per-million ratio as a human percentage,
// e.g. 375000 -> "37.5".
func formatPercent(p fixedmath.Percent) string {
	return decimal.NewFromInt(int64(p)).Div(decimal.NewFromInt(10_000)).String()
}

// formatTokenShare renders an ownership token balance as a percentage of the
// fixed supply, e.g. 375 tokens -> "37.5".
func formatTokenShare(tokens common.Balance) string {
	return decimal.NewFromInt(int64(tokens)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(share.TokenSupply))).
		String()
}
