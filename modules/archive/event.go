package archive

import (
	"encoding/json"

	"github.com/fair-squares/go-fairsquares/common"
)

// Event is the archived form of a runtime event: the typed payload is kept
// as raw JSON so the archive never needs to know every module's event set.
type Event struct {
	Id     int64              `json:"id"`
	Block  common.BlockNumber `json:"block"`
	Module string             `json:"module"`
	Name   string             `json:"name"`
	Data   json.RawMessage    `json:"data"`
}
