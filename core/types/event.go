package types

import "github.com/fair-squares/go-fairsquares/common"

// Event is a typed runtime event. Each module declares its own event structs.
type Event interface {
	EventModule() common.Module
	EventName() string
}

// EventRecord ties an event to the block that deposited it.
type EventRecord struct {
	Block common.BlockNumber
	Event Event
}
