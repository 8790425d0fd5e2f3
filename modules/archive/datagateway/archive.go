package datagateway

import (
	"context"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/modules/archive"
)

type EventDataGateway interface {
	// InsertEvents persists a batch of archived events.
	InsertEvents(ctx context.Context, events []*archive.Event) error

	// GetEventsByBlockRange returns events deposited in blocks [from, to],
	// ordered by insertion.
	GetEventsByBlockRange(ctx context.Context, from, to common.BlockNumber) ([]*archive.Event, error)

	// GetEventsByModule returns the most recent events of one module,
	// newest first.
	GetEventsByModule(ctx context.Context, module string, limit int32) ([]*archive.Event, error)

	// GetLatestBlock returns the highest archived block number, or errs.NotFound
	// if the archive is empty.
	GetLatestBlock(ctx context.Context) (common.BlockNumber, error)
}
