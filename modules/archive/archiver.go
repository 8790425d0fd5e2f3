package archive

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/pkg/logger"
	"github.com/fair-squares/go-fairsquares/pkg/logger/slogx"
	cstream "github.com/planxnx/concurrent-stream"
	"github.com/samber/lo"
)

// insertBatchSize bounds one INSERT batch so a busy block never turns into a
// single oversized round trip.
const insertBatchSize = 256

type eventWriter interface {
	InsertEvents(ctx context.Context, events []*Event) error
}

// Archiver persists drained runtime events. Batches are written through a
// bounded concurrent stream so block production never waits on the database.
type Archiver struct {
	writer      eventWriter
	concurrency int
}

func NewArchiver(writer eventWriter) *Archiver {
	return &Archiver{
		writer:      writer,
		concurrency: 4,
	}
}

// Archive writes one block's worth of event records. It is safe to call with
// an empty slice.
func (a *Archiver) Archive(ctx context.Context, records []types.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	events := make([]*Event, 0, len(records))
	for _, record := range records {
		data, err := json.Marshal(record.Event)
		if err != nil {
			return errors.Wrap(err, "failed to marshal event payload")
		}
		events = append(events, &Event{
			Block:  record.Block,
			Module: record.Event.EventModule().String(),
			Name:   record.Event.EventName(),
			Data:   data,
		})
	}

	out := make(chan error)
	stream := cstream.NewStream(ctx, a.concurrency, out)
	go func() {
		defer close(out)
		_ = stream.Wait()
	}()
	go func() {
		defer stream.Close()
		for _, batch := range lo.Chunk(events, insertBatchSize) {
			batch := batch
			stream.Go(func() error {
				return errors.WithStack(a.writer.InsertEvents(ctx, batch))
			})
		}
	}()

	var errs []error
	for err := range out {
		if err != nil {
			logger.WarnContext(ctx, "failed to insert archived events batch", slogx.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrapf(errs[0], "failed to archive events, %d batches failed", len(errs))
	}
	return nil
}
