package postgres

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/modules/archive"
	"github.com/fair-squares/go-fairsquares/modules/archive/datagateway"
	"github.com/jackc/pgx/v5"
)

var _ datagateway.EventDataGateway = (*Repository)(nil)

const insertEvent = `-- name: InsertEvent :exec
INSERT INTO fairsquares_events (block, module, name, data) VALUES ($1, $2, $3, $4);`

const getEventsByBlockRange = `-- name: GetEventsByBlockRange :many
SELECT id, block, module, name, data FROM fairsquares_events WHERE block >= $1 AND block <= $2 ORDER BY id;`

const getEventsByModule = `-- name: GetEventsByModule :many
SELECT id, block, module, name, data FROM fairsquares_events WHERE module = $1 ORDER BY id DESC LIMIT $2;`

const getLatestBlock = `-- name: GetLatestBlock :one
SELECT block FROM fairsquares_events ORDER BY block DESC LIMIT 1;`

type eventModel struct {
	Id     int64
	Block  int64
	Module string
	Name   string
	Data   []byte
}

func mapEventModelToType(m eventModel) *archive.Event {
	return &archive.Event{
		Id:     m.Id,
		Block:  common.BlockNumber(m.Block),
		Module: m.Module,
		Name:   m.Name,
		Data:   json.RawMessage(m.Data),
	}
}

func (r *Repository) InsertEvents(ctx context.Context, events []*archive.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(insertEvent, int64(event.Block), event.Module, event.Name, []byte(event.Data))
	}
	results := r.db.SendBatch(ctx, batch)
	defer results.Close()
	for range events {
		if _, err := results.Exec(); err != nil {
			return errors.Wrap(err, "error during exec")
		}
	}
	return nil
}

func (r *Repository) GetEventsByBlockRange(ctx context.Context, from, to common.BlockNumber) ([]*archive.Event, error) {
	rows, err := r.db.Query(ctx, getEventsByBlockRange, int64(from), int64(to))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	models, err := pgx.CollectRows(rows, pgx.RowToStructByPos[eventModel])
	if err != nil {
		return nil, errors.Wrap(err, "error during collect rows")
	}
	events := make([]*archive.Event, 0, len(models))
	for _, m := range models {
		events = append(events, mapEventModelToType(m))
	}
	return events, nil
}

func (r *Repository) GetEventsByModule(ctx context.Context, module string, limit int32) ([]*archive.Event, error) {
	rows, err := r.db.Query(ctx, getEventsByModule, module, limit)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	models, err := pgx.CollectRows(rows, pgx.RowToStructByPos[eventModel])
	if err != nil {
		return nil, errors.Wrap(err, "error during collect rows")
	}
	events := make([]*archive.Event, 0, len(models))
	for _, m := range models {
		events = append(events, mapEventModelToType(m))
	}
	return events, nil
}

func (r *Repository) GetLatestBlock(ctx context.Context) (common.BlockNumber, error) {
	var block int64
	if err := r.db.QueryRow(ctx, getLatestBlock).Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errors.WithStack(errs.NotFound)
		}
		return 0, errors.Wrap(err, "error during query")
	}
	return common.BlockNumber(block), nil
}
