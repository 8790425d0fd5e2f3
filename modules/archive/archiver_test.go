package archive

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/core/types"
)

type testEvent struct {
	Amount common.Balance `json:"amount"`
}

func (testEvent) EventModule() common.Module { return "balances" }
func (testEvent) EventName() string          { return "test_event" }

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]*Event
	err     error
}

func (w *fakeWriter) InsertEvents(_ context.Context, events []*Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, events)
	return nil
}

func (w *fakeWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func records(n int) []types.EventRecord {
	out := make([]types.EventRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, types.EventRecord{
			Block: common.BlockNumber(i),
			Event: testEvent{Amount: common.Balance(i)},
		})
	}
	return out
}

func TestArchiveEmptyIsNoop(t *testing.T) {
	writer := &fakeWriter{}
	archiver := NewArchiver(writer)
	require.NoError(t, archiver.Archive(context.Background(), nil))
	assert.Empty(t, writer.batches)
}

func TestArchiveWritesAllEvents(t *testing.T) {
	writer := &fakeWriter{}
	archiver := NewArchiver(writer)

	require.NoError(t, archiver.Archive(context.Background(), records(3)))
	require.Len(t, writer.batches, 1)
	require.Len(t, writer.batches[0], 3)

	got := writer.batches[0][1]
	assert.Equal(t, common.BlockNumber(1), got.Block)
	assert.Equal(t, "balances", got.Module)
	assert.Equal(t, "test_event", got.Name)
	assert.JSONEq(t, `{"amount":1}`, string(got.Data))
}

func TestArchiveChunksLargeBlocks(t *testing.T) {
	writer := &fakeWriter{}
	archiver := NewArchiver(writer)

	n := insertBatchSize*2 + 10
	require.NoError(t, archiver.Archive(context.Background(), records(n)))
	assert.Len(t, writer.batches, 3)
	assert.Equal(t, n, writer.total())
}

func TestArchiveSurfacesWriterErrors(t *testing.T) {
	writer := &fakeWriter{err: errors.New("connection lost")}
	archiver := NewArchiver(writer)

	err := archiver.Archive(context.Background(), records(5))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}
