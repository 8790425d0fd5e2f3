// Package node drives the assembled chain in real time: it produces blocks on
// a fixed interval, applies queued extrinsics, and fans the resulting events
// out to the archive and to live subscribers.
package node

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/fair-squares/go-fairsquares/internal/subscription"
	"github.com/fair-squares/go-fairsquares/pkg/logger"
	"github.com/fair-squares/go-fairsquares/pkg/logger/slogx"
)

// EventArchiver persists one block's drained events.
type EventArchiver interface {
	Archive(ctx context.Context, records []types.EventRecord) error
}

const pendingQueueSize = 1024

type pendingExtrinsic struct {
	origin types.Origin
	call   types.Call
	result chan error
}

// Node owns the chain. All state access goes through its lock: block
// production takes the write side, queries take the read side.
type Node struct {
	chain     *chain.Chain
	archiver  EventArchiver // nil disables archiving
	blockTime time.Duration

	mu      sync.RWMutex
	pending chan pendingExtrinsic

	subMu       sync.Mutex
	subscribers []*subscription.Subscription[[]types.EventRecord]
}

func New(c *chain.Chain, archiver EventArchiver, blockTime time.Duration) *Node {
	return &Node{
		chain:     c,
		archiver:  archiver,
		blockTime: blockTime,
		pending:   make(chan pendingExtrinsic, pendingQueueSize),
	}
}

// Run produces blocks until the context is cancelled.
func (n *Node) Run(ctx context.Context) error {
	logger.InfoContext(ctx, "starting block production",
		slogx.Duration("block_time", n.blockTime),
		slogx.Uint64("current_block", uint64(n.chain.CurrentBlock())),
	)

	ticker := time.NewTicker(n.blockTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-ticker.C:
			n.produceBlock(ctx)
		}
	}
}

func (n *Node) produceBlock(ctx context.Context) {
	n.mu.Lock()
	block := n.chain.NextBlock()
	applied := 0
	for {
		select {
		case ext := <-n.pending:
			err := n.chain.Submit(ext.origin, ext.call)
			ext.result <- err
			if err == nil {
				applied++
			}
		default:
			records := n.chain.System.DrainEvents()
			n.mu.Unlock()
			n.finishBlock(ctx, block, applied, records)
			return
		}
	}
}

func (n *Node) finishBlock(ctx context.Context, block common.BlockNumber, applied int, records []types.EventRecord) {
	if applied > 0 || len(records) > 0 {
		logger.DebugContext(ctx, "produced block",
			slogx.Uint64("block", uint64(block)),
			slogx.Int("extrinsics", applied),
			slogx.Int("events", len(records)),
		)
	}
	if len(records) == 0 {
		return
	}
	if n.archiver != nil {
		if err := n.archiver.Archive(ctx, records); err != nil {
			logger.ErrorContext(ctx, "failed to archive block events",
				slogx.Error(err),
				slogx.Uint64("block", uint64(block)),
			)
		}
	}
	n.broadcast(ctx, records)
}

// SubmitExtrinsic queues a call for the next block and waits for its
// dispatch outcome.
func (n *Node) SubmitExtrinsic(ctx context.Context, origin types.Origin, call types.Call) error {
	ext := pendingExtrinsic{
		origin: origin,
		call:   call,
		result: make(chan error, 1),
	}
	select {
	case n.pending <- ext:
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "context done")
	}
	select {
	case err := <-ext.result:
		return errors.WithStack(err)
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "context done")
	}
}

// View runs fn with shared read access to the chain. fn must not mutate
// state and must not retain references after it returns.
func (n *Node) View(fn func(c *chain.Chain)) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	fn(n.chain)
}

// CurrentBlock returns the latest produced block number.
func (n *Node) CurrentBlock() common.BlockNumber {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.chain.CurrentBlock()
}

// SubscribeEvents streams every produced block's events to ch until the
// returned subscription is cancelled.
func (n *Node) SubscribeEvents(ch chan<- []types.EventRecord) *subscription.ClientSubscription[[]types.EventRecord] {
	sub := subscription.NewSubscription(ch)
	n.subMu.Lock()
	n.subscribers = append(n.subscribers, sub)
	n.subMu.Unlock()
	return sub.Client()
}

func (n *Node) broadcast(ctx context.Context, records []types.EventRecord) {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	alive := n.subscribers[:0]
	for _, sub := range n.subscribers {
		if sub.IsClosed() {
			continue
		}
		if err := sub.Send(ctx, records); err != nil {
			logger.WarnContext(ctx, "failed to dispatch block events to subscriber", slogx.Error(err))
			continue
		}
		alive = append(alive, sub)
	}
	n.subscribers = alive
}
