// Package runtime is the deterministic execution engine: it owns the
// dispatch table, per-extrinsic atomicity, block initialization hooks and the
// enactment scheduler. It knows nothing about individual pallets beyond the
// Pallet and BlockHook contracts.
package runtime

import (
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/pkg/logger"
	"github.com/fair-squares/go-fairsquares/pkg/logger/slogx"
)

// Pallet is a state-owning component. Snapshot must return a deep copy of the
// pallet's storage; Restore must replace the storage with a previously taken
// snapshot. The pair gives ApplyExtrinsic its all-or-nothing semantics.
type Pallet interface {
	Module() common.Module
	Snapshot() any
	Restore(snapshot any)
}

// BlockHook runs at the start of every block, after scheduled enactments.
// Hooks must be idempotent within a block.
type BlockHook interface {
	OnInitialize(n common.BlockNumber)
}

// Handler executes one dispatchable method. args is the pointer produced by
// the registered args factory.
type Handler func(origin types.Origin, args any) error

type callEntry struct {
	newArgs func() any
	handler Handler
}

type Runtime struct {
	pallets []Pallet
	hooks   []BlockHook
	calls   map[common.Module]map[string]callEntry
	sched   *Scheduler

	block  common.BlockNumber
	events []types.EventRecord
}

func New() *Runtime {
	return &Runtime{
		calls: make(map[common.Module]map[string]callEntry),
		sched: newScheduler(),
	}
}

// AddPallet registers a pallet for snapshotting. Order is fixed at wiring
// time and never changes afterwards.
func (r *Runtime) AddPallet(p Pallet) {
	r.pallets = append(r.pallets, p)
}

// AddHook registers an OnInitialize hook. Hooks run in registration order.
func (r *Runtime) AddHook(h BlockHook) {
	r.hooks = append(r.hooks, h)
}

// RegisterCall binds a dispatchable method. newArgs produces a zero args
// pointer for JSON decoding of externally submitted calls.
func (r *Runtime) RegisterCall(module common.Module, method string, newArgs func() any, handler Handler) {
	methods, ok := r.calls[module]
	if !ok {
		methods = make(map[string]callEntry)
		r.calls[module] = methods
	}
	methods[method] = callEntry{newArgs: newArgs, handler: handler}
}

// Now returns the block currently being executed.
func (r *Runtime) Now() common.BlockNumber {
	return r.block
}

// Deposit records an event against the current block.
func (r *Runtime) Deposit(e types.Event) {
	r.events = append(r.events, types.EventRecord{Block: r.block, Event: e})
}

// Events returns all events deposited since the last drain.
func (r *Runtime) Events() []types.EventRecord {
	return r.events
}

// DrainEvents hands out the buffered events and resets the buffer.
func (r *Runtime) DrainEvents() []types.EventRecord {
	out := r.events
	r.events = nil
	return out
}

// Dispatch routes a call through the dispatch table. It does not snapshot;
// use ApplyExtrinsic for externally submitted operations.
func (r *Runtime) Dispatch(origin types.Origin, call types.Call) error {
	methods, ok := r.calls[call.Module]
	if !ok {
		return errors.Wrapf(errs.NotFound, "unknown module %q", call.Module)
	}
	entry, ok := methods[call.Method]
	if !ok {
		return errors.Wrapf(errs.NotFound, "unknown method %q.%q", call.Module, call.Method)
	}
	args, err := normalizeArgs(entry, call)
	if err != nil {
		return err
	}
	return entry.handler(origin, args)
}

// normalizeArgs guarantees handlers always see the registered args pointer
// type. Calls built in memory already carry it; calls that crossed a JSON
// boundary (stored preimages, nested dispatches, API submissions) carry
// generic decoded values and are re-decoded here.
func normalizeArgs(entry callEntry, call types.Call) (any, error) {
	want := entry.newArgs()
	if call.Args == nil {
		return want, nil
	}
	if reflect.TypeOf(call.Args) == reflect.TypeOf(want) {
		return call.Args, nil
	}
	raw, err := json.Marshal(call.Args)
	if err != nil {
		return nil, errors.Wrapf(errs.InvalidArgument, "args for %q.%q: %v", call.Module, call.Method, err)
	}
	if err := json.Unmarshal(raw, want); err != nil {
		return nil, errors.Wrapf(errs.InvalidArgument, "args for %q.%q: %v", call.Module, call.Method, err)
	}
	return want, nil
}

// DecodeCall rebuilds a Call with typed args from its wire form.
func (r *Runtime) DecodeCall(module common.Module, method string, rawArgs json.RawMessage) (types.Call, error) {
	methods, ok := r.calls[module]
	if !ok {
		return types.Call{}, errors.Wrapf(errs.NotFound, "unknown module %q", module)
	}
	entry, ok := methods[method]
	if !ok {
		return types.Call{}, errors.Wrapf(errs.NotFound, "unknown method %q.%q", module, method)
	}
	args := entry.newArgs()
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, args); err != nil {
			return types.Call{}, errors.Wrapf(errs.InvalidArgument, "invalid args for %q.%q: %v", module, method, err)
		}
	}
	return types.NewCall(module, method, args), nil
}

// ApplyExtrinsic executes one externally submitted operation as an atomic
// transaction: on error every state change, scheduled call and deposited
// event is rolled back and the error is surfaced to the submitter.
func (r *Runtime) ApplyExtrinsic(origin types.Origin, call types.Call) error {
	snapshots := make([]any, len(r.pallets))
	for i, p := range r.pallets {
		snapshots[i] = p.Snapshot()
	}
	schedSnapshot := r.sched.snapshot()
	eventMark := len(r.events)

	if err := r.Dispatch(origin, call); err != nil {
		for i, p := range r.pallets {
			p.Restore(snapshots[i])
		}
		r.sched.restore(schedSnapshot)
		r.events = r.events[:eventMark]
		return err
	}
	return nil
}

// Schedule registers a call for dispatch at or after block `when`.
func (r *Runtime) Schedule(when common.BlockNumber, origin types.Origin, call types.Call) {
	r.sched.add(when, origin, call)
}

// InitializeBlock advances to block n, fires due scheduled enactments, then
// runs every registered hook. A failed enactment is logged and skipped so one
// pathological call cannot stall the chain.
func (r *Runtime) InitializeBlock(n common.BlockNumber) {
	r.block = n

	for _, due := range r.sched.takeDue(n) {
		if err := r.Dispatch(due.Origin, due.Call); err != nil {
			logger.Warn("Scheduled enactment failed",
				slogx.String("call", due.Call.String()),
				slogx.Uint64("scheduled_at", due.When),
				slogx.Uint64("block", n),
				slogx.Error(err),
			)
		}
	}

	for _, h := range r.hooks {
		h.OnInitialize(n)
	}
}
