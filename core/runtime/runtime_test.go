package runtime_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
)

const counterModule common.Module = "counter"

type bumpArgs struct {
	Amount   uint64 `json:"amount"`
	Fail     bool   `json:"fail"`
	Schedule bool   `json:"schedule"`
}

type counterBumped struct {
	Amount uint64 `json:"amount"`
}

func (counterBumped) EventModule() common.Module { return counterModule }
func (counterBumped) EventName() string          { return "counter_bumped" }

// counterPallet is the minimal state-owning pallet used to exercise the
// snapshot/restore contract.
type counterPallet struct {
	system *runtime.Runtime
	value  uint64
}

type counterSnapshot struct {
	value uint64
}

func newCounter(system *runtime.Runtime) *counterPallet {
	p := &counterPallet{system: system}
	system.RegisterCall(counterModule, "bump",
		func() any { return new(bumpArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*bumpArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "counter.bump args")
			}
			if _, err := types.EnsureSigned(origin); err != nil {
				return err
			}
			p.value += a.Amount
			p.system.Deposit(counterBumped{Amount: a.Amount})
			if a.Schedule {
				p.system.Schedule(p.system.Now()+10, types.Root(),
					types.NewCall(counterModule, "root_bump", &bumpArgs{Amount: a.Amount}))
			}
			if a.Fail {
				return errors.Wrap(errs.SomethingWentWrong, "requested failure")
			}
			return nil
		})
	system.RegisterCall(counterModule, "root_bump",
		func() any { return new(bumpArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*bumpArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "counter.root_bump args")
			}
			if err := types.EnsureRoot(origin); err != nil {
				return err
			}
			if a.Fail {
				return errors.Wrap(errs.SomethingWentWrong, "requested failure")
			}
			p.value += a.Amount
			return nil
		})
	system.AddPallet(p)
	return p
}

func (p *counterPallet) Module() common.Module { return counterModule }
func (p *counterPallet) Snapshot() any         { return &counterSnapshot{value: p.value} }
func (p *counterPallet) Restore(snap any)      { p.value = snap.(*counterSnapshot).value }

var alice = common.AccountFromSeed("//Alice")

func TestDispatchUnknownTargets(t *testing.T) {
	system := runtime.New()
	newCounter(system)

	err := system.Dispatch(types.Signed(alice), types.NewCall("nope", "bump", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotFound))

	err = system.Dispatch(types.Signed(alice), types.NewCall(counterModule, "nope", nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotFound))
}

func TestApplyExtrinsicSuccess(t *testing.T) {
	system := runtime.New()
	counter := newCounter(system)

	err := system.ApplyExtrinsic(types.Signed(alice), types.NewCall(counterModule, "bump", &bumpArgs{Amount: 3}))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), counter.value)

	events := system.Events()
	require.Len(t, events, 1)
	assert.Equal(t, counterBumped{Amount: 3}, events[0].Event)
}

// A failing extrinsic must leave no trace: state, events and scheduled calls
// all roll back together.
func TestApplyExtrinsicRollback(t *testing.T) {
	system := runtime.New()
	counter := newCounter(system)

	require.NoError(t, system.ApplyExtrinsic(types.Signed(alice), types.NewCall(counterModule, "bump", &bumpArgs{Amount: 1})))
	require.Len(t, system.Events(), 1)

	err := system.ApplyExtrinsic(types.Signed(alice), types.NewCall(counterModule, "bump", &bumpArgs{Amount: 5, Fail: true, Schedule: true}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.SomethingWentWrong))

	assert.Equal(t, uint64(1), counter.value, "state change must be rolled back")
	assert.Len(t, system.Events(), 1, "events deposited by the failed extrinsic must be dropped")

	// The scheduled root_bump was rolled back with the extrinsic.
	for n := common.BlockNumber(1); n <= 15; n++ {
		system.InitializeBlock(n)
	}
	assert.Equal(t, uint64(1), counter.value)
}

func TestApplyExtrinsicBadOrigin(t *testing.T) {
	system := runtime.New()
	counter := newCounter(system)

	err := system.ApplyExtrinsic(types.Root(), types.NewCall(counterModule, "bump", &bumpArgs{Amount: 1}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.BadOrigin))
	assert.Zero(t, counter.value)
}

// Calls that crossed a JSON boundary carry generic decoded args; the runtime
// must re-decode them into the registered pointer type.
func TestDispatchNormalizesJSONArgs(t *testing.T) {
	system := runtime.New()
	counter := newCounter(system)

	call := types.NewCall(counterModule, "bump", map[string]any{"amount": float64(7)})
	require.NoError(t, system.Dispatch(types.Signed(alice), call))
	assert.Equal(t, uint64(7), counter.value)

	// nil args become a zero value of the registered type.
	require.NoError(t, system.Dispatch(types.Signed(alice), types.NewCall(counterModule, "bump", nil)))
	assert.Equal(t, uint64(7), counter.value)
}

func TestDecodeCall(t *testing.T) {
	system := runtime.New()
	newCounter(system)

	call, err := system.DecodeCall(counterModule, "bump", []byte(`{"amount":9}`))
	require.NoError(t, err)
	args, ok := call.Args.(*bumpArgs)
	require.True(t, ok)
	assert.Equal(t, uint64(9), args.Amount)

	_, err = system.DecodeCall(counterModule, "bump", []byte(`{invalid`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.InvalidArgument))

	_, err = system.DecodeCall("nope", "bump", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotFound))
}

func TestScheduledEnactments(t *testing.T) {
	system := runtime.New()
	counter := newCounter(system)

	system.Schedule(3, types.Root(), types.NewCall(counterModule, "root_bump", &bumpArgs{Amount: 2}))
	system.Schedule(3, types.Root(), types.NewCall(counterModule, "root_bump", &bumpArgs{Amount: 0, Fail: true}))
	system.Schedule(5, types.Root(), types.NewCall(counterModule, "root_bump", &bumpArgs{Amount: 4}))

	system.InitializeBlock(1)
	system.InitializeBlock(2)
	assert.Zero(t, counter.value)

	// Both due calls run at block 3; the failing one is logged and skipped.
	system.InitializeBlock(3)
	assert.Equal(t, uint64(2), counter.value)

	system.InitializeBlock(4)
	assert.Equal(t, uint64(2), counter.value)
	system.InitializeBlock(5)
	assert.Equal(t, uint64(6), counter.value)
}

type orderedHook struct {
	name string
	log  *[]string
}

func (h orderedHook) OnInitialize(common.BlockNumber) {
	*h.log = append(*h.log, h.name)
}

func TestHooksRunInRegistrationOrder(t *testing.T) {
	system := runtime.New()
	var log []string
	system.AddHook(orderedHook{name: "first", log: &log})
	system.AddHook(orderedHook{name: "second", log: &log})

	system.InitializeBlock(1)
	assert.Equal(t, []string{"first", "second"}, log)
}

func TestDrainEvents(t *testing.T) {
	system := runtime.New()
	newCounter(system)

	system.InitializeBlock(4)
	require.NoError(t, system.ApplyExtrinsic(types.Signed(alice), types.NewCall(counterModule, "bump", &bumpArgs{Amount: 1})))

	drained := system.DrainEvents()
	require.Len(t, drained, 1)
	assert.Equal(t, common.BlockNumber(4), drained[0].Block)
	assert.Empty(t, system.Events())
	assert.Empty(t, system.DrainEvents())
}
