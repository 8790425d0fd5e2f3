package democracy_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/democracy"
)

const enactModule common.Module = "enact"

type enactArgs struct {
	Label string `json:"label"`
}

var (
	dave = common.AccountFromSeed("//Dave")
	eve  = common.AccountFromSeed("//Eve")
)

type democracyEnv struct {
	system  *runtime.Runtime
	pallet  *democracy.Pallet
	enacted map[string]int
}

func newDemocracyEnv() *democracyEnv {
	system := runtime.New()
	env := &democracyEnv{
		system:  system,
		pallet:  democracy.New(system),
		enacted: make(map[string]int),
	}
	system.AddHook(env.pallet)
	system.RegisterCall(enactModule, "run",
		func() any { return new(enactArgs) },
		func(origin types.Origin, args any) error {
			if err := types.EnsureRoot(origin); err != nil {
				return err
			}
			env.enacted[args.(*enactArgs).Label]++
			return nil
		})
	return env
}

func enact(label string) types.Call {
	return types.NewCall(enactModule, "run", &enactArgs{Label: label})
}

func (env *democracyEnv) runTo(n common.BlockNumber) {
	for b := env.system.Now() + 1; b <= n; b++ {
		env.system.InitializeBlock(b)
	}
}

func TestNotePreimageRejectsDuplicates(t *testing.T) {
	env := newDemocracyEnv()

	hash, err := env.pallet.NotePreimage(dave, enact("a"), 100)
	require.NoError(t, err)
	assert.Equal(t, enact("a").Hash(), hash)

	_, err = env.pallet.NotePreimage(eve, enact("a"), 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.DuplicatePreimage))
}

func TestStartReferendumNeedsPreimage(t *testing.T) {
	env := newDemocracyEnv()
	_, err := env.pallet.StartReferendum(common.Hash{}, democracy.SimpleMajority, 20, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ProposalDoesNotExist))
}

func TestVoteValidation(t *testing.T) {
	env := newDemocracyEnv()
	hash, err := env.pallet.NotePreimage(dave, enact("a"), 100)
	require.NoError(t, err)
	index, err := env.pallet.StartReferendum(hash, democracy.SimpleMajority, 20, 5)
	require.NoError(t, err)

	err = env.pallet.Vote(dave, index+1, true, 1, democracy.ConvictionNone)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotAValidReferendum))

	require.NoError(t, env.pallet.Vote(dave, index, true, 3, democracy.ConvictionNone))
	require.NoError(t, env.pallet.Vote(dave, index, false, 3, democracy.ConvictionNone)) // re-vote replaces

	ref, ok := env.pallet.ReferendumInfo(index)
	require.True(t, ok)
	ayes, nays := ref.Tally()
	assert.Zero(t, ayes)
	assert.Equal(t, common.Balance(3), nays)

	env.runTo(20)
	err = env.pallet.Vote(dave, index, true, 1, democracy.ConvictionNone)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ReferendumCompleted))
}

// An approved referendum schedules its preimage for root dispatch after the
// enactment delay, and the preimage is reaped so the call can be noted again.
func TestApprovalSchedulesEnactment(t *testing.T) {
	env := newDemocracyEnv()
	hash, err := env.pallet.NotePreimage(dave, enact("a"), 100)
	require.NoError(t, err)
	index, err := env.pallet.StartReferendum(hash, democracy.SimpleMajority, 20, 5)
	require.NoError(t, err)

	require.NoError(t, env.pallet.Vote(dave, index, true, 5, democracy.ConvictionNone))
	require.NoError(t, env.pallet.Vote(eve, index, false, 2, democracy.ConvictionNone))

	env.runTo(20)
	ref, _ := env.pallet.ReferendumInfo(index)
	assert.Equal(t, democracy.StatusApproved, ref.Status)
	assert.Zero(t, env.enacted["a"])

	env.runTo(25)
	assert.Equal(t, 1, env.enacted["a"])

	// Preimage was reaped at tally time; the same call can start over.
	_, err = env.pallet.NotePreimage(dave, enact("a"), 100)
	require.NoError(t, err)
}

func TestRejectionOnTie(t *testing.T) {
	env := newDemocracyEnv()
	hash, err := env.pallet.NotePreimage(dave, enact("a"), 100)
	require.NoError(t, err)
	index, err := env.pallet.StartReferendum(hash, democracy.SimpleMajority, 20, 5)
	require.NoError(t, err)

	require.NoError(t, env.pallet.Vote(dave, index, true, 2, democracy.ConvictionNone))
	require.NoError(t, env.pallet.Vote(eve, index, false, 2, democracy.ConvictionNone))

	env.runTo(30)
	ref, _ := env.pallet.ReferendumInfo(index)
	assert.Equal(t, democracy.StatusRejected, ref.Status)
	assert.Zero(t, env.enacted["a"])
}
