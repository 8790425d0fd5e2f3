package voting_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/balances"
	"github.com/fair-squares/go-fairsquares/modules/collective"
	"github.com/fair-squares/go-fairsquares/modules/democracy"
	"github.com/fair-squares/go-fairsquares/modules/roles"
	"github.com/fair-squares/go-fairsquares/modules/voting"
)

const markerModule common.Module = "marker"

type markArgs struct {
	Label string `json:"label"`
}

var (
	admin   = common.AccountFromSeed("//Admin")
	alice   = common.AccountFromSeed("//Alice")
	bob     = common.AccountFromSeed("//Bob")
	charlie = common.AccountFromSeed("//Charlie")
	dave    = common.AccountFromSeed("//Dave")
	eve     = common.AccountFromSeed("//Eve")
)

type votingEnv struct {
	system *runtime.Runtime
	bal    *balances.Pallet
	pallet *voting.Pallet

	marks   map[string]int
	origins map[string]types.OriginKind
}

func newVotingEnv(t *testing.T) *votingEnv {
	t.Helper()
	system := runtime.New()
	bal := balances.New(system)
	reg := roles.New(system, roles.Params{MaxMembers: 100, MaxRoles: 3}, admin)
	council := collective.New(system, collective.Params{MotionDuration: 20}, []common.AccountID{alice, bob, charlie})
	referenda := democracy.New(system)
	params := voting.Params{
		CheckPeriod:        5,
		Delay:              5,
		VotingPeriod:       20,
		MotionDuration:     20,
		MinimumDepositVote: 100,
	}
	pallet := voting.New(system, params, council, referenda, bal, reg)

	// Tally before the watchers, mirroring the chain wiring.
	system.AddHook(referenda)
	system.AddHook(pallet)

	env := &votingEnv{
		system:  system,
		bal:     bal,
		pallet:  pallet,
		marks:   make(map[string]int),
		origins: make(map[string]types.OriginKind),
	}
	system.RegisterCall(markerModule, "mark",
		func() any { return new(markArgs) },
		func(origin types.Origin, args any) error {
			a := args.(*markArgs)
			env.marks[a.Label]++
			env.origins[a.Label] = origin.Kind
			return nil
		})

	bal.Deposit(dave, 10_000)
	reg.ForceAssign(dave, common.RoleInvestor)
	reg.ForceAssign(eve, common.RoleInvestor)
	return env
}

func mark(label string) types.Call {
	return types.NewCall(markerModule, "mark", &markArgs{Label: label})
}

func (env *votingEnv) submit(t *testing.T) common.Hash {
	t.Helper()
	hash, err := env.pallet.SubmitProposal(dave,
		mark("enact"), mark("pass"), mark("council_fail"), mark("democracy_fail"))
	require.NoError(t, err)
	return hash
}

func (env *votingEnv) runTo(n common.BlockNumber) {
	for b := env.system.Now() + 1; b <= n; b++ {
		env.system.InitializeBlock(b)
	}
}

func TestSubmitProposalArmsStageOneWatcher(t *testing.T) {
	env := newVotingEnv(t)
	hash := env.submit(t)

	vp, ok := env.pallet.Proposal(hash)
	require.True(t, ok)
	assert.Equal(t, dave, vp.AccountID)
	assert.False(t, vp.CollectiveStep)

	deadline, ok := env.pallet.CollectiveWatchDeadline(hash)
	require.True(t, ok)
	assert.Equal(t, common.BlockNumber(25), deadline)

	// The preimage deposit stays reserved while stage 1 is pending.
	assert.Equal(t, common.Balance(100), env.bal.ReservedBalance(dave))

	// The same enactment cannot be proposed twice while live.
	_, err := env.pallet.SubmitProposal(dave, mark("enact"), mark("pass"), mark("council_fail"), mark("democracy_fail"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.FailedToCreateProposal))
}

func TestCouncilVoteGating(t *testing.T) {
	env := newVotingEnv(t)
	hash := env.submit(t)

	err := env.pallet.CouncilVote(dave, hash, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotAHouseCouncilMember))

	err = env.pallet.CouncilVote(alice, common.Hash{}, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ProposalDoesNotExist))

	// Closing before the motion ends with votes outstanding is refused.
	require.NoError(t, env.pallet.CouncilVote(alice, hash, true))
	err = env.pallet.CouncilCloseVote(alice, hash)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.VoteNeeded))
}

func TestInvestorVoteNeedsOpenReferendum(t *testing.T) {
	env := newVotingEnv(t)
	hash := env.submit(t)

	err := env.pallet.InvestorVote(alice, hash, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotAnInvestor))

	err = env.pallet.InvestorVote(dave, hash, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.NotAValidReferendum))
}

// The full happy path: council approves, the investor referendum passes, and
// the enactment runs once under the submitter's signed origin after the delay.
func TestTwoStagePassPath(t *testing.T) {
	env := newVotingEnv(t)
	hash := env.submit(t)

	for _, member := range []common.AccountID{alice, bob, charlie} {
		require.NoError(t, env.pallet.CouncilVote(member, hash, true))
	}
	require.NoError(t, env.pallet.CouncilCloseVote(alice, hash))

	// Stage 1 passed: the pass call ran under the council origin and the
	// stage-2 referendum is open.
	assert.Equal(t, 1, env.marks["pass"])
	assert.Equal(t, types.OriginCouncil, env.origins["pass"])
	vp, ok := env.pallet.Proposal(hash)
	require.True(t, ok)
	assert.True(t, vp.CollectiveStep)
	assert.Zero(t, env.bal.ReservedBalance(dave)) // deposit released into stage 2
	_, ok = env.pallet.CollectiveWatchDeadline(hash)
	assert.False(t, ok)
	deadline, ok := env.pallet.DemocracyWatchDeadline(hash)
	require.True(t, ok)
	assert.Equal(t, common.BlockNumber(25), deadline)

	require.NoError(t, env.pallet.InvestorVote(dave, hash, true))
	require.NoError(t, env.pallet.InvestorVote(eve, hash, false))
	require.NoError(t, env.pallet.InvestorVote(eve, hash, true)) // re-vote replaces

	// Referendum ends at block 20, the enactment is scheduled for block 25.
	env.runTo(24)
	assert.Zero(t, env.marks["enact"])
	env.runTo(25)
	assert.Equal(t, 1, env.marks["enact"])
	assert.Equal(t, types.OriginSigned, env.origins["enact"])

	_, ok = env.pallet.Proposal(hash)
	assert.False(t, ok)

	// No watcher double-fires later.
	env.runTo(60)
	assert.Equal(t, 1, env.marks["enact"])
	assert.Zero(t, env.marks["council_fail"])
	assert.Zero(t, env.marks["democracy_fail"])
}

// A proposal the council never closes gets its stage-1 compensating call
// dispatched exactly once when the watcher deadline lapses.
func TestStageOneWatcherFiresOnce(t *testing.T) {
	env := newVotingEnv(t)
	hash := env.submit(t)

	env.runTo(24)
	assert.Zero(t, env.marks["council_fail"])

	// Deadline 25 is also a check block.
	env.runTo(25)
	assert.Equal(t, 1, env.marks["council_fail"])
	assert.Equal(t, types.OriginRoot, env.origins["council_fail"])

	_, ok := env.pallet.Proposal(hash)
	assert.False(t, ok)
	_, ok = env.pallet.CollectiveWatchDeadline(hash)
	assert.False(t, ok)
	assert.Zero(t, env.bal.ReservedBalance(dave)) // deposit returned

	env.runTo(60)
	assert.Equal(t, 1, env.marks["council_fail"])
	assert.Zero(t, env.marks["democracy_fail"])
	assert.Zero(t, env.marks["enact"])
}

// A failed investor referendum leaves the enactment unexecuted; the stage-2
// watcher fires the destroy-side compensating call.
func TestStageTwoWatcherFiresOnRejection(t *testing.T) {
	env := newVotingEnv(t)
	hash := env.submit(t)

	for _, member := range []common.AccountID{alice, bob, charlie} {
		require.NoError(t, env.pallet.CouncilVote(member, hash, true))
	}
	require.NoError(t, env.pallet.CouncilCloseVote(alice, hash))

	require.NoError(t, env.pallet.InvestorVote(dave, hash, false))
	require.NoError(t, env.pallet.InvestorVote(eve, hash, false))

	env.runTo(25)
	assert.Zero(t, env.marks["enact"])
	assert.Equal(t, 1, env.marks["democracy_fail"])
	assert.Equal(t, types.OriginRoot, env.origins["democracy_fail"])

	_, ok := env.pallet.Proposal(hash)
	assert.False(t, ok)

	env.runTo(60)
	assert.Equal(t, 1, env.marks["democracy_fail"])
}

// A council majority voting nay leaves the motion to expire; the stage-1
// watcher then routes the proposal to the edit-side compensating call.
func TestCouncilRejectionFallsToWatcher(t *testing.T) {
	env := newVotingEnv(t)
	hash := env.submit(t)

	for _, member := range []common.AccountID{alice, bob, charlie} {
		require.NoError(t, env.pallet.CouncilVote(member, hash, false))
	}
	require.NoError(t, env.pallet.CouncilCloseVote(alice, hash))

	assert.Zero(t, env.marks["pass"])
	vp, ok := env.pallet.Proposal(hash)
	require.True(t, ok)
	assert.True(t, vp.CollectiveClosed)
	assert.False(t, vp.CollectiveStep)

	env.runTo(25)
	assert.Equal(t, 1, env.marks["council_fail"])
	_, ok = env.pallet.Proposal(hash)
	assert.False(t, ok)
}
