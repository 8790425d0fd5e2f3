// Package voting coordinates the two-stage governance pipeline: a council
// motion with simple majority (stage 1) followed by an investor-weighted
// public referendum (stage 2), with deadline watchers that fire exactly one
// compensating call when a stage stalls or fails.
package voting

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/democracy"
	"github.com/fair-squares/go-fairsquares/pkg/logger"
	"github.com/fair-squares/go-fairsquares/pkg/logger/slogx"
)

type Params struct {
	// CheckPeriod is the watcher scan interval in blocks.
	CheckPeriod common.BlockNumber
	// Delay is the enactment delay after a referendum passes.
	Delay common.BlockNumber
	// VotingPeriod is the length of the investor referendum.
	VotingPeriod common.BlockNumber
	// MotionDuration mirrors the council's motion lifetime; stage-1
	// watchers fire at MotionDuration + Delay.
	MotionDuration common.BlockNumber
	// MinimumDepositVote funds the democracy preimage deposit.
	MinimumDepositVote common.Balance
}

// Council is the stage-1 collective primitive.
type Council interface {
	IsMember(who common.AccountID) bool
	Propose(call types.Call) (uint32, common.Hash, error)
	Vote(member common.AccountID, hash common.Hash, approve bool) error
	Close(member common.AccountID, hash common.Hash) (bool, error)
}

// Referenda is the stage-2 democracy primitive.
type Referenda interface {
	NotePreimage(depositor common.AccountID, call types.Call, deposit common.Balance) (common.Hash, error)
	StartReferendum(preimageHash common.Hash, threshold democracy.Threshold, votingPeriod, delay common.BlockNumber) (democracy.ReferendumIndex, error)
	Vote(who common.AccountID, index democracy.ReferendumIndex, aye bool, weight common.Balance, conviction democracy.Conviction) error
}

type Currency interface {
	Reserve(who common.AccountID, amount common.Balance) error
	Unreserve(who common.AccountID, amount common.Balance) common.Balance
}

type RoleRegistry interface {
	EnsureRole(who common.AccountID, role common.Role) error
}

type storage struct {
	proposals map[common.Hash]VotingProposal
	// Watchlists map proposal hash to the block after which the stage is
	// considered failed.
	collectiveWatch map[common.Hash]common.BlockNumber
	democracyWatch  map[common.Hash]common.BlockNumber
}

func (s *storage) clone() *storage {
	proposals := make(map[common.Hash]VotingProposal, len(s.proposals))
	for k, v := range s.proposals {
		proposals[k] = v
	}
	collectiveWatch := make(map[common.Hash]common.BlockNumber, len(s.collectiveWatch))
	for k, v := range s.collectiveWatch {
		collectiveWatch[k] = v
	}
	democracyWatch := make(map[common.Hash]common.BlockNumber, len(s.democracyWatch))
	for k, v := range s.democracyWatch {
		democracyWatch[k] = v
	}
	return &storage{proposals: proposals, collectiveWatch: collectiveWatch, democracyWatch: democracyWatch}
}

type Pallet struct {
	system    *runtime.Runtime
	params    Params
	council   Council
	referenda Referenda
	currency  Currency
	roles     RoleRegistry
	s         *storage
}

func New(system *runtime.Runtime, params Params, council Council, referenda Referenda, currency Currency, roles RoleRegistry) *Pallet {
	p := &Pallet{
		system:    system,
		params:    params,
		council:   council,
		referenda: referenda,
		currency:  currency,
		roles:     roles,
		s: &storage{
			proposals:       make(map[common.Hash]VotingProposal),
			collectiveWatch: make(map[common.Hash]common.BlockNumber),
			democracyWatch:  make(map[common.Hash]common.BlockNumber),
		},
	}
	p.registerCalls()
	return p
}

func (p *Pallet) Module() common.Module { return common.ModuleVoting }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

type SubmitProposalArgs struct {
	Proposal          types.Call `json:"proposal"`
	PassCall          types.Call `json:"pass_call"`
	CouncilFailCall   types.Call `json:"council_fail_call"`
	DemocracyFailCall types.Call `json:"democracy_fail_call"`
}

type VoteArgs struct {
	ProposalHash common.Hash `json:"proposal_hash"`
	Approve      bool        `json:"approve"`
}

type CloseArgs struct {
	ProposalHash common.Hash `json:"proposal_hash"`
}

type WrappedCallArgs struct {
	Account      common.AccountID `json:"account"`
	ProposalHash common.Hash      `json:"proposal_hash"`
	Proposal     types.Call       `json:"proposal"`
}

func (p *Pallet) registerCalls() {
	p.system.RegisterCall(common.ModuleVoting, "submit_proposal",
		func() any { return new(SubmitProposalArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*SubmitProposalArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "voting.submit_proposal args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			_, err = p.SubmitProposal(who, a.Proposal, a.PassCall, a.CouncilFailCall, a.DemocracyFailCall)
			return err
		})
	p.system.RegisterCall(common.ModuleVoting, "council_vote",
		func() any { return new(VoteArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*VoteArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "voting.council_vote args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.CouncilVote(who, a.ProposalHash, a.Approve)
		})
	p.system.RegisterCall(common.ModuleVoting, "council_close_vote",
		func() any { return new(CloseArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*CloseArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "voting.council_close_vote args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.CouncilCloseVote(who, a.ProposalHash)
		})
	p.system.RegisterCall(common.ModuleVoting, "call_democracy_proposal",
		func() any { return new(WrappedCallArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*WrappedCallArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "voting.call_democracy_proposal args")
			}
			if err := types.EnsureCouncil(origin); err != nil {
				return err
			}
			return p.CallDemocracyProposal(a.Account, a.ProposalHash, a.Proposal)
		})
	p.system.RegisterCall(common.ModuleVoting, "investor_vote",
		func() any { return new(VoteArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*VoteArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "voting.investor_vote args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.InvestorVote(who, a.ProposalHash, a.Approve)
		})
	p.system.RegisterCall(common.ModuleVoting, "call_dispatch",
		func() any { return new(WrappedCallArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*WrappedCallArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "voting.call_dispatch args")
			}
			if err := types.EnsureRoot(origin); err != nil {
				return err
			}
			return p.CallDispatch(a.Account, a.ProposalHash, a.Proposal)
		})
}

// SubmitProposal opens stage 1: the enactment is wrapped into call_dispatch,
// that wrapper into a council motion over call_democracy_proposal, and the
// motion registered with the council. The submitter's preimage deposit is
// reserved until stage 2 opens or the stage-1 watcher gives up. A watcher is
// armed at MotionDuration + Delay.
func (p *Pallet) SubmitProposal(who common.AccountID, proposal, passCall, councilFailCall, democracyFailCall types.Call) (common.Hash, error) {
	proposalHash := proposal.Hash()
	if _, exists := p.s.proposals[proposalHash]; exists {
		return common.Hash{}, errors.Wrapf(errs.FailedToCreateProposal, "proposal %s already live", proposalHash)
	}
	if err := p.currency.Reserve(who, p.params.MinimumDepositVote); err != nil {
		return common.Hash{}, err
	}

	callDispatch := types.NewCall(common.ModuleVoting, "call_dispatch", &WrappedCallArgs{
		Account:      who,
		ProposalHash: proposalHash,
		Proposal:     proposal,
	})
	collectiveCall := types.NewCall(common.ModuleVoting, "call_democracy_proposal", &WrappedCallArgs{
		Account:      who,
		ProposalHash: proposalHash,
		Proposal:     callDispatch,
	})

	index, collectiveHash, err := p.council.Propose(collectiveCall)
	if err != nil {
		return common.Hash{}, errors.Wrap(errs.FailedToCreateCollectiveProposal, err.Error())
	}

	p.s.proposals[proposalHash] = VotingProposal{
		AccountID:            who,
		ProposalCall:         proposal,
		ProposalHash:         proposalHash,
		CollectiveCall:       collectiveCall,
		CollectivePassedCall: passCall,
		CollectiveFailedCall: councilFailCall,
		CollectiveIndex:      index,
		CollectiveHash:       collectiveHash,
		DemocracyFailedCall:  democracyFailCall,
	}
	p.s.collectiveWatch[proposalHash] = p.system.Now() + p.params.MotionDuration + p.params.Delay

	p.system.Deposit(ProposalSubmitted{Who: who, ProposalHash: proposalHash, Block: p.system.Now()})
	return proposalHash, nil
}

// CouncilVote casts a stage-1 vote on the underlying council motion.
func (p *Pallet) CouncilVote(member common.AccountID, proposalHash common.Hash, approve bool) error {
	if !p.council.IsMember(member) {
		return errors.Wrapf(errs.NotAHouseCouncilMember, "account %s", member)
	}
	vp, ok := p.s.proposals[proposalHash]
	if !ok {
		return errors.Wrapf(errs.ProposalDoesNotExist, "proposal %s", proposalHash)
	}
	if err := p.council.Vote(member, vp.CollectiveHash, approve); err != nil {
		return err
	}
	p.system.Deposit(CouncilVoted{Member: member, ProposalHash: proposalHash, Approve: approve, Block: p.system.Now()})
	return nil
}

// CouncilCloseVote closes the stage-1 motion. On a passing close the council
// primitive dispatches call_democracy_proposal itself; on a failing close the
// armed watcher runs the stage-1 fail call once the deadline lapses.
func (p *Pallet) CouncilCloseVote(member common.AccountID, proposalHash common.Hash) error {
	if !p.council.IsMember(member) {
		return errors.Wrapf(errs.NotAHouseCouncilMember, "account %s", member)
	}
	vp, ok := p.s.proposals[proposalHash]
	if !ok {
		return errors.Wrapf(errs.ProposalDoesNotExist, "proposal %s", proposalHash)
	}
	approved, err := p.council.Close(member, vp.CollectiveHash)
	if err != nil {
		return err
	}
	// Close dispatched the motion; re-read before flagging, the democracy
	// step mutated the record on a pass.
	vp = p.s.proposals[proposalHash]
	vp.CollectiveClosed = true
	p.s.proposals[proposalHash] = vp
	p.system.Deposit(CouncilSessionClosed{ProposalHash: proposalHash, Approved: approved, Block: p.system.Now()})
	return nil
}

// CallDemocracyProposal is the council-authorized stage-2 opener: it funds
// and notes the preimage, starts the investor referendum, arms the stage-2
// watcher and dispatches the stage-1 pass call.
func (p *Pallet) CallDemocracyProposal(account common.AccountID, proposalHash common.Hash, proposal types.Call) error {
	vp, ok := p.s.proposals[proposalHash]
	if !ok {
		return errors.Wrapf(errs.ProposalDoesNotExist, "proposal %s", proposalHash)
	}

	p.currency.Unreserve(account, p.params.MinimumDepositVote)
	preimageHash, err := p.referenda.NotePreimage(account, proposal, p.params.MinimumDepositVote)
	if err != nil {
		return err
	}
	index, err := p.referenda.StartReferendum(preimageHash, democracy.SimpleMajority, p.params.VotingPeriod, p.params.Delay)
	if err != nil {
		return err
	}

	vp.DemocracyHash = preimageHash
	vp.DemocracyReferendumIndex = index
	vp.CollectiveStep = true
	p.s.proposals[proposalHash] = vp

	delete(p.s.collectiveWatch, proposalHash)
	p.s.democracyWatch[proposalHash] = p.system.Now() + p.params.VotingPeriod + p.params.Delay

	if err := p.system.Dispatch(types.Council(), vp.CollectivePassedCall); err != nil {
		return err
	}
	p.system.Deposit(DemocracySessionStarted{ProposalHash: proposalHash, ReferendumIndex: index, Block: p.system.Now()})
	return nil
}

// InvestorVote casts a single-unit unconvicted stage-2 vote.
func (p *Pallet) InvestorVote(investor common.AccountID, proposalHash common.Hash, approve bool) error {
	if err := p.roles.EnsureRole(investor, common.RoleInvestor); err != nil {
		return err
	}
	vp, ok := p.s.proposals[proposalHash]
	if !ok {
		return errors.Wrapf(errs.ProposalDoesNotExist, "proposal %s", proposalHash)
	}
	if !vp.CollectiveStep {
		return errors.Wrapf(errs.NotAValidReferendum, "proposal %s has no open referendum", proposalHash)
	}
	if err := p.referenda.Vote(investor, vp.DemocracyReferendumIndex, approve, 1, democracy.ConvictionNone); err != nil {
		return err
	}
	p.system.Deposit(InvestorVoted{Investor: investor, ProposalHash: proposalHash, Approve: approve, Block: p.system.Now()})
	return nil
}

// CallDispatch is the root-gated enactment entry point. The executed flag is
// flipped before dispatch so a re-entry is a no-op, making enactment
// exactly-once.
func (p *Pallet) CallDispatch(account common.AccountID, proposalHash common.Hash, proposal types.Call) error {
	vp, ok := p.s.proposals[proposalHash]
	if !ok {
		return errors.Wrapf(errs.ProposalDoesNotExist, "proposal %s", proposalHash)
	}
	if vp.ProposalExecuted {
		return nil
	}
	vp.ProposalExecuted = true
	p.s.proposals[proposalHash] = vp
	delete(p.s.democracyWatch, proposalHash)

	if err := p.system.Dispatch(types.Signed(account), proposal); err != nil {
		return err
	}
	delete(p.s.proposals, proposalHash)
	p.system.Deposit(ProposalEnacted{ProposalHash: proposalHash, Block: p.system.Now()})
	return nil
}

// Proposal returns the live record for a proposal hash.
func (p *Pallet) Proposal(proposalHash common.Hash) (VotingProposal, bool) {
	vp, ok := p.s.proposals[proposalHash]
	return vp, ok
}

// CollectiveWatchDeadline exposes the stage-1 watcher deadline.
func (p *Pallet) CollectiveWatchDeadline(proposalHash common.Hash) (common.BlockNumber, bool) {
	d, ok := p.s.collectiveWatch[proposalHash]
	return d, ok
}

// DemocracyWatchDeadline exposes the stage-2 watcher deadline.
func (p *Pallet) DemocracyWatchDeadline(proposalHash common.Hash) (common.BlockNumber, bool) {
	d, ok := p.s.democracyWatch[proposalHash]
	return d, ok
}

// OnInitialize scans both watchlists every CheckPeriod blocks. A proposal
// whose stage deadline lapsed without progressing gets its fail call
// dispatched exactly once; the watchlist entry is removed before dispatch so
// a retry within the block cannot double-fire.
func (p *Pallet) OnInitialize(n common.BlockNumber) {
	if p.params.CheckPeriod == 0 || n%p.params.CheckPeriod != 0 {
		return
	}

	for _, hash := range sortedHashes(p.s.collectiveWatch) {
		deadline := p.s.collectiveWatch[hash]
		if deadline > n {
			continue
		}
		vp, ok := p.s.proposals[hash]
		delete(p.s.collectiveWatch, hash)
		if !ok || vp.CollectiveStep {
			continue
		}
		delete(p.s.proposals, hash)
		p.currency.Unreserve(vp.AccountID, p.params.MinimumDepositVote)
		p.dispatchFailCall(hash, vp.CollectiveFailedCall, n)
		p.system.Deposit(ProposalFailed{ProposalHash: hash, Stage: StageCouncil, Block: n})
	}

	for _, hash := range sortedHashes(p.s.democracyWatch) {
		deadline := p.s.democracyWatch[hash]
		if deadline > n {
			continue
		}
		vp, ok := p.s.proposals[hash]
		delete(p.s.democracyWatch, hash)
		if !ok || vp.ProposalExecuted {
			continue
		}
		delete(p.s.proposals, hash)
		p.dispatchFailCall(hash, vp.DemocracyFailedCall, n)
		p.system.Deposit(ProposalFailed{ProposalHash: hash, Stage: StageDemocracy, Block: n})
	}
}

// dispatchFailCall runs a compensating call under root. Failures are logged
// and swallowed so one pathological asset cannot stall the periodic hook.
func (p *Pallet) dispatchFailCall(hash common.Hash, call types.Call, n common.BlockNumber) {
	if err := p.system.Dispatch(types.Root(), call); err != nil {
		logger.Warn("Compensating call failed",
			slogx.String("proposal_hash", hash.String()),
			slogx.String("call", call.String()),
			slogx.Uint64("block", n),
			slogx.Error(err),
		)
	}
}

func sortedHashes(m map[common.Hash]common.BlockNumber) []common.Hash {
	hashes := make([]common.Hash, 0, len(m))
	for h := range m {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i].String() < hashes[j].String() })
	return hashes
}
