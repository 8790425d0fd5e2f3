// Package collective is the house council primitive: a small fixed member
// set votes on motions by simple majority within MotionDuration blocks; a
// passed motion is dispatched under the council origin when closed.
package collective

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
)

type Params struct {
	MotionDuration common.BlockNumber
}

type Motion struct {
	Call   types.Call
	Index  uint32
	Ayes   []common.AccountID
	Nays   []common.AccountID
	End    common.BlockNumber
	Closed bool
}

type storage struct {
	members []common.AccountID
	motions map[common.Hash]Motion
	count   uint32
}

func (s *storage) clone() *storage {
	motions := make(map[common.Hash]Motion, len(s.motions))
	for k, v := range s.motions {
		v.Ayes = append([]common.AccountID(nil), v.Ayes...)
		v.Nays = append([]common.AccountID(nil), v.Nays...)
		motions[k] = v
	}
	return &storage{
		members: append([]common.AccountID(nil), s.members...),
		motions: motions,
		count:   s.count,
	}
}

type Pallet struct {
	system *runtime.Runtime
	params Params
	s      *storage
}

func New(system *runtime.Runtime, params Params, members []common.AccountID) *Pallet {
	return &Pallet{
		system: system,
		params: params,
		s: &storage{
			members: append([]common.AccountID(nil), members...),
			motions: make(map[common.Hash]Motion),
		},
	}
}

func (p *Pallet) Module() common.Module { return common.ModuleCollective }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

func (p *Pallet) IsMember(who common.AccountID) bool {
	return lo.Contains(p.s.members, who)
}

func (p *Pallet) Members() []common.AccountID {
	return append([]common.AccountID(nil), p.s.members...)
}

// Propose registers a motion at the next proposal index. Module-internal;
// callers gate access themselves.
func (p *Pallet) Propose(call types.Call) (uint32, common.Hash, error) {
	hash := call.Hash()
	if _, exists := p.s.motions[hash]; exists {
		return 0, common.Hash{}, errors.Wrapf(errs.FailedToCreateCollectiveProposal, "motion %s already open", hash)
	}
	index := p.s.count
	p.s.count++
	p.s.motions[hash] = Motion{
		Call:  call,
		Index: index,
		End:   p.system.Now() + p.params.MotionDuration,
	}
	p.system.Deposit(MotionProposed{Hash: hash, Index: index})
	return index, hash, nil
}

// Vote records a member's aye/nay on an open motion. Re-voting replaces the
// previous vote.
func (p *Pallet) Vote(member common.AccountID, hash common.Hash, approve bool) error {
	if !p.IsMember(member) {
		return errors.Wrapf(errs.NotAHouseCouncilMember, "account %s", member)
	}
	motion, ok := p.s.motions[hash]
	if !ok {
		return errors.Wrapf(errs.ProposalDoesNotExist, "motion %s", hash)
	}
	if motion.Closed {
		return errors.Wrapf(errs.ReferendumCompleted, "motion %s closed", hash)
	}
	notMember := func(a common.AccountID, _ int) bool { return a != member }
	motion.Ayes = lo.Filter(motion.Ayes, notMember)
	motion.Nays = lo.Filter(motion.Nays, notMember)
	if approve {
		motion.Ayes = append(motion.Ayes, member)
	} else {
		motion.Nays = append(motion.Nays, member)
	}
	p.s.motions[hash] = motion
	p.system.Deposit(MotionVoted{Hash: hash, Member: member, Approve: approve})
	return nil
}

// Close tallies a motion. Approval needs a strict majority of the member
// set; an approved motion's call is dispatched under the council origin.
// The motion record is removed either way.
func (p *Pallet) Close(member common.AccountID, hash common.Hash) (bool, error) {
	if !p.IsMember(member) {
		return false, errors.Wrapf(errs.NotAHouseCouncilMember, "account %s", member)
	}
	motion, ok := p.s.motions[hash]
	if !ok {
		return false, errors.Wrapf(errs.ProposalDoesNotExist, "motion %s", hash)
	}
	voted := len(motion.Ayes) + len(motion.Nays)
	if p.system.Now() < motion.End && voted < len(p.s.members) {
		return false, errors.Wrapf(errs.VoteNeeded, "motion %s still open until block %d", hash, motion.End)
	}

	approved := 2*len(motion.Ayes) > len(p.s.members)
	delete(p.s.motions, hash)
	p.system.Deposit(MotionClosed{Hash: hash, Approved: approved})

	if approved {
		if err := p.system.Dispatch(types.Council(), motion.Call); err != nil {
			return true, errors.Wrapf(err, "dispatching approved motion %s", hash)
		}
	}
	return approved, nil
}

// MotionOf returns an open motion.
func (p *Pallet) MotionOf(hash common.Hash) (Motion, bool) {
	m, ok := p.s.motions[hash]
	return m, ok
}
