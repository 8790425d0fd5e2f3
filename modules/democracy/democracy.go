// Package democracy is the public referendum primitive: hash-addressed
// preimages, referenda with a voting period and enactment delay, balance
// weighted votes, and scheduled dispatch of the preimage on approval.
package democracy

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
)

type Threshold string

const (
	// SimpleMajority approves when ayes outweigh nays.
	SimpleMajority Threshold = "simple_majority"
)

type Conviction string

const (
	ConvictionNone     Conviction = "none"
	ConvictionLocked1x Conviction = "locked_1x"
)

type ReferendumIndex = uint32

type Status string

const (
	StatusOngoing  Status = "ongoing"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Preimage struct {
	Call      types.Call
	Depositor common.AccountID
	Deposit   common.Balance
}

type VoteRecord struct {
	Aye        bool
	Weight     common.Balance
	Conviction Conviction
}

type Referendum struct {
	PreimageHash common.Hash
	Threshold    Threshold
	End          common.BlockNumber
	Delay        common.BlockNumber
	Votes        map[common.AccountID]VoteRecord
	Status       Status
}

func (r Referendum) Tally() (ayes, nays common.Balance) {
	for _, v := range r.Votes {
		if v.Aye {
			ayes += v.Weight
		} else {
			nays += v.Weight
		}
	}
	return ayes, nays
}

type storage struct {
	preimages map[common.Hash]Preimage
	referenda map[ReferendumIndex]Referendum
	next      ReferendumIndex
}

func (s *storage) clone() *storage {
	preimages := make(map[common.Hash]Preimage, len(s.preimages))
	for k, v := range s.preimages {
		preimages[k] = v
	}
	referenda := make(map[ReferendumIndex]Referendum, len(s.referenda))
	for k, v := range s.referenda {
		votes := make(map[common.AccountID]VoteRecord, len(v.Votes))
		for a, vote := range v.Votes {
			votes[a] = vote
		}
		v.Votes = votes
		referenda[k] = v
	}
	return &storage{preimages: preimages, referenda: referenda, next: s.next}
}

type Pallet struct {
	system *runtime.Runtime
	s      *storage
}

func New(system *runtime.Runtime) *Pallet {
	return &Pallet{
		system: system,
		s: &storage{
			preimages: make(map[common.Hash]Preimage),
			referenda: make(map[ReferendumIndex]Referendum),
		},
	}
}

func (p *Pallet) Module() common.Module { return common.ModuleDemocracy }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

// NotePreimage persists the enactment call under its content hash. The
// deposit is assumed to have been taken from the depositor by the caller.
func (p *Pallet) NotePreimage(depositor common.AccountID, call types.Call, deposit common.Balance) (common.Hash, error) {
	hash := call.Hash()
	if _, exists := p.s.preimages[hash]; exists {
		return common.Hash{}, errors.Wrapf(errs.DuplicatePreimage, "preimage %s", hash)
	}
	p.s.preimages[hash] = Preimage{Call: call, Depositor: depositor, Deposit: deposit}
	p.system.Deposit(PreimageNoted{Hash: hash, Depositor: depositor})
	return hash, nil
}

// StartReferendum opens a referendum over a noted preimage.
func (p *Pallet) StartReferendum(preimageHash common.Hash, threshold Threshold, votingPeriod, delay common.BlockNumber) (ReferendumIndex, error) {
	if _, ok := p.s.preimages[preimageHash]; !ok {
		return 0, errors.Wrapf(errs.ProposalDoesNotExist, "no preimage %s", preimageHash)
	}
	index := p.s.next
	p.s.next++
	p.s.referenda[index] = Referendum{
		PreimageHash: preimageHash,
		Threshold:    threshold,
		End:          p.system.Now() + votingPeriod,
		Delay:        delay,
		Votes:        make(map[common.AccountID]VoteRecord),
		Status:       StatusOngoing,
	}
	p.system.Deposit(ReferendumStarted{Index: index, Hash: preimageHash})
	return index, nil
}

// Vote records a weighted vote on an ongoing referendum. Re-voting replaces
// the account's previous vote.
func (p *Pallet) Vote(who common.AccountID, index ReferendumIndex, aye bool, weight common.Balance, conviction Conviction) error {
	ref, ok := p.s.referenda[index]
	if !ok {
		return errors.Wrapf(errs.NotAValidReferendum, "referendum %d", index)
	}
	if ref.Status != StatusOngoing {
		return errors.Wrapf(errs.ReferendumCompleted, "referendum %d", index)
	}
	ref.Votes[who] = VoteRecord{Aye: aye, Weight: weight, Conviction: conviction}
	p.s.referenda[index] = ref
	return nil
}

// ReferendumInfo returns a referendum by index.
func (p *Pallet) ReferendumInfo(index ReferendumIndex) (Referendum, bool) {
	ref, ok := p.s.referenda[index]
	return ref, ok
}

// OnInitialize tallies every referendum whose voting period has ended and
// schedules the preimage call of approved ones after the enactment delay.
func (p *Pallet) OnInitialize(n common.BlockNumber) {
	indices := make([]ReferendumIndex, 0, len(p.s.referenda))
	for idx, ref := range p.s.referenda {
		if ref.Status == StatusOngoing && ref.End <= n {
			indices = append(indices, idx)
		}
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, idx := range indices {
		ref := p.s.referenda[idx]
		ayes, nays := ref.Tally()
		if ayes > nays {
			ref.Status = StatusApproved
			if preimage, ok := p.s.preimages[ref.PreimageHash]; ok {
				p.system.Schedule(n+ref.Delay, types.Root(), preimage.Call)
			}
			p.system.Deposit(ReferendumPassed{Index: idx, Ayes: ayes, Nays: nays})
		} else {
			ref.Status = StatusRejected
			p.system.Deposit(ReferendumNotPassed{Index: idx, Ayes: ayes, Nays: nays})
		}
		// Reap the preimage so an identical call can be noted again later.
		delete(p.s.preimages, ref.PreimageHash)
		p.s.referenda[idx] = ref
	}
}
