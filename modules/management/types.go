package management

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/modules/democracy"
)

// SessionPurpose selects what an owner referendum decides.
type SessionPurpose string

const (
	PurposeElection SessionPurpose = "election"
	PurposeDemotion SessionPurpose = "demotion"
	PurposeTenant   SessionPurpose = "tenant"
)

// VoteResult is the recorded outcome of an owner referendum.
type VoteResult string

const (
	ResultAwaiting VoteResult = "awaiting"
	ResultAccepted VoteResult = "accepted"
	ResultRejected VoteResult = "rejected"
)

// RepVote is the metadata stored per owner referendum.
type RepVote struct {
	Caller         common.AccountID    `json:"caller"`
	VirtualAccount common.AccountID    `json:"virtual_account"`
	Candidate      common.AccountID    `json:"candidate"`
	Purpose        SessionPurpose      `json:"purpose"`
	VoteResult     VoteResult          `json:"vote_result"`
	When           common.BlockNumber  `json:"when"`
	CollectionID   common.CollectionID `json:"collection_id"`
	ItemID         common.ItemID       `json:"item_id"`
}

// Key returns the asset the referendum is about.
func (rv RepVote) Key() common.AssetKey {
	return common.AssetKey{Collection: rv.CollectionID, Item: rv.ItemID}
}

type storage struct {
	proposalsLog     map[democracy.ReferendumIndex]RepVote
	proposalsIndexes map[common.AccountID]democracy.ReferendumIndex
}

func (s *storage) clone() *storage {
	proposalsLog := make(map[democracy.ReferendumIndex]RepVote, len(s.proposalsLog))
	for k, v := range s.proposalsLog {
		proposalsLog[k] = v
	}
	proposalsIndexes := make(map[common.AccountID]democracy.ReferendumIndex, len(s.proposalsIndexes))
	for k, v := range s.proposalsIndexes {
		proposalsIndexes[k] = v
	}
	return &storage{proposalsLog: proposalsLog, proposalsIndexes: proposalsIndexes}
}
