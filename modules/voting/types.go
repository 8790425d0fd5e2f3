package voting

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/core/types"
	"github.com/fair-squares/go-fairsquares/modules/democracy"
)

// VotingProposal is the live record of a two-stage referendum: the council
// motion (stage 1), the investor referendum (stage 2) and the compensating
// calls for each failure path.
type VotingProposal struct {
	AccountID    common.AccountID `json:"account_id"`
	ProposalCall types.Call       `json:"proposal_call"`
	ProposalHash common.Hash      `json:"proposal_hash"`

	CollectiveCall       types.Call  `json:"collective_call"`
	CollectivePassedCall types.Call  `json:"collective_passed_call"`
	CollectiveFailedCall types.Call  `json:"collective_failed_call"`
	CollectiveIndex      uint32      `json:"collective_index"`
	CollectiveHash       common.Hash `json:"collective_hash"`
	CollectiveStep       bool        `json:"collective_step"`
	CollectiveClosed     bool        `json:"collective_closed"`

	DemocracyFailedCall      types.Call                `json:"democracy_failed_call"`
	DemocracyReferendumIndex democracy.ReferendumIndex `json:"democracy_referendum_index"`
	DemocracyHash            common.Hash               `json:"democracy_hash"`
	ProposalExecuted         bool                      `json:"proposal_executed"`
}
