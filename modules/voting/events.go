package voting

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/modules/democracy"
)

// Stage identifies which half of the pipeline an event refers to.
type Stage string

const (
	StageCouncil   Stage = "council"
	StageDemocracy Stage = "democracy"
)

type ProposalSubmitted struct {
	Who          common.AccountID   `json:"who"`
	ProposalHash common.Hash        `json:"proposal_hash"`
	Block        common.BlockNumber `json:"block"`
}

func (ProposalSubmitted) EventModule() common.Module { return common.ModuleVoting }
func (ProposalSubmitted) EventName() string          { return "ProposalSubmitted" }

type CouncilVoted struct {
	Member       common.AccountID   `json:"member"`
	ProposalHash common.Hash        `json:"proposal_hash"`
	Approve      bool               `json:"approve"`
	Block        common.BlockNumber `json:"block"`
}

func (CouncilVoted) EventModule() common.Module { return common.ModuleVoting }
func (CouncilVoted) EventName() string          { return "CouncilVoted" }

type CouncilSessionClosed struct {
	ProposalHash common.Hash        `json:"proposal_hash"`
	Approved     bool               `json:"approved"`
	Block        common.BlockNumber `json:"block"`
}

func (CouncilSessionClosed) EventModule() common.Module { return common.ModuleVoting }
func (CouncilSessionClosed) EventName() string          { return "CouncilSessionClosed" }

type DemocracySessionStarted struct {
	ProposalHash    common.Hash               `json:"proposal_hash"`
	ReferendumIndex democracy.ReferendumIndex `json:"referendum_index"`
	Block           common.BlockNumber        `json:"block"`
}

func (DemocracySessionStarted) EventModule() common.Module { return common.ModuleVoting }
func (DemocracySessionStarted) EventName() string          { return "DemocracySessionStarted" }

type InvestorVoted struct {
	Investor     common.AccountID   `json:"investor"`
	ProposalHash common.Hash        `json:"proposal_hash"`
	Approve      bool               `json:"approve"`
	Block        common.BlockNumber `json:"block"`
}

func (InvestorVoted) EventModule() common.Module { return common.ModuleVoting }
func (InvestorVoted) EventName() string          { return "InvestorVoted" }

type ProposalEnacted struct {
	ProposalHash common.Hash        `json:"proposal_hash"`
	Block        common.BlockNumber `json:"block"`
}

func (ProposalEnacted) EventModule() common.Module { return common.ModuleVoting }
func (ProposalEnacted) EventName() string          { return "ProposalEnacted" }

type ProposalFailed struct {
	ProposalHash common.Hash        `json:"proposal_hash"`
	Stage        Stage              `json:"stage"`
	Block        common.BlockNumber `json:"block"`
}

func (ProposalFailed) EventModule() common.Module { return common.ModuleVoting }
func (ProposalFailed) EventName() string          { return "ProposalFailed" }
