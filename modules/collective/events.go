package collective

import "github.com/fair-squares/go-fairsquares/common"

type MotionProposed struct {
	Hash  common.Hash `json:"hash"`
	Index uint32      `json:"index"`
}

func (MotionProposed) EventModule() common.Module { return common.ModuleCollective }
func (MotionProposed) EventName() string          { return "MotionProposed" }

type MotionVoted struct {
	Hash    common.Hash      `json:"hash"`
	Member  common.AccountID `json:"member"`
	Approve bool             `json:"approve"`
}

func (MotionVoted) EventModule() common.Module { return common.ModuleCollective }
func (MotionVoted) EventName() string          { return "MotionVoted" }

type MotionClosed struct {
	Hash     common.Hash `json:"hash"`
	Approved bool        `json:"approved"`
}

func (MotionClosed) EventModule() common.Module { return common.ModuleCollective }
func (MotionClosed) EventName() string          { return "MotionClosed" }
