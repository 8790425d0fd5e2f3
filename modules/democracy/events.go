package democracy

import "github.com/fair-squares/go-fairsquares/common"

type PreimageNoted struct {
	Hash      common.Hash      `json:"hash"`
	Depositor common.AccountID `json:"depositor"`
}

func (PreimageNoted) EventModule() common.Module { return common.ModuleDemocracy }
func (PreimageNoted) EventName() string          { return "PreimageNoted" }

type ReferendumStarted struct {
	Index ReferendumIndex `json:"index"`
	Hash  common.Hash     `json:"hash"`
}

func (ReferendumStarted) EventModule() common.Module { return common.ModuleDemocracy }
func (ReferendumStarted) EventName() string          { return "ReferendumStarted" }

type ReferendumPassed struct {
	Index ReferendumIndex `json:"index"`
	Ayes  common.Balance  `json:"ayes"`
	Nays  common.Balance  `json:"nays"`
}

func (ReferendumPassed) EventModule() common.Module { return common.ModuleDemocracy }
func (ReferendumPassed) EventName() string          { return "ReferendumPassed" }

type ReferendumNotPassed struct {
	Index ReferendumIndex `json:"index"`
	Ayes  common.Balance  `json:"ayes"`
	Nays  common.Balance  `json:"nays"`
}

func (ReferendumNotPassed) EventModule() common.Module { return common.ModuleDemocracy }
func (ReferendumNotPassed) EventName() string          { return "ReferendumNotPassed" }
