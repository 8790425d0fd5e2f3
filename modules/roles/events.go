package roles

import "github.com/fair-squares/go-fairsquares/common"

type RoleApplied struct {
	Account common.AccountID `json:"account"`
	Role    common.Role      `json:"role"`
}

func (RoleApplied) EventModule() common.Module { return common.ModuleRoles }
func (RoleApplied) EventName() string          { return "RoleApplied" }

type RoleAssigned struct {
	Account common.AccountID `json:"account"`
	Role    common.Role      `json:"role"`
}

func (RoleAssigned) EventModule() common.Module { return common.ModuleRoles }
func (RoleAssigned) EventName() string          { return "RoleAssigned" }

type RoleRejected struct {
	Account common.AccountID `json:"account"`
	Role    common.Role      `json:"role"`
}

func (RoleRejected) EventModule() common.Module { return common.ModuleRoles }
func (RoleRejected) EventName() string          { return "RoleRejected" }
