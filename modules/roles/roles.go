// Package roles is the role registry: one role per account, with a pending
// approval queue for the roles that need an admin sign-off.
package roles

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/fair-squares/go-fairsquares/core/runtime"
	"github.com/fair-squares/go-fairsquares/core/types"
)

// Roles that an admin must approve before they take effect.
var approvalRequired = map[common.Role]bool{
	common.RoleSeller:         true,
	common.RoleServicer:       true,
	common.RoleNotary:         true,
	common.RoleRepresentative: true,
}

type Params struct {
	MaxMembers uint32
	MaxRoles   uint32
}

type storage struct {
	roles   map[common.AccountID]common.Role
	pending map[common.Role][]common.AccountID
	total   uint32
}

func (s *storage) clone() *storage {
	roles := make(map[common.AccountID]common.Role, len(s.roles))
	for k, v := range s.roles {
		roles[k] = v
	}
	pending := make(map[common.Role][]common.AccountID, len(s.pending))
	for k, v := range s.pending {
		pending[k] = append([]common.AccountID(nil), v...)
	}
	return &storage{roles: roles, pending: pending, total: s.total}
}

type Pallet struct {
	system *runtime.Runtime
	params Params
	admin  common.AccountID
	s      *storage
}

func New(system *runtime.Runtime, params Params, admin common.AccountID) *Pallet {
	p := &Pallet{
		system: system,
		params: params,
		admin:  admin,
		s: &storage{
			roles:   make(map[common.AccountID]common.Role),
			pending: make(map[common.Role][]common.AccountID),
		},
	}
	p.registerCalls()
	return p
}

func (p *Pallet) Module() common.Module { return common.ModuleRoles }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

type ApplyArgs struct {
	Role common.Role `json:"role"`
}

type ApprovalArgs struct {
	Account common.AccountID `json:"account"`
	Role    common.Role      `json:"role"`
}

func (p *Pallet) registerCalls() {
	p.system.RegisterCall(common.ModuleRoles, "apply",
		func() any { return new(ApplyArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*ApplyArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "roles.apply args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.Apply(who, a.Role)
		})
	p.system.RegisterCall(common.ModuleRoles, "approve",
		func() any { return new(ApprovalArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*ApprovalArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "roles.approve args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.Approve(who, a.Account, a.Role)
		})
	p.system.RegisterCall(common.ModuleRoles, "reject",
		func() any { return new(ApprovalArgs) },
		func(origin types.Origin, args any) error {
			a, ok := args.(*ApprovalArgs)
			if !ok {
				return errors.Wrap(errs.InvalidArgument, "roles.reject args")
			}
			who, err := types.EnsureSigned(origin)
			if err != nil {
				return err
			}
			return p.Reject(who, a.Account, a.Role)
		})
}

// Apply requests a role. Roles without an approval requirement are assigned
// immediately; the rest join the pending queue.
func (p *Pallet) Apply(who common.AccountID, role common.Role) error {
	if _, has := p.s.roles[who]; has {
		return errors.Wrapf(errs.OneRoleAllowed, "account %s already holds a role", who)
	}
	if p.s.total >= p.params.MaxMembers {
		return errors.Wrap(errs.TotalMembersExceeded, "member limit reached")
	}
	if !approvalRequired[role] {
		p.assign(who, role)
		p.system.Deposit(RoleAssigned{Account: who, Role: role})
		return nil
	}
	if lo.Contains(p.s.pending[role], who) {
		return errors.Wrapf(errs.AlreadyWaiting, "account %s already waiting for %s", who, role)
	}
	p.s.pending[role] = append(p.s.pending[role], who)
	p.system.Deposit(RoleApplied{Account: who, Role: role})
	return nil
}

// Approve grants a pending role application. Admin only.
func (p *Pallet) Approve(caller, who common.AccountID, role common.Role) error {
	if err := p.ensureAdmin(caller); err != nil {
		return err
	}
	if !lo.Contains(p.s.pending[role], who) {
		return errors.Wrapf(errs.NotFound, "no pending %s application for %s", role, who)
	}
	p.removePending(who, role)
	p.assign(who, role)
	p.system.Deposit(RoleAssigned{Account: who, Role: role})
	return nil
}

// Reject drops a pending role application. Admin only.
func (p *Pallet) Reject(caller, who common.AccountID, role common.Role) error {
	if err := p.ensureAdmin(caller); err != nil {
		return err
	}
	if !lo.Contains(p.s.pending[role], who) {
		return errors.Wrapf(errs.NotFound, "no pending %s application for %s", role, who)
	}
	p.removePending(who, role)
	p.system.Deposit(RoleRejected{Account: who, Role: role})
	return nil
}

// ForceAssign sets a role without the approval flow. Genesis and module
// internal use (e.g. representative election outcome).
func (p *Pallet) ForceAssign(who common.AccountID, role common.Role) {
	p.removePending(who, role)
	p.assign(who, role)
}

// Revoke removes an account's role.
func (p *Pallet) Revoke(who common.AccountID) {
	if _, has := p.s.roles[who]; has {
		delete(p.s.roles, who)
		p.s.total--
	}
}

func (p *Pallet) HasRole(who common.AccountID, role common.Role) bool {
	return p.s.roles[who] == role
}

func (p *Pallet) RoleOf(who common.AccountID) (common.Role, bool) {
	r, ok := p.s.roles[who]
	return r, ok
}

// Pending returns the approval queue for a role.
func (p *Pallet) Pending(role common.Role) []common.AccountID {
	return append([]common.AccountID(nil), p.s.pending[role]...)
}

func (p *Pallet) TotalMembers() uint32 {
	return p.s.total
}

// EnsureRole maps a missing role to the matching authorization error.
func (p *Pallet) EnsureRole(who common.AccountID, role common.Role) error {
	if p.HasRole(who, role) {
		return nil
	}
	kind := map[common.Role]errs.ErrorKind{
		common.RoleInvestor:       errs.NotAnInvestor,
		common.RoleSeller:         errs.NotASeller,
		common.RoleServicer:       errs.NotAServicer,
		common.RoleTenant:         errs.NotATenant,
		common.RoleNotary:         errs.NotANotary,
		common.RoleRepresentative: errs.NotARepresentative,
		common.RoleAdmin:          errs.NotAnAdmin,
	}[role]
	if kind == "" {
		kind = errs.BadOrigin
	}
	return errors.Wrapf(kind, "account %s", who)
}

func (p *Pallet) ensureAdmin(caller common.AccountID) error {
	if caller != p.admin && !p.HasRole(caller, common.RoleAdmin) {
		return errors.Wrapf(errs.NotAnAdmin, "account %s", caller)
	}
	return nil
}

func (p *Pallet) assign(who common.AccountID, role common.Role) {
	if _, has := p.s.roles[who]; !has {
		p.s.total++
	}
	p.s.roles[who] = role
}

func (p *Pallet) removePending(who common.AccountID, role common.Role) {
	p.s.pending[role] = lo.Filter(p.s.pending[role], func(a common.AccountID, _ int) bool {
		return a != who
	})
}
