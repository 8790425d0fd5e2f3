// Package identity stores tenant personal info with registrar judgements.
package identity

import (
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/core/runtime"
)

type Judgement string

const (
	JudgementUnknown    Judgement = "unknown"
	JudgementReasonable Judgement = "reasonable"
)

type Info struct {
	Legal string `json:"legal"`
	Email string `json:"email"`
	Extra string `json:"extra,omitempty"`
}

type Registration struct {
	Info      Info      `json:"info"`
	Judgement Judgement `json:"judgement"`
}

type storage struct {
	registrations map[common.AccountID]Registration
}

func (s *storage) clone() *storage {
	registrations := make(map[common.AccountID]Registration, len(s.registrations))
	for k, v := range s.registrations {
		registrations[k] = v
	}
	return &storage{registrations: registrations}
}

type Pallet struct {
	system *runtime.Runtime
	s      *storage
}

func New(system *runtime.Runtime) *Pallet {
	return &Pallet{
		system: system,
		s:      &storage{registrations: make(map[common.AccountID]Registration)},
	}
}

func (p *Pallet) Module() common.Module { return common.ModuleIdentity }
func (p *Pallet) Snapshot() any         { return p.s.clone() }
func (p *Pallet) Restore(snap any)      { p.s = snap.(*storage) }

// SetIdentity registers or replaces an account's identity info.
func (p *Pallet) SetIdentity(who common.AccountID, info Info) {
	reg := p.s.registrations[who]
	reg.Info = info
	if reg.Judgement == "" {
		reg.Judgement = JudgementUnknown
	}
	p.s.registrations[who] = reg
}

// Judge records a registrar judgement.
func (p *Pallet) Judge(who common.AccountID, judgement Judgement) {
	reg := p.s.registrations[who]
	reg.Judgement = judgement
	p.s.registrations[who] = reg
}

// IdentityOf returns the registration, if any.
func (p *Pallet) IdentityOf(who common.AccountID) (Registration, bool) {
	reg, ok := p.s.registrations[who]
	return reg, ok
}
