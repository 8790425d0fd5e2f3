package types

import (
	"github.com/cockroachdb/errors"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
)

type OriginKind uint8

const (
	OriginRoot OriginKind = iota
	OriginSigned
	OriginCouncil
)

func (k OriginKind) String() string {
	switch k {
	case OriginRoot:
		return "root"
	case OriginSigned:
		return "signed"
	case OriginCouncil:
		return "council"
	default:
		return "unknown"
	}
}

// Origin is the capability token proving who dispatched a call: the root
// runtime itself, a signed account, or the house council collective.
type Origin struct {
	Kind   OriginKind
	Signer common.AccountID
}

func Root() Origin {
	return Origin{Kind: OriginRoot}
}

func Signed(who common.AccountID) Origin {
	return Origin{Kind: OriginSigned, Signer: who}
}

func Council() Origin {
	return Origin{Kind: OriginCouncil}
}

// EnsureSigned returns the signer account or errs.BadOrigin.
func EnsureSigned(o Origin) (common.AccountID, error) {
	if o.Kind != OriginSigned {
		return common.AccountID{}, errors.Wrap(errs.BadOrigin, "signed origin required")
	}
	return o.Signer, nil
}

// EnsureRoot checks for the root origin.
func EnsureRoot(o Origin) error {
	if o.Kind != OriginRoot {
		return errors.Wrap(errs.BadOrigin, "root origin required")
	}
	return nil
}

// EnsureCouncil checks for the council collective origin.
func EnsureCouncil(o Origin) error {
	if o.Kind != OriginCouncil {
		return errors.Wrap(errs.BadOrigin, "council origin required")
	}
	return nil
}
