package types

import (
	"encoding/json"

	"github.com/Cleverse/go-utilities/utils"

	"github.com/fair-squares/go-fairsquares/common"
)

// CallEncodingVersion is bumped whenever the call envelope layout changes,
// so stored compensating calls written by older code can still be decoded.
const CallEncodingVersion = 1

// Call is a dispatchable operation carried across blocks: stored rollback
// calls, council motions, democracy preimages and scheduled enactments are
// all Call values. Args is a pointer to the concrete per-method args struct
// registered in the runtime dispatch table; closures are never stored.
type Call struct {
	Module common.Module `json:"module"`
	Method string        `json:"method"`
	Args   any           `json:"args"`
}

func NewCall(module common.Module, method string, args any) Call {
	return Call{Module: module, Method: method, Args: args}
}

type callEnvelope struct {
	Version int           `json:"v"`
	Module  common.Module `json:"module"`
	Method  string        `json:"method"`
	Args    any           `json:"args"`
}

// Encode renders the versioned envelope. Args structs contain only plain
// data, so encoding cannot fail.
func (c Call) Encode() []byte {
	return utils.Must(json.Marshal(callEnvelope{
		Version: CallEncodingVersion,
		Module:  c.Module,
		Method:  c.Method,
		Args:    c.Args,
	}))
}

// Hash is the canonical content hash of the call, used as proposal and
// preimage identity.
func (c Call) Hash() common.Hash {
	return common.NewHash(c.Encode())
}

func (c Call) String() string {
	return c.Module.String() + "." + c.Method
}
