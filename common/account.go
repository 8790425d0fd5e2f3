package common

import (
	"encoding/hex"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/blake2b"
)

// AccountID is an opaque 32-byte account identifier. Key management lives
// outside the core; the runtime only ever compares and derives these.
type AccountID [32]byte

var ZeroAccount = AccountID{}

// AccountFromSeed derives an account id from a human-readable seed.
// Used for genesis accounts and tests ("//Alice" style dev accounts).
func AccountFromSeed(seed string) AccountID {
	return AccountID(blake2b.Sum256([]byte(seed)))
}

// DeriveSubAccount derives a key-less account owned by the runtime itself,
// e.g. the housing fund account or a house's virtual account. The derivation
// is deterministic so any component can re-derive it without a stored
// back-reference.
func DeriveSubAccount(prefix string, entropy ...byte) AccountID {
	data := make([]byte, 0, len(prefix)+len(entropy))
	data = append(data, prefix...)
	data = append(data, entropy...)
	return AccountID(blake2b.Sum256(data))
}

func AccountFromHex(s string) (AccountID, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return AccountID{}, errors.Wrap(err, "invalid account hex")
	}
	if len(raw) != 32 {
		return AccountID{}, errors.Errorf("invalid account length: %d", len(raw))
	}
	var a AccountID
	copy(a[:], raw)
	return a, nil
}

func (a AccountID) String() string {
	return hex.EncodeToString(a[:])
}

func (a AccountID) IsZero() bool {
	return a == ZeroAccount
}

func (a AccountID) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AccountID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.WithStack(err)
	}
	acct, err := AccountFromHex(s)
	if err != nil {
		return err
	}
	*a = acct
	return nil
}
