package common

import (
	"encoding/hex"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/blake2b"
)

// Hash is a 32-byte blake2b digest.
type Hash [32]byte

var ZeroHash = Hash{}

func NewHash(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

func HashFromHex(s string) (Hash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, errors.Wrap(err, "invalid hash hex")
	}
	if len(raw) != 32 {
		return Hash{}, errors.Errorf("invalid hash length: %d", len(raw))
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.WithStack(err)
	}
	hash, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = hash
	return nil
}
