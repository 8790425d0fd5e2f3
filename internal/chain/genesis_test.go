package chain_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/internal/chain"
)

func writeGenesis(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadGenesisFile(t *testing.T) {
	path := writeGenesis(t, `{
		"endowed": {"//Alice": 1000000, "//Bob": 500000},
		"council": ["//Alice"],
		"admin": "//Alice",
		"roles": {"//Bob": "seller"},
		"fees_balance": 250000
	}`)

	genesis, err := chain.LoadGenesisFile(path)
	require.NoError(t, err)

	assert.Equal(t, alice, genesis.Admin)
	assert.Equal(t, []common.AccountID{alice}, genesis.Council)
	assert.Equal(t, common.Balance(1_000_000), genesis.Endowed[alice])
	assert.Equal(t, common.Balance(500_000), genesis.Endowed[bob])
	assert.Equal(t, common.RoleSeller, genesis.Roles[bob])
	assert.Equal(t, common.Balance(250_000), genesis.FeesBalance)
}

func TestLoadGenesisFileRequiresAdmin(t *testing.T) {
	path := writeGenesis(t, `{"endowed": {}, "council": [], "roles": {}}`)
	_, err := chain.LoadGenesisFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin")
}

func TestLoadGenesisFileMissing(t *testing.T) {
	_, err := chain.LoadGenesisFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestDevGenesis(t *testing.T) {
	genesis := chain.DevGenesis()

	assert.Len(t, genesis.Council, 3)
	assert.Equal(t, alice, genesis.Admin)
	assert.Equal(t, common.RoleSeller, genesis.Roles[bob])
	assert.Equal(t, common.RoleInvestor, genesis.Roles[dave])
	for _, amount := range genesis.Endowed {
		assert.Equal(t, common.Balance(1_000_000), amount)
	}

	// A chain boots from it without error and can produce blocks.
	c := chain.New(chain.DefaultParams(), genesis)
	c.RunToBlock(5)
	assert.Equal(t, common.BlockNumber(5), c.CurrentBlock())
}
