package chain

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
)

// genesisFile is the on-disk genesis layout. Accounts are given as
// human-readable seeds ("//Alice" style) so operators never handle raw ids.
type genesisFile struct {
	Endowed     map[string]common.Balance `json:"endowed"`
	Council     []string                  `json:"council"`
	Admin       string                    `json:"admin"`
	Roles       map[string]common.Role    `json:"roles"`
	FeesBalance common.Balance            `json:"fees_balance"`
}

// LoadGenesisFile reads a JSON genesis document.
func LoadGenesisFile(path string) (Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, errors.Wrap(err, "failed to read genesis file")
	}
	var file genesisFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Genesis{}, errors.Wrap(err, "failed to parse genesis file")
	}
	if file.Admin == "" {
		return Genesis{}, errors.New("genesis admin is required")
	}

	genesis := Genesis{
		Endowed:     make(map[common.AccountID]common.Balance, len(file.Endowed)),
		Roles:       make(map[common.AccountID]common.Role, len(file.Roles)),
		Admin:       common.AccountFromSeed(file.Admin),
		FeesBalance: file.FeesBalance,
	}
	for seed, amount := range file.Endowed {
		genesis.Endowed[common.AccountFromSeed(seed)] = amount
	}
	for _, seed := range file.Council {
		genesis.Council = append(genesis.Council, common.AccountFromSeed(seed))
	}
	for seed, role := range file.Roles {
		genesis.Roles[common.AccountFromSeed(seed)] = role
	}
	return genesis, nil
}

// DevGenesis is the built-in development genesis: well-known dev accounts
// with every platform role represented and a three-member council.
func DevGenesis() Genesis {
	var (
		alice   = common.AccountFromSeed("//Alice")
		bob     = common.AccountFromSeed("//Bob")
		charlie = common.AccountFromSeed("//Charlie")
		dave    = common.AccountFromSeed("//Dave")
		eve     = common.AccountFromSeed("//Eve")
		ferdie  = common.AccountFromSeed("//Ferdie")
	)
	const endowment = 1_000_000

	return Genesis{
		Endowed: map[common.AccountID]common.Balance{
			alice:   endowment,
			bob:     endowment,
			charlie: endowment,
			dave:    endowment,
			eve:     endowment,
			ferdie:  endowment,
		},
		Council: []common.AccountID{alice, bob, charlie},
		Admin:   alice,
		Roles: map[common.AccountID]common.Role{
			bob:     common.RoleSeller,
			charlie: common.RoleNotary,
			dave:    common.RoleInvestor,
			eve:     common.RoleInvestor,
			ferdie:  common.RoleTenant,
		},
		FeesBalance: endowment,
	}
}
