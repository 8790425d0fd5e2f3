package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/common"
	"github.com/fair-squares/go-fairsquares/common/errs"
	"github.com/spf13/cobra"
)

type generateAccountCmdOptions struct {
	Seed string
	Path string
}

func NewGenerateAccountCommand() *cobra.Command {
	opts := &generateAccountCmdOptions{}

	cmd := &cobra.Command{
		Use:   "generate-account",
		Short: "Generate a new account id from a random seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateAccountHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Seed, "seed", "", `Derive the account from a given seed, E.g. "//Alice". Default is a random seed.`)
	flags.StringVar(&opts.Path, "path", "", "Path to save the seed file. The seed is only printed when empty.")

	return cmd
}

func generateAccountHandler(opts *generateAccountCmdOptions, _ *cobra.Command, _ []string) error {
	seed := opts.Seed
	if seed == "" {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return errors.Wrap(errs.SomethingWentWrong, "random bytes")
		}
		seed = "0x" + hex.EncodeToString(raw)
	}

	account := common.AccountFromSeed(seed)
	fmt.Printf("Account id: %s\n", account)

	if opts.Path == "" {
		fmt.Printf("Seed: %s\n", seed)
		return nil
	}

	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return errors.Wrap(errs.SomethingWentWrong, "create directory")
	}
	seedPath := path.Join(opts.Path, "seed.key")
	if _, err := os.Stat(seedPath); err == nil {
		fmt.Printf("Existing seed found at %s\n[WARNING] THE EXISTING SEED WILL BE LOST\nType [replace] to replace existing seed: ", seedPath)
		var ans string
		fmt.Scanln(&ans)
		if ans != "replace" {
			fmt.Printf("Account generation aborted\n")
			return nil
		}
	}
	if err := os.WriteFile(seedPath, []byte(seed), 0o600); err != nil {
		return errors.Wrap(err, "write seed file")
	}
	fmt.Printf("Seed saved at %s\n", seedPath)
	return nil
}
