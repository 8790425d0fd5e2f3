package cmd

import (
	"fmt"

	"github.com/fair-squares/go-fairsquares/core/constants"
	"github.com/spf13/cobra"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show fairsquares version",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println(constants.Version)
			return nil
		},
	}
}
