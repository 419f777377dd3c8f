package cli

import (
	"github.com/spf13/cobra"
)

var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "Manage the offer catalog",
}

var offersImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Validate and load a catalog file into the offer store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ImportOffers(cmd.Context(), args[0])
	},
}

func init() {
	offersCmd.AddCommand(offersImportCmd)
}
