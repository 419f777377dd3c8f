package cli

import (
	"github.com/spf13/cobra"

	"tariff-compare/internal/app"
)

var (
	exportPNGPath   string
	exportCSVPath   string
	exportMaxOffers int
)

var exportCmd = &cobra.Command{
	Use:   "export <upload-id>",
	Short: "Export an upload's latest comparison as CSV and/or PNG chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			UploadID:  args[0],
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxOffers: exportMaxOffers,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxOffers, "max-offers", 0, "Maximum offers to export (defaults to config)")
}
