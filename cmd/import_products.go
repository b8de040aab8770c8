package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Invoicing/Controllers"
	"Invoicing/Exports"
	"Invoicing/Models"
	"Invoicing/logger"
)

var importProductsCmd = &cobra.Command{
	Use:   "import-products <workbook.xlsx>",
	Short: "Import products from an xlsx workbook",
	Long: fmt.Sprintf(`Import products from the first sheet of an xlsx workbook. The header row
must name the columns %v; Description, Category and Tax Rate may be empty.
Either every row is imported or none is.`, Exports.ProductColumns),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("import")

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)
		if err := Models.Migrate(db); err != nil {
			return err
		}

		products, err := Controllers.ImportProductsFrom(db, f, 0)
		if err != nil {
			return err
		}
		log.Info().Int("count", len(products)).Str("file", args[0]).Msg("products imported")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importProductsCmd)
}
