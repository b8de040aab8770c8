package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"Invoicing/Controllers"
	"Invoicing/Exports"
	"Invoicing/Models"
	"Invoicing/logger"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export invoices to CSV or XLSX",
	Example: `  # All invoices as CSV
  invoicing export --out invoices.csv

  # Paid invoices issued in the first quarter as a workbook
  invoicing export --format xlsx --from 2024-01-01 --to 2024-03-31 --status paid --out q1.xlsx`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("format", "", "csv or xlsx (default: from the --out extension, else csv)")
	exportCmd.Flags().String("out", "invoices.csv", "Output file")
	exportCmd.Flags().String("from", "", "First issue date to include (YYYY-MM-DD)")
	exportCmd.Flags().String("to", "", "Last issue date to include (YYYY-MM-DD)")
	exportCmd.Flags().String("status", "", "Only invoices with this stored status")
}

func parseFlagDate(cmd *cobra.Command, name string) (time.Time, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(Models.DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date format. Use YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	out, _ := cmd.Flags().GetString("out")
	format, _ := cmd.Flags().GetString("format")
	status, _ := cmd.Flags().GetString("status")
	if format == "" {
		format = "csv"
		if strings.HasSuffix(strings.ToLower(out), ".xlsx") {
			format = "xlsx"
		}
	}
	if format != "csv" && format != "xlsx" {
		return fmt.Errorf("unsupported format %q, use csv or xlsx", format)
	}

	from, err := parseFlagDate(cmd, "from")
	if err != nil {
		return err
	}
	to, err := parseFlagDate(cmd, "to")
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	invoices, err := Controllers.FindInvoicesForExport(db, Controllers.ExportFilter{
		From: from, To: to, Status: Models.InvoiceStatus(status),
	})
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	defer f.Close()

	now := time.Now()
	if format == "xlsx" {
		buf, err := Exports.InvoicesXLSX(invoices, now)
		if err != nil {
			return err
		}
		_, err = buf.WriteTo(f)
		if err != nil {
			return err
		}
	} else if err := Exports.WriteInvoicesCSV(f, invoices, now); err != nil {
		return err
	}

	log.Info().Int("invoices", len(invoices)).Str("format", format).Str("out", out).Msg("export written")
	return nil
}
