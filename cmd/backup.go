package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"itledger/internal/backup"
	"itledger/internal/logger"
)

func newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export",
		Short: "Export every document as a CSV backup or a spreadsheet report",
		Long: `Export quotes, sales notes and tickets in a single file.

  csv   backup that can be restored with "itledger import"
  xls   HTML table that spreadsheet programs open as a workbook
  xlsx  native Excel workbook`,
		Example: `  itledger export
  itledger export --format xlsx -o reporte.xlsx`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}
	c.Flags().StringP("format", "f", "csv", "Output format: csv, xls or xlsx")
	c.Flags().StringP("output", "o", "", "Output file path (default: dated file name in the export directory)")
	return c
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Restore documents from a CSV backup as income tickets",
		Long: `Restore a CSV backup written by "itledger export". Every row becomes a new
income ticket with a fresh id, whatever its original type. Rows with fewer than
ten columns are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func init() {
	rootCmd.AddCommand(newExportCmd(), newImportCmd())
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")
	a := appFrom(cmd)

	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	var (
		write    func(io.Writer, []backup.Row) error
		fileName string
	)
	now := a.now()
	switch strings.ToLower(format) {
	case "csv":
		write, fileName = backup.WriteCSV, backup.CSVFileName(now)
	case "xls":
		write, fileName = backup.WriteXLS, backup.XLSFileName(now)
	case "xlsx":
		write, fileName = backup.WriteXLSX, backup.XLSXFileName(now)
	default:
		return fmt.Errorf("unknown export format %q: use csv, xls or xlsx", format)
	}
	if outputPath == "" {
		outputPath = filepath.Join(a.cfg.ExportDir, fileName)
	}

	rows := backup.Rows(a.ledger.All())

	err := writeFile(outputPath, func(w io.Writer) error { return write(w, rows) })
	if err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write export file")
		return fmt.Errorf("failed to write export file: %w", err)
	}

	log.Info().
		Str("format", format).
		Str("output_file", outputPath).
		Int("rows", len(rows)).
		Msg("Export written")

	fmt.Fprintf(cmd.OutOrStdout(), "%d documentos exportados a %s\n", len(rows), outputPath)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")
	a := appFrom(cmd)

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close backup file")
		}
	}()

	result, err := backup.ReadCSV(f, uuid.NewString)
	if err != nil {
		return err
	}
	if err := a.ledger.ImportTickets(cmd.Context(), result.Tickets); err != nil {
		return err
	}

	log.Info().
		Str("file", args[0]).
		Int("imported", len(result.Tickets)).
		Int("skipped", result.Skipped).
		Msg("Backup restored")

	fmt.Fprintf(cmd.OutOrStdout(), "Importacion exitosa: %d tickets", len(result.Tickets))
	if result.Skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d lineas omitidas)", result.Skipped)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
