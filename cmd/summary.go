package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"itledger/internal/ledger"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show income, expenses and taxes across all documents",
	Long: `Show the fiscal summary: income from accepted quotes, sales notes and
income tickets, expenses from expense tickets, the IVA charged and credited,
the ISR withheld by legal-entity clients and the number of open quotes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		printSummary(cmd.OutOrStdout(), a.ledger.Summarize())

		if n, _ := cmd.Flags().GetInt("recent"); n > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
			return printTable(cmd.OutOrStdout(), a.ledger.Recent(n))
		}
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent documents of every kind",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("limit")
		return printTable(cmd.OutOrStdout(), appFrom(cmd).ledger.Recent(n))
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd, recentCmd)

	summaryCmd.Flags().Int("recent", 6, "Also list this many recent documents (0 to hide)")
	recentCmd.Flags().IntP("limit", "n", 6, "Number of documents to list")
}

func printSummary(w io.Writer, s ledger.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Ingresos:\t%s\t\n", decimalMoney(s.Income))
	fmt.Fprintf(tw, "Egresos:\t%s\t\n", decimalMoney(s.Expense))
	fmt.Fprintf(tw, "Balance:\t%s\t\n", decimalMoney(s.Balance()))
	fmt.Fprintf(tw, "IVA trasladado:\t%s\t\n", decimalMoney(s.IVAPayable))
	fmt.Fprintf(tw, "IVA acreditable:\t%s\t\n", decimalMoney(s.IVACreditable))
	fmt.Fprintf(tw, "IVA por pagar:\t%s\t\n", decimalMoney(s.NetIVA()))
	fmt.Fprintf(tw, "ISR retenido:\t%s\t\n", decimalMoney(s.ISRWithheld))
	fmt.Fprintf(tw, "Cotizaciones abiertas:\t%d\t\n", s.PendingQuotes)
	_ = tw.Flush()
}

func decimalMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
