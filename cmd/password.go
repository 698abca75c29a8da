package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the access password",
}

var passwordSetCmd = &cobra.Command{
	Use:   "set [new-password]",
	Short: "Change the access password",
	Long: `Change the access password. The current one must be given with --password,
ITLEDGER_PASSWORD or at the prompt. The new one is read from the argument or
asked for when omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)

		var pass string
		if len(args) == 1 {
			pass = args[0]
		} else {
			var err error
			if pass, err = a.promptSecret(cmd, "Nueva clave: "); err != nil {
				return err
			}
			again, err := a.promptSecret(cmd, "Repita la nueva clave: ")
			if err != nil {
				return err
			}
			if again != pass {
				return fmt.Errorf("las claves no coinciden")
			}
		}

		if err := a.ledger.ChangePassword(cmd.Context(), pass); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Clave actualizada.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(passwordCmd)
	passwordCmd.AddCommand(passwordSetCmd)
}
