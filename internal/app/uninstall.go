package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <package>",
	Short: "Ask the device to uninstall an app",
	Long: `Opens the device's uninstall confirmation dialog for a package.

The command returns as soon as the dialog was requested. Whether the app is
removed depends on the answer given on the device, which appsize does not
see. Run 'appsize list' afterwards to check.`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	RootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	name := args[0]
	if err := s.service.RequestUninstall(cmd.Context(), name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Uninstall requested for %s\n", name)
	fmt.Fprintln(cmd.OutOrStdout(), "  Confirm on the device. The result is not reported back.")
	return nil
}
