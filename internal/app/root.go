package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	serialFlag   string
	adbFlag      string
	logLevelFlag string

	// RootCmd is the root command for appsize
	RootCmd = &cobra.Command{
		Use:   "appsize",
		Short: "List installed Android apps by size and uninstall them",
		Long: `appsize reads the apps installed on an Android device over adb and reports
each one's display name, install source and storage footprint.

Install sources:
  • PLAY_STORE  installed by Google Play
  • META_STORE  installed by the Meta/Oculus store
  • SIDELOADED  installed from a file or by adb
  • OTHER       any other installer

Uninstalling only asks the device to show its confirmation dialog; the
answer is given on the device and is never reported back.

Examples:
  # List apps, largest first
  appsize list

  # Machine-readable listing without icons
  appsize list --json --no-icons

  # Ask the device to uninstall an app
  appsize uninstall com.example.game

  # Serve the method channel to an application shell
  appsize serve --stdio

  # Check adb and device setup
  appsize doctor`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "appsize: installed app sizes over adb")
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'appsize doctor' to check your device connection.")
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'appsize --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags override the APPSIZE_* environment.
	RootCmd.PersistentFlags().StringVarP(&serialFlag, "serial", "s", "", "device serial (default: $APPSIZE_SERIAL or the only attached device)")
	RootCmd.PersistentFlags().StringVar(&adbFlag, "adb", "", "adb binary (default: $APPSIZE_ADB_PATH or adb)")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error (default: $APPSIZE_LOG_LEVEL or info)")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command. Cancelling ctx stops long-running commands
// such as serve.
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}
