package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/appsize/internal/output"
)

var (
	listJSON    bool
	listNoIcons bool
	listSort    string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed apps with their size and install source",
	Long: `Lists every user-installed app plus the system apps that have a launcher
entry, with display name, package name, install source and total size
(code, data and cache).

Sizes come from the device's storage statistics when it has them, and
from the size of the installed APK otherwise.

Examples:
  appsize list
  appsize list --sort name
  appsize list --json > apps.json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print records as a JSON array")
	listCmd.Flags().BoolVar(&listNoIcons, "no-icons", false, "skip icon extraction (faster)")
	listCmd.Flags().StringVar(&listSort, "sort", "size", "table order: size, name or none")
	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	order, err := output.ParseSortOrder(listSort)
	if err != nil {
		return err
	}

	// Icons are never shown in the table.
	withIcons := listJSON && !listNoIcons

	s, err := openSession(cmd.Context(), withIcons)
	if err != nil {
		return err
	}
	defer s.Close()

	// The bar is sized once enumeration has reported the package count.
	var progress *output.ProgressBar
	s.service.OnProgress(func(done, total int) {
		if progress == nil {
			progress = output.NewProgress(total, "Reading installed apps")
			progress.SetWriter(cmd.ErrOrStderr())
		}
		progress.SetCurrent(done)
	})
	apps, err := s.service.ListInstalledApps(cmd.Context())
	if err != nil {
		return err
	}
	if progress != nil {
		progress.Finish()
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(apps); err != nil {
			return fmt.Errorf("failed to encode apps: %w", err)
		}
		return nil
	}

	fmt.Fprint(out, output.RenderAppTable(apps, order))
	if len(apps) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, output.RenderSourceSummary(apps))
	}
	return nil
}
