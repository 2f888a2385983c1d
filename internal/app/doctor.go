package app

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/appsize/internal/adb"
	"github.com/blackwell-systems/appsize/internal/output"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose adb and device setup",
	Long: `Runs diagnostic checks on the adb setup and the connected device.

Checks:
  • adb binary can be found
  • Device is attached and authorized
  • Android SDK level and which size/source queries it supports
  • Installed packages can be enumerated
  • Optional aapt binary for app labels and icon hints`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	fmt.Fprintln(out, "Running appsize diagnostics...")
	fmt.Fprintln(out)

	criticalIssues := 0
	warningIssues := 0

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(out, "✗ Configuration error:", err)
		return fmt.Errorf("diagnostics failed")
	}

	// Check 1: adb binary
	if path, err := lookPath(cfg.Device.ADBPath); err != nil {
		fmt.Fprintf(out, "✗ adb not found (%s)\n", cfg.Device.ADBPath)
		fmt.Fprintln(out, "  Action: install Android platform-tools or set APPSIZE_ADB_PATH")
		criticalIssues++
	} else {
		fmt.Fprintln(out, "✓ adb found:", path)
	}

	client := newClient(cfg)

	// Check 2: device attached
	if criticalIssues == 0 {
		state, err := client.State(ctx)
		switch {
		case err != nil:
			fmt.Fprintln(out, "✗ No device reachable:", err)
			fmt.Fprintln(out, "  Action: connect the device, enable USB debugging and accept the prompt")
			criticalIssues++
		case state != "device":
			fmt.Fprintf(out, "✗ Device state is %q\n", state)
			fmt.Fprintln(out, "  Action: unlock the device and authorize this computer")
			criticalIssues++
		default:
			if cfg.Device.Serial != "" {
				fmt.Fprintln(out, "✓ Device attached:", cfg.Device.Serial)
			} else {
				fmt.Fprintln(out, "✓ Device attached")
			}
		}
	}

	// Check 3: SDK level and capabilities
	var caps adb.Capabilities
	if criticalIssues == 0 {
		caps, err = client.ProbeCapabilities(ctx)
		if err != nil {
			fmt.Fprintln(out, "✗ Cannot read SDK level:", err)
			criticalIssues++
		} else {
			fmt.Fprintf(out, "✓ Android SDK %d\n", caps.SDK)
			if caps.StorageStats() {
				fmt.Fprintln(out, "✓ Storage statistics available (code + data + cache)")
			} else {
				fmt.Fprintln(out, "⚠ Storage statistics unavailable; sizes are APK file sizes only")
				warningIssues++
			}
			if caps.InstallSourceInfo() {
				fmt.Fprintln(out, "✓ Install source info available")
			} else {
				fmt.Fprintln(out, "✓ Install source from legacy installer records")
			}
		}
	}

	// Check 4: package enumeration
	if criticalIssues == 0 {
		start := time.Now()
		spinner := output.NewSpinner("Enumerating packages")
		spinner.SetWriter(cmd.ErrOrStderr())
		spinner.Start()
		pkgs, err := client.ListPackages(ctx)
		elapsed := time.Since(start).Round(time.Millisecond)
		spinner.Stop()
		if err != nil {
			fmt.Fprintf(out, "✗ Package enumeration failed (%v): %v\n", elapsed, err)
			criticalIssues++
		} else {
			fmt.Fprintf(out, "✓ %d packages enumerated (%v)\n", len(pkgs), elapsed)
		}
	}

	// Check 5: aapt, warning only
	if cfg.Device.AaptPath == "" {
		fmt.Fprintln(out, "⚠ aapt not configured; app names fall back to package names")
		fmt.Fprintln(out, "  Action: set APPSIZE_AAPT_PATH to an Android build-tools aapt")
		warningIssues++
	} else if path, err := lookPath(cfg.Device.AaptPath); err != nil {
		fmt.Fprintf(out, "⚠ aapt not found (%s)\n", cfg.Device.AaptPath)
		warningIssues++
	} else {
		fmt.Fprintln(out, "✓ aapt found:", path)
	}

	fmt.Fprintln(out)
	if criticalIssues == 0 && warningIssues == 0 {
		fmt.Fprintln(out, "✓ All checks passed!")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Next steps:")
		fmt.Fprintln(out, "  • List apps: appsize list")
		fmt.Fprintln(out, "  • Serve a shell: appsize serve --stdio")
		return nil
	}

	if criticalIssues > 0 {
		fmt.Fprintf(out, "Found %d critical issue(s) and %d warning(s).\n", criticalIssues, warningIssues)
		return fmt.Errorf("diagnostics failed")
	}

	fmt.Fprintf(out, "Found %d warning(s). appsize works with reduced detail.\n", warningIssues)
	return nil
}
