// Package output provides terminal output utilities for appsize.
//
// This package includes:
//   - Table rendering for installed apps and per-source summaries
//   - Progress bars and spinners for long-running device queries
//
// Tables use ANSI color codes only when stdout is a terminal and NO_COLOR is
// unset. Progress indicators are thread-safe.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/appsize/internal/inventory"
)

// ANSI color codes for install source display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// SortOrder selects how RenderAppTable orders rows.
type SortOrder string

const (
	SortBySize SortOrder = "size"
	SortByName SortOrder = "name"
	// SortNone keeps enumeration order.
	SortNone SortOrder = "none"
)

// ParseSortOrder validates a --sort flag value.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case SortBySize, "":
		return SortBySize, nil
	case SortByName:
		return SortByName, nil
	case SortNone:
		return SortNone, nil
	default:
		return "", fmt.Errorf("invalid sort order %q: must be size, name or none", s)
	}
}

// RenderAppTable renders installed apps with their size and install source.
func RenderAppTable(apps []inventory.AppRecord, order SortOrder) string {
	if len(apps) == 0 {
		return "No apps found.\n"
	}

	sorted := make([]inventory.AppRecord, len(apps))
	copy(sorted, apps)
	switch order {
	case SortByName:
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].AppName) < strings.ToLower(sorted[j].AppName)
		})
	case SortNone:
	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].TotalBytes > sorted[j].TotalBytes
		})
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-24s %-36s %-10s %s\n",
		"App", "Package", "Size", "Source"))
	sb.WriteString(strings.Repeat("─", 84))
	sb.WriteString("\n")

	for _, app := range sorted {
		sb.WriteString(fmt.Sprintf("%-24s %-36s %-10s %s\n",
			truncate(app.AppName, 24),
			truncate(app.PackageName, 36),
			formatSize(app.TotalBytes),
			colorize(sourceColor(app.Source), formatSource(app.Source))))
	}

	return sb.String()
}

// SourceStats holds aggregated totals for one install source.
type SourceStats struct {
	Count     int
	SizeBytes int64
}

// Summarize aggregates apps by install source.
func Summarize(apps []inventory.AppRecord) map[inventory.Source]SourceStats {
	out := make(map[inventory.Source]SourceStats)
	for _, app := range apps {
		s := out[app.Source]
		s.Count++
		s.SizeBytes += app.TotalBytes
		out[app.Source] = s
	}
	return out
}

// sourceOrder is the display order of the summary line.
var sourceOrder = []inventory.Source{
	inventory.SourcePlayStore,
	inventory.SourceMetaStore,
	inventory.SourceSideloaded,
	inventory.SourceOther,
}

// RenderSourceSummary renders a one-line breakdown by install source.
// Format: "Play Store: 5 apps (4.2 GiB) · Sideloaded: 2 apps (130 MiB) · Total: 7 apps (4.3 GiB)"
// Sources without apps are left out.
func RenderSourceSummary(apps []inventory.AppRecord) string {
	stats := Summarize(apps)

	var parts []string
	var total SourceStats
	for _, src := range sourceOrder {
		s, ok := stats[src]
		if !ok {
			continue
		}
		total.Count += s.Count
		total.SizeBytes += s.SizeBytes
		parts = append(parts, fmt.Sprintf("%s: %s (%s)",
			colorize(sourceColor(src), formatSource(src)),
			pluralApps(s.Count),
			formatSize(s.SizeBytes)))
	}
	parts = append(parts, fmt.Sprintf("Total: %s (%s)", pluralApps(total.Count), formatSize(total.SizeBytes)))

	return strings.Join(parts, " · ")
}

func pluralApps(n int) string {
	if n == 1 {
		return "1 app"
	}
	return fmt.Sprintf("%d apps", n)
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// formatSize converts bytes to a human-readable IEC size.
func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// formatSource returns the display name of an install source.
func formatSource(src inventory.Source) string {
	switch src {
	case inventory.SourcePlayStore:
		return "Play Store"
	case inventory.SourceMetaStore:
		return "Meta Store"
	case inventory.SourceSideloaded:
		return "Sideloaded"
	default:
		return "Other"
	}
}

// sourceColor returns the ANSI color code for an install source.
func sourceColor(src inventory.Source) string {
	switch src {
	case inventory.SourcePlayStore:
		return colorGreen
	case inventory.SourceMetaStore:
		return colorBlue
	case inventory.SourceSideloaded:
		return colorYellow
	default:
		return colorGray
	}
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
