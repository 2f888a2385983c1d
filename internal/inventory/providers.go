package inventory

import (
	"context"

	"github.com/blackwell-systems/appsize/internal/icon"
)

// PackageManager enumerates installed packages.
type PackageManager interface {
	// InstalledPackages lists every package visible to the current user, in
	// the platform's own order.
	InstalledPackages(ctx context.Context) ([]Package, error)
	// HasLaunchEntry reports whether the package exposes a launcher entry
	// point. Lookup failures count as false.
	HasLaunchEntry(ctx context.Context, name string) bool
}

// InstallerLookup resolves the package that installed name. An empty result
// means no installer was recorded.
type InstallerLookup interface {
	InstallerOf(ctx context.Context, name string) (string, error)
}

// StatsQuerier queries the platform's storage statistics for a package. It
// commonly fails when usage access has not been granted.
type StatsQuerier interface {
	QueryStats(ctx context.Context, name string) (StorageStats, error)
}

// FileSizer returns the size of a file on the device.
type FileSizer interface {
	FileSize(ctx context.Context, path string) (int64, error)
}

// IconSource loads the launcher icon of a package.
type IconSource interface {
	Icon(ctx context.Context, pkg Package) (icon.Drawable, error)
}

// UninstallDispatcher hands an uninstall request to the platform's own
// confirmation flow. It returns once the request has been handed over and
// never waits for the user's answer.
type UninstallDispatcher interface {
	DispatchUninstall(ctx context.Context, name string) error
}

// Retainer is implemented by providers that keep host resources while a
// listing runs. The Service calls Retain before enumerating and Release when
// the listing returns; resources go away with the last Release.
type Retainer interface {
	Retain()
	Release() error
}

// Providers bundles the platform hooks the Service reads from.
//
// Stats may be nil when the platform cannot report storage statistics; sizes
// then come straight from the installed file. Installers, Files and Icons may
// be nil as well, in which case the matching field takes its fallback value.
type Providers struct {
	Packages    PackageManager
	Installers  InstallerLookup
	Stats       StatsQuerier
	Files       FileSizer
	Icons       IconSource
	Uninstaller UninstallDispatcher
}
