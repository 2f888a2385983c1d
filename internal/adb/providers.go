package adb

import (
	"github.com/blackwell-systems/appsize/internal/inventory"
)

// Providers wires the device into the inventory service. The capabilities
// decide which strategy serves each query: devices without storage
// statistics get no StatsQuerier, so sizes come from the APK file alone.
func (c *Client) Providers(caps Capabilities) inventory.Providers {
	p := inventory.Providers{
		Packages:    &PackageManager{c: c},
		Installers:  NewInstallerLookup(c, caps),
		Files:       &FileSizer{c: c},
		Icons:       &ApkIcons{c: c},
		Uninstaller: &Uninstaller{c: c},
	}
	if caps.StorageStats() {
		p.Stats = &DiskStats{c: c}
	}
	return p
}
