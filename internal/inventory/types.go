package inventory

// Source is the distribution channel that installed a package.
type Source string

const (
	SourcePlayStore  Source = "PLAY_STORE"
	SourceMetaStore  Source = "META_STORE"
	SourceSideloaded Source = "SIDELOADED"
	SourceOther      Source = "OTHER"
)

// AppRecord describes one installed application. Records are built fresh on
// every query and never stored.
type AppRecord struct {
	AppName     string `json:"appName"`
	PackageName string `json:"packageName"`
	Source      Source `json:"source"`
	TotalBytes  int64  `json:"totalBytes"`
	// IconBase64 is a 64x64 PNG, base64 encoded. Nil when the icon could not
	// be rendered; the field is then left out of the JSON entirely.
	IconBase64 *string `json:"iconBase64,omitempty"`
}

// Package is an installed package as reported by the device.
type Package struct {
	Name      string
	Label     string
	SourceDir string // path of the installed base APK
	System    bool
}

// DisplayName returns the label, or the package name when the device did not
// supply one.
func (p Package) DisplayName() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// StorageStats is the storage usage of one package as reported by the
// platform's usage statistics.
type StorageStats struct {
	AppBytes   int64
	DataBytes  int64
	CacheBytes int64
}

// Total returns app + data + cache bytes.
func (s StorageStats) Total() int64 {
	return s.AppBytes + s.DataBytes + s.CacheBytes
}
