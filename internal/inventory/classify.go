package inventory

// Installer package names with a fixed classification. Anything not listed
// here is SourceOther.
var installerSources = map[string]Source{
	"com.android.vending": SourcePlayStore,

	"com.oculus.ocms":        SourceMetaStore,
	"com.oculus.mobilestore": SourceMetaStore,
	"com.meta.mobilestore":   SourceMetaStore,

	"":                             SourceSideloaded,
	"com.android.shell":            SourceSideloaded,
	"com.android.packageinstaller": SourceSideloaded,
}

// Classify maps the installing package name to a Source. An empty installer
// means none was recorded.
func Classify(installer string) Source {
	if src, ok := installerSources[installer]; ok {
		return src
	}
	return SourceOther
}
