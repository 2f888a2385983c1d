package inventory

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/appsize/internal/icon"
)

type fakePackages struct {
	pkgs       []Package
	err        error
	launchable map[string]bool
}

func (f *fakePackages) InstalledPackages(context.Context) ([]Package, error) {
	return f.pkgs, f.err
}

func (f *fakePackages) HasLaunchEntry(_ context.Context, name string) bool {
	return f.launchable[name]
}

type fakeInstallers struct {
	installers map[string]string
	failing    map[string]bool
}

func (f *fakeInstallers) InstallerOf(_ context.Context, name string) (string, error) {
	if f.failing[name] {
		return "", errors.New("NameNotFoundException")
	}
	return f.installers[name], nil
}

type fakeStats struct {
	stats map[string]StorageStats
	err   error
	calls map[string]int
}

func (f *fakeStats) QueryStats(_ context.Context, name string) (StorageStats, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	if f.err != nil {
		return StorageStats{}, f.err
	}
	st, ok := f.stats[name]
	if !ok {
		return StorageStats{}, errors.New("no stats")
	}
	return st, nil
}

type fakeFiles struct {
	sizes map[string]int64
	calls map[string]int
}

func (f *fakeFiles) FileSize(_ context.Context, path string) (int64, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[path]++
	n, ok := f.sizes[path]
	if !ok {
		return 0, errors.New("no such file")
	}
	return n, nil
}

type fakeIcons struct {
	icons map[string]icon.Drawable
}

func (f *fakeIcons) Icon(_ context.Context, pkg Package) (icon.Drawable, error) {
	d, ok := f.icons[pkg.Name]
	if !ok {
		return nil, errors.New("icon not found")
	}
	return d, nil
}

type fakeDispatcher struct {
	err   error
	calls []string
}

func (f *fakeDispatcher) DispatchUninstall(_ context.Context, name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func redIcon(w, h int) *icon.BitmapDrawable {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 255, A: 255}), image.Point{}, draw.Src)
	return &icon.BitmapDrawable{Bitmap: img}
}

func names(records []AppRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.PackageName
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		installer string
		want      Source
	}{
		{"com.android.vending", SourcePlayStore},
		{"com.oculus.mobilestore", SourceMetaStore},
		{"com.oculus.ocms", SourceMetaStore},
		{"com.meta.mobilestore", SourceMetaStore},
		{"", SourceSideloaded},
		{"com.android.packageinstaller", SourceSideloaded},
		{"com.android.shell", SourceSideloaded},
		{"com.example.randomstore", SourceOther},
		{"com.amazon.venezia", SourceOther},
		{"COM.ANDROID.VENDING", SourceOther},
	}

	for _, tt := range tests {
		t.Run(tt.installer, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.installer))
		})
	}
}

func TestListInstalledApps_SystemFiltering(t *testing.T) {
	pm := &fakePackages{
		pkgs: []Package{
			{Name: "com.android.settings", Label: "Settings", System: true},
			{Name: "com.android.providers.media", System: true},
			{Name: "com.example.game", Label: "Game"},
			{Name: "com.example.tool", Label: "Tool"},
		},
		launchable: map[string]bool{"com.android.settings": true},
	}

	records, err := New(Providers{Packages: pm}, nil).ListInstalledApps(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"com.android.settings", "com.example.game", "com.example.tool"}, names(records))
}

func TestListInstalledApps_UniqueAndNonEmptyNames(t *testing.T) {
	pm := &fakePackages{pkgs: []Package{
		{Name: "com.example.a"},
		{Name: ""},
		{Name: "com.example.b"},
		{Name: "com.example.a"},
	}}

	records, err := New(Providers{Packages: pm}, nil).ListInstalledApps(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"com.example.a", "com.example.b"}, names(records))
	for _, r := range records {
		assert.NotEmpty(t, r.PackageName)
		assert.Equal(t, r.PackageName, r.AppName, "label falls back to package name")
	}
}

func TestListInstalledApps_Progress(t *testing.T) {
	pm := &fakePackages{pkgs: []Package{
		{Name: "com.example.a"},
		{Name: "com.android.hidden", System: true},
		{Name: "com.example.a"},
	}}
	svc := New(Providers{Packages: pm}, nil)

	var calls [][2]int
	svc.OnProgress(func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})

	records, err := svc.ListInstalledApps(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls, "skipped packages still advance progress")
}

func TestListInstalledApps_Cancelled(t *testing.T) {
	pm := &fakePackages{
		pkgs: []Package{
			{Name: "com.example.a"},
			{Name: "com.android.settings", System: true},
			{Name: "com.example.b"},
		},
		launchable: map[string]bool{"com.android.settings": true},
	}

	t.Run("during listing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		svc := New(Providers{Packages: pm}, nil)
		var last int
		svc.OnProgress(func(done, total int) {
			last = done
			if done == 1 {
				cancel()
			}
		})

		records, err := svc.ListInstalledApps(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorContains(t, err, "list installed packages")
		assert.Nil(t, records, "no partial listing")
		assert.Equal(t, 1, last)
	})

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		records, err := New(Providers{Packages: pm}, nil).ListInstalledApps(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, records)
	})

	t.Run("after the last package", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		svc := New(Providers{Packages: pm}, nil)
		svc.OnProgress(func(done, total int) {
			if done == total {
				cancel()
			}
		})

		records, err := svc.ListInstalledApps(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, records)
	})
}

// retainingIcons counts the listing holds taken on it.
type retainingIcons struct {
	fakeIcons
	retained, released int
}

func (r *retainingIcons) Retain() { r.retained++ }

func (r *retainingIcons) Release() error {
	r.released++
	return errors.New("temp dir busy")
}

func TestListInstalledApps_ReleasesListingResources(t *testing.T) {
	icons := &retainingIcons{}

	_, err := New(Providers{Packages: &fakePackages{pkgs: []Package{{Name: "com.example.a"}}}, Icons: icons}, nil).
		ListInstalledApps(context.Background())
	require.NoError(t, err, "release failures are only logged")
	assert.Equal(t, 1, icons.retained)
	assert.Equal(t, 1, icons.released)

	_, err = New(Providers{Packages: &fakePackages{err: errors.New("offline")}, Icons: icons}, nil).
		ListInstalledApps(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, icons.retained)
	assert.Equal(t, 2, icons.released, "released on failure too")
}

func TestListInstalledApps_EnumerationFailure(t *testing.T) {
	pm := &fakePackages{err: errors.New("package service died")}

	records, err := New(Providers{Packages: pm}, nil).ListInstalledApps(context.Background())
	require.Error(t, err)
	assert.Nil(t, records)
	assert.ErrorContains(t, err, "package service died")
}

func TestListInstalledApps_Source(t *testing.T) {
	pm := &fakePackages{pkgs: []Package{
		{Name: "a.play"}, {Name: "b.meta"}, {Name: "c.side"}, {Name: "d.other"}, {Name: "e.broken"},
	}}
	inst := &fakeInstallers{
		installers: map[string]string{
			"a.play":  "com.android.vending",
			"b.meta":  "com.oculus.mobilestore",
			"d.other": "com.example.randomstore",
		},
		failing: map[string]bool{"e.broken": true},
	}

	records, err := New(Providers{Packages: pm, Installers: inst}, nil).ListInstalledApps(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 5)

	want := []Source{SourcePlayStore, SourceMetaStore, SourceSideloaded, SourceOther, SourceSideloaded}
	for i, r := range records {
		assert.Equal(t, want[i], r.Source, r.PackageName)
	}
}

func TestListInstalledApps_SizeFallbackChain(t *testing.T) {
	pkgs := []Package{
		{Name: "stats.ok", SourceDir: "/data/app/stats.ok/base.apk"},
		{Name: "stats.fail", SourceDir: "/data/app/stats.fail/base.apk"},
		{Name: "both.fail", SourceDir: "/data/app/both.fail/base.apk"},
		{Name: "no.dir"},
	}
	stats := &fakeStats{stats: map[string]StorageStats{
		"stats.ok": {AppBytes: 100, DataBytes: 20, CacheBytes: 3},
	}}
	files := &fakeFiles{sizes: map[string]int64{
		"/data/app/stats.ok/base.apk":   999,
		"/data/app/stats.fail/base.apk": 4096,
	}}

	svc := New(Providers{Packages: &fakePackages{pkgs: pkgs}, Stats: stats, Files: files}, nil)
	records, err := svc.ListInstalledApps(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, int64(123), records[0].TotalBytes, "stats tier")
	assert.Equal(t, int64(4096), records[1].TotalBytes, "file tier")
	assert.Equal(t, int64(0), records[2].TotalBytes, "both tiers failed")
	assert.Equal(t, int64(0), records[3].TotalBytes, "no installed file")

	for name, n := range stats.calls {
		assert.Equal(t, 1, n, "stats queried once for %s", name)
	}
	for path, n := range files.calls {
		assert.Equal(t, 1, n, "file sized once for %s", path)
	}
	assert.Zero(t, files.calls["/data/app/stats.ok/base.apk"], "file tier skipped when stats succeed")
}

func TestListInstalledApps_NoStatsCapability(t *testing.T) {
	pkgs := []Package{{Name: "old.device", SourceDir: "/data/app/old/base.apk"}}
	files := &fakeFiles{sizes: map[string]int64{"/data/app/old/base.apk": 777}}

	records, err := New(Providers{Packages: &fakePackages{pkgs: pkgs}, Files: files}, nil).
		ListInstalledApps(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(777), records[0].TotalBytes)
}

func TestListInstalledApps_NegativeSizesClamped(t *testing.T) {
	pkgs := []Package{
		{Name: "neg.stats"},
		{Name: "neg.file", SourceDir: "/x.apk"},
	}
	stats := &fakeStats{stats: map[string]StorageStats{"neg.stats": {AppBytes: -50}}}
	files := &fakeFiles{sizes: map[string]int64{"/x.apk": -1}}

	records, err := New(Providers{Packages: &fakePackages{pkgs: pkgs}, Stats: stats, Files: files}, nil).
		ListInstalledApps(context.Background())
	require.NoError(t, err)
	for _, r := range records {
		assert.GreaterOrEqual(t, r.TotalBytes, int64(0), r.PackageName)
	}
}

func TestListInstalledApps_Icons(t *testing.T) {
	pkgs := []Package{{Name: "with.icon"}, {Name: "without.icon"}, {Name: "broken.icon"}}
	icons := &fakeIcons{icons: map[string]icon.Drawable{
		"with.icon":   redIcon(192, 192),
		"broken.icon": &icon.BitmapDrawable{},
	}}

	records, err := New(Providers{Packages: &fakePackages{pkgs: pkgs}, Icons: icons}, nil).
		ListInstalledApps(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.NotNil(t, records[0].IconBase64)
	data, err := base64.StdEncoding.DecodeString(*records[0].IconBase64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

	assert.Nil(t, records[1].IconBase64)
	assert.Nil(t, records[2].IconBase64)
}

func TestAppRecord_JSON(t *testing.T) {
	encoded := "aWNvbg=="
	records := []AppRecord{
		{AppName: "Game", PackageName: "com.example.game", Source: SourcePlayStore, TotalBytes: 42, IconBase64: &encoded},
		{AppName: "Tool", PackageName: "com.example.tool", Source: SourceSideloaded},
	}

	data, err := json.Marshal(records)
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"appName":"Game","packageName":"com.example.game","source":"PLAY_STORE","totalBytes":42,"iconBase64":"aWNvbg=="},
		{"appName":"Tool","packageName":"com.example.tool","source":"SIDELOADED","totalBytes":0}
	]`, string(data))

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	_, present := raw[1]["iconBase64"]
	assert.False(t, present, "missing icon is omitted, not null")
}

func TestRequestUninstall(t *testing.T) {
	t.Run("empty name is rejected before dispatch", func(t *testing.T) {
		d := &fakeDispatcher{}
		svc := New(Providers{Uninstaller: d}, nil)

		for _, name := range []string{"", "   "} {
			err := svc.RequestUninstall(context.Background(), name)
			assert.ErrorIs(t, err, ErrInvalidArgs)
		}
		assert.Empty(t, d.calls)
	})

	t.Run("successful dispatch", func(t *testing.T) {
		d := &fakeDispatcher{}
		svc := New(Providers{Uninstaller: d}, nil)

		require.NoError(t, svc.RequestUninstall(context.Background(), "com.valid.pkg"))
		assert.Equal(t, []string{"com.valid.pkg"}, d.calls)
	})

	t.Run("dispatch failure", func(t *testing.T) {
		cause := errors.New("activity not found")
		svc := New(Providers{Uninstaller: &fakeDispatcher{err: cause}}, nil)

		err := svc.RequestUninstall(context.Background(), "com.valid.pkg")
		var uerr *UninstallError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "com.valid.pkg", uerr.Package)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrInvalidArgs)
	})
}
