// Package inventory builds the installed-application listing and triggers
// uninstall requests.
//
// Every call reads live platform state through the Providers and builds a new
// result. Nothing is cached or shared between calls, so a Service may be used
// from several goroutines at once. Providers that keep host resources for a
// listing implement Retainer.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/appsize/internal/icon"
)

// ErrInvalidArgs is returned when a required argument is missing.
var ErrInvalidArgs = errors.New("packageName is required")

// UninstallError reports that an uninstall request could not be handed to the
// platform.
type UninstallError struct {
	Package string
	Err     error
}

func (e *UninstallError) Error() string {
	return fmt.Sprintf("uninstall %s: %v", e.Package, e.Err)
}

func (e *UninstallError) Unwrap() error {
	return e.Err
}

// Service answers inventory queries.
type Service struct {
	p        Providers
	logger   *zap.Logger
	progress func(done, total int)
}

// New creates a Service. A nil logger disables logging.
func New(p Providers, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{p: p, logger: logger}
}

// OnProgress registers fn to be called after each enumerated package has
// been handled by ListInstalledApps. Set it before the Service is shared.
func (s *Service) OnProgress(fn func(done, total int)) {
	s.progress = fn
}

func (s *Service) reportProgress(done, total int) {
	if s.progress != nil {
		s.progress(done, total)
	}
}

// ListInstalledApps returns one record per visible installed application, in
// enumeration order.
//
// System packages are included only when they have a launcher entry. The
// install source, size and icon of each record are filled in best-effort: a
// failure there never drops the record or stops the listing. The call fails
// only when the packages cannot be enumerated at all or ctx is cancelled
// before the last record is built; no partial listing is returned.
func (s *Service) ListInstalledApps(ctx context.Context) ([]AppRecord, error) {
	if s.p.Packages == nil {
		return nil, errors.New("list installed packages: no package manager")
	}
	defer s.retain()()

	pkgs, err := s.p.Packages.InstalledPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list installed packages: %w", err)
	}

	records := make([]AppRecord, 0, len(pkgs))
	seen := make(map[string]struct{}, len(pkgs))
	for i, pkg := range pkgs {
		// Providers fall back silently once ctx is done.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("list installed packages: %w", err)
		}
		if s.visible(ctx, pkg, seen) {
			seen[pkg.Name] = struct{}{}
			records = append(records, s.record(ctx, pkg))
		}
		s.reportProgress(i+1, len(pkgs))
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list installed packages: %w", err)
	}

	s.logger.Debug("listed installed apps",
		zap.Int("enumerated", len(pkgs)),
		zap.Int("returned", len(records)))
	return records, nil
}

// retain holds every Retainer provider for one listing and returns the
// matching release.
func (s *Service) retain() func() {
	var held []Retainer
	for _, p := range []any{s.p.Packages, s.p.Installers, s.p.Stats, s.p.Files, s.p.Icons} {
		if r, ok := p.(Retainer); ok {
			r.Retain()
			held = append(held, r)
		}
	}
	return func() {
		for _, r := range held {
			if err := r.Release(); err != nil {
				s.logger.Warn("failed to release listing resources", zap.Error(err))
			}
		}
	}
}

func (s *Service) visible(ctx context.Context, pkg Package, seen map[string]struct{}) bool {
	if pkg.Name == "" {
		return false
	}
	if _, dup := seen[pkg.Name]; dup {
		return false
	}
	return !pkg.System || s.p.Packages.HasLaunchEntry(ctx, pkg.Name)
}

func (s *Service) record(ctx context.Context, pkg Package) AppRecord {
	return AppRecord{
		AppName:     pkg.DisplayName(),
		PackageName: pkg.Name,
		Source:      s.source(ctx, pkg.Name),
		TotalBytes:  s.totalBytes(ctx, pkg),
		IconBase64:  s.icon(ctx, pkg),
	}
}

func (s *Service) source(ctx context.Context, name string) Source {
	if s.p.Installers == nil {
		return Classify("")
	}
	installer, err := s.p.Installers.InstallerOf(ctx, name)
	if err != nil {
		s.logger.Debug("installer lookup failed", zap.String("package", name), zap.Error(err))
		installer = ""
	}
	return Classify(installer)
}

// totalBytes walks the size fallback chain: storage statistics, then the
// installed file, then zero. Each step runs at most once.
func (s *Service) totalBytes(ctx context.Context, pkg Package) int64 {
	if s.p.Stats != nil {
		stats, err := s.p.Stats.QueryStats(ctx, pkg.Name)
		if err == nil {
			return max(stats.Total(), 0)
		}
		s.logger.Debug("storage stats unavailable, using file size",
			zap.String("package", pkg.Name), zap.Error(err))
	}

	if s.p.Files == nil || pkg.SourceDir == "" {
		return 0
	}
	size, err := s.p.Files.FileSize(ctx, pkg.SourceDir)
	if err != nil {
		s.logger.Debug("file size unavailable",
			zap.String("package", pkg.Name), zap.String("path", pkg.SourceDir), zap.Error(err))
		return 0
	}
	return max(size, 0)
}

func (s *Service) icon(ctx context.Context, pkg Package) *string {
	if s.p.Icons == nil {
		return nil
	}
	d, err := s.p.Icons.Icon(ctx, pkg)
	if err != nil {
		s.logger.Debug("icon unavailable", zap.String("package", pkg.Name), zap.Error(err))
		return nil
	}
	encoded, err := icon.EncodeBase64(d)
	if err != nil {
		s.logger.Debug("icon rasterization failed", zap.String("package", pkg.Name), zap.Error(err))
		return nil
	}
	return &encoded
}

// RequestUninstall asks the platform to show its uninstall confirmation for
// name and returns as soon as the request has been handed over.
//
// A nil error means only that the request was accepted for handling. Whether
// the package is actually removed depends on the user's answer to the
// platform dialog, and that answer is never reported back.
func (s *Service) RequestUninstall(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidArgs
	}
	if s.p.Uninstaller == nil {
		return &UninstallError{Package: name, Err: errors.New("no uninstall dispatcher")}
	}
	if err := s.p.Uninstaller.DispatchUninstall(ctx, name); err != nil {
		return &UninstallError{Package: name, Err: err}
	}
	s.logger.Info("uninstall requested", zap.String("package", name))
	return nil
}
