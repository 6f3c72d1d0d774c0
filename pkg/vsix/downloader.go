// Package vsix downloads theme extension packages and extracts the
// theme files they contribute.
package vsix

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ekinertac/vscode-live-themes/pkg/jsonc"
	"github.com/ekinertac/vscode-live-themes/pkg/marketplace"
)

// Downloader fetches VSIX archives, extracts them under
// themesDir/<publisher.extension>/<version>, and reads the extension
// manifest to find the contributed theme files.
type Downloader struct {
	themesDir   string
	archivesDir string
	httpc       *http.Client
	log         *zap.Logger
}

func NewDownloader(themesDir, archivesDir string, httpc *http.Client, log *zap.Logger) (*Downloader, error) {
	if err := os.MkdirAll(themesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create themes dir: %w", err)
	}
	if err := os.MkdirAll(archivesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archives dir: %w", err)
	}
	if httpc == nil {
		httpc = &http.Client{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Downloader{
		themesDir:   themesDir,
		archivesDir: archivesDir,
		httpc:       httpc,
		log:         log,
	}, nil
}

func (d *Downloader) ThemesDir() string   { return d.themesDir }
func (d *Downloader) ArchivesDir() string { return d.archivesDir }

// Download fetches and extracts one theme's VSIX, returning the theme
// with ThemeFiles, ThemeDir and QuickPick filled in. When the latest
// version is already extracted and force is false, the download is
// skipped and only the metadata is refreshed.
func (d *Downloader) Download(ctx context.Context, theme marketplace.Theme, force bool) (marketplace.Theme, error) {
	id := theme.ID()
	version := theme.Extension.LatestVersion
	baseDir := filepath.Join(d.themesDir, id)

	if !force && d.hasVersion(baseDir, version) {
		d.log.Debug("already have latest version",
			zap.String("extension", id), zap.String("version", version))
		return d.decorate(theme, filepath.Join(baseDir, version)), nil
	}

	vsixPath := filepath.Join(d.archivesDir, fmt.Sprintf("%s.%s.vsix", id, version))
	if _, err := os.Stat(vsixPath); err != nil || force {
		if err := d.fetchArchive(ctx, theme.Extension.DownloadURL, vsixPath); err != nil {
			return theme, fmt.Errorf("download %s: %w", id, err)
		}
		d.log.Info("downloaded archive",
			zap.String("extension", id), zap.String("version", version))
	}

	themeDir := filepath.Join(baseDir, version)
	if err := extractZip(vsixPath, themeDir); err != nil {
		return theme, fmt.Errorf("extract %s: %w", vsixPath, err)
	}

	// The archive is only an intermediate; drop it once extracted.
	if err := os.Remove(vsixPath); err != nil {
		d.log.Warn("could not remove archive", zap.String("path", vsixPath), zap.Error(err))
	}

	return d.decorate(theme, themeDir), nil
}

func (d *Downloader) hasVersion(baseDir, version string) bool {
	info, err := os.Stat(filepath.Join(baseDir, version))
	return err == nil && info.IsDir()
}

func (d *Downloader) fetchArchive(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := d.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}

// decorate fills in the post-download metadata: contributed theme
// files, extraction directory and the picker row.
func (d *Downloader) decorate(theme marketplace.Theme, themeDir string) marketplace.Theme {
	files := d.themeFiles(themeDir)
	if len(files) == 0 {
		d.log.Warn("no theme files found", zap.String("extension", theme.ID()))
	}

	theme.ThemeFiles = files
	theme.ThemeDir = themeDir
	theme.QuickPick = &marketplace.QuickPick{
		Label:       theme.DisplayName,
		Description: theme.Publisher.DisplayName,
		Detail:      marketplace.QuickPickDetail(len(files), theme.Statistics),
	}
	return theme
}

// manifest is the slice of package.json this package cares about.
type manifest struct {
	Contributes struct {
		Themes []struct {
			Label   string `json:"label"`
			UITheme string `json:"uiTheme"`
			Path    string `json:"path"`
		} `json:"themes"`
	} `json:"contributes"`
}

// themeFiles reads extension/package.json and resolves every
// contributes.themes entry that exists on disk. Manifests in the wild
// carry comments, so they go through the jsonc scanner first.
func (d *Downloader) themeFiles(themeDir string) []marketplace.ThemeFile {
	manifestPath := filepath.Join(themeDir, "extension", "package.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		d.log.Warn("package.json not found", zap.String("path", manifestPath))
		return nil
	}

	var m manifest
	if err := jsonc.Unmarshal(data, &m); err != nil {
		d.log.Error("parse package.json", zap.String("path", manifestPath), zap.Error(err))
		return nil
	}

	var files []marketplace.ThemeFile
	for _, entry := range m.Contributes.Themes {
		rel := strings.TrimPrefix(entry.Path, "./")
		full := filepath.Join(themeDir, "extension", rel)
		if _, err := os.Stat(full); err != nil {
			d.log.Warn("theme file missing", zap.String("path", full))
			continue
		}

		name := entry.Label
		if name == "" {
			base := filepath.Base(rel)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}

		files = append(files, marketplace.ThemeFile{
			File:    full,
			Name:    name,
			UITheme: entry.UITheme,
		})
	}
	return files
}

// extractZip unpacks archive into dir, refusing entries that would
// escape it.
func extractZip(archive, dir string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		dest := filepath.Join(dir, f.Name)
		if !strings.HasPrefix(dest, filepath.Clean(dir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes extraction dir", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		w, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		if _, err := io.Copy(w, rc); err != nil {
			w.Close()
			rc.Close()
			return err
		}
		w.Close()
		rc.Close()
	}
	return nil
}
