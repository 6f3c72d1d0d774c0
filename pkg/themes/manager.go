// Package themes coordinates fetching, storing and downloading theme
// metadata for one sort order.
package themes

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/ekinertac/vscode-live-themes/pkg/jsonc"
	"github.com/ekinertac/vscode-live-themes/pkg/marketplace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fetcher lists themes from a marketplace.
type Fetcher interface {
	Fetch(ctx context.Context) ([]marketplace.Theme, error)
	FetchSingle(ctx context.Context, publisherName, extensionName string) (marketplace.Theme, error)
}

// Storage persists theme lists.
type Storage interface {
	Save(themes []marketplace.Theme, sort marketplace.SortOption) error
	Load(sort marketplace.SortOption) ([]marketplace.Theme, error)
	SaveSingles(themes []marketplace.Theme) error
	LoadSingles() ([]marketplace.Theme, error)
	BasePath() string
}

// Downloader fetches and extracts individual theme packages.
type Downloader interface {
	Download(ctx context.Context, theme marketplace.Theme, force bool) (marketplace.Theme, error)
	ThemesDir() string
	ArchivesDir() string
}

// Manager ties a fetcher, storage and downloader together for one sort
// order.
type Manager struct {
	fetcher    Fetcher
	storage    Storage
	downloader Downloader
	sort       marketplace.SortOption
	log        *zap.Logger
}

func NewManager(fetcher Fetcher, storage Storage, downloader Downloader, sortOpt marketplace.SortOption, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		fetcher:    fetcher,
		storage:    storage,
		downloader: downloader,
		sort:       sortOpt,
		log:        log,
	}
}

// Sort returns the sort order this manager handles.
func (m *Manager) Sort() marketplace.SortOption {
	return m.sort
}

// FetchAndSave pulls the theme list from the marketplace and stores it.
func (m *Manager) FetchAndSave(ctx context.Context) error {
	themes, err := m.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch themes (%s): %w", m.sort.Name(), err)
	}
	return m.storage.Save(themes, m.sort)
}

// Themes returns the stored theme list for this sort order.
func (m *Manager) Themes() ([]marketplace.Theme, error) {
	return m.storage.Load(m.sort)
}

// DownloadAll downloads every stored theme and saves the decorated
// list back. A failed theme is logged and skipped, not fatal.
func (m *Manager) DownloadAll(ctx context.Context) error {
	themes, err := m.Themes()
	if err != nil {
		return err
	}

	var updated []marketplace.Theme
	for _, theme := range themes {
		t, err := m.downloader.Download(ctx, theme, false)
		if err != nil {
			m.log.Error("download failed",
				zap.String("extension", theme.ID()), zap.Error(err))
			continue
		}
		updated = append(updated, t)
	}

	if len(updated) == 0 {
		m.log.Warn("no themes were successfully downloaded", zap.String("sort", m.sort.Name()))
		return nil
	}

	if err := m.storage.Save(updated, m.sort); err != nil {
		return err
	}
	m.log.Info("themes downloaded", zap.Int("count", len(updated)))
	return nil
}

// DownloadSingle fetches one extension by publisher and name, downloads
// it, and records it in the singles list.
func (m *Manager) DownloadSingle(ctx context.Context, publisherName, extensionName string) error {
	theme, err := m.fetcher.FetchSingle(ctx, publisherName, extensionName)
	if err != nil {
		return fmt.Errorf("fetch %s.%s: %w", publisherName, extensionName, err)
	}
	theme, err = m.downloader.Download(ctx, theme, false)
	if err != nil {
		return fmt.Errorf("download %s.%s: %w", publisherName, extensionName, err)
	}

	singles, err := m.storage.LoadSingles()
	if err != nil {
		return err
	}
	replaced := false
	for i, t := range singles {
		if t.Extension.ExtensionName == theme.Extension.ExtensionName {
			singles[i] = theme
			replaced = true
			break
		}
	}
	if !replaced {
		singles = append(singles, theme)
	}
	return m.storage.SaveSingles(singles)
}

// IntegrityReport lists the problems CheckIntegrity found.
type IntegrityReport struct {
	MissingFiles   []string
	CorruptedFiles []string
}

// OK reports whether the check found no problems.
func (r IntegrityReport) OK() bool {
	return len(r.MissingFiles) == 0 && len(r.CorruptedFiles) == 0
}

// CheckIntegrity verifies that every stored theme's directory and files
// exist and still parse as (comment-tolerant) JSON.
func (m *Manager) CheckIntegrity() (IntegrityReport, error) {
	themes, err := m.Themes()
	if err != nil {
		return IntegrityReport{}, err
	}

	var report IntegrityReport
	for _, theme := range themes {
		if theme.ThemeDir == "" {
			continue
		}
		if _, err := os.Stat(theme.ThemeDir); err != nil {
			report.MissingFiles = append(report.MissingFiles, theme.ThemeDir)
			continue
		}
		for _, tf := range theme.ThemeFiles {
			data, err := os.ReadFile(tf.File)
			if err != nil {
				report.MissingFiles = append(report.MissingFiles, tf.File)
				continue
			}
			var v any
			if err := jsonc.Unmarshal(data, &v); err != nil {
				report.CorruptedFiles = append(report.CorruptedFiles, tf.File)
			}
		}
	}
	return report, nil
}

// ClearMetadata resets this sort order's list file to an empty list.
func (m *Manager) ClearMetadata() error {
	return m.storage.Save([]marketplace.Theme{}, m.sort)
}

// ClearArchives removes downloaded archives, keeping .gitkeep.
func (m *Manager) ClearArchives() error {
	return clearDir(m.downloader.ArchivesDir())
}

// ClearThemes removes extracted themes, keeping .gitkeep.
func (m *Manager) ClearThemes() error {
	return clearDir(m.downloader.ThemesDir())
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.Name() == ".gitkeep" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// AllThemeFiles returns every file path this sort order's list refers
// to: theme files plus each extension's package.json.
func (m *Manager) AllThemeFiles() ([]string, error) {
	themes, err := m.Themes()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, theme := range themes {
		if theme.ThemeDir == "" {
			continue
		}
		if _, err := os.Stat(theme.ThemeDir); err != nil {
			continue
		}
		for _, tf := range theme.ThemeFiles {
			seen[filepath.Clean(tf.File)] = true
		}
		seen[filepath.Join(theme.ThemeDir, "extension", "package.json")] = true
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// Cleanup deletes files under the themes directory that no stored list
// references, then prunes empty directories.
func Cleanup(managers []*Manager) error {
	if len(managers) == 0 {
		return nil
	}

	referenced := map[string]bool{}
	for _, m := range managers {
		files, err := m.AllThemeFiles()
		if err != nil {
			return err
		}
		for _, f := range files {
			referenced[f] = true
		}
	}

	themesDir := managers[0].downloader.ThemesDir()
	var toDelete []string
	err := filepath.WalkDir(themesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !referenced[filepath.Clean(path)] {
			toDelete = append(toDelete, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("walk themes dir: %w", err)
	}

	for _, path := range toDelete {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		managers[0].log.Debug("removed unreferenced file", zap.String("path", path))
	}

	return pruneEmptyDirs(themesDir)
}

func pruneEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Deepest first, so emptied parents get a chance too.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err == nil && len(entries) == 0 {
			os.Remove(dir)
		}
	}
	return nil
}

// SearchEntry is one row of the search index.
type SearchEntry struct {
	Label         string            `json:"label"`
	Description   string            `json:"description"`
	ExtensionName string            `json:"extensionName"`
	Detail        string            `json:"detail"`
	ThemeFiles    []SearchThemeFile `json:"themeFiles"`
}

type SearchThemeFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// BuildSearchIndex collects the themes of every sort order plus the
// singles, deduplicates by extension name, and writes search.json next
// to the list files. Paths are made relative to the themes directory
// so the index can be served as-is.
func (m *Manager) BuildSearchIndex() error {
	var all []marketplace.Theme
	for _, sortOpt := range marketplace.SortOptions {
		themes, err := m.storage.Load(sortOpt)
		if err != nil {
			return err
		}
		all = append(all, themes...)
	}
	singles, err := m.storage.LoadSingles()
	if err != nil {
		return err
	}
	all = append(all, singles...)

	themesDir := m.downloader.ThemesDir()
	seen := map[string]bool{}
	var index []SearchEntry
	for _, theme := range all {
		name := theme.Extension.ExtensionName
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var files []SearchThemeFile
		for _, tf := range theme.ThemeFiles {
			rel, err := filepath.Rel(themesDir, tf.File)
			if err != nil {
				rel = tf.File
			}
			files = append(files, SearchThemeFile{
				Name: tf.Name,
				Path: filepath.ToSlash(filepath.Join("themes", "themes", rel)),
			})
		}

		noun := "Theme"
		if len(files) > 1 {
			noun = "Themes"
		}
		index = append(index, SearchEntry{
			Label:         theme.DisplayName,
			Description:   theme.Publisher.DisplayName,
			ExtensionName: name,
			Detail:        fmt.Sprintf("%d %s", len(files), noun),
			ThemeFiles:    files,
		})
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode search index: %w", err)
	}
	path := filepath.Join(m.storage.BasePath(), "search.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write search index: %w", err)
	}
	m.log.Info("search index written",
		zap.String("path", path), zap.Int("themes", len(index)))
	return nil
}
