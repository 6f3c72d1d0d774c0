// Package store persists theme lists as JSON files, one per sort order.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/ekinertac/vscode-live-themes/pkg/jsonc"
	"github.com/ekinertac/vscode-live-themes/pkg/marketplace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONStorage stores theme lists under a base directory as
// <sortname>.json. Reads go through the jsonc scanner, so hand-edited
// lists with comments still load.
type JSONStorage struct {
	basePath string
	log      *zap.Logger
}

func NewJSONStorage(basePath string, log *zap.Logger) *JSONStorage {
	if log == nil {
		log = zap.NewNop()
	}
	return &JSONStorage{basePath: basePath, log: log}
}

// BasePath returns the storage directory.
func (s *JSONStorage) BasePath() string {
	return s.basePath
}

// FilePath returns the list file path for a sort order.
func (s *JSONStorage) FilePath(sort marketplace.SortOption) string {
	return filepath.Join(s.basePath, sort.Name()+".json")
}

// Save writes the theme list for a sort order atomically: encode to a
// temp file in the same directory, then rename over the target.
func (s *JSONStorage) Save(themes []marketplace.Theme, sort marketplace.SortOption) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.basePath, "temp_"+sort.Name()+"_*.json")
	if err != nil {
		return fmt.Errorf("create temp list file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(themes); err != nil {
		tmp.Close()
		return fmt.Errorf("encode theme list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp list file: %w", err)
	}

	final := s.FilePath(sort)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("replace %s: %w", final, err)
	}
	if err := os.Chmod(final, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", final, err)
	}

	s.log.Info("saved theme list",
		zap.String("file", final),
		zap.Int("themes", len(themes)))
	return nil
}

// Load reads the theme list for a sort order. A missing file is an
// empty list, not an error.
func (s *JSONStorage) Load(sort marketplace.SortOption) ([]marketplace.Theme, error) {
	data, err := os.ReadFile(s.FilePath(sort))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read theme list: %w", err)
	}

	var themes []marketplace.Theme
	if err := jsonc.Unmarshal(data, &themes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.FilePath(sort), err)
	}
	return themes, nil
}

// LoadAll reads the theme lists for every sort order, keyed by sort
// name.
func (s *JSONStorage) LoadAll() (map[string][]marketplace.Theme, error) {
	all := make(map[string][]marketplace.Theme, len(marketplace.SortOptions))
	for _, sort := range marketplace.SortOptions {
		themes, err := s.Load(sort)
		if err != nil {
			return nil, err
		}
		all[sort.Name()] = themes
	}
	return all, nil
}

// SaveSingles writes the separately-downloaded themes file.
func (s *JSONStorage) SaveSingles(themes []marketplace.Theme) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	data, err := json.Marshal(themes)
	if err != nil {
		return fmt.Errorf("encode single themes: %w", err)
	}
	path := filepath.Join(s.basePath, "single_themes.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadSingles reads the separately-downloaded themes file.
func (s *JSONStorage) LoadSingles() ([]marketplace.Theme, error) {
	path := filepath.Join(s.basePath, "single_themes.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read single themes: %w", err)
	}
	var themes []marketplace.Theme
	if err := jsonc.Unmarshal(data, &themes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return themes, nil
}
