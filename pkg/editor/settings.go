// Package editor applies a theme file's color rules to an editor
// settings.json.
package editor

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/ekinertac/vscode-live-themes/pkg/jsonc"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	colorCustomizationsKey = "workbench.colorCustomizations"
	tokenCustomizationsKey = "editor.tokenColorCustomizations"
)

// themeDocument is the slice of a theme file the writer needs. Scope
// may be a string or a list, so it stays untyped.
type themeDocument struct {
	Name        string           `json:"name"`
	Colors      map[string]any   `json:"colors"`
	TokenColors []map[string]any `json:"tokenColors"`
}

// Writer rewrites one settings.json. The settings file is read as
// JSONC: user settings regularly carry comments.
type Writer struct {
	settingsPath string
	log          *zap.Logger
}

func NewWriter(settingsPath string, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{settingsPath: settingsPath, log: log}
}

// DefaultSettingsPath guesses the editor's user settings.json location.
func DefaultSettingsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "Code", "User", "settings.json")
}

// Apply writes the theme file's colors and token rules into the
// settings' customization keys.
func (w *Writer) Apply(themeFilePath string) error {
	data, err := os.ReadFile(themeFilePath)
	if err != nil {
		return fmt.Errorf("read theme file: %w", err)
	}

	var doc themeDocument
	if err := jsonc.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse theme file %s: %w", themeFilePath, err)
	}

	settings, err := w.load()
	if err != nil {
		return err
	}

	settings[colorCustomizationsKey] = doc.Colors
	settings[tokenCustomizationsKey] = map[string]any{
		"textMateRules": doc.TokenColors,
	}

	if err := w.save(settings); err != nil {
		return err
	}
	w.log.Info("theme applied",
		zap.String("theme", doc.Name),
		zap.String("settings", w.settingsPath))
	return nil
}

// Reset removes the customization keys this writer manages.
func (w *Writer) Reset() error {
	settings, err := w.load()
	if err != nil {
		return err
	}
	delete(settings, colorCustomizationsKey)
	delete(settings, tokenCustomizationsKey)
	return w.save(settings)
}

func (w *Writer) load() (map[string]any, error) {
	data, err := os.ReadFile(w.settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	settings := map[string]any{}
	if len(data) > 0 {
		if err := jsonc.Unmarshal(data, &settings); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", w.settingsPath, err)
		}
	}
	return settings, nil
}

func (w *Writer) save(settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(w.settingsPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "settings_*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), w.settingsPath); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return os.Chmod(w.settingsPath, 0o644)
}
