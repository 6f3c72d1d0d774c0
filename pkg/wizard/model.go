package wizard

import (
	"github.com/charmbracelet/bubbles/spinner"

	"github.com/ekinertac/vscode-live-themes/pkg/marketplace"
)

// Loader supplies the stored theme list for a sort order.
type Loader interface {
	Themes(sort marketplace.SortOption) ([]marketplace.Theme, error)
}

// Applier writes a picked theme file into the editor settings.
type Applier interface {
	Apply(themeFilePath string) error
	Reset() error
}

type screen int

const (
	screenSort screen = iota
	screenLoading
	screenThemes
	screenFiles
	screenApplying
	screenDone
)

type model struct {
	loader  Loader
	applier Applier

	screen        screen
	width, height int
	err           error

	// Sort order pick
	sortCursor int
	sort       marketplace.SortOption

	// Theme pick
	themes      []marketplace.Theme
	themeCursor int

	// Theme file pick within the chosen theme
	fileCursor int

	// Result
	appliedFile string

	spin spinner.Model
}

func initialModel(loader Loader, applier Applier) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{
		loader:  loader,
		applier: applier,
		screen:  screenSort,
		spin:    sp,
	}
}

func (m model) selectedTheme() *marketplace.Theme {
	if m.themeCursor < 0 || m.themeCursor >= len(m.themes) {
		return nil
	}
	return &m.themes[m.themeCursor]
}

// Messages
type themesLoadedMsg struct {
	themes []marketplace.Theme
	err    error
}

type appliedMsg struct {
	file string
	err  error
}
