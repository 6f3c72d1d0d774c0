// Package wizard is the interactive theme picker: choose a sort order,
// a theme, then one of its theme files, and apply it to the editor
// settings.
package wizard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ekinertac/vscode-live-themes/pkg/marketplace"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Styles
// ═══════════════════════════════════════════════════════════════════════════════

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			PaddingLeft(4)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

// Run executes the picker and returns once a theme has been applied or
// the user quits.
func Run(loader Loader, applier Applier) error {
	p := tea.NewProgram(initialModel(loader, applier), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m model) loadThemes() tea.Cmd {
	loader, sort := m.loader, m.sort
	return func() tea.Msg {
		themes, err := loader.Themes(sort)
		if err != nil {
			return themesLoadedMsg{err: err}
		}
		// Only downloaded themes can be applied.
		var ready []marketplace.Theme
		for _, t := range themes {
			if len(t.ThemeFiles) > 0 {
				ready = append(ready, t)
			}
		}
		return themesLoadedMsg{themes: ready}
	}
}

func (m model) applyTheme(file string) tea.Cmd {
	applier := m.applier
	return func() tea.Msg {
		return appliedMsg{file: file, err: applier.Apply(file)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case themesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.screen = screenSort
			return m, nil
		}
		m.err = nil
		m.themes = msg.themes
		m.themeCursor = 0
		m.screen = screenThemes
		return m, nil

	case appliedMsg:
		m.err = msg.err
		m.appliedFile = msg.file
		m.screen = screenDone
		return m, nil

	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}

	switch m.screen {
	case screenSort:
		switch msg.String() {
		case "up", "k":
			if m.sortCursor > 0 {
				m.sortCursor--
			}
		case "down", "j":
			if m.sortCursor < len(marketplace.SortOptions)-1 {
				m.sortCursor++
			}
		case "enter":
			m.sort = marketplace.SortOptions[m.sortCursor]
			m.screen = screenLoading
			return m, tea.Batch(m.spin.Tick, m.loadThemes())
		}

	case screenThemes:
		switch msg.String() {
		case "up", "k":
			if m.themeCursor > 0 {
				m.themeCursor--
			}
		case "down", "j":
			if m.themeCursor < len(m.themes)-1 {
				m.themeCursor++
			}
		case "esc":
			m.screen = screenSort
		case "enter":
			theme := m.selectedTheme()
			if theme == nil {
				break
			}
			if len(theme.ThemeFiles) == 1 {
				m.screen = screenApplying
				return m, tea.Batch(m.spin.Tick, m.applyTheme(theme.ThemeFiles[0].File))
			}
			m.fileCursor = 0
			m.screen = screenFiles
		}

	case screenFiles:
		theme := m.selectedTheme()
		if theme == nil {
			m.screen = screenThemes
			break
		}
		switch msg.String() {
		case "up", "k":
			if m.fileCursor > 0 {
				m.fileCursor--
			}
		case "down", "j":
			if m.fileCursor < len(theme.ThemeFiles)-1 {
				m.fileCursor++
			}
		case "esc":
			m.screen = screenThemes
		case "enter":
			m.screen = screenApplying
			return m, tea.Batch(m.spin.Tick, m.applyTheme(theme.ThemeFiles[m.fileCursor].File))
		}

	case screenDone:
		switch msg.String() {
		case "r":
			if err := m.applier.Reset(); err != nil {
				m.err = err
			} else {
				m.err = nil
				m.appliedFile = ""
			}
		case "enter", "esc":
			return m, tea.Quit
		}
	}

	return m, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Views
// ═══════════════════════════════════════════════════════════════════════════════

func (m model) View() string {
	var body string
	switch m.screen {
	case screenSort:
		body = m.viewSort()
	case screenLoading:
		body = m.spin.View() + " Loading themes..."
	case screenThemes:
		body = m.viewThemes()
	case screenFiles:
		body = m.viewFiles()
	case screenApplying:
		body = m.spin.View() + " Applying theme..."
	case screenDone:
		body = m.viewDone()
	}
	return panelStyle.Render(body) + "\n"
}

func (m model) viewSort() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Live Themes — browse by"))
	b.WriteString("\n\n")
	for i, opt := range marketplace.SortOptions {
		if i == m.sortCursor {
			b.WriteString(selectedStyle.Render("→ " + opt.Label()))
		} else {
			b.WriteString(itemStyle.Render(opt.Label()))
		}
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("↑/↓ move · enter select · q quit"))
	return b.String()
}

// listWindow bounds a cursor-centred slice of n items to the rows that
// fit on screen.
func (m model) listWindow(n int) (int, int) {
	rows := m.height - 10
	if rows < 5 {
		rows = 5
	}
	if n <= rows {
		return 0, n
	}
	start := m.cursorFor() - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

func (m model) cursorFor() int {
	if m.screen == screenFiles {
		return m.fileCursor
	}
	return m.themeCursor
}

func (m model) viewThemes() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Themes — %s", m.sort.Label())))
	b.WriteString("\n\n")

	if len(m.themes) == 0 {
		b.WriteString(dimStyle.Render("No downloaded themes for this sort order yet."))
		b.WriteString("\n" + dimStyle.Render("Run `livethemes all` first, then come back."))
		b.WriteString("\n\n" + dimStyle.Render("esc back · q quit"))
		return b.String()
	}

	start, end := m.listWindow(len(m.themes))
	for i := start; i < end; i++ {
		t := m.themes[i]
		line := fmt.Sprintf("%s  %s", t.DisplayName, dimStyle.Render(t.Publisher.DisplayName))
		if i == m.themeCursor {
			b.WriteString(selectedStyle.Render("→ " + line))
			if t.QuickPick != nil {
				b.WriteString("\n" + detailStyle.Render(t.QuickPick.Detail))
			}
		} else {
			b.WriteString(itemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + dimStyle.Render("↑/↓ move · enter select · esc back · q quit"))
	return b.String()
}

func (m model) viewFiles() string {
	theme := m.selectedTheme()
	if theme == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(theme.DisplayName))
	b.WriteString("\n\n")

	start, end := m.listWindow(len(theme.ThemeFiles))
	for i := start; i < end; i++ {
		tf := theme.ThemeFiles[i]
		label := tf.Name
		if tf.UITheme != "" {
			label += "  " + dimStyle.Render(tf.UITheme)
		}
		if i == m.fileCursor {
			b.WriteString(selectedStyle.Render("→ " + label))
		} else {
			b.WriteString(itemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + dimStyle.Render("↑/↓ move · enter apply · esc back · q quit"))
	return b.String()
}

func (m model) viewDone() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(errorStyle.Render("✗ " + m.err.Error()))
	} else if m.appliedFile != "" {
		b.WriteString(successStyle.Render("✓ Theme applied"))
		b.WriteString("\n" + dimStyle.Render(m.appliedFile))
	} else {
		b.WriteString(successStyle.Render("✓ Customizations reset"))
	}
	b.WriteString("\n\n" + dimStyle.Render("r reset · enter quit"))
	return b.String()
}
