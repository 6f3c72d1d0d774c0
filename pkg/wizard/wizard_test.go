package wizard

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/ekinertac/vscode-live-themes/pkg/marketplace"
)

type fakeLoader struct {
	themes []marketplace.Theme
	err    error
}

func (l *fakeLoader) Themes(sort marketplace.SortOption) ([]marketplace.Theme, error) {
	return l.themes, l.err
}

type fakeApplier struct {
	applied  []string
	resets   int
	applyErr error
}

func (a *fakeApplier) Apply(themeFilePath string) error {
	a.applied = append(a.applied, themeFilePath)
	return a.applyErr
}

func (a *fakeApplier) Reset() error {
	a.resets++
	return nil
}

func downloadedTheme(name string, files ...string) marketplace.Theme {
	t := marketplace.Theme{
		DisplayName: name,
		Publisher:   marketplace.Publisher{DisplayName: "Acme", PublisherName: "acme"},
		Extension:   marketplace.Extension{ExtensionName: name},
	}
	for _, f := range files {
		t.ThemeFiles = append(t.ThemeFiles, marketplace.ThemeFile{File: f, Name: f})
	}
	return t
}

func keyMsg(s string) tea.KeyMsg {
	if s == "enter" {
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	if s == "esc" {
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// TestSortNavigation tests cursor movement and bounds on the sort screen
func TestSortNavigation(t *testing.T) {
	m := initialModel(&fakeLoader{}, &fakeApplier{})

	m2, _ := m.handleKey(keyMsg("k"))
	if m2.(model).sortCursor != 0 {
		t.Errorf("cursor moved above the first entry")
	}

	m3, _ := m.handleKey(keyMsg("j"))
	if m3.(model).sortCursor != 1 {
		t.Errorf("sortCursor = %d, want 1", m3.(model).sortCursor)
	}

	for i := 0; i < len(marketplace.SortOptions)+3; i++ {
		next, _ := m.handleKey(keyMsg("j"))
		m = next.(model)
	}
	if m.sortCursor != len(marketplace.SortOptions)-1 {
		t.Errorf("sortCursor = %d, want %d", m.sortCursor, len(marketplace.SortOptions)-1)
	}
}

// TestSortSelectLoadsThemes tests enter on a sort order triggers loading
func TestSortSelectLoadsThemes(t *testing.T) {
	loader := &fakeLoader{themes: []marketplace.Theme{
		downloadedTheme("one-dark", "a.json"),
		downloadedTheme("not-downloaded"),
	}}
	m := initialModel(loader, &fakeApplier{})

	m2, cmd := m.handleKey(keyMsg("enter"))
	mm := m2.(model)
	if mm.screen != screenLoading {
		t.Fatalf("screen = %v, want screenLoading", mm.screen)
	}
	if mm.sort != marketplace.SortOptions[0] {
		t.Errorf("sort = %v", mm.sort)
	}
	if cmd == nil {
		t.Fatal("expected a load command")
	}

	msg := mm.loadThemes()()
	loaded, ok := msg.(themesLoadedMsg)
	if !ok {
		t.Fatalf("msg = %T", msg)
	}
	// Themes without extracted files cannot be applied and are dropped.
	if len(loaded.themes) != 1 || loaded.themes[0].DisplayName != "one-dark" {
		t.Errorf("loaded = %+v", loaded.themes)
	}

	m3, _ := mm.Update(loaded)
	if m3.(model).screen != screenThemes {
		t.Errorf("screen = %v, want screenThemes", m3.(model).screen)
	}
}

// TestLoadErrorReturnsToSortScreen tests a failed load surfaces the error
func TestLoadErrorReturnsToSortScreen(t *testing.T) {
	m := initialModel(&fakeLoader{err: errors.New("no list file")}, &fakeApplier{})
	m.screen = screenLoading

	m2, _ := m.Update(m.loadThemes()())
	mm := m2.(model)
	if mm.screen != screenSort {
		t.Errorf("screen = %v, want screenSort", mm.screen)
	}
	if mm.err == nil {
		t.Error("err not kept for display")
	}
}

// TestSingleFileThemeAppliesDirectly tests that one theme file skips the file screen
func TestSingleFileThemeAppliesDirectly(t *testing.T) {
	applier := &fakeApplier{}
	m := initialModel(&fakeLoader{}, applier)
	m.screen = screenThemes
	m.themes = []marketplace.Theme{downloadedTheme("one-dark", "dark.json")}

	m2, cmd := m.handleKey(keyMsg("enter"))
	mm := m2.(model)
	if mm.screen != screenApplying {
		t.Fatalf("screen = %v, want screenApplying", mm.screen)
	}
	if cmd == nil {
		t.Fatal("expected an apply command")
	}

	m3, _ := mm.Update(mm.applyTheme("dark.json")())
	if m3.(model).screen != screenDone {
		t.Errorf("screen = %v, want screenDone", m3.(model).screen)
	}
	if len(applier.applied) != 1 || applier.applied[0] != "dark.json" {
		t.Errorf("applied = %v", applier.applied)
	}
}

// TestMultiFileThemeShowsFileScreen tests file selection for multi-file themes
func TestMultiFileThemeShowsFileScreen(t *testing.T) {
	applier := &fakeApplier{}
	m := initialModel(&fakeLoader{}, applier)
	m.screen = screenThemes
	m.themes = []marketplace.Theme{downloadedTheme("one-dark", "dark.json", "darker.json")}

	m2, _ := m.handleKey(keyMsg("enter"))
	mm := m2.(model)
	if mm.screen != screenFiles {
		t.Fatalf("screen = %v, want screenFiles", mm.screen)
	}

	m3, _ := mm.handleKey(keyMsg("j"))
	mm = m3.(model)
	if mm.fileCursor != 1 {
		t.Errorf("fileCursor = %d", mm.fileCursor)
	}

	m4, cmd := mm.handleKey(keyMsg("enter"))
	mm = m4.(model)
	if mm.screen != screenApplying {
		t.Fatalf("screen = %v, want screenApplying", mm.screen)
	}
	if cmd == nil {
		t.Fatal("expected an apply command")
	}

	mm.Update(mm.applyTheme(mm.themes[0].ThemeFiles[1].File)())
	if len(applier.applied) != 1 || applier.applied[0] != "darker.json" {
		t.Errorf("applied = %v", applier.applied)
	}
}

// TestEscapeNavigation tests esc walking back through the screens
func TestEscapeNavigation(t *testing.T) {
	m := initialModel(&fakeLoader{}, &fakeApplier{})
	m.themes = []marketplace.Theme{downloadedTheme("one-dark", "a.json", "b.json")}
	m.screen = screenFiles

	m2, _ := m.handleKey(keyMsg("esc"))
	mm := m2.(model)
	if mm.screen != screenThemes {
		t.Fatalf("screen = %v, want screenThemes", mm.screen)
	}

	m3, _ := mm.handleKey(keyMsg("esc"))
	if m3.(model).screen != screenSort {
		t.Errorf("screen = %v, want screenSort", m3.(model).screen)
	}
}

// TestQuitKeys tests that q quits from any screen
func TestQuitKeys(t *testing.T) {
	m := initialModel(&fakeLoader{}, &fakeApplier{})
	_, cmd := m.handleKey(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", cmd())
	}
}

// TestResetOnDoneScreen tests the r shortcut after applying
func TestResetOnDoneScreen(t *testing.T) {
	applier := &fakeApplier{}
	m := initialModel(&fakeLoader{}, applier)
	m.screen = screenDone
	m.appliedFile = "dark.json"

	m2, _ := m.handleKey(keyMsg("r"))
	mm := m2.(model)
	if applier.resets != 1 {
		t.Errorf("resets = %d, want 1", applier.resets)
	}
	if mm.appliedFile != "" {
		t.Errorf("appliedFile = %q, want cleared", mm.appliedFile)
	}
}

// TestViewRendering tests that every screen renders its key elements
func TestViewRendering(t *testing.T) {
	m := initialModel(&fakeLoader{}, &fakeApplier{})
	m.width = 80
	m.height = 24
	m.themes = []marketplace.Theme{downloadedTheme("one-dark", "a.json", "b.json")}

	m.screen = screenSort
	if view := m.View(); !strings.Contains(view, "Live Themes") {
		t.Error("sort view missing title")
	}

	m.screen = screenThemes
	if view := m.View(); !strings.Contains(view, "one-dark") {
		t.Error("themes view missing theme name")
	}

	m.screen = screenFiles
	if view := m.View(); !strings.Contains(view, "a.json") {
		t.Error("files view missing file entry")
	}

	m.screen = screenDone
	m.appliedFile = "a.json"
	if view := m.View(); !strings.Contains(view, "applied") {
		t.Error("done view missing confirmation")
	}
}

// TestProgramQuits runs the full program and quits it
func TestProgramQuits(t *testing.T) {
	m := initialModel(&fakeLoader{}, &fakeApplier{})
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))
	tm.Send(tea.Quit())
	tm.WaitFinished(t, teatest.WithFinalTimeout(time.Second))
	out, err := io.ReadAll(tm.FinalOutput(t))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "Live Themes") {
		t.Errorf("final output missing title:\n%s", out)
	}
}
