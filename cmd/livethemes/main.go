package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekinertac/vscode-live-themes/pkg/cache"
	"github.com/ekinertac/vscode-live-themes/pkg/config"
	"github.com/ekinertac/vscode-live-themes/pkg/editor"
	"github.com/ekinertac/vscode-live-themes/pkg/logger"
	"github.com/ekinertac/vscode-live-themes/pkg/marketplace"
	"github.com/ekinertac/vscode-live-themes/pkg/server"
	"github.com/ekinertac/vscode-live-themes/pkg/store"
	"github.com/ekinertac/vscode-live-themes/pkg/themes"
	"github.com/ekinertac/vscode-live-themes/pkg/vsix"
	"github.com/ekinertac/vscode-live-themes/pkg/wizard"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: livethemes [flags] [command]

Commands:
  (none)              launch the interactive theme picker
  metadata            fetch theme metadata from the VS Code Marketplace
  download            download and extract themes from stored metadata
  all                 metadata + download, then prune archives and strays
  get <publisher.ext> fetch and download a single extension
  check-integrity     verify downloaded theme files still exist and parse
  cleanup             remove files no theme list references
  clear-metadata      reset the stored theme lists
  clear-cache         remove downloaded archives and extracted themes
  clear-all           clear-metadata + clear-cache
  build-search-index  write search.json from all stored lists
  serve               serve theme lists and files over HTTP
  reset               remove the applied customizations from settings

Flags:
`)
	flag.PrintDefaults()
}

type app struct {
	cfg      *config.Config
	log      *zap.Logger
	storage  *store.JSONStorage
	managers []*themes.Manager
}

func newApp(cfg *config.Config, log *zap.Logger, sorts []marketplace.SortOption) (*app, error) {
	storage := store.NewJSONStorage(cfg.StoragePath(), log)
	downloader, err := vsix.NewDownloader(
		cfg.ThemesPath(), cfg.ArchivesPath(),
		&http.Client{Timeout: 30 * time.Second}, log)
	if err != nil {
		return nil, err
	}

	ttl := cfg.CacheTTL.Duration()
	results := cache.New(ttl, time.Minute)

	managers := make([]*themes.Manager, 0, len(sorts))
	for _, sortOpt := range sorts {
		client := marketplace.NewClient(marketplace.ClientOptions{
			PageSize: cfg.PageSize,
			MaxPages: cfg.MaxPages,
			Sort:     sortOpt,
			CacheTTL: ttl,
			Cache:    results,
			Logger:   log,
		})
		managers = append(managers, themes.NewManager(client, storage, downloader, sortOpt, log))
	}

	return &app{cfg: cfg, log: log, storage: storage, managers: managers}, nil
}

func (a *app) forEach(fn func(*themes.Manager) error) error {
	for _, m := range a.managers {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// update is the full refresh the serve command and the `all` command
// share: fetch metadata, download themes, drop archives, prune strays.
func (a *app) update(ctx context.Context) error {
	err := a.forEach(func(m *themes.Manager) error {
		if err := m.FetchAndSave(ctx); err != nil {
			return err
		}
		return m.DownloadAll(ctx)
	})
	if err != nil {
		return err
	}
	if err := a.managers[0].ClearArchives(); err != nil {
		return err
	}
	return themes.Cleanup(a.managers)
}

func (a *app) settingsWriter() *editor.Writer {
	path := a.cfg.EditorSettings
	if path == "" {
		path = editor.DefaultSettingsPath()
	}
	return editor.NewWriter(path, a.log)
}

type storageLoader struct {
	s *store.JSONStorage
}

func (l storageLoader) Themes(sort marketplace.SortOption) ([]marketplace.Theme, error) {
	return l.s.Load(sort)
}

func main() {
	dir := flag.String("dir", "", "base directory (default $LIVETHEMES_DIR or ~/.livethemes)")
	logLevel := flag.String("log-level", "", "debug, info, warn, error or none (overrides config)")
	pageSize := flag.Int("page-size", 0, "themes per marketplace page (overrides config)")
	maxPages := flag.Int("max-pages", 0, "pages to fetch per sort order (overrides config)")
	sortName := flag.String("sort", "", "restrict to one sort order, e.g. mostinstalled")
	addr := flag.String("addr", "", "listen address for serve (overrides config)")
	flag.Usage = usage
	flag.Parse()

	if *dir != "" {
		os.Setenv("LIVETHEMES_DIR", *dir)
	}
	if _, err := config.EnsureTemplate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing config: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *pageSize > 0 {
		cfg.PageSize = *pageSize
	}
	if *maxPages > 0 {
		cfg.MaxPages = *maxPages
	}
	if *addr != "" {
		cfg.ServerAddr = *addr
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	sorts := marketplace.SortOptions
	if *sortName != "" {
		opt, err := marketplace.ParseSortOption(*sortName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		sorts = []marketplace.SortOption{opt}
	}

	a, err := newApp(cfg, log, sorts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(a, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(a *app, args []string) error {
	ctx := context.Background()

	command := ""
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "", "wizard":
		return wizard.Run(storageLoader{a.storage}, a.settingsWriter())

	case "metadata":
		return a.forEach(func(m *themes.Manager) error { return m.FetchAndSave(ctx) })

	case "download":
		return a.forEach(func(m *themes.Manager) error { return m.DownloadAll(ctx) })

	case "all":
		return a.update(ctx)

	case "get":
		if len(args) < 2 || !strings.Contains(args[1], ".") {
			return fmt.Errorf("usage: livethemes get <publisher>.<extension>")
		}
		id := strings.SplitN(args[1], ".", 2)
		return a.managers[0].DownloadSingle(ctx, id[0], id[1])

	case "check-integrity":
		failed := false
		err := a.forEach(func(m *themes.Manager) error {
			report, err := m.CheckIntegrity()
			if err != nil {
				return err
			}
			for _, f := range report.MissingFiles {
				fmt.Printf("missing: %s\n", f)
			}
			for _, f := range report.CorruptedFiles {
				fmt.Printf("corrupted: %s\n", f)
			}
			if !report.OK() {
				failed = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		if failed {
			return fmt.Errorf("integrity check failed")
		}
		fmt.Println("All theme files passed integrity check.")
		return nil

	case "cleanup":
		return themes.Cleanup(a.managers)

	case "clear-metadata":
		return a.forEach(func(m *themes.Manager) error { return m.ClearMetadata() })

	case "clear-cache":
		if err := a.managers[0].ClearArchives(); err != nil {
			return err
		}
		return a.managers[0].ClearThemes()

	case "clear-all":
		if err := a.forEach(func(m *themes.Manager) error { return m.ClearMetadata() }); err != nil {
			return err
		}
		if err := a.managers[0].ClearArchives(); err != nil {
			return err
		}
		return a.managers[0].ClearThemes()

	case "build-search-index":
		return a.managers[0].BuildSearchIndex()

	case "serve":
		r := server.New(a.update, a.cfg.StoragePath(), a.log)
		return server.Run(r, a.cfg.ServerAddr, a.log)

	case "reset":
		return a.settingsWriter().Reset()

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
