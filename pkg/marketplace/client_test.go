package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ekinertac/vscode-live-themes/pkg/cache"
)

const galleryPage = `{
  "results": [
    {
      "extensions": [
        {
          "extensionId": "abc-123",
          "extensionName": "one-dark",
          "displayName": "One Dark",
          "categories": ["Themes"],
          "tags": ["theme", "dark"],
          "publisher": {"displayName": "Acme", "publisherName": "acme"},
          "versions": [{"version": "1.2.3"}, {"version": "1.2.2"}],
          "statistics": [
            {"statisticName": "install", "value": 1500000},
            {"statisticName": "averagerating", "value": 4.5},
            {"statisticName": "ratingcount", "value": 321}
          ]
        },
        {
          "extensionId": "icons-1",
          "extensionName": "material-icons",
          "displayName": "Material Icons",
          "categories": ["Themes"],
          "tags": ["Icons"],
          "publisher": {"displayName": "Acme", "publisherName": "acme"},
          "versions": [{"version": "2.0.0"}]
        },
        {
          "extensionId": "lang-1",
          "extensionName": "some-language",
          "displayName": "Some Language",
          "categories": ["Programming Languages"],
          "tags": [],
          "publisher": {"displayName": "Acme", "publisherName": "acme"},
          "versions": [{"version": "0.1.0"}]
        }
      ]
    }
  ]
}`

func galleryServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/_apis/public/gallery/extensionquery" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if hits != nil {
			*hits++
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(galleryPage))
	}))
}

func TestClientFetch_FiltersIconsAndNonThemes(t *testing.T) {
	srv := galleryServer(t, nil)
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, MaxPages: 1})
	themes, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(themes) != 1 {
		t.Fatalf("got %d themes, want 1 (icon packs and non-theme categories filtered)", len(themes))
	}

	got := themes[0]
	if got.DisplayName != "One Dark" {
		t.Errorf("DisplayName = %q", got.DisplayName)
	}
	if got.ID() != "acme.one-dark" {
		t.Errorf("ID = %q, want acme.one-dark", got.ID())
	}
	if got.Extension.LatestVersion != "1.2.3" {
		t.Errorf("LatestVersion = %q, want 1.2.3 (first listed version)", got.Extension.LatestVersion)
	}
	if got.Statistics.Installs != 1500000 {
		t.Errorf("Installs = %v", got.Statistics.Installs)
	}
	if got.Statistics.Rating != 4.5 {
		t.Errorf("Rating = %v", got.Statistics.Rating)
	}
	want := srv.URL + "/_apis/public/gallery/publishers/acme/vsextensions/one-dark/1.2.3/vspackage"
	if got.Extension.DownloadURL != want {
		t.Errorf("DownloadURL = %q, want %q", got.Extension.DownloadURL, want)
	}
}

func TestClientFetch_UsesCache(t *testing.T) {
	hits := 0
	srv := galleryServer(t, &hits)
	defer srv.Close()

	c := NewClient(ClientOptions{
		BaseURL:  srv.URL,
		MaxPages: 2,
		Cache:    cache.New(time.Minute, 0),
	})
	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("second Fetch: %v", err)
	}

	if hits != 2 {
		t.Errorf("gallery hit %d times, want 2 (one per page, second fetch cached)", hits)
	}
}

func TestClientFetchSingle(t *testing.T) {
	srv := galleryServer(t, nil)
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL})
	theme, err := c.FetchSingle(context.Background(), "acme", "one-dark")
	if err != nil {
		t.Fatalf("FetchSingle: %v", err)
	}
	if theme.ID() != "acme.one-dark" {
		t.Errorf("ID = %q", theme.ID())
	}

	if _, err := c.FetchSingle(context.Background(), "acme", "no-such-theme"); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestClientFetch_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, MaxPages: 1})
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Error("expected error on non-200 response")
	}
}

func TestSortOptions(t *testing.T) {
	if SortOptions[0] != SortMostInstalled {
		t.Errorf("first sort option = %v, want SortMostInstalled", SortOptions[0])
	}

	for _, opt := range SortOptions {
		parsed, err := ParseSortOption(opt.Name())
		if err != nil {
			t.Fatalf("ParseSortOption(%q): %v", opt.Name(), err)
		}
		if parsed != opt {
			t.Errorf("ParseSortOption(%q) = %v, want %v", opt.Name(), parsed, opt)
		}
	}

	if _, err := ParseSortOption("bogus"); err == nil {
		t.Error("expected error for unknown sort name")
	}

	if got := SortMostInstalled.Label(); got != "Most Installed" {
		t.Errorf("Label = %q", got)
	}
	if got := SortOption(99).Name(); got != "sort99" {
		t.Errorf("unknown sort Name = %q", got)
	}
}
