package marketplace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/ekinertac/vscode-live-themes/pkg/cache"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultBaseURL is the Visual Studio Marketplace gallery endpoint.
	DefaultBaseURL = "https://marketplace.visualstudio.com"

	queryPath = "/_apis/public/gallery/extensionquery"

	// queryFlags asks the gallery for versions, statistics and asset URIs.
	queryFlags = 870
)

// ClientOptions configures a gallery Client. Zero values fall back to
// sensible defaults.
type ClientOptions struct {
	BaseURL    string
	PageSize   int
	MaxPages   int
	Sort       SortOption
	CacheTTL   time.Duration
	Cache      *cache.Cache
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client fetches theme extensions from the VS Code Marketplace.
type Client struct {
	baseURL  string
	pageSize int
	maxPages int
	sort     SortOption
	cacheTTL time.Duration

	httpc *http.Client
	cache *cache.Cache
	log   *zap.Logger
}

// NewClient creates a marketplace client for one sort order.
func NewClient(opts ClientOptions) *Client {
	c := &Client{
		baseURL:  opts.BaseURL,
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
		sort:     opts.Sort,
		cacheTTL: opts.CacheTTL,
		httpc:    opts.HTTPClient,
		cache:    opts.Cache,
		log:      opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pageSize <= 0 {
		c.pageSize = 54
	}
	if c.maxPages <= 0 {
		c.maxPages = 10
	}
	if c.sort == 0 {
		c.sort = SortMostInstalled
	}
	if c.cacheTTL <= 0 {
		c.cacheTTL = 15 * time.Minute
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Sort returns the sort order this client queries with.
func (c *Client) Sort() SortOption {
	return c.sort
}

// Fetch retrieves up to maxPages pages of themes, filtering out icon
// packs and extensions that are not in the Themes category.
func (c *Client) Fetch(ctx context.Context) ([]Theme, error) {
	var all []Theme
	for page := 1; page <= c.maxPages; page++ {
		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		themes := c.buildThemes(resp)
		all = append(all, themes...)
		c.log.Debug("fetched gallery page",
			zap.Int("page", page),
			zap.String("sort", c.sort.Name()),
			zap.Int("themes", len(all)))
	}
	return all, nil
}

// FetchSingle retrieves one extension by its "publisher.extension"
// identifier.
func (c *Client) FetchSingle(ctx context.Context, publisherName, extensionName string) (Theme, error) {
	req := queryRequest{
		Filters: []queryFilter{{
			Criteria: []criterion{
				{FilterType: 8, Value: "Microsoft.VisualStudio.Code"},
				{FilterType: 7, Value: publisherName + "." + extensionName},
			},
			PageSize:   1,
			PageNumber: 1,
		}},
		Flags: queryFlags,
	}

	resp, err := c.query(ctx, req)
	if err != nil {
		return Theme{}, err
	}

	for _, ext := range resp.extensions() {
		if strings.EqualFold(ext.ExtensionName, extensionName) &&
			strings.EqualFold(ext.Publisher.PublisherName, publisherName) {
			return c.toTheme(ext), nil
		}
	}
	return Theme{}, fmt.Errorf("extension %s.%s not found", publisherName, extensionName)
}

// DownloadURL builds the VSIX package URL for an extension version.
func (c *Client) DownloadURL(publisherName, extensionName, version string) string {
	return fmt.Sprintf(
		"%s/_apis/public/gallery/publishers/%s/vsextensions/%s/%s/vspackage",
		c.baseURL, publisherName, extensionName, version)
}

type queryRequest struct {
	AssetTypes []string      `json:"assetTypes"`
	Filters    []queryFilter `json:"filters"`
	Flags      int           `json:"flags"`
}

type queryFilter struct {
	Criteria    []criterion `json:"criteria"`
	Direction   int         `json:"direction"`
	PageSize    int         `json:"pageSize"`
	PageNumber  int         `json:"pageNumber"`
	SortBy      int         `json:"sortBy"`
	SortOrder   int         `json:"sortOrder"`
	PagingToken *string     `json:"pagingToken"`
}

type criterion struct {
	FilterType int    `json:"filterType"`
	Value      string `json:"value"`
}

type galleryResponse struct {
	Results []struct {
		Extensions []galleryExtension `json:"extensions"`
	} `json:"results"`
}

func (r *galleryResponse) extensions() []galleryExtension {
	if len(r.Results) == 0 {
		return nil
	}
	return r.Results[0].Extensions
}

type galleryExtension struct {
	ExtensionID   string   `json:"extensionId"`
	ExtensionName string   `json:"extensionName"`
	DisplayName   string   `json:"displayName"`
	Categories    []string `json:"categories"`
	Tags          []string `json:"tags"`
	Publisher     struct {
		DisplayName   string `json:"displayName"`
		PublisherName string `json:"publisherName"`
	} `json:"publisher"`
	Versions []struct {
		Version string `json:"version"`
	} `json:"versions"`
	Statistics []struct {
		StatisticName string  `json:"statisticName"`
		Value         float64 `json:"value"`
	} `json:"statistics"`
}

func (c *Client) pagePayload(page int) queryRequest {
	return queryRequest{
		AssetTypes: []string{
			"Microsoft.VisualStudio.Services.Icons.Default",
			"Microsoft.VisualStudio.Services.Icons.Branding",
			"Microsoft.VisualStudio.Services.Icons.Small",
		},
		Filters: []queryFilter{{
			Criteria: []criterion{
				{FilterType: 8, Value: "Microsoft.VisualStudio.Code"},
				{FilterType: 10, Value: `target:"Microsoft.VisualStudio.Code" `},
				{FilterType: 12, Value: "37888"},
				{FilterType: 5, Value: "Themes"},
			},
			Direction:  2,
			PageSize:   c.pageSize,
			PageNumber: page,
			SortBy:     int(c.sort),
		}},
		Flags: queryFlags,
	}
}

func (c *Client) fetchPage(ctx context.Context, page int) (*galleryResponse, error) {
	if c.cache == nil {
		return c.query(ctx, c.pagePayload(page))
	}

	key := fmt.Sprintf("gallery:%d:%d:%d", int(c.sort), c.pageSize, page)
	v, err := c.cache.Remember(key, c.cacheTTL, func() (any, error) {
		return c.query(ctx, c.pagePayload(page))
	})
	if err != nil {
		return nil, err
	}
	return v.(*galleryResponse), nil
}

func (c *Client) query(ctx context.Context, payload queryRequest) (*galleryResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode gallery query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+queryPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gallery request: %w", err)
	}
	req.Header.Set("Accept", "application/json;api-version=7.2-preview.1;excludeUrls=true")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gallery query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("gallery query: unexpected status %s", resp.Status)
	}

	var gr galleryResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode gallery response: %w", err)
	}
	return &gr, nil
}

func (c *Client) buildThemes(resp *galleryResponse) []Theme {
	var themes []Theme
	for _, ext := range resp.extensions() {
		if hasIconTag(ext.Tags) {
			c.log.Debug("skipping icon pack", zap.String("extension", ext.DisplayName))
			continue
		}
		if !hasThemesCategory(ext.Categories) {
			c.log.Debug("skipping non-theme extension", zap.String("extension", ext.DisplayName))
			continue
		}
		themes = append(themes, c.toTheme(ext))
	}
	return themes
}

func (c *Client) toTheme(ext galleryExtension) Theme {
	var stats Statistics
	for _, s := range ext.Statistics {
		switch s.StatisticName {
		case "install":
			stats.Installs = s.Value
		case "averagerating":
			stats.Rating = s.Value
		case "ratingcount":
			stats.RatingCount = s.Value
		}
	}

	version := ""
	if len(ext.Versions) > 0 {
		version = ext.Versions[0].Version
	}

	return Theme{
		Categories:  ext.Categories,
		DisplayName: ext.DisplayName,
		Publisher: Publisher{
			DisplayName:   ext.Publisher.DisplayName,
			PublisherName: ext.Publisher.PublisherName,
		},
		Tags:       ext.Tags,
		Statistics: stats,
		Extension: Extension{
			ExtensionID:   ext.ExtensionID,
			ExtensionName: ext.ExtensionName,
			LatestVersion: version,
			DownloadURL:   c.DownloadURL(ext.Publisher.PublisherName, ext.ExtensionName, version),
		},
	}
}

func hasIconTag(tags []string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, "icons") {
			return true
		}
	}
	return false
}

func hasThemesCategory(categories []string) bool {
	for _, c := range categories {
		if c == "Themes" {
			return true
		}
	}
	return false
}
