package marketplace

import "fmt"

// SortOption is a VS Code gallery sortBy code.
type SortOption int

const (
	SortUpdateDate     SortOption = 1
	SortByName         SortOption = 2
	SortPublisher      SortOption = 3
	SortMostInstalled  SortOption = 4
	SortTrendingWeekly SortOption = 8
	SortPublishedDate  SortOption = 10
	SortByRating       SortOption = 12
)

// SortOptions lists every supported sort order, most-installed first.
var SortOptions = []SortOption{
	SortMostInstalled,
	SortByName,
	SortPublishedDate,
	SortPublisher,
	SortByRating,
	SortTrendingWeekly,
	SortUpdateDate,
}

var sortNames = map[SortOption]string{
	SortUpdateDate:     "updatedate",
	SortByName:         "byname",
	SortPublisher:      "publisher",
	SortMostInstalled:  "mostinstalled",
	SortTrendingWeekly: "trendingweekly",
	SortPublishedDate:  "publisheddate",
	SortByRating:       "byrating",
}

var sortLabels = map[SortOption]string{
	SortUpdateDate:     "Recently Updated",
	SortByName:         "Name",
	SortPublisher:      "Publisher",
	SortMostInstalled:  "Most Installed",
	SortTrendingWeekly: "Trending This Week",
	SortPublishedDate:  "Recently Published",
	SortByRating:       "Rating",
}

// Name returns the lowercase identifier used in storage file names,
// e.g. "mostinstalled".
func (s SortOption) Name() string {
	if n, ok := sortNames[s]; ok {
		return n
	}
	return fmt.Sprintf("sort%d", int(s))
}

// Label returns a human-readable name for the sort order.
func (s SortOption) Label() string {
	if l, ok := sortLabels[s]; ok {
		return l
	}
	return s.Name()
}

// ParseSortOption resolves a lowercase sort name back to its option.
func ParseSortOption(name string) (SortOption, error) {
	for opt, n := range sortNames {
		if n == name {
			return opt, nil
		}
	}
	return 0, fmt.Errorf("unknown sort option %q", name)
}

// Theme is one marketplace extension's theme metadata, in the shape the
// list files store it.
type Theme struct {
	Categories  []string   `json:"categories"`
	DisplayName string     `json:"displayName"`
	Publisher   Publisher  `json:"publisher"`
	Tags        []string   `json:"tags"`
	Statistics  Statistics `json:"statistics"`
	Extension   Extension  `json:"extension"`

	// Populated after the VSIX has been downloaded and extracted.
	ThemeFiles []ThemeFile `json:"theme_files,omitempty"`
	ThemeDir   string      `json:"theme_dir,omitempty"`
	QuickPick  *QuickPick  `json:"quick_pick,omitempty"`
}

type Publisher struct {
	DisplayName   string `json:"displayName"`
	PublisherName string `json:"publisherName"`
}

type Statistics struct {
	Installs    float64 `json:"installs,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	RatingCount float64 `json:"ratingcount,omitempty"`
}

type Extension struct {
	ExtensionID   string `json:"extensionId"`
	ExtensionName string `json:"extensionName"`
	LatestVersion string `json:"latestVersion"`
	DownloadURL   string `json:"downloadUrl"`
}

// ThemeFile is one entry from a theme extension's contributes.themes.
type ThemeFile struct {
	File    string `json:"file"`
	Name    string `json:"name"`
	UITheme string `json:"uiTheme"`
}

// QuickPick is the precomputed picker row for a theme.
type QuickPick struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Detail      string `json:"detail"`
}

// ID returns the marketplace identifier "publisher.extension".
func (t Theme) ID() string {
	return t.Publisher.PublisherName + "." + t.Extension.ExtensionName
}
