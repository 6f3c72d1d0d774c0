package marketplace

import (
	"fmt"
	"strconv"
	"strings"
)

// HumanFormat renders a count the way the marketplace UI does:
// 1500 -> "1.5K", 2000000 -> "2M".
func HumanFormat(num float64) string {
	units := []string{"", "K", "M", "B", "T"}
	magnitude := 0
	for num >= 1000 || num <= -1000 {
		magnitude++
		num /= 1000
		if magnitude == len(units)-1 {
			break
		}
	}
	s := strconv.FormatFloat(num, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + units[magnitude]
}

// QuickPickDetail builds the picker detail line for a theme, using the
// codicon placeholders the editor renders as icons.
func QuickPickDetail(themeFileCount int, stats Statistics) string {
	noun := "Theme"
	if themeFileCount > 1 {
		noun = "Themes"
	}
	detail := fmt.Sprintf("$(symbol-color) %d %s", themeFileCount, noun)

	if stats.Installs > 0 {
		detail += " | $(extensions-install-count) " + HumanFormat(stats.Installs)
	}
	if stats.Rating > 0 {
		detail += " | $(star-full) " + strconv.FormatFloat(stats.Rating, 'f', 1, 64)
	}
	if stats.RatingCount > 0 {
		detail += "/" + HumanFormat(stats.RatingCount)
	}
	return detail
}
