package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	priceTokenRe = regexp.MustCompile(`價格[:：]?(\d+)`)
	areaTokenRe  = regexp.MustCompile(`面積[:：]?(\d{1,4})`)
)

// FilterByPriceRange keeps the summary lines whose 價格 token satisfies the
// range. Lines without a price token are dropped: the constraint cannot be
// verified, so the line is excluded rather than included. Order preserved.
func FilterByPriceRange(summary string, r PriceRange) string {
	return filterLines(summary, priceTokenRe, r.Min, r.Max, r.MinStrict, r.MaxStrict)
}

// FilterByAreaRange is the area analogue of FilterByPriceRange.
func FilterByAreaRange(summary string, r AreaRange) string {
	return filterLines(summary, areaTokenRe, r.Min, r.Max, r.MinStrict, r.MaxStrict)
}

func filterLines(summary string, tokenRe *regexp.Regexp, min, max *int, minStrict, maxStrict bool) string {
	filtered := []string{}
	for _, line := range strings.Split(summary, "\n") {
		m := tokenRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if min != nil {
			if minStrict && !(value > *min) {
				continue
			}
			if !minStrict && !(value >= *min) {
				continue
			}
		}
		if max != nil {
			if maxStrict && !(value < *max) {
				continue
			}
			if !maxStrict && !(value <= *max) {
				continue
			}
		}
		filtered = append(filtered, line)
	}
	return strings.Join(filtered, "\n")
}

// SortByStyleMatch re-ranks summary lines by descending count of style
// keywords each line contains. The sort is stable, so ties keep retrieval
// order. An empty keyword list leaves the input untouched.
func SortByStyleMatch(lines []string, styleKeywords []string) []string {
	if len(styleKeywords) == 0 {
		return lines
	}

	score := func(line string) int {
		n := 0
		for _, kw := range styleKeywords {
			if strings.Contains(line, kw) {
				n++
			}
		}
		return n
	}

	sorted := make([]string, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return score(sorted[i]) > score(sorted[j])
	})
	return sorted
}
