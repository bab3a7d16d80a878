package service

import (
	"regexp"
	"strconv"
	"strings"
)

// PriceRange is an optional price constraint extracted from a user
// utterance. A nil bound imposes no constraint; a strict bound compares
// with > / < instead of >= / <=.
type PriceRange struct {
	Min       *int
	Max       *int
	MinStrict bool
	MaxStrict bool
}

// AreaRange is the analogous constraint for room area.
type AreaRange struct {
	Min       *int
	Max       *int
	MinStrict bool
	MaxStrict bool
}

// Price tokens are 3-5 digits, area tokens 2-4, so unrelated numbers
// (dates, head counts) don't get picked up as bounds.
var (
	priceRangeRe     = regexp.MustCompile(`(\d{3,5})\s*元?\s*(~|到|至|-|—)\s*(\d{3,5})`)
	priceMinRe       = regexp.MustCompile(`(\d{3,5})\s*元?\s*(以上的|以上|起)`)
	priceMinStrictRe = regexp.MustCompile(`(大於|超過|多於|高於)\s*(\d{3,5})`)
	priceMaxRe       = regexp.MustCompile(`(\d{3,5})\s*元?\s*(以下|以內|之內)`)
	priceMaxStrictRe = regexp.MustCompile(`(小於|少於|低於)\s*(\d{3,5})`)

	areaKeywordRe   = regexp.MustCompile(`面積|坪|平方|m²|平方米|平方公尺`)
	areaRangeRe     = regexp.MustCompile(`(\d{2,4})\s*(m²|平方公尺|平方米|坪)?\s*(~|到|至|-|—)\s*(\d{2,4})`)
	areaMinRe       = regexp.MustCompile(`(\d{2,4})\s*(m²|平方公尺|平方米|坪)?\s*(以上的|以上|起)`)
	areaMinStrictRe = regexp.MustCompile(`(大於|超過|多於)\s*(\d{2,4})`)
	areaMaxRe       = regexp.MustCompile(`(\d{2,4})\s*(m²|平方公尺|平方米|坪)?\s*(以下|以內|之內)`)
	areaMaxStrictRe = regexp.MustCompile(`(小於|少於|低於)\s*(\d{2,4})`)
)

// ExtractPriceRange parses price constraints out of a user utterance.
// An explicit range ("2000~3000元", "1500到2500") wins outright; otherwise
// lower and upper bounds are extracted independently, so a single utterance
// may set both ("大於1000小於2000").
func ExtractPriceRange(text string) PriceRange {
	var r PriceRange

	if m := priceRangeRe.FindStringSubmatch(text); m != nil {
		r.Min = atoiPtr(m[1])
		r.Max = atoiPtr(m[3])
		return r
	}

	if m := priceMinRe.FindStringSubmatch(text); m != nil {
		r.Min = atoiPtr(m[1])
	} else if m := priceMinStrictRe.FindStringSubmatch(text); m != nil {
		r.Min = atoiPtr(m[2])
		r.MinStrict = true
	}

	if m := priceMaxRe.FindStringSubmatch(text); m != nil {
		r.Max = atoiPtr(m[1])
	} else if m := priceMaxStrictRe.FindStringSubmatch(text); m != nil {
		r.Max = atoiPtr(m[2])
		r.MaxStrict = true
	}

	return r
}

// ExtractAreaRange parses area constraints. The text must mention an area
// unit or keyword at all before any number is considered, which keeps bare
// numbers ("我要2房") from being read as area bounds.
func ExtractAreaRange(text string) AreaRange {
	var r AreaRange

	if !areaKeywordRe.MatchString(text) {
		return r
	}

	if m := areaRangeRe.FindStringSubmatch(text); m != nil {
		r.Min = atoiPtr(m[1])
		r.Max = atoiPtr(m[4])
		return r
	}

	if m := areaMinRe.FindStringSubmatch(text); m != nil {
		r.Min = atoiPtr(m[1])
	} else if m := areaMinStrictRe.FindStringSubmatch(text); m != nil {
		r.Min = atoiPtr(m[2])
		r.MinStrict = true
	}

	if m := areaMaxRe.FindStringSubmatch(text); m != nil {
		r.Max = atoiPtr(m[1])
	} else if m := areaMaxStrictRe.FindStringSubmatch(text); m != nil {
		r.Max = atoiPtr(m[2])
		r.MaxStrict = true
	}

	return r
}

// ExtractStyleKeywords returns the styles (catalog vocabulary, first
// appearance order) that occur verbatim in the text.
func ExtractStyleKeywords(text string, styles []string) []string {
	matched := []string{}
	for _, style := range styles {
		if style != "" && strings.Contains(text, style) {
			matched = append(matched, style)
		}
	}
	return matched
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
