package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var digitRunRe = regexp.MustCompile(`\d+`)

var zhDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '兩': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9, '十': 10,
}

// ParseMaxOccupancy turns an LLM-provided occupancy value into an integer,
// accepting Arabic digits ("3", "25人") and Chinese numerals up to the tens
// ("兩", "十二", "二十三"). Unrecognized input yields 1, never 0 or less.
func ParseMaxOccupancy(value string) int {
	if m := digitRunRe.FindString(value); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}

	num := 0
	runes := []rune(value)
	switch {
	case len(runes) == 0:
		// fall through to the default
	case runes[0] == '十':
		num = 10
		if len(runes) > 1 {
			if d, ok := zhDigits[runes[1]]; ok {
				num += d
			}
		}
	case strings.ContainsRune(value, '十'):
		parts := strings.SplitN(value, "十", 2)
		tens := []rune(parts[0])
		if len(tens) == 1 {
			if d, ok := zhDigits[tens[0]]; ok {
				num = d * 10
			}
		}
		if len(parts) > 1 && parts[1] != "" {
			ones := []rune(parts[1])
			if d, ok := zhDigits[ones[0]]; ok {
				num += d
			}
		}
	default:
		for _, r := range runes {
			if d, ok := zhDigits[r]; ok {
				num = d
				break
			}
		}
	}

	if num <= 0 {
		return 1
	}
	return num
}
