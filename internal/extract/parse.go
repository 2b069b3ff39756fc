package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// numberRe matches the numeric part of a currency string after separators
// have been normalized.
var numberRe = regexp.MustCompile(`\d+(\.\d+)?`)

// ParsePrice parses a Brazilian-locale price string such as "R$ 1.234,56"
// into its numeric value. The thousands separator is "." and the decimal
// separator is ",". Returns false when no number can be recovered.
func ParsePrice(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}

	s := strings.ReplaceAll(text, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)

	// Drop thousands separators, then turn the decimal comma into a point.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
