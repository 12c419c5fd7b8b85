package extract

import (
	"regexp"
	"strings"
)

var (
	currencySymbol = regexp.MustCompile(`[€£$]`)
	currencyAmount = regexp.MustCompile(`[€£$]\s?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d+)?`)
)

// ParseSalary normalizes raw salary text.
//
// Text before the first currency symbol is dropped, then all
// currency-prefixed amounts are collected and deduplicated in order of first
// occurrence. One amount is returned as is, two become "low – high", and
// three or more become "<first> (avg), range <second> – <last>", the layout
// of the site's salary forecast block. Text without amounts is returned
// whitespace-collapsed.
func ParseSalary(raw string) string {
	text := NormalizeText(raw)
	if text == "" {
		return ""
	}

	if loc := currencySymbol.FindStringIndex(text); loc != nil && loc[0] > 0 {
		text = strings.TrimSpace(text[loc[0]:])
	}

	matches := currencyAmount.FindAllString(text, -1)
	if len(matches) == 0 {
		return text
	}

	seen := make(map[string]bool, len(matches))
	uniques := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			uniques = append(uniques, m)
		}
	}

	switch len(uniques) {
	case 1:
		return uniques[0]
	case 2:
		return uniques[0] + " – " + uniques[1]
	default:
		return uniques[0] + " (avg), range " + uniques[1] + " – " + uniques[len(uniques)-1]
	}
}
