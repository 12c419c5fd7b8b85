package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

// NormalizeText collapses whitespace runs into single spaces and trims the
// result.
func NormalizeText(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// skippedText lists elements whose text content is not part of the visible
// description.
var skippedText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
}

// blockElements break words apart; inline elements do not.
var blockElements = map[atom.Atom]bool{
	atom.Br: true, atom.P: true, atom.Div: true, atom.Li: true,
	atom.Ul: true, atom.Ol: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Table: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
}

// CleanText returns the visible text of an HTML fragment with script, style,
// noscript and iframe content removed and whitespace collapsed.
func CleanText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	depth := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return NormalizeText(b.String())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case skippedText[a] && tt == html.StartTagToken:
				depth++
			case skippedText[a] && tt == html.EndTagToken:
				if depth > 0 {
					depth--
				}
			case blockElements[a]:
				b.WriteByte(' ')
			}
		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}
		}
	}
}
