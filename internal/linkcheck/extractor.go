package linkcheck

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// maxTitleLen bounds stored page titles.
const maxTitleLen = 200

// ExtractTitle returns the text of the first <title> element in an HTML
// document, with whitespace collapsed. It stops reading at </head> or <body>.
func ExtractTitle(r io.Reader) string {
	z := html.NewTokenizer(r)
	inTitle := false
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return normalizeTitle(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = true
			case "body":
				return normalizeTitle(b.String())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				return normalizeTitle(b.String())
			case "head":
				return normalizeTitle(b.String())
			}
		case html.TextToken:
			if inTitle {
				b.Write(z.Text())
			}
		}
	}
}

func normalizeTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxTitleLen {
		s = string(r[:maxTitleLen])
	}
	return s
}
