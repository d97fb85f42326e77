package catalog

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// cleanSynopsis trims the cell and, when it carries HTML markup (rich text
// pasted into the sheet), converts it to Markdown.
func cleanSynopsis(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil || !hasMarkup(doc) {
		return s
	}
	markdown, err := htmltomarkdown.ConvertNode(doc)
	if err != nil {
		return s
	}
	return strings.TrimSpace(string(markdown))
}

// hasMarkup reports whether the parsed document has any element besides the
// html/head/body scaffolding the parser always adds.
func hasMarkup(n *html.Node) bool {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "html", "head", "body":
		default:
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasMarkup(c) {
			return true
		}
	}
	return false
}
