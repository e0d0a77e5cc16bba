package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractText strips script and style blocks and all markup from page,
// returning its visible text with whitespace collapsed.
func ExtractText(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	for _, node := range doc.Nodes {
		collectText(node, &b)
	}

	return strings.Join(strings.Fields(b.String()), " "), nil
}

// collectText appends every text node below n, separated by spaces so that
// adjacent elements do not glue their words together.
func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	if n.Type == html.CommentNode {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
