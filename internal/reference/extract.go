package reference

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractText returns the whitespace-collapsed text of the nodes matching
// selector, falling back to all visible text when nothing matches. The
// result is cut to at most maxChars runes on a word boundary.
func ExtractText(htmlContent, selector string, maxChars int) (string, error) {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	doc := goquery.NewDocumentFromNode(root)

	var parts []string
	if selector != "" {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if text := collapse(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
	}

	text := strings.Join(parts, " ")
	if text == "" {
		text = collapse(extractVisibleText(root))
	}
	return truncate(text, maxChars), nil
}

// extractVisibleText extracts text nodes from HTML, skipping non-content tags
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "header", "footer":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)[:maxChars]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut) + "…"
}
