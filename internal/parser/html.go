package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// parseHTMLFile extracts the visible text of an HTML document: script
// and style subtrees are dropped and the remaining text nodes are joined
// by newlines.
func parseHTMLFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return htmlToText(strings.NewReader(decodeBestEffort(data)))
}

// parseMarkdownFile renders markdown to HTML with goldmark and strips it
// down to visible text, so .md brochures go through the same path as
// .html ones.
func parseMarkdownFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(decodeBestEffort(data)), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown %s: %w", path, err)
	}
	return htmlToText(&buf)
}

func htmlToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	doc.Find("script, style").Remove()

	var lines []string
	for _, node := range doc.Nodes {
		collectText(node, &lines)
	}
	return strings.Join(lines, "\n"), nil
}

// collectText walks the node tree and appends each trimmed non-empty
// text node as its own line.
func collectText(n *html.Node, lines *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*lines = append(*lines, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, lines)
	}
}
