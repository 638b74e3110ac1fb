package scrape

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// MaxCaptionRunes is the Telegram caption limit.
const MaxCaptionRunes = 1024

// PageMeta is descriptive text about a post page, used for captions.
type PageMeta struct {
	Title       string
	Description string
}

// Caption builds a media caption: page title and description followed by
// footer, trimmed to MaxCaptionRunes. The footer is never cut.
func (m PageMeta) Caption(footer string) string {
	body := m.Title
	if m.Description != "" && m.Description != m.Title {
		if body != "" {
			body += "\n\n"
		}

		body += m.Description
	}

	if body == "" {
		return truncate(footer, MaxCaptionRunes)
	}

	if footer == "" {
		return truncate(body, MaxCaptionRunes)
	}

	const separator = "\n\n"

	budget := MaxCaptionRunes - utf8.RuneCountInString(footer) - utf8.RuneCountInString(separator)
	if budget <= 0 {
		return truncate(footer, MaxCaptionRunes)
	}

	return truncate(body, budget) + separator + footer
}

type metaTags struct {
	title         string
	description   string
	ogTitle       string
	ogDescription string
}

// ExtractPageMeta reads the page title and description. It never fails:
// unparseable pages produce an empty PageMeta.
func (s *PatternScraper) ExtractPageMeta(htmlText, pageURL string) PageMeta {
	return ExtractPageMeta(htmlText, pageURL)
}

func ExtractPageMeta(htmlText, pageURL string) PageMeta {
	meta := extractMetaTags(htmlText)

	title := coalesce(meta.ogTitle, meta.title)
	if title == "" {
		title = readabilityTitle(htmlText, pageURL)
	}

	return PageMeta{
		Title:       title,
		Description: coalesce(meta.ogDescription, meta.description),
	}
}

func readabilityTitle(htmlText, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(htmlText), u)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(article.Title)
}

func extractMetaTags(htmlText string) metaTags {
	var meta metaTags

	doc, err := html.Parse(bytes.NewReader([]byte(htmlText)))
	if err != nil {
		return meta
	}

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if meta.title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					meta.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := getMetaAttrs(n)
				switch strings.ToLower(name) {
				case "description":
					meta.description = content
				case "og:title":
					meta.ogTitle = content
				case "og:description":
					meta.ogDescription = content
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	return meta
}

func getMetaAttrs(n *html.Node) (string, string) {
	var name, content string

	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "name", "property":
			name = attr.Val
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}

	return name, content
}

func coalesce(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}

	return ""
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)

	return string(runes[:maxRunes])
}
