package fetch

import (
	"strings"

	"golang.org/x/net/html"
)

// maxImagesPerPage caps how many product images are indexed per page.
const maxImagesPerPage = 8

// productImagePath marks marketplace CDN product images. Sprites, icons and
// tracking pixels live elsewhere.
const productImagePath = "/images/I/"

// ExtractImageURLs collects product image URLs from a page, in document
// order, deduplicated.
func ExtractImageURLs(pageHTML string) []string {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var urls []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(urls) >= maxImagesPerPage {
			return
		}
		if n.Type == html.ElementNode && n.Data == "img" {
			if src := imageSource(n); src != "" && !seen[src] {
				seen[src] = true
				urls = append(urls, src)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return urls
}

// imageSource picks the highest-resolution candidate for an img node.
// data-old-hires beats src when present.
func imageSource(n *html.Node) string {
	var src, hires string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "src":
			src = attr.Val
		case "data-old-hires":
			hires = attr.Val
		}
	}
	candidate := hires
	if candidate == "" {
		candidate = src
	}
	if !strings.Contains(candidate, productImagePath) {
		return ""
	}
	return candidate
}
