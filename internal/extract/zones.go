package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Zone names, in the fixed document order the engine emits them.
const (
	ZoneTitle       = "title"
	ZoneBullet      = "bullet"
	ZoneDescription = "description"
	ZoneAplus       = "aplus"
)

// Length caps, in runes. The description and secondary marketing blocks are
// truncated before extraction; titles and bullets are short by construction.
const (
	descriptionCap = 2000
	aplusCap       = 1000
)

// Zone is one structural region of a product page.
type Zone struct {
	Name string
	Text string
}

// ZoneSet is the extraction input for one asset: the asin plus the ordered
// structural zones claims may be drawn from. Backends must never return text
// that does not appear inside one of these zones.
type ZoneSet struct {
	ASIN  string
	Zones []Zone
}

// CombinedText joins all zone texts, used by the verbatim check and prompts.
func (z ZoneSet) CombinedText() string {
	var b strings.Builder
	for i, zone := range z.Zones {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(zone.Text)
	}
	return b.String()
}

// ParseZones extracts the fixed structural zones from product page HTML:
// title, feature bullets, description (capped) and A+ marketing modules
// (capped). Everything else on the page is ignored.
func ParseZones(asin, htmlContent string) (ZoneSet, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ZoneSet{}, err
	}

	set := ZoneSet{ASIN: asin}

	if title := findByID(doc, "productTitle"); title != nil {
		if text := collapseWhitespace(nodeText(title)); text != "" {
			set.Zones = append(set.Zones, Zone{Name: ZoneTitle, Text: text})
		}
	}

	for _, container := range []string{"feature-bullets", "feature-bullets-btf"} {
		if bullets := findByID(doc, container); bullets != nil {
			for _, item := range findAll(bullets, isBulletItem) {
				if text := collapseWhitespace(nodeText(item)); text != "" {
					set.Zones = append(set.Zones, Zone{Name: ZoneBullet, Text: text})
				}
			}
		}
	}

	if desc := findByID(doc, "productDescription"); desc != nil {
		if text := truncateRunes(collapseWhitespace(nodeText(desc)), descriptionCap); text != "" {
			set.Zones = append(set.Zones, Zone{Name: ZoneDescription, Text: text})
		}
	}

	for _, module := range findAll(doc, isAplusModule) {
		if text := truncateRunes(collapseWhitespace(nodeText(module)), aplusCap); text != "" {
			set.Zones = append(set.Zones, Zone{Name: ZoneAplus, Text: text})
		}
	}

	return set, nil
}

// nodeText extracts visible text, skipping script/style subtrees.
func nodeText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
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

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attrValue(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns matching nodes in document order; matched subtrees are not
// descended into, so nested modules do not double-count text.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return out
}

func isBulletItem(n *html.Node) bool {
	return n.Data == "span" && hasClass(n, "a-list-item")
}

func isAplusModule(n *html.Node) bool {
	return hasClass(n, "aplus-module-wrapper")
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attrValue(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func truncateRunes(s string, cap int) string {
	runes := []rune(s)
	if len(runes) <= cap {
		return s
	}
	return string(runes[:cap])
}
