package dom

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
)

// Geometry describes the headless viewport the box model lays out
// against. All values are pixels. A ViewportHeight of 0 models a host
// view that starts collapsed and grows to the measured content height.
type Geometry struct {
	ViewportWidth  float64
	ViewportHeight float64
	LineHeight     float64
	CharWidth      float64
	ImageHeight    float64 // placeholder height for images
	BlockMargin    float64 // vertical margin contributed by block elements
}

// DefaultGeometry returns the default viewport geometry.
func DefaultGeometry() Geometry {
	return Geometry{
		ViewportWidth:  800,
		ViewportHeight: 0,
		LineHeight:     20,
		CharWidth:      8,
		ImageHeight:    150,
		BlockMargin:    12,
	}
}

// measure computes the document height as the maximum across six
// candidate readings: scroll, offset and client heights of the root
// element and the body. No single metric is reliable across engine
// quirks and content types; the maximum is an idempotent answer that
// never mutates document state. Callers hold d.mu.
func (d *Document) measure() float64 {
	content := d.childrenHeight(d.body)
	rootScroll := content
	if d.geom.ViewportHeight > rootScroll {
		rootScroll = d.geom.ViewportHeight
	}
	readings := [6]float64{
		rootScroll,            // root scrollHeight
		d.geom.ViewportHeight, // root offsetHeight
		d.geom.ViewportHeight, // root clientHeight
		content,               // body scrollHeight
		content,               // body offsetHeight
		content,               // body clientHeight
	}
	max := 0.0
	for _, r := range readings {
		if r > max {
			max = r
		}
	}
	return max
}

// childrenHeight sums the block heights of n's children.
func (d *Document) childrenHeight(n *html.Node) float64 {
	var h float64
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		h += d.blockHeight(c)
	}
	return h
}

// blockHeight returns the rendered height of one block-level node.
func (d *Document) blockHeight(n *html.Node) float64 {
	switch n.Type {
	case html.TextNode:
		return d.textHeight(n.Data)
	case html.ElementNode:
	default:
		return 0
	}
	switch n.Data {
	case "script", "style", "link", "template", "head", "meta", "title":
		return 0
	case "img":
		return d.geom.ImageHeight
	case "br":
		return d.geom.LineHeight
	case "hr":
		return d.geom.LineHeight + d.geom.BlockMargin
	case "details":
		return d.detailsHeight(n)
	case "pre":
		text := strings.TrimRight(textContent(n), "\n")
		lines := strings.Count(text, "\n") + 1
		return float64(lines)*d.geom.LineHeight + d.geom.BlockMargin
	case "ul", "ol", "blockquote", "table", "div", "section", "article":
		return d.childrenHeight(n) + d.geom.BlockMargin
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "summary", "tr", "dt", "dd":
		return d.flowHeight(n) + d.geom.BlockMargin
	default:
		// Unknown elements lay out as generic flow content.
		return d.flowHeight(n)
	}
}

// flowHeight measures a block whose children are mostly inline: text
// runs wrap at the viewport width, images and nested blocks stack below.
func (d *Document) flowHeight(n *html.Node) float64 {
	var h float64
	var inline strings.Builder
	flushInline := func() {
		h += d.textHeight(inline.String())
		inline.Reset()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode:
			inline.WriteString(c.Data)
		case c.Type == html.ElementNode && isInline(c.Data):
			inline.WriteString(textContent(c))
		case c.Type == html.ElementNode:
			flushInline()
			h += d.blockHeight(c)
		}
	}
	flushInline()
	return h
}

// textHeight returns the height of a wrapped inline text run.
func (d *Document) textHeight(s string) float64 {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return 0
	}
	cols := int(d.geom.ViewportWidth / d.geom.CharWidth)
	if cols < 1 {
		cols = 1
	}
	w := runewidth.StringWidth(s)
	lines := (w + cols - 1) / cols
	if lines < 1 {
		lines = 1
	}
	return float64(lines) * d.geom.LineHeight
}

func isInline(tag string) bool {
	switch tag {
	case "a", "em", "strong", "code", "span", "b", "i", "u", "s", "del", "small", "sup", "sub", "mark", "abbr":
		return true
	}
	return false
}
