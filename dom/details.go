package dom

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/fwojciec/mdview"
)

// region tracks one collapsible element for the lifetime of a document
// session. Identity survives repeated toggles and is discarded when the
// document is rebuilt or its content replaced.
type region struct {
	id          string
	innerHeight float64
	measured    bool
}

// ToggleDetails toggles the i-th details element in document order,
// wherever it sits in the tree, and reports the state change over the
// document-to-host channel. The region's inner content height is
// measured and cached on its first expansion; after that the cached
// value is reported without re-measuring. A region toggled closed
// before ever being open reports an inner height of 0.
func (d *Document) ToggleDetails(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := nthElement(d.root, "details", i)
	if n == nil {
		return fmt.Errorf("no details element at index %d", i)
	}

	r := d.regions[n]
	if r == nil {
		r = &region{id: uuid.NewString()}
		d.regions[n] = r
		setAttr(n, "data-region-id", r.id)
	}

	open := !hasAttr(n, "open")
	if open {
		setAttr(n, "open", "")
	} else {
		removeAttr(n, "open")
	}

	if open && !r.measured {
		r.innerHeight = d.detailsInnerHeight(n)
		r.measured = true
	}

	d.emit(mdview.NewDetailsToggledMessage(r.id, open, r.innerHeight))
	if open {
		// Expansion changes the layout; the resulting whole-document
		// measurement arrives as a natural height update. Collapse
		// relies on the cached delta alone.
		d.emit(mdview.NewHeightMessage(d.measure()))
	}
	return nil
}

// DetailsCount returns the number of details elements in the document.
func (d *Document) DetailsCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "details" {
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return count
}

// detailsHeight is the rendered height of a details element: the
// always-visible summary plus, when open, the inner content.
func (d *Document) detailsHeight(n *html.Node) float64 {
	h := d.summaryHeight(n) + d.geom.BlockMargin
	if hasAttr(n, "open") {
		h += d.detailsInnerHeight(n)
	}
	return h
}

// detailsInnerHeight is the expanded content height of a details
// element excluding its summary: the region's scroll height minus the
// always-visible header.
func (d *Document) detailsInnerHeight(n *html.Node) float64 {
	var h float64
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "summary" {
			continue
		}
		h += d.blockHeight(c)
	}
	return h
}

func (d *Document) summaryHeight(n *html.Node) float64 {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "summary" {
			return d.flowHeight(c)
		}
	}
	return d.geom.LineHeight
}
