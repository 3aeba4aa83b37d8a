// Package dom provides a headless live document for the mdview engine.
// It implements mdview.DocumentPort against an in-process HTML tree
// (golang.org/x/net/html): rendered markdown fragments are inserted
// into a content container resolved by a fallback chain, document
// height is derived from a simple box model, and collapsible regions
// report toggle events over the document-to-host channel.
package dom

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/fwojciec/mdview"
)

// Defaults for the shell document.
const (
	// DefaultConverterName is the markdown entry point the document
	// resolves at render time, mirroring a global render function the
	// shell's bundled library would expose.
	DefaultConverterName = "markdown"

	// DefaultContentID is the id of the designated content container.
	DefaultContentID = "content"

	// DefaultContentClass is the fallback container class.
	DefaultContentClass = "markdown-body"
)

const defaultShell = `<!DOCTYPE html><html><head></head><body><div id="content"></div></body></html>`

// baseCSS is the bundled stylesheet applied when the document is styled.
const baseCSS = `body { margin: 0; font-family: -apple-system, sans-serif; }
#content { overflow-wrap: break-word; }`

// Document is a headless live document. It is safe for concurrent use;
// one engine instance owns each document.
type Document struct {
	mu sync.Mutex

	shell         string
	geom          Geometry
	contentID     string
	contentClass  string
	converterName string
	log           logrus.FieldLogger

	root       *html.Node
	body       *html.Node
	converters map[string]mdview.Converter
	regions    map[*html.Node]*region
	scrollTop  float64
	msgs       chan mdview.Message
}

// Option configures a Document.
type Option func(*Document)

// WithGeometry sets the viewport geometry used by the box model.
func WithGeometry(g Geometry) Option {
	return func(d *Document) { d.geom = g }
}

// WithShell replaces the default HTML shell.
func WithShell(shell string) Option {
	return func(d *Document) { d.shell = shell }
}

// WithContentID sets the id of the designated content container.
func WithContentID(id string) Option {
	return func(d *Document) { d.contentID = id }
}

// WithContentClass sets the fallback content container class.
func WithContentClass(class string) Option {
	return func(d *Document) { d.contentClass = class }
}

// WithConverterName sets the name of the markdown entry point the
// document resolves at render time.
func WithConverterName(name string) Option {
	return func(d *Document) { d.converterName = name }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Document) { d.log = log }
}

// New creates a Document with an empty shell and no registered
// converters. Renders fail with mdview.ErrRendererNotReady until a
// converter is registered under the document's converter name.
func New(opts ...Option) *Document {
	d := &Document{
		shell:         defaultShell,
		geom:          DefaultGeometry(),
		contentID:     DefaultContentID,
		contentClass:  DefaultContentClass,
		converterName: DefaultConverterName,
		converters:    make(map[string]mdview.Converter),
		msgs:          make(chan mdview.Message, 64),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		d.log = l
	}
	if err := d.rebuild(mdview.DocumentConfig{}); err != nil {
		// The default shell always parses; a broken custom shell
		// surfaces on the first Configure.
		d.root = &html.Node{Type: html.DocumentNode}
		d.body = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		d.root.AppendChild(d.body)
	}
	return d
}

// RegisterConverter installs a markdown converter under name, the way a
// shell script load would expose a global render entry point. The
// registry survives Configure: loaded libraries belong to the document,
// not to one rendered markdown session.
func (d *Document) RegisterConverter(name string, c mdview.Converter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.converters[name] = c
}

// Interface compliance check.
var _ mdview.DocumentPort = (*Document)(nil)

// Configure rebuilds the shell with the given CSS, stylesheets and
// plugins. All content, scroll state and collapsible-region identity
// from the prior document session is discarded.
func (d *Document) Configure(ctx context.Context, cfg mdview.DocumentConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rebuild(cfg)
}

func (d *Document) rebuild(cfg mdview.DocumentConfig) error {
	root, err := html.Parse(strings.NewReader(d.shell))
	if err != nil {
		return fmt.Errorf("parse shell: %w", err)
	}
	body := findElement(root, "body")
	if body == nil {
		return fmt.Errorf("shell has no body element")
	}
	head := findElement(root, "head")
	if head != nil {
		if cfg.Styled {
			head.AppendChild(styleNode(baseCSS))
		}
		if cfg.CSS != "" {
			head.AppendChild(styleNode(cfg.CSS))
		}
		for _, url := range cfg.Stylesheets {
			head.AppendChild(stylesheetLink(url))
		}
		for _, src := range cfg.Plugins {
			head.AppendChild(scriptNode(wrapPlugin(src)))
		}
	}
	d.root = root
	d.body = body
	d.regions = make(map[*html.Node]*region)
	d.scrollTop = 0
	return nil
}

// Render decodes the request payload, converts it through the resolved
// entry point and mutates the content container. Append mode adds
// children; replace mode discards prior content first.
func (d *Document) Render(ctx context.Context, req mdview.RenderRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	conv, ok := d.converters[d.converterName]
	if !ok {
		return mdview.ErrRendererNotReady
	}

	var source string
	var err error
	if req.Append {
		source, err = mdview.UnescapeTemplateLiteral(req.Payload)
	} else {
		source, err = mdview.DecodeURIComponent(req.Payload)
	}
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	rendered, err := conv(source, req.Images)
	if err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}

	nodes, err := html.ParseFragment(strings.NewReader(rendered), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return fmt.Errorf("parse rendered html: %w", err)
	}

	container := d.container()
	if !req.Append {
		for container.FirstChild != nil {
			container.RemoveChild(container.FirstChild)
		}
		// Replaced nodes take their region identity with them.
		d.regions = make(map[*html.Node]*region)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return nil
}

// RendererReady reports whether the markdown entry point resolves.
func (d *Document) RendererReady(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.converters[d.converterName]
	return ok
}

// MeasureHeight returns the document height from the box model.
func (d *Document) MeasureHeight(ctx context.Context) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measure(), nil
}

// ScrollToBottom moves the viewport to the maximum scroll offset.
func (d *Document) ScrollToBottom(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	top := d.measure() - d.geom.ViewportHeight
	if top < 0 {
		top = 0
	}
	d.scrollTop = top
	return nil
}

// ScrollTop returns the current viewport scroll offset.
func (d *Document) ScrollTop() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrollTop
}

// Messages returns the document-to-host channel.
func (d *Document) Messages() <-chan mdview.Message {
	return d.msgs
}

// ActivateLink simulates a navigation-type interaction on the i-th
// anchor element (document order) and reports it over the channel.
func (d *Document) ActivateLink(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := nthElement(d.root, "a", i)
	if n == nil {
		return fmt.Errorf("no anchor element at index %d", i)
	}
	href := attrValue(n, "href")
	if href == "" {
		return fmt.Errorf("anchor %d has no href", i)
	}
	d.emit(mdview.NewLinkActivatedMessage(href))
	return nil
}

// HTML serializes the current document, mainly for tests and debugging.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return "", err
	}
	return b.String(), nil
}

// container resolves the content container: the designated content id,
// else the designated content class, else the body.
func (d *Document) container() *html.Node {
	if n := findByID(d.root, d.contentID); n != nil {
		return n
	}
	if n := findByClass(d.root, d.contentClass); n != nil {
		return n
	}
	return d.body
}

// emit delivers a message without blocking document mutation; a full
// channel means the host stopped consuming, so the event is dropped.
func (d *Document) emit(msg mdview.Message) {
	select {
	case d.msgs <- msg:
	default:
		d.log.WithField("kind", msg.Kind).Warn("message channel full, dropping event")
	}
}

// wrapPlugin wraps a plugin source in a module-style closure and
// registers it with the shell's plugin entry point.
func wrapPlugin(src string) string {
	return fmt.Sprintf("usePlugin((function(module) {\n%s\nreturn module.exports;\n})({ exports: {} }));", src)
}

func styleNode(css string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	return n
}

func stylesheetLink(url string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "link",
		DataAtom: atom.Link,
		Attr: []html.Attribute{
			{Key: "rel", Val: "stylesheet"},
			{Key: "href", Val: url},
		},
	}
}

func scriptNode(src string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: src})
	return n
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findByID(n *html.Node, id string) *html.Node {
	if id != "" && n.Type == html.ElementNode && attrValue(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findByClass(n *html.Node, class string) *html.Node {
	if class != "" && n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func nthElement(n *html.Node, tag string, i int) *html.Node {
	count := 0
	var walk func(*html.Node) *html.Node
	walk = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == tag {
			if count == i {
				return n
			}
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(n)
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attrValue(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// textContent returns the concatenated text of n's subtree.
func textContent(n *html.Node) string {
	var b strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return b.String()
}
