// Package mdview implements the incremental markdown rendering and
// height-reconciliation engine behind an embedded markdown view. The
// engine buffers streamed markdown chunks, coalesces them into debounced
// render passes against a live document reached through a DocumentPort,
// measures the resulting document height, and maintains the single
// authoritative height value the host layout consumes. Collapsible
// regions report cached height deltas instead of forcing whole-document
// re-measurement.
package mdview

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
)

// Scheduling defaults.
const (
	// DefaultFlushDelay is the debounce window after the last chunk
	// containing a line break before a flush fires.
	DefaultFlushDelay = 40 * time.Millisecond

	// DefaultRetryDelay is the interval between flush retries while the
	// document's markdown entry point is not yet available.
	DefaultRetryDelay = 30 * time.Millisecond
)

// bufferState tracks the chunk scheduler.
type bufferState int

const (
	stateIdle      bufferState = iota // no pending timer
	stateBuffering                    // debounce timer armed
	stateFlushing                     // render+measure in progress
)

// Engine drives a single live document. All document mutation,
// measurement and event handling happens on one run loop goroutine;
// public methods post commands to it. One engine per document.
type Engine struct {
	port DocumentPort
	log  logrus.FieldLogger

	flushDelay time.Duration
	retryDelay time.Duration

	onRendered func(float64)
	invalidate func()
	onLink     func(string)

	cmds      chan func()
	done      chan struct{}
	closeOnce sync.Once

	// Run-loop-owned state. Never touched outside the loop.
	rec         reconciler
	buf         strings.Builder
	state       bufferState
	flushTimer  *time.Timer
	retryTimer  *time.Timer
	local       []func() // intra-loop queue; a queued entry is one paint yield away
	pendingDoc  *string  // replace-mode render waiting for the renderer
	flushQueued bool     // a qualifying chunk arrived mid-flush
	images      bool
	gen         int // load generation; guards stale timer fires
}

// Option configures an Engine.
type Option func(*Engine)

// WithFlushDelay sets the debounce window for chunk flushes.
func WithFlushDelay(d time.Duration) Option {
	return func(e *Engine) { e.flushDelay = d }
}

// WithRetryDelay sets the renderer-not-ready retry interval.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) { e.retryDelay = d }
}

// WithLogger sets the diagnostic logger. Failures of the script channel
// are reported here and never propagate to callers.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithRenderedHandler sets the callback fired on every stored-height
// change, with the new height. Called on the engine loop.
func WithRenderedHandler(h func(height float64)) Option {
	return func(e *Engine) { e.onRendered = h }
}

// WithLayoutInvalidator sets the callback that marks the host layout
// dirty when the stored height changes. Called on the engine loop.
func WithLayoutInvalidator(h func()) Option {
	return func(e *Engine) { e.invalidate = h }
}

// WithLinkHandler sets the callback for navigation-type interactions
// targeting external URLs. If unset, URLs open externally.
func WithLinkHandler(h func(url string)) Option {
	return func(e *Engine) { e.onLink = h }
}

// LoadOption configures a single Load invocation.
type LoadOption func(*loadConfig)

type loadConfig struct {
	images      bool
	css         string
	stylesheets []string
	plugins     []string
	styled      bool
}

// WithImages enables or disables image rendering for the document.
// Images are enabled by default.
func WithImages(enabled bool) LoadOption {
	return func(c *loadConfig) { c.images = enabled }
}

// WithCSS injects inline stylesheet text into the document shell.
func WithCSS(css string) LoadOption {
	return func(c *loadConfig) { c.css = css }
}

// WithStylesheets injects external stylesheet URLs into the shell.
func WithStylesheets(urls ...string) LoadOption {
	return func(c *loadConfig) { c.stylesheets = append(c.stylesheets, urls...) }
}

// WithPlugins injects script plugins into the shell. Each source is
// wrapped in a module-style closure and registered with the document's
// plugin registration entry point.
func WithPlugins(sources ...string) LoadOption {
	return func(c *loadConfig) { c.plugins = append(c.plugins, sources...) }
}

// WithStyled controls whether the bundled base stylesheet applies.
// Styled is true by default.
func WithStyled(styled bool) LoadOption {
	return func(c *loadConfig) { c.styled = styled }
}

// New creates an Engine bound to port and starts its run loop.
func New(port DocumentPort, opts ...Option) *Engine {
	e := &Engine{
		port:       port,
		flushDelay: DefaultFlushDelay,
		retryDelay: DefaultRetryDelay,
		cmds:       make(chan func(), 16),
		done:       make(chan struct{}),
		images:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	e.rec = reconciler{onRendered: e.onRendered, invalidate: e.invalidate}
	go e.loop()
	return e
}

// Load (re)initializes the engine and document from scratch: prior
// buffered chunks, pending flushes, cached region heights and the
// stored height are all discarded before the new document renders.
func (e *Engine) Load(ctx context.Context, markdown string, opts ...LoadOption) error {
	cfg := loadConfig{images: true, styled: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return e.call(ctx, func(ctx context.Context) error {
		return e.load(ctx, markdown, cfg)
	})
}

// Show replaces the document body with a full new render of markdown
// without rebuilding CSS, stylesheets or plugins.
func (e *Engine) Show(ctx context.Context, markdown string) error {
	return e.call(ctx, func(ctx context.Context) error {
		e.resetScheduling()
		e.renderDocument(markdown)
		return nil
	})
}

// AppendChunk feeds a streamed text fragment to the chunk buffer. The
// chunk is always buffered; a flush is scheduled only when the chunk
// contains a line break, and rapid qualifying arrivals coalesce into a
// single render pass.
func (e *Engine) AppendChunk(text string) error {
	return e.post(func() { e.appendChunk(text) })
}

// AddLine immediately appends a single markdown line to the document,
// bypassing the chunk buffer and its debounce window.
func (e *Engine) AddLine(line string) error {
	return e.post(func() { e.addLine(line) })
}

// ScrollToBottom scrolls the document viewport to its maximum offset.
func (e *Engine) ScrollToBottom(ctx context.Context) error {
	return e.call(ctx, func(ctx context.Context) error {
		return e.port.ScrollToBottom(ctx)
	})
}

// MeasureHeight invokes the height probe on demand. The reading also
// feeds the stored height like any other measurement.
func (e *Engine) MeasureHeight(ctx context.Context) (float64, error) {
	var h float64
	err := e.call(ctx, func(ctx context.Context) error {
		v, err := e.port.MeasureHeight(ctx)
		if err != nil {
			return err
		}
		h = v
		e.rec.update(v)
		return nil
	})
	return h, err
}

// Height returns the current stored height, the single source of truth
// for host layout.
func (e *Engine) Height() float64 {
	var h float64
	_ = e.call(context.Background(), func(context.Context) error {
		h = e.rec.height
		return nil
	})
	return h
}

// Close stops the run loop and cancels pending timers. Subsequent calls
// on the engine return ErrEngineClosed.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() { close(e.done) })
	return nil
}

// post submits fn to the run loop without waiting for it to execute.
func (e *Engine) post(fn func()) error {
	select {
	case <-e.done:
		return ErrEngineClosed
	default:
	}
	select {
	case e.cmds <- fn:
		return nil
	case <-e.done:
		return ErrEngineClosed
	}
}

// call submits fn to the run loop and waits for its result.
func (e *Engine) call(ctx context.Context, fn func(context.Context) error) error {
	errc := make(chan error, 1)
	if err := e.post(func() { errc <- fn(ctx) }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrEngineClosed
	}
}

// yield schedules fn for the next loop turn. The turn boundary is the
// engine's "wait for next paint" suspension point between a document
// mutation and the measurement that follows it.
func (e *Engine) yield(fn func()) {
	e.local = append(e.local, fn)
}

func (e *Engine) loop() {
	msgs := e.port.Messages()
	for {
		if len(e.local) > 0 {
			fn := e.local[0]
			e.local = e.local[1:]
			fn()
			continue
		}
		select {
		case <-e.done:
			e.resetScheduling()
			return
		case fn := <-e.cmds:
			fn()
		case msg, ok := <-msgs:
			if !ok {
				msgs = nil
				continue
			}
			e.handleMessage(msg)
		}
	}
}

func (e *Engine) handleMessage(msg Message) {
	evt, err := DecodeMessage(msg)
	if err != nil {
		e.log.WithError(err).Debug("dropping document message")
		return
	}
	switch ev := evt.(type) {
	case EventHeightUpdated:
		e.rec.update(ev.Height)
	case EventDetailsToggled:
		e.rec.toggled(ev.Open, ev.InnerHeight)
	case EventLinkActivated:
		if e.onLink != nil {
			e.onLink(ev.URL)
			return
		}
		if err := browser.OpenURL(ev.URL); err != nil {
			e.log.WithError(err).WithField("url", ev.URL).Warn("open url failed")
		}
	}
}

func (e *Engine) load(ctx context.Context, markdown string, cfg loadConfig) error {
	e.resetScheduling()
	e.rec.reset()
	e.images = cfg.images
	err := e.port.Configure(ctx, DocumentConfig{
		CSS:         cfg.css,
		Stylesheets: cfg.stylesheets,
		Plugins:     cfg.plugins,
		Styled:      cfg.styled,
	})
	if err != nil {
		return err
	}
	e.renderDocument(markdown)
	return nil
}

// resetScheduling cancels both timer purposes, drops queued paint
// yields and clears the pending buffer. Bumping the generation makes
// any timer fire already in flight a no-op: no stale flush from a prior
// document survives a reload.
func (e *Engine) resetScheduling() {
	e.gen++
	if e.flushTimer != nil {
		e.flushTimer.Stop()
		e.flushTimer = nil
	}
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	e.local = nil
	e.buf.Reset()
	e.state = stateIdle
	e.flushQueued = false
	e.pendingDoc = nil
}

// renderDocument performs a replace-mode render of a whole document.
// When the renderer entry point is absent the markdown is parked and
// retried; it is never dropped.
func (e *Engine) renderDocument(markdown string) {
	ctx := context.Background()
	req := RenderRequest{Payload: EncodeURIComponent(markdown), Append: false, Images: e.images}
	if err := e.port.Render(ctx, req); err != nil {
		if errors.Is(err, ErrRendererNotReady) {
			e.pendingDoc = &markdown
			e.scheduleRetry()
			return
		}
		e.log.WithError(err).Warn("document render failed")
		return
	}
	e.pendingDoc = nil
	gen := e.gen
	e.yield(func() { e.measure(gen, false) })
}

func (e *Engine) appendChunk(text string) {
	e.buf.WriteString(text)
	if !strings.ContainsRune(text, '\n') {
		return
	}
	e.scheduleFlush(e.flushDelay)
}

func (e *Engine) addLine(line string) {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	ctx := context.Background()
	req := RenderRequest{Payload: EscapeTemplateLiteral(line), Append: true, Images: e.images}
	if err := e.port.Render(ctx, req); err != nil {
		if errors.Is(err, ErrRendererNotReady) {
			// Fall back to the buffered path so the line is not lost.
			e.buf.WriteString(line)
			e.scheduleFlush(e.retryDelay)
			return
		}
		e.log.WithError(err).Warn("line render failed")
		return
	}
	gen := e.gen
	e.yield(func() { e.measure(gen, true) })
}

// scheduleFlush arms or restarts the single debounce timer. While a
// flush is in progress the timer is not re-armed; the request is parked
// and honored when the flush completes.
func (e *Engine) scheduleFlush(d time.Duration) {
	if e.state == stateFlushing {
		e.flushQueued = true
		return
	}
	e.state = stateBuffering
	if e.flushTimer != nil {
		e.flushTimer.Stop()
	}
	gen := e.gen
	e.flushTimer = time.AfterFunc(d, func() {
		_ = e.post(func() { e.onFlushTimer(gen) })
	})
}

func (e *Engine) onFlushTimer(gen int) {
	if gen != e.gen {
		return
	}
	if e.state == stateFlushing {
		e.flushQueued = true
		return
	}
	e.flushTimer = nil
	e.state = stateFlushing
	e.flush()
}

// flush renders the accumulated buffer in append mode, then measures
// after a paint yield. The buffer deliberately keeps its contents
// across flushes: the accumulated text preserves line-break context for
// subsequent chunks, a trade-off inherited from the original design.
func (e *Engine) flush() {
	ctx := context.Background()
	if !e.port.RendererReady(ctx) {
		e.scheduleRetry()
		return
	}
	req := RenderRequest{Payload: EscapeTemplateLiteral(e.buf.String()), Append: true, Images: e.images}
	if err := e.port.Render(ctx, req); err != nil {
		if errors.Is(err, ErrRendererNotReady) {
			e.scheduleRetry()
			return
		}
		e.log.WithError(err).Warn("chunk render failed")
		e.finishFlush(e.gen)
		return
	}
	gen := e.gen
	e.yield(func() {
		e.measure(gen, true)
		e.finishFlush(gen)
	})
}

// measure probes the document height and feeds the reconciler, then
// optionally scrolls to the bottom. A failed probe degrades to no
// visual update this cycle.
func (e *Engine) measure(gen int, scroll bool) {
	if gen != e.gen {
		return
	}
	ctx := context.Background()
	h, err := e.port.MeasureHeight(ctx)
	if err != nil {
		e.log.WithError(err).Warn("height measurement failed")
	} else {
		e.rec.update(h)
	}
	if scroll {
		if err := e.port.ScrollToBottom(ctx); err != nil {
			e.log.WithError(err).Debug("scroll to bottom failed")
		}
	}
}

func (e *Engine) finishFlush(gen int) {
	if gen != e.gen {
		return
	}
	e.state = stateIdle
	if e.flushQueued {
		e.flushQueued = false
		e.scheduleFlush(e.flushDelay)
	}
}

// scheduleRetry arms the single retry timer. Retries continue
// indefinitely until the renderer entry point becomes available.
func (e *Engine) scheduleRetry() {
	if e.retryTimer != nil {
		e.retryTimer.Stop()
	}
	gen := e.gen
	e.retryTimer = time.AfterFunc(e.retryDelay, func() {
		_ = e.post(func() { e.onRetryTimer(gen) })
	})
}

func (e *Engine) onRetryTimer(gen int) {
	if gen != e.gen {
		return
	}
	e.retryTimer = nil
	if e.pendingDoc != nil {
		md := *e.pendingDoc
		e.renderDocument(md)
		if e.pendingDoc != nil {
			// Still not ready; the rescheduled retry covers the
			// pending flush as well.
			return
		}
	}
	if e.state == stateFlushing {
		e.flush()
	}
}
