package mdview

import "context"

// RenderRequest describes one mutation of the live document. Payload
// carries encoded markdown: percent-encoded for replace-mode loads,
// template-literal-escaped for append-mode chunks. Append distinguishes
// "add to existing content" from "replace the entire document".
type RenderRequest struct {
	Payload string
	Append  bool
	Images  bool
}

// DocumentConfig carries the shell configuration applied once per load.
type DocumentConfig struct {
	CSS         string   // inline stylesheet text, empty for none
	Stylesheets []string // external stylesheet URLs
	Plugins     []string // script sources, each wrapped in a module closure
	Styled      bool     // apply the bundled base stylesheet
}

// Converter turns markdown into sanitized HTML. When imagesEnabled is
// false the converter suppresses image output; the policy itself is the
// converter's, the flag is threaded through unchanged.
type Converter func(markdown string, imagesEnabled bool) (string, error)

// DocumentPort is the script-evaluation boundary between the engine and
// the live document. Calls originate from the engine's run loop, one at
// a time; implementations backed by out-of-process documents should
// treat each call as an asynchronous message send completed by return.
type DocumentPort interface {
	// Configure rebuilds the document shell with the given CSS,
	// stylesheets and plugins, discarding prior content and any
	// collapsible-region state.
	Configure(ctx context.Context, cfg DocumentConfig) error

	// Render decodes the request payload, converts it through the
	// document's markdown entry point, and mutates the document.
	// Returns ErrRendererNotReady while the entry point is absent.
	Render(ctx context.Context, req RenderRequest) error

	// RendererReady reports whether the markdown entry point resolves.
	RendererReady(ctx context.Context) bool

	// MeasureHeight returns the current document height, never negative.
	MeasureHeight(ctx context.Context) (float64, error)

	// ScrollToBottom scrolls the viewport to its maximum offset.
	ScrollToBottom(ctx context.Context) error

	// Messages returns the document-to-host channel. The channel is
	// owned by the document and stays open for the document's lifetime.
	Messages() <-chan Message
}
