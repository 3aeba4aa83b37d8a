// Package mock provides test doubles for mdview interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/mdview"
)

// Interface compliance check.
var _ mdview.DocumentPort = (*Port)(nil)

// Port is a test double for mdview.DocumentPort.
// Set the function fields for the methods you need.
type Port struct {
	ConfigureFn      func(ctx context.Context, cfg mdview.DocumentConfig) error
	RenderFn         func(ctx context.Context, req mdview.RenderRequest) error
	RendererReadyFn  func(ctx context.Context) bool
	MeasureHeightFn  func(ctx context.Context) (float64, error)
	ScrollToBottomFn func(ctx context.Context) error
	MessagesFn       func() <-chan mdview.Message
}

// Configure delegates to ConfigureFn.
func (p *Port) Configure(ctx context.Context, cfg mdview.DocumentConfig) error {
	return p.ConfigureFn(ctx, cfg)
}

// Render delegates to RenderFn.
func (p *Port) Render(ctx context.Context, req mdview.RenderRequest) error {
	return p.RenderFn(ctx, req)
}

// RendererReady delegates to RendererReadyFn.
func (p *Port) RendererReady(ctx context.Context) bool {
	return p.RendererReadyFn(ctx)
}

// MeasureHeight delegates to MeasureHeightFn.
func (p *Port) MeasureHeight(ctx context.Context) (float64, error) {
	return p.MeasureHeightFn(ctx)
}

// ScrollToBottom delegates to ScrollToBottomFn.
func (p *Port) ScrollToBottom(ctx context.Context) error {
	return p.ScrollToBottomFn(ctx)
}

// Messages delegates to MessagesFn.
func (p *Port) Messages() <-chan mdview.Message {
	return p.MessagesFn()
}
