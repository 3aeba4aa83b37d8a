package mdview_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwojciec/mdview"
	"github.com/fwojciec/mdview/dom"
	"github.com/fwojciec/mdview/goldmark"
)

func newStack(t *testing.T, opts ...mdview.Option) (*mdview.Engine, *dom.Document) {
	t.Helper()
	doc := dom.New()
	doc.RegisterConverter(dom.DefaultConverterName, goldmark.Converter())
	e := mdview.New(doc, opts...)
	t.Cleanup(func() { _ = e.Close() })
	return e, doc
}

func docHTML(t *testing.T, doc *dom.Document) string {
	t.Helper()
	out, err := doc.HTML()
	if err != nil {
		t.Errorf("serialize document: %v", err)
		return ""
	}
	return out
}

func TestStack_LoadRendersAndMeasures(t *testing.T) {
	t.Parallel()
	e, doc := newStack(t)

	ctx := context.Background()
	require.NoError(t, e.Load(ctx, "# Title\n\nSome body text."))

	require.Eventually(t, func() bool {
		return e.Height() > 0
	}, 2*time.Second, 5*time.Millisecond)

	out := docHTML(t, doc)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "Some body text.")
}

func TestStack_ChunkStreamReachesDocument(t *testing.T) {
	t.Parallel()
	e, doc := newStack(t, mdview.WithFlushDelay(10*time.Millisecond))

	ctx := context.Background()
	require.NoError(t, e.Load(ctx, ""))

	for _, chunk := range []string{"- on", "e\n", "- two\n", "- three\n"} {
		require.NoError(t, e.AppendChunk(chunk))
	}

	require.Eventually(t, func() bool {
		out := docHTML(t, doc)
		return strings.Contains(out, "<li>one</li>") &&
			strings.Contains(out, "<li>three</li>")
	}, 2*time.Second, 5*time.Millisecond)
	assert.Greater(t, e.Height(), 0.0)
}

func TestStack_LoadBeforeConverterRegistrationRetries(t *testing.T) {
	t.Parallel()
	doc := dom.New()
	e := mdview.New(doc, mdview.WithRetryDelay(5*time.Millisecond))
	t.Cleanup(func() { _ = e.Close() })

	ctx := context.Background()
	require.NoError(t, e.Load(ctx, "waiting for the renderer"))

	// The parked document renders once the entry point appears.
	time.Sleep(20 * time.Millisecond)
	doc.RegisterConverter(dom.DefaultConverterName, goldmark.Converter())

	require.Eventually(t, func() bool {
		return strings.Contains(docHTML(t, doc), "waiting for the renderer")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStack_ImagesDisabledEndToEnd(t *testing.T) {
	t.Parallel()
	e, doc := newStack(t)

	ctx := context.Background()
	md := "before\n\n![alt text](https://example.com/pic.png)\n\nafter"
	require.NoError(t, e.Load(ctx, md, mdview.WithImages(false)))

	require.Eventually(t, func() bool {
		return strings.Contains(docHTML(t, doc), "after")
	}, 2*time.Second, 5*time.Millisecond)
	assert.NotContains(t, docHTML(t, doc), "<img")
}
