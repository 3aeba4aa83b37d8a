package dom_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwojciec/mdview"
	"github.com/fwojciec/mdview/dom"
)

// Default geometry: 800px viewport at 8px per char gives 100 columns,
// 20px lines and a 12px block margin.

func measure(t *testing.T, d *dom.Document) float64 {
	t.Helper()
	h, err := d.MeasureHeight(context.Background())
	require.NoError(t, err)
	return h
}

func TestMeasure_EmptyDocument(t *testing.T) {
	t.Parallel()
	d := newTestDocument(t)
	assert.Equal(t, 0.0, measure(t, d))
}

func TestMeasure_ViewportFloor(t *testing.T) {
	t.Parallel()
	geom := dom.DefaultGeometry()
	geom.ViewportHeight = 600
	d := newTestDocument(t, dom.WithGeometry(geom))

	assert.Equal(t, 600.0, measure(t, d), "client height of the root element dominates an empty document")

	for i := 0; i < 30; i++ {
		appendRender(t, d, "<p>line</p>")
	}
	assert.Equal(t, 30*32.0, measure(t, d), "content height dominates once it exceeds the viewport")
}

func TestMeasure_Paragraph(t *testing.T) {
	t.Parallel()
	d := newTestDocument(t)
	replaceRender(t, d, "<p>one short line</p>")
	assert.Equal(t, 32.0, measure(t, d), "one text line plus block margin")
}

func TestMeasure_WrappedText(t *testing.T) {
	t.Parallel()
	d := newTestDocument(t)
	replaceRender(t, d, "<p>"+strings.Repeat("a", 250)+"</p>")
	assert.Equal(t, 3*20+12.0, measure(t, d), "250 columns wrap to three lines at 100 columns")
}

func TestMeasure_PreservesCodeBlockLines(t *testing.T) {
	t.Parallel()
	d := newTestDocument(t)
	replaceRender(t, d, "<pre><code>one\ntwo\nthree\n</code></pre>")
	assert.Equal(t, 3*20+12.0, measure(t, d), "code blocks count lines without wrapping")
}

func TestMeasure_Image(t *testing.T) {
	t.Parallel()
	d := newTestDocument(t)
	replaceRender(t, d, `<p><img src="x.png" alt="x"></p>`)
	assert.Equal(t, 150+12.0, measure(t, d), "image placeholder plus paragraph margin")
}

func TestMeasure_List(t *testing.T) {
	t.Parallel()
	d := newTestDocument(t)
	replaceRender(t, d, "<ul><li>a</li><li>b</li></ul>")
	assert.Equal(t, 2*32+12.0, measure(t, d))
}

func TestMeasure_InlineElementsShareTheLine(t *testing.T) {
	t.Parallel()
	d := newTestDocument(t)
	replaceRender(t, d, "<p>see <a href=\"#\">the link</a> and <code>x</code></p>")
	assert.Equal(t, 32.0, measure(t, d), "inline elements do not stack")
}

func TestMeasure_ScriptsAndStylesAreInvisible(t *testing.T) {
	t.Parallel()
	d := newTestDocument(t)
	cfg := mdview.DocumentConfig{CSS: "body { color: red; }", Styled: true}
	require.NoError(t, d.Configure(context.Background(), cfg))
	assert.Equal(t, 0.0, measure(t, d))
}
