// Package goldmark provides the default markdown-to-HTML converter for
// mdview, built on the goldmark library with GFM extensions. Output is
// sanitized: raw HTML in the source is omitted, never passed through.
package goldmark

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/fwojciec/mdview"
)

// Convert renders markdown source to sanitized HTML. When imagesEnabled
// is false, image nodes are suppressed entirely.
func Convert(source string, imagesEnabled bool) (string, error) {
	md := withImages
	if !imagesEnabled {
		md = withoutImages
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Converter returns Convert as an mdview.Converter for registration as
// a document's markdown entry point.
func Converter() mdview.Converter {
	return Convert
}

var (
	withImages = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)
	withoutImages = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(imageSuppressor{}, 500)),
		),
	)
)

// imageSuppressor replaces the default image renderer with one that
// emits nothing, dropping the image and its alt text.
type imageSuppressor struct{}

func (r imageSuppressor) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
}

func (r imageSuppressor) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	return ast.WalkSkipChildren, nil
}
