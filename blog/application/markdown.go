package application

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// MarkdownConfig controls how relative links inside post bodies are rewritten.
// An empty base leaves the corresponding links untouched.
type MarkdownConfig struct {
	// PostBaseURL prefixes links to other posts, e.g. "/blog".
	PostBaseURL string
	// AssetBaseURL prefixes relative image sources; images are served from <AssetBaseURL>/images/.
	AssetBaseURL string
}

// MarkdownProcessingResult contains the results of rendering a post body
type MarkdownProcessingResult struct {
	// Title is the text of a leading "# " heading, or empty.
	Title       string
	HTMLContent []byte
}

type relativeLinkTransformer struct {
	postBase  string
	assetBase string
}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		link, linkOk := n.(*ast.Link)
		img, imgOk := n.(*ast.Image)
		if !linkOk && !imgOk {
			return ast.WalkContinue, nil
		}

		dest := ""
		if linkOk {
			dest = string(link.Destination)
		} else if imgOk {
			dest = string(img.Destination)
		}

		if dest == "" || strings.HasPrefix(dest, "#") || !isRelativeLink(dest) {
			return ast.WalkContinue, nil
		}

		destFile := path.Base(dest)
		if imgOk && t.assetBase != "" {
			img.Destination = []byte(t.assetBase + "/images/" + destFile)
		} else if linkOk && t.postBase != "" && isPostLink(dest) {
			// Strip .md and .html extensions from links
			destFile = strings.TrimSuffix(destFile, ".md")
			destFile = strings.TrimSuffix(destFile, ".html")
			link.Destination = []byte(t.postBase + "/" + destFile)
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	// Absolute path check
	if strings.HasPrefix(dest, "/") {
		if strings.HasPrefix(dest, "//") {
			return false
		}
		return true
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	if strings.Contains(dest, ":") {
		return false
	}

	return true
}

// isPostLink reports whether a relative link points at another post's source file.
func isPostLink(dest string) bool {
	dest, _, _ = strings.Cut(dest, "#")
	return strings.HasSuffix(dest, ".md") || strings.HasSuffix(dest, ".html")
}

// MarkdownRenderer defines the interface for converting markdown to HTML.
type MarkdownRenderer interface {
	Render(markdown []byte) (*MarkdownProcessingResult, error)
}

type MarkdownRendererImpl struct {
	renderer goldmark.Markdown
}

func NewMarkdownRenderer(cfg MarkdownConfig) MarkdownRenderer {
	transformer := &relativeLinkTransformer{
		postBase:  strings.TrimSuffix(cfg.PostBaseURL, "/"),
		assetBase: strings.TrimSuffix(cfg.AssetBaseURL, "/"),
	}

	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(transformer, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &MarkdownRendererImpl{
		renderer: renderer,
	}
}

func (r *MarkdownRendererImpl) Render(markdown []byte) (*MarkdownProcessingResult, error) {
	var buf bytes.Buffer
	err := r.renderer.Convert(markdown, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return &MarkdownProcessingResult{
		Title:       extractPostTitle(markdown),
		HTMLContent: buf.Bytes(),
	}, nil
}

func extractPostTitle(markdown []byte) string {
	lines := strings.SplitN(string(markdown), "\n", 2)
	if len(lines) == 0 {
		return ""
	}

	firstLine := strings.TrimSpace(lines[0])
	title, found := strings.CutPrefix(firstLine, "# ")
	if !found {
		return ""
	}

	return strings.TrimSpace(title)
}
