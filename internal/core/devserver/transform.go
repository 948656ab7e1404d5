// Package devserver holds the development-time tooling around the render
// pipeline: template transform, live reload and stack trace remapping.
package devserver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seckatie/homedash/internal/core"
)

// Tools implements render.DevTools.
type Tools struct {
	// Base is the normalised base path ("/" or "/prefix/").
	Base string
	// Root is the project directory; used to shorten paths in stack traces.
	Root string
	// EntryPath is the development entry module.
	EntryPath string
}

// ClientURL is the URL of the live-reload client script.
func (t *Tools) ClientURL() string {
	return t.Base + core.LiveReloadClientPath
}

// TransformIndexHTML injects the live-reload client as the first element of
// <head> and resolves relative script and stylesheet URLs against the base
// path. The render markers are left untouched.
func (t *Tools) TransformIndexHTML(_ string, html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	client := t.ClientURL()
	if doc.Find(fmt.Sprintf("script[src=%q]", client)).Length() == 0 {
		doc.Find("head").First().PrependHtml(fmt.Sprintf(`<script type="module" src="%s"></script>`, client))
	}

	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			s.SetAttr("src", t.resolve(src))
		}
	})
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			s.SetAttr("href", t.resolve(href))
		}
	})

	out, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return out, nil
}

// resolve rewrites a relative reference ("./src/main.js", "src/main.js") to
// live under the base path. Absolute paths and URLs are returned unchanged.
func (t *Tools) resolve(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	if u, err := url.Parse(ref); err != nil || u.Scheme != "" || u.Host != "" {
		return ref
	}
	return t.Base + strings.TrimPrefix(ref, "./")
}
