package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seckatie/homedash/internal/config"
)

const testTemplate = `<!DOCTYPE html>
<html>
<head><!--app-head--></head>
<body><div id="app"><!--app-html--></div></body>
</html>`

const echoEntry = `package main

import "strings"

func Render(url string, manifest map[string][]string) (map[string]string, error) {
	return map[string]string{
		"head": "<title>" + strings.ToUpper(url) + "</title>",
		"html": "<main>" + url + "</main>",
	}, nil
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestAssemble(t *testing.T) {
	t.Run("substitutes both markers", func(t *testing.T) {
		out := Assemble(testTemplate, Result{Head: "<title>X</title>", HTML: "<div>Y</div>"})

		assert.Contains(t, out, "<head><title>X</title></head>")
		assert.Contains(t, out, `<div id="app"><div>Y</div></div>`)
		assert.Equal(t, 1, strings.Count(out, "<title>X</title>"))
		assert.Equal(t, 1, strings.Count(out, "<div>Y</div>"))
		assert.NotContains(t, out, "<!--app-head-->")
		assert.NotContains(t, out, "<!--app-html-->")
	})

	t.Run("empty result removes markers", func(t *testing.T) {
		out := Assemble(testTemplate, Result{})

		assert.NotContains(t, out, "<!--app-")
		assert.Contains(t, out, "<head></head>")
		assert.Contains(t, out, `<div id="app"></div>`)
		assert.Equal(t, out, Assemble(out, Result{}), "assembling twice must be a no-op")
	})

	t.Run("missing markers are a no-op", func(t *testing.T) {
		tmpl := "<html><body>static</body></html>"
		assert.Equal(t, tmpl, Assemble(tmpl, Result{Head: "h", HTML: "b"}))
	})

	t.Run("only first occurrence is replaced", func(t *testing.T) {
		out := Assemble("<!--app-html--><!--app-html-->", Result{HTML: "x"})
		assert.Equal(t, "x<!--app-html-->", out)
	})
}

func TestStripBase(t *testing.T) {
	assert.Equal(t, "", StripBase("/", "/"))
	assert.Equal(t, "about", StripBase("/about", "/"))
	assert.Equal(t, "about?tab=2", StripBase("/about?tab=2", "/"))
	assert.Equal(t, "settings", StripBase("/dash/settings", "/dash/"))
	assert.Equal(t, "/other", StripBase("/other", "/dash/"))
}

func TestCompileEntry(t *testing.T) {
	t.Run("valid module", func(t *testing.T) {
		fn, err := CompileEntry("entry-server.go", echoEntry)
		require.NoError(t, err)

		res, err := fn("home", nil)
		require.NoError(t, err)
		assert.Equal(t, Result{Head: "<title>HOME</title>", HTML: "<main>home</main>"}, res)
	})

	t.Run("missing keys default to empty", func(t *testing.T) {
		fn, err := CompileEntry("entry-server.go", `package main

func Render(url string, manifest map[string][]string) (map[string]string, error) {
	return map[string]string{"html": "only body"}, nil
}
`)
		require.NoError(t, err)

		res, err := fn("", nil)
		require.NoError(t, err)
		assert.Equal(t, Result{HTML: "only body"}, res)
	})

	t.Run("manifest is passed through", func(t *testing.T) {
		fn, err := CompileEntry("entry-server.go", `package main

import "strings"

func Render(url string, manifest map[string][]string) (map[string]string, error) {
	return map[string]string{"head": strings.Join(manifest["src/App.vue"], ",")}, nil
}
`)
		require.NoError(t, err)

		res, err := fn("", Manifest{"src/App.vue": {"/assets/app.js", "/assets/app.css"}})
		require.NoError(t, err)
		assert.Equal(t, "/assets/app.js,/assets/app.css", res.Head)
	})

	t.Run("render error is returned", func(t *testing.T) {
		fn, err := CompileEntry("entry-server.go", `package main

import "errors"

func Render(url string, manifest map[string][]string) (map[string]string, error) {
	return nil, errors.New("no such page")
}
`)
		require.NoError(t, err)

		_, err = fn("missing", nil)
		assert.EqualError(t, err, "no such page")
	})

	t.Run("panic is recovered with stack", func(t *testing.T) {
		fn, err := CompileEntry("entry-server.go", `package main

func Render(url string, manifest map[string][]string) (map[string]string, error) {
	panic("boom")
}
`)
		require.NoError(t, err)

		_, err = fn("", nil)
		var re *Error
		require.ErrorAs(t, err, &re)
		assert.Equal(t, StageRender, re.Stage)
		assert.Contains(t, re.Error(), "boom")
		assert.NotEmpty(t, re.Stack)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := CompileEntry("entry-server.go", "package main\n\nfunc Render(")
		assert.Error(t, err)
	})

	t.Run("missing Render", func(t *testing.T) {
		_, err := CompileEntry("entry-server.go", "package main\n\nfunc Other() {}\n")
		assert.Error(t, err)
	})

	t.Run("wrong signature", func(t *testing.T) {
		_, err := CompileEntry("entry-server.go", "package main\n\nfunc Render(url string) string { return url }\n")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "want func(string, map[string][]string)")
	})
}

type fakeTools struct {
	transformURL string
	transformErr error
	fixErr       error
	fixed        error
}

func (f *fakeTools) TransformIndexHTML(url, html string) (string, error) {
	f.transformURL = url
	if f.transformErr != nil {
		return "", f.transformErr
	}
	return strings.Replace(html, "</head>", `<script src="/@livereload/client.js"></script></head>`, 1), nil
}

func (f *fakeTools) FixStacktrace(err error) (error, error) {
	if f.fixErr != nil {
		return nil, f.fixErr
	}
	return f.fixed, nil
}

func TestDevPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("reads fresh template and entry on every request", func(t *testing.T) {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "index.html")
		entryPath := filepath.Join(dir, "src", "entry-server.go")
		writeFile(t, indexPath, testTemplate)
		writeFile(t, entryPath, echoEntry)

		d := NewDispatcher(NewDevPipeline(indexPath, entryPath, nil, nil), "/", nil)

		out, err := d.Render(ctx, "first")
		require.NoError(t, err)
		assert.Contains(t, out, "<main>first</main>")

		writeFile(t, indexPath, strings.Replace(testTemplate, "<html>", `<html lang="en">`, 1))
		writeFile(t, entryPath, strings.Replace(echoEntry, "<main>", "<section>", 1))

		out, err = d.Render(ctx, "second")
		require.NoError(t, err)
		assert.Contains(t, out, `<html lang="en">`)
		assert.Contains(t, out, "<section>second</main>")
	})

	t.Run("applies dev transform", func(t *testing.T) {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "index.html")
		writeFile(t, indexPath, testTemplate)

		tools := &fakeTools{}
		p := NewDevPipeline(indexPath, filepath.Join(dir, "entry.go"), tools, nil)

		html, err := p.Template(ctx, "about")
		require.NoError(t, err)
		assert.Equal(t, "about", tools.transformURL)
		assert.Contains(t, html, "@livereload/client.js")
		assert.Nil(t, p.Manifest())
		assert.Equal(t, config.ModeDevelopment, p.Mode())
	})

	t.Run("stage errors", func(t *testing.T) {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "index.html")

		p := NewDevPipeline(indexPath, filepath.Join(dir, "missing.go"), &fakeTools{transformErr: errors.New("bad html")}, nil)

		_, err := p.Template(ctx, "")
		var re *Error
		require.ErrorAs(t, err, &re)
		assert.Equal(t, StageTemplate, re.Stage)

		writeFile(t, indexPath, testTemplate)
		_, err = p.Template(ctx, "")
		require.ErrorAs(t, err, &re)
		assert.Equal(t, StageTransform, re.Stage)

		_, err = p.Renderer(ctx)
		require.ErrorAs(t, err, &re)
		assert.Equal(t, StageLoad, re.Stage)
	})

	t.Run("fix error falls back to original when remapping fails", func(t *testing.T) {
		orig := errors.New("original")
		fixed := errors.New("fixed")

		p := NewDevPipeline("", "", &fakeTools{fixed: fixed}, nil)
		assert.Equal(t, fixed, p.FixError(orig))

		p = NewDevPipeline("", "", &fakeTools{fixErr: errors.New("cannot remap")}, nil)
		assert.Equal(t, orig, p.FixError(orig))

		p = NewDevPipeline("", "", nil, nil)
		assert.Equal(t, orig, p.FixError(orig))
	})
}

func TestProdPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("loads artifacts once", func(t *testing.T) {
		dir := t.TempDir()
		templatePath := filepath.Join(dir, "dist", "client", "index.html")
		manifestPath := filepath.Join(dir, "dist", "client", ".vite", "ssr-manifest.json")
		entryPath := filepath.Join(dir, "dist", "server", "entry-server.go")
		writeFile(t, templatePath, testTemplate)
		writeFile(t, manifestPath, `{"src/main.go": ["/assets/main.js"]}`)
		writeFile(t, entryPath, echoEntry)

		p, err := LoadProdPipeline(templatePath, manifestPath, entryPath)
		require.NoError(t, err)
		assert.Equal(t, config.ModeProduction, p.Mode())
		assert.Equal(t, Manifest{"src/main.go": {"/assets/main.js"}}, p.Manifest())

		// On-disk changes after startup are not observed.
		writeFile(t, templatePath, "<p>changed</p>")
		require.NoError(t, os.Remove(entryPath))

		out, err := NewDispatcher(p, "/", nil).Render(ctx, "home")
		require.NoError(t, err)
		assert.Contains(t, out, "<title>HOME</title>")
		assert.NotContains(t, out, "changed")
	})

	t.Run("missing artifacts fail at startup", func(t *testing.T) {
		dir := t.TempDir()
		_, err := LoadProdPipeline(filepath.Join(dir, "index.html"), filepath.Join(dir, "m.json"), filepath.Join(dir, "e.go"))
		assert.Error(t, err)
	})

	t.Run("manifest is handed to render", func(t *testing.T) {
		var got Manifest
		m := Manifest{"a": {"b"}}
		p := NewProdPipeline(testTemplate, m, func(url string, manifest Manifest) (Result, error) {
			got = manifest
			return Result{}, nil
		})

		_, err := NewDispatcher(p, "/", nil).Render(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, m, got)
	})
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "null.json")
	writeFile(t, path, "null")
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.NotNil(t, m)

	path = filepath.Join(dir, "bad.json")
	writeFile(t, path, "{")
	_, err = LoadManifest(path)
	assert.Error(t, err)
}

func TestDispatcher_ServeHTTP(t *testing.T) {
	okRender := func(url string, _ Manifest) (Result, error) {
		return Result{Head: "<title>" + url + "</title>", HTML: "<p>" + url + "</p>"}, nil
	}
	failRender := func(string, Manifest) (Result, error) {
		return Result{}, errors.New("database of pages exploded")
	}

	t.Run("renders with base stripped", func(t *testing.T) {
		d := NewDispatcher(NewProdPipeline(testTemplate, nil, okRender), "/dash/", nil)

		req := httptest.NewRequest(http.MethodGet, "/dash/servers?sort=name", nil)
		w := httptest.NewRecorder()
		d.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "<title>servers?sort=name</title>")
		assert.Contains(t, w.Body.String(), "<p>servers?sort=name</p>")
	})

	t.Run("any method renders", func(t *testing.T) {
		d := NewDispatcher(NewProdPipeline(testTemplate, nil, okRender), "/", nil)

		req := httptest.NewRequest(http.MethodPost, "/anything", nil)
		w := httptest.NewRecorder()
		d.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("production hides error details", func(t *testing.T) {
		d := NewDispatcher(NewProdPipeline(testTemplate, nil, failRender), "/", nil)

		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal Server Error\n", w.Body.String())
	})

	t.Run("production without render function", func(t *testing.T) {
		d := NewDispatcher(NewProdPipeline(testTemplate, nil, nil), "/", nil)

		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("development shows error and stack", func(t *testing.T) {
		dir := t.TempDir()
		indexPath := filepath.Join(dir, "index.html")
		entryPath := filepath.Join(dir, "entry-server.go")
		writeFile(t, indexPath, testTemplate)
		writeFile(t, entryPath, `package main

func Render(url string, manifest map[string][]string) (map[string]string, error) {
	panic("template exploded")
}
`)

		d := NewDispatcher(NewDevPipeline(indexPath, entryPath, nil, nil), "/", nil)

		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "template exploded")
		assert.Contains(t, w.Body.String(), "goroutine")
	})

	t.Run("development missing template", func(t *testing.T) {
		dir := t.TempDir()
		d := NewDispatcher(NewDevPipeline(filepath.Join(dir, "index.html"), filepath.Join(dir, "e.go"), nil, nil), "/", nil)

		w := httptest.NewRecorder()
		d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "render template")
	})
}
