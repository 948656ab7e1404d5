// Package render turns a request URL into a complete HTML document.
//
// A Pipeline supplies the template and the render function. Two pipelines
// exist: the development pipeline re-reads index.html and re-loads the entry
// module on every request, the production pipeline uses artifacts loaded once
// at startup. The Dispatcher picks nothing per request; it is built with
// exactly one pipeline.
package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/seckatie/homedash/internal/config"
	"github.com/seckatie/homedash/internal/core"
)

// Result holds the fragments produced by a render function. Missing fragments
// are empty strings.
type Result struct {
	Head string
	HTML string
}

// Manifest maps module ids to the client assets they need. It is nil in
// development.
type Manifest map[string][]string

// RenderFunc renders the page for a logical URL.
type RenderFunc func(url string, manifest Manifest) (Result, error)

// Pipeline supplies everything the Dispatcher needs for one request.
type Pipeline interface {
	Mode() config.Mode
	// Template returns the HTML template for url.
	Template(ctx context.Context, url string) (string, error)
	// Renderer returns the render function to use for this request.
	Renderer(ctx context.Context) (RenderFunc, error)
	Manifest() Manifest
	// FixError rewrites err for reporting. It never fails; when rewriting is
	// not possible it returns err unchanged.
	FixError(err error) error
}

// Stage identifies the step of the pipeline that failed.
type Stage string

const (
	StageTemplate  Stage = "template"
	StageTransform Stage = "transform"
	StageLoad      Stage = "load"
	StageRender    Stage = "render"
)

// Error is a failure in one of the pipeline stages.
type Error struct {
	Stage Stage
	Err   error
	// Stack is set when the failure was a recovered panic.
	Stack []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("render %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StackTrace returns the captured stack, if any.
func (e *Error) StackTrace() []byte { return e.Stack }

// Assemble substitutes the head and html fragments into template. Each marker
// is replaced once, at its first occurrence; a missing marker is left alone.
func Assemble(template string, res Result) string {
	html := strings.Replace(template, core.HeadMarker, res.Head, 1)
	return strings.Replace(html, core.HTMLMarker, res.HTML, 1)
}

// StripBase removes the base prefix from a request URI to produce the logical
// URL handed to the render function. With the default base "/", "/about"
// becomes "about".
func StripBase(uri, base string) string {
	return strings.TrimPrefix(uri, base)
}
