package render

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"runtime/debug"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// EntryFunc is the signature an entry module must export as Render.
type EntryFunc = func(url string, manifest map[string][]string) (map[string]string, error)

// LoadEntry interprets the Go source file at path and returns its exported
// Render function. Every call builds a fresh interpreter, so edits to the file
// are picked up on the next call. Only the standard library is available to
// the entry module.
//
//	package main
//
//	func Render(url string, manifest map[string][]string) (map[string]string, error) {
//		return map[string]string{"head": "<title>Home</title>", "html": "<h1>" + url + "</h1>"}, nil
//	}
func LoadEntry(path string) (RenderFunc, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry module: %w", err)
	}
	return CompileEntry(path, string(src))
}

// CompileEntry is LoadEntry for source already in memory. name is only used
// to parse the package clause and in error messages.
func CompileEntry(name, src string) (fn RenderFunc, err error) {
	f, err := parser.ParseFile(token.NewFileSet(), name, src, parser.PackageClauseOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry module: %w", err)
	}
	pkg := f.Name.Name

	defer func() {
		if r := recover(); r != nil {
			fn = nil
			err = &Error{Stage: StageLoad, Err: fmt.Errorf("panic while loading %s: %v", name, r), Stack: debug.Stack()}
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("failed to evaluate entry module: %w", err)
	}

	v, err := i.Eval(pkg + ".Render")
	if err != nil {
		return nil, fmt.Errorf("entry module has no Render function: %w", err)
	}
	render, ok := v.Interface().(EntryFunc)
	if !ok {
		return nil, fmt.Errorf("entry module Render has type %s, want func(string, map[string][]string) (map[string]string, error)", v.Type())
	}
	return wrapEntry(render), nil
}

func wrapEntry(render EntryFunc) RenderFunc {
	return func(url string, manifest Manifest) (res Result, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &Error{Stage: StageRender, Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
			}
		}()

		out, err := render(url, map[string][]string(manifest))
		if err != nil {
			return Result{}, err
		}
		return Result{Head: out["head"], HTML: out["html"]}, nil
	}
}
