/*
Copyright © 2025 Katie Mulliken <katie@mulliken.net>
*/
package cmd

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/seckatie/homedash/internal/config"
	"github.com/seckatie/homedash/internal/core"
	"github.com/seckatie/homedash/internal/core/devserver"
	"github.com/seckatie/homedash/internal/core/render"
	"github.com/seckatie/homedash/internal/core/web"
)

// app is the mode-specific part of the server: the catch-all renderer, the
// asset middleware in front of it and, in development, the file watcher.
type app struct {
	renderer http.Handler
	assets   func(http.Handler) http.Handler
	watcher  *devserver.Watcher
	close    func()
}

func buildApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	if cfg.IsProduction() {
		return buildProdApp(cfg, logger)
	}
	return buildDevApp(cfg, logger), nil
}

// buildProdApp preloads the built template, manifest and entry module. Any
// failure here is fatal.
func buildProdApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	pipeline, err := render.LoadProdPipeline(cfg.ProdTemplatePath(), cfg.ManifestPath(), cfg.ProdEntryPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load production build: %w", err)
	}
	logger.Info("production build loaded", zap.String("dir", cfg.ClientDistDir()))

	return &app{
		renderer: render.NewDispatcher(pipeline, cfg.Base, logger),
		// index.html is the render template and is never served as is.
		assets: web.FileFallthrough(cfg.ClientDistDir(), cfg.Base, web.SkipNames("index.html")),
		close:  func() {},
	}, nil
}

// buildDevApp wires the per-request pipeline with live reload.
func buildDevApp(cfg config.Config, logger *zap.Logger) *app {
	tools := &devserver.Tools{
		Base:      cfg.Base,
		Root:      cfg.Root,
		EntryPath: cfg.DevEntryPath(),
	}
	pipeline := render.NewDevPipeline(cfg.IndexHTMLPath(), cfg.DevEntryPath(), tools, logger)

	hub := devserver.NewHub()
	watcher := devserver.NewWatcher(
		[]string{cfg.IndexHTMLPath(), cfg.SourceDir(), cfg.PublicPath()},
		hub, core.DefaultReloadDebounce, logger,
	)

	// Client sources are served from src/; server sources are not.
	sources := web.FileFallthrough(cfg.SourceDir(), cfg.Base+"src/", web.SkipExt(".go"))
	reload := devserver.Middleware(cfg.Base, hub, logger)

	return &app{
		renderer: render.NewDispatcher(pipeline, cfg.Base, logger),
		assets: func(next http.Handler) http.Handler {
			return reload(sources(next))
		},
		watcher: watcher,
		close:   hub.Close,
	}
}
