package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/seckatie/homedash/internal/config"
)

// ProdPipeline serves artifacts loaded once at startup. It is safe for
// concurrent use; nothing is mutated after construction.
type ProdPipeline struct {
	template string
	manifest Manifest
	render   RenderFunc
}

// NewProdPipeline returns a production pipeline around an already loaded
// template, manifest and render function.
func NewProdPipeline(template string, manifest Manifest, render RenderFunc) *ProdPipeline {
	return &ProdPipeline{
		template: template,
		manifest: manifest,
		render:   render,
	}
}

// LoadProdPipeline reads the built template and SSR manifest and loads the
// built entry module. It is called once at startup.
func LoadProdPipeline(templatePath, manifestPath, entryPath string) (*ProdPipeline, error) {
	template, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	render, err := LoadEntry(entryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry module: %w", err)
	}

	return NewProdPipeline(string(template), manifest, render), nil
}

// LoadManifest reads an SSR manifest file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if m == nil {
		m = Manifest{}
	}
	return m, nil
}

func (p *ProdPipeline) Mode() config.Mode { return config.ModeProduction }

func (p *ProdPipeline) Template(context.Context, string) (string, error) {
	return p.template, nil
}

func (p *ProdPipeline) Renderer(context.Context) (RenderFunc, error) {
	if p.render == nil {
		return nil, &Error{Stage: StageLoad, Err: fmt.Errorf("no render function configured")}
	}
	return p.render, nil
}

func (p *ProdPipeline) Manifest() Manifest { return p.manifest }

func (p *ProdPipeline) FixError(err error) error { return err }
