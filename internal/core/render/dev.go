package render

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/seckatie/homedash/internal/config"
)

// DevTools is the dev server collaborator of the development pipeline.
type DevTools interface {
	// TransformIndexHTML injects development tooling into the raw template.
	TransformIndexHTML(url, html string) (string, error)
	// FixStacktrace rewrites error positions to point at the original source.
	FixStacktrace(err error) (error, error)
}

// DevPipeline reads the template and loads the entry module on every call so
// edits on disk take effect without a restart.
type DevPipeline struct {
	indexPath string
	entryPath string
	tools     DevTools
	logger    *zap.Logger
}

// NewDevPipeline returns a development pipeline. tools may be nil, in which
// case the template is used untransformed and errors are reported as-is.
func NewDevPipeline(indexPath, entryPath string, tools DevTools, logger *zap.Logger) *DevPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DevPipeline{
		indexPath: indexPath,
		entryPath: entryPath,
		tools:     tools,
		logger:    logger,
	}
}

func (p *DevPipeline) Mode() config.Mode { return config.ModeDevelopment }

func (p *DevPipeline) Template(_ context.Context, url string) (string, error) {
	raw, err := os.ReadFile(p.indexPath)
	if err != nil {
		return "", &Error{Stage: StageTemplate, Err: err}
	}
	if p.tools == nil {
		return string(raw), nil
	}
	html, err := p.tools.TransformIndexHTML(url, string(raw))
	if err != nil {
		return "", &Error{Stage: StageTransform, Err: err}
	}
	return html, nil
}

func (p *DevPipeline) Renderer(_ context.Context) (RenderFunc, error) {
	fn, err := LoadEntry(p.entryPath)
	if err != nil {
		var re *Error
		if errors.As(err, &re) {
			return nil, err
		}
		return nil, &Error{Stage: StageLoad, Err: err}
	}
	return fn, nil
}

func (p *DevPipeline) Manifest() Manifest { return nil }

func (p *DevPipeline) FixError(err error) error {
	if p.tools == nil || err == nil {
		return err
	}
	fixed, ferr := p.tools.FixStacktrace(err)
	if ferr != nil {
		p.logger.Debug("stack trace remapping failed", zap.Error(ferr))
		return err
	}
	return fixed
}
