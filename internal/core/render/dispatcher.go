package render

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/seckatie/homedash/internal/config"
)

// Dispatcher is the catch-all handler: it renders every request it receives
// into an HTML document using its pipeline.
type Dispatcher struct {
	pipeline Pipeline
	base     string
	logger   *zap.Logger
}

func NewDispatcher(pipeline Pipeline, base string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		pipeline: pipeline,
		base:     base,
		logger:   logger,
	}
}

// Render produces the full document for a logical URL.
func (d *Dispatcher) Render(ctx context.Context, url string) (string, error) {
	template, err := d.pipeline.Template(ctx, url)
	if err != nil {
		return "", err
	}

	render, err := d.pipeline.Renderer(ctx)
	if err != nil {
		return "", err
	}

	res, err := render(url, d.pipeline.Manifest())
	if err != nil {
		var re *Error
		if !errors.As(err, &re) {
			err = &Error{Stage: StageRender, Err: err}
		}
		return "", err
	}

	return Assemble(template, res), nil
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := StripBase(r.URL.RequestURI(), d.base)

	html, err := d.Render(r.Context(), url)
	if err != nil {
		d.fail(w, r, url, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		d.logger.Debug("failed to write response", zap.String("url", url), zap.Error(err))
	}
}

func (d *Dispatcher) fail(w http.ResponseWriter, r *http.Request, url string, err error) {
	err = d.pipeline.FixError(err)
	stack := stackOf(err)

	d.logger.Error("render failed",
		zap.String("url", url),
		zap.String("method", r.Method),
		zap.Error(err),
		zap.ByteString("stack", stack),
	)

	if d.pipeline.Mode() != config.ModeDevelopment {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Development only: show the error to the developer.
	body := err.Error()
	if len(stack) > 0 {
		body += "\n\n" + string(stack)
	}
	http.Error(w, body, http.StatusInternalServerError)
}

func stackOf(err error) []byte {
	var st interface{ StackTrace() []byte }
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return nil
}
