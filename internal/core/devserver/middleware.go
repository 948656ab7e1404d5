package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/seckatie/homedash/internal/core"
)

const clientJS = `// homedash live reload
const source = new EventSource(%q);
source.addEventListener("reload", (e) => {
  console.debug("[livereload] change detected:", JSON.parse(e.data).path);
  location.reload();
});
source.onerror = () => console.debug("[livereload] connection lost, retrying");
`

// Middleware serves the live-reload client script and the event stream under
// base and passes every other request to next.
func Middleware(base string, hub *Hub, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientPath := base + core.LiveReloadClientPath
	eventsPath := base + core.LiveReloadEventsPath
	script := fmt.Sprintf(clientJS, eventsPath)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case clientPath:
				w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
				w.Header().Set("Cache-Control", "no-cache")
				if _, err := w.Write([]byte(script)); err != nil {
					logger.Debug("failed to write live reload client", zap.Error(err))
				}
			case eventsPath:
				serveEvents(w, r, hub, logger)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// serveEvents streams reload events as server-sent events until the client
// disconnects or the hub closes.
func serveEvents(w http.ResponseWriter, r *http.Request, hub *Hub, logger *zap.Logger) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]string{"path": ev.Path, "op": ev.Op})
			if err != nil {
				logger.Warn("failed to encode reload event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: reload\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
