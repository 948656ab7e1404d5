package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// requireRead checks that the request is a GET or HEAD.
// Returns true if it is, false otherwise (and sends a 405 response).
func requireRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeJSON encodes v before writing anything so that an encoding failure
// still produces a clean 500.
func (ws *Server) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		ws.serverError(w, r, "failed to encode response", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	w.Write(data)
}

// serverError logs err and sends a generic 500 response.
func (ws *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ws.logger.Error(msg,
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestID(r.Context())),
		zap.Error(err),
	)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
