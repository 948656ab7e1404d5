package web

import (
	"context"
	"net/http"
)

// serveList runs list and writes its rows as a JSON array. Query parameters
// and the request body are ignored.
func serveList[T, V any](ws *Server, what string, list func(context.Context) ([]T, error), view func(T) V) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireRead(w, r) {
			return
		}

		rows, err := list(r.Context())
		if err != nil {
			ws.serverError(w, r, "failed to list "+what, err)
			return
		}

		out := make([]V, 0, len(rows))
		for _, row := range rows {
			out = append(out, view(row))
		}
		ws.writeJSON(w, r, out)
	}
}

func (ws *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	serveList(ws, "apps", ws.store.ListApps, newAppView)(w, r)
}

func (ws *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	serveList(ws, "servers", ws.store.ListServers, newServerView)(w, r)
}

func (ws *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	serveList(ws, "bookmarks", ws.store.ListBookmarks, newBookmarkView)(w, r)
}

func (ws *Server) handleBookmarkCategories(w http.ResponseWriter, r *http.Request) {
	serveList(ws, "bookmark categories", ws.store.ListBookmarkCategories, newBookmarkCategoryView)(w, r)
}

func (ws *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	serveList(ws, "settings", ws.store.ListSettings, newSettingView)(w, r)
}
