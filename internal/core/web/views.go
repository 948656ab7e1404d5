package web

import (
	"database/sql"

	"github.com/seckatie/homedash/internal/core/db"
)

// JSON shapes of the /api endpoints. Field order is part of the response
// contract.

type appView struct {
	Name       string  `json:"name"`
	Icon       *string `json:"icon"`
	URL        string  `json:"url"`
	ServerID   int64   `json:"server_id"`
	ServerName string  `json:"server_name"`
}

type serverView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Host string `json:"host"`
	Port int64  `json:"port"`
}

type bookmarkView struct {
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	Icon         *string `json:"icon"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
}

type bookmarkCategoryView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type settingView struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func newAppView(a db.App) appView {
	return appView{
		Name:       a.Name,
		Icon:       nullable(a.Icon),
		URL:        a.URL,
		ServerID:   a.ServerID,
		ServerName: a.ServerName,
	}
}

func newServerView(s db.Server) serverView {
	return serverView{ID: s.ID, Name: s.Name, Host: s.Host, Port: s.Port}
}

func newBookmarkView(b db.Bookmark) bookmarkView {
	return bookmarkView{
		Name:         b.Name,
		URL:          b.URL,
		Icon:         nullable(b.Icon),
		CategoryID:   b.CategoryID,
		CategoryName: b.CategoryName,
	}
}

func newBookmarkCategoryView(c db.BookmarkCategory) bookmarkCategoryView {
	return bookmarkCategoryView{ID: c.ID, Name: c.Name}
}

func newSettingView(s db.Setting) settingView {
	return settingView{Name: s.Name, Value: nullable(s.Value)}
}
