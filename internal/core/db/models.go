package db

import "database/sql"

// App is a row of apps joined with the server it runs on.
type App struct {
	Name       string
	Icon       sql.NullString
	URL        string
	ServerID   int64
	ServerName string
}

type Server struct {
	ID   int64
	Name string
	Host string
	Port int64
}

// Bookmark is a row of bookmarks joined with its category.
type Bookmark struct {
	Name         string
	URL          string
	Icon         sql.NullString
	CategoryID   int64
	CategoryName string
}

type BookmarkCategory struct {
	ID   int64
	Name string
}

type Setting struct {
	Name  string
	Value sql.NullString
}
