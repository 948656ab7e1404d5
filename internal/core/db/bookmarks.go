package db

import (
	"context"
	"database/sql"
)

// ------------------------------
// Bookmark methods
// ------------------------------

const listBookmarksQuery = `
	SELECT bookmarks.name, bookmarks.url, bookmarks.icon, bookmarks.category_id,
	       bookmark_categories.name AS category_name
	FROM bookmarks
	INNER JOIN bookmark_categories ON bookmarks.category_id = bookmark_categories.id
`

var bookmarkColumns = []string{"name", "url", "icon", "category_id", "category_name"}

// ListBookmarks returns every bookmark together with its category name.
// Bookmarks whose category does not exist are not returned.
func (db *DB) ListBookmarks(ctx context.Context) ([]Bookmark, error) {
	return queryAll(ctx, db, "bookmarks", listBookmarksQuery, bookmarkColumns, func(rows *sql.Rows, b *Bookmark) error {
		return rows.Scan(&b.Name, &b.URL, &b.Icon, &b.CategoryID, &b.CategoryName)
	})
}

// ------------------------------
// Bookmark category methods
// ------------------------------

const listBookmarkCategoriesQuery = `SELECT id, name FROM bookmark_categories`

var bookmarkCategoryColumns = []string{"id", "name"}

func (db *DB) ListBookmarkCategories(ctx context.Context) ([]BookmarkCategory, error) {
	return queryAll(ctx, db, "bookmark categories", listBookmarkCategoriesQuery, bookmarkCategoryColumns, func(rows *sql.Rows, c *BookmarkCategory) error {
		return rows.Scan(&c.ID, &c.Name)
	})
}
