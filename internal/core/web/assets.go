package web

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileFallthrough serves GET and HEAD requests under prefix from files in
// dir. Requests for anything else (other methods, missing files, directories,
// dotfiles and anything under a dot-directory, or names rejected by skip)
// are passed to next. skip receives the cleaned
// slash-separated path relative to dir and may be nil.
func FileFallthrough(dir, prefix string, skip func(name string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			if !strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}

			name := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(r.URL.Path, prefix)), "/")
			if name == "" || hasDotSegment(name) || (skip != nil && skip(name)) {
				next.ServeHTTP(w, r)
				return
			}

			full := filepath.Join(dir, filepath.FromSlash(name))
			info, err := os.Stat(full)
			if err != nil || info.IsDir() {
				next.ServeHTTP(w, r)
				return
			}

			f, err := os.Open(full)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			defer f.Close()

			http.ServeContent(w, r, info.Name(), info.ModTime(), f)
		})
	}
}

// hasDotSegment reports whether any element of the slash-separated name
// starts with a dot.
func hasDotSegment(name string) bool {
	for _, seg := range strings.Split(name, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// SkipNames returns a skip func for FileFallthrough that rejects the given
// relative names.
func SkipNames(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

// SkipExt returns a skip func for FileFallthrough that rejects files with any
// of the given extensions.
func SkipExt(exts ...string) func(string) bool {
	return func(name string) bool {
		ext := path.Ext(name)
		for _, e := range exts {
			if strings.EqualFold(ext, e) {
				return true
			}
		}
		return false
	}
}
