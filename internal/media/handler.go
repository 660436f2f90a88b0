package media

import (
	"net/http"
	"path"
	"strings"
)

// Handler serves stored images. Mount it with the URL prefix stripped:
//
//	r.Handle(store.URLPrefix()+"/*", http.StripPrefix(store.URLPrefix(), store.Handler()))
//
// Directory listings are never served and missing files are a plain 404.
// Stored names are never reused, so responses are cacheable forever.
func (s *LocalStore) Handler() http.Handler {
	fileSystem := http.Dir(s.dir)
	fileServer := http.FileServer(fileSystem)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || strings.Contains(name, "/") {
			http.NotFound(w, r)
			return
		}

		f, err := fileSystem.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		info, err := f.Stat()
		f.Close()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fileServer.ServeHTTP(w, r)
	})
}
