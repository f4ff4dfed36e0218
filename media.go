package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// registerMedia serves the audio asset directory under /media. The host
// console resolves cue filenames like "q1-1.mp3" against this route.
func registerMedia(cfg *Config, mux *httprouter.Router) {
	fs := http.FileServer(http.Dir(cfg.media))

	mux.GET(cfg.prefix+"/media/*filepath", func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		r.URL.Path = p.ByName("filepath")
		fs.ServeHTTP(w, r)
	})
}
