package main

import (
	_ "embed"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

//go:embed quiz/index.html
var indexHTML []byte

//go:embed quiz/admin.html
var adminHTML []byte

//go:embed quiz/app.css
var quizCSS []byte

//go:embed quiz/app.js
var quizJS []byte

//go:embed quiz/admin.js
var adminJS []byte

func serveEmbed(cfg *Config, contentType string, data []byte) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, _ = w.Write(data)
	}
}

func servePlayerPage(cfg *Config) httprouter.Handle {
	return serveEmbed(cfg, "text/html; charset=utf-8", indexHTML)
}

func serveAdminPage(cfg *Config) httprouter.Handle {
	return serveEmbed(cfg, "text/html; charset=utf-8", adminHTML)
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: *
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}

// qrHandler generates a PNG QR code for the player join URL, so players can
// scan their way in from a phone.
func qrHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../qr; strip the trailing "/qr" to get the join URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")
	if path == "" {
		path = "/"
	}

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerQuiz wires the quiz routes:
//   - /            → player client
//   - /ws          → player websocket
//   - /qr          → PNG QR code for the join URL
//   - /admin       → host console (basic auth)
//   - /admin/ws    → host websocket (basic auth)
//   - /assets/...  → shared css/js
func registerQuiz(cfg *Config, hub *Hub, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/", servePlayerPage(cfg))
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, hub))
	mux.GET(cfg.prefix+"/qr", qrHandler)

	mux.GET(cfg.prefix+"/admin", requiresAuth(cfg, serveAdminPage(cfg)))
	mux.GET(cfg.prefix+"/admin/ws", requiresAuth(cfg, serveAdminWS(cfg, hub)))

	mux.GET(cfg.prefix+"/assets/quiz/app.css", serveEmbed(cfg, "text/css; charset=utf-8", quizCSS))
	mux.GET(cfg.prefix+"/assets/quiz/app.js", serveEmbed(cfg, "text/javascript; charset=utf-8", quizJS))
	mux.GET(cfg.prefix+"/assets/quiz/admin.js", serveEmbed(cfg, "text/javascript; charset=utf-8", adminJS))
}
