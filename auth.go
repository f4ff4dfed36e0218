package main

import (
	"crypto/subtle"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// requiresAuth gates a route behind HTTP basic auth against the configured
// host console credentials. It is a static credential check, nothing more;
// constant-time comparison avoids leaking prefix matches.
func requiresAuth(cfg *Config, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		user, pass, ok := r.BasicAuth()

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.adminUser)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.adminPass)) == 1

		if !ok || !userOK || !passOK {
			w.Header().Set("WWW-Authenticate", `Basic realm="Login Required"`)
			http.Error(w, "Login Required", http.StatusUnauthorized)
			return
		}

		next(w, r, p)
	}
}
