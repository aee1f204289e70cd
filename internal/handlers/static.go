package handlers

import (
	"net/http"
	"os"
)

// Static serves the client assets when a build is present; headless
// deployments (API-only, tests) get a 404 instead.
func Static(dir string) http.Handler {
	if _, err := os.Stat(dir); err != nil {
		return http.NotFoundHandler()
	}
	return http.FileServer(http.Dir(dir))
}
