package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Prediction requests are small and fast, so the
// timeouts are tight; slow work (drift runs, rollback checks) happens in the
// scheduler, never on a request path.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
