package httpserver

import (
	"net/http"
	"time"
)

// New builds the sale's HTTP server. Write timeout stays generous because a
// purchase holds the connection through two outbound collaborator calls.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
