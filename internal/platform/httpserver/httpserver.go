package httpserver

import (
	"net/http"
	"time"
)

// New builds the directory's HTTP server. ReadHeaderTimeout bounds
// slow-header clients; request deadlines are left to the handlers.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
