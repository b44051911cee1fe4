package httpserver

import (
	"log/slog"
	"net/http"

	"storefront/internal/platform/config"
)

// New builds the storefront HTTP server. Errors the net/http package logs on
// its own (TLS handshakes, hijacked connections) go to logger at warn level.
func New(addr string, cfg config.HTTPConfig, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
