// shared/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// BaseServer bundles the router, the middleware chain and the http.Server shared by both services.
type BaseServer struct {
	Router *mux.Router
	Server *http.Server
	Logger zerolog.Logger
}

// NewBaseServer builds the router and wraps it in the common middleware chain:
// request id + logging, then CORS (which answers every OPTIONS request), then panic recovery.
// The chain wraps the whole router so unmatched routes get the same headers as matched ones.
func NewBaseServer(addr string, logger zerolog.Logger) *BaseServer {
	router := mux.NewRouter()
	// Paths are matched as sent; "/api//matches" is unmatched rather than redirected.
	router.SkipClean(true)
	router.NotFoundHandler = NotFoundHandler()
	router.MethodNotAllowedHandler = NotFoundHandler()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	handler := RequestIDMiddleware(logger)(CORSMiddleware(RecoveryMiddleware(router)))

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &BaseServer{
		Router: router,
		Server: server,
		Logger: logger,
	}
}

// Handler returns the fully wrapped handler, the same one the http.Server serves.
func (bs *BaseServer) Handler() http.Handler {
	return bs.Server.Handler
}

func (bs *BaseServer) Start() error {
	bs.Logger.Info().Str("addr", bs.Server.Addr).Msg("starting HTTP server")
	// ListenAndServe returns http.ErrServerClosed on graceful shutdown
	if err := bs.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

func (bs *BaseServer) Shutdown(ctx context.Context) error {
	bs.Logger.Info().Msg("shutting down HTTP server")
	return bs.Server.Shutdown(ctx)
}
