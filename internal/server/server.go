// Package server exposes the assistant over HTTP: the chat API, the admin
// surface, and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/banktrust/bankbot/internal/config"
	"github.com/banktrust/bankbot/internal/dialog"
	"github.com/banktrust/bankbot/internal/ledger"
	"github.com/banktrust/bankbot/internal/nlu"
)

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	Store      *ledger.Store
	Engine     *dialog.Engine
	Classifier *nlu.Classifier
	Config     *config.Config
	Out        io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	port := 5000
	if opts.Config != nil && opts.Config.Server.Port > 0 {
		port = opts.Config.Server.Port
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Bank of Trust assistant listening on http://localhost:%d\n", port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// NewRouter builds the Gin router with all routes registered.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("server: engine is required")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &handlers{
		store:      opts.Store,
		engine:     opts.Engine,
		classifier: opts.Classifier,
		cfg:        opts.Config,
		sessions:   newSessionStore(),
	}
	s.register(router)
	return router, nil
}
