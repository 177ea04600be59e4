// Command fixtureapi serves the demo backend on VIDEXTRACT_FIXTURE_PORT so the
// terminal client can be tried without the real extraction engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangnt1552314/vidextract/internal/config"
	"github.com/sangnt1552314/vidextract/internal/fixture"
	"github.com/sangnt1552314/vidextract/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	gin.SetMode(gin.ReleaseMode)
	backend := fixture.New(logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.FixturePort),
		Handler:           backend.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting fixture backend", "port", cfg.FixturePort)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
