// eyectl: eye-control server.
// Trackers stream gaze and eye frames in, hosts receive scroll and click
// actions out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/teslashibe/go-eyectl/internal/config"
	"github.com/teslashibe/go-eyectl/internal/log"
	"github.com/teslashibe/go-eyectl/pkg/control"
	"github.com/teslashibe/go-eyectl/pkg/hub"
	"github.com/teslashibe/go-eyectl/pkg/session"
	"github.com/teslashibe/go-eyectl/pkg/tracker"
	"github.com/teslashibe/go-eyectl/pkg/web"
)

func main() {
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port (overrides EYECTL_PORT)")
	dataPath := flag.String("data", cfg.DataPath, "Session store path (overrides EYECTL_DATA)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flush := flag.Duration("flush", cfg.FlushInterval, "How often session stats are written to disk")
	accessLog := flag.Bool("access-log", false, "Log every HTTP request")
	flag.Parse()

	log.Init(*logLevel)
	logger := log.Component("eyectl")

	if err := run(*port, *dataPath, *flush, *accessLog); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(port, dataPath string, flush time.Duration, accessLog bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := session.NewJSONStore(dataPath, log.Component("session"))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	log.Info("session store loaded", "path", store.Path(), "sessions", store.Count())

	storeDone := make(chan struct{})
	go func() {
		store.Run(ctx, flush)
		close(storeDone)
	}()

	events := hub.New("events", log.Component("hub"))
	go events.Run(ctx)

	trackers := tracker.NewHub(log.Component("tracker"))
	manager := control.NewManager(store, events,
		control.WithTracker(trackers),
		control.WithLogger(log.Component("control")))
	defer manager.Close()

	server := web.NewServer(web.Config{
		Port:      port,
		Store:     store,
		Control:   manager,
		Events:    events,
		Trackers:  trackers,
		Logger:    log.Component("web"),
		AccessLog: accessLog,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		cancel()
		<-storeDone
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", "error", err)
	}

	// The store flushes once more when its context ends
	<-storeDone
	return nil
}
