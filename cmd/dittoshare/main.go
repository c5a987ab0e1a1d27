package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/dittoshare/internal/extract"
	"github.com/marmos91/dittoshare/internal/filetree"
	"github.com/marmos91/dittoshare/internal/logger"
	"github.com/marmos91/dittoshare/pkg/config"
	"github.com/marmos91/dittoshare/pkg/metrics"
	"github.com/marmos91/dittoshare/pkg/share"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	enableMetrics := flag.Bool("metrics", false, "Enable Prometheus metrics collection")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	if *enableMetrics {
		metrics.InitRegistry()
		logger.Info("Metrics collection enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := config.CreateShareStore(ctx, &cfg.Store)
	if err != nil {
		log.Fatalf("Failed to create share store: %v", err)
	}
	logger.Info("Share store initialized: type=%s", cfg.Store.Type)

	collection := share.NewCollection(store, metrics.NewShareMetrics())
	collection.Subscribe(func(ev share.Event) {
		logger.Debug("Share event: type=%s id=%s digest=%s",
			ev.Type, ev.Record.Doc.ID, ev.Record.Digest)
	})

	if err := collection.Load(ctx); err != nil {
		log.Fatalf("Failed to load shares: %v", err)
	}
	logger.Info("Loaded %d shares", collection.Len())

	tree := filetree.New(cfg.Tree.BlobRoot)
	logger.Info("File tree initialized: blob_root=%s root=%s", cfg.Tree.BlobRoot, tree.Root())

	var extractor *extract.Pool
	if cfg.Extract.Enabled {
		extractor = extract.New(cfg.Extract.Command)
		logger.Info("Metadata extractor enabled: command=%s", cfg.Extract.Command)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("dittoshare is running. Press Ctrl+C to stop.")
	sig := <-sigChan
	logger.Info("Received %s, shutting down...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if extractor != nil {
			if err := extractor.Close(); err != nil {
				logger.Warn("Extractor shutdown error: %v", err)
			}
		}
		if closer, ok := store.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("Store shutdown error: %v", err)
			}
		}
	}()

	select {
	case <-done:
		logger.Info("Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Error("Shutdown timed out after %s", cfg.Server.ShutdownTimeout)
		os.Exit(1)
	}
}
