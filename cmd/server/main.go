package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/config"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
	"github.com/tcgworld/tcg-engine/internal/logging"
	"github.com/tcgworld/tcg-engine/internal/repository"
	"github.com/tcgworld/tcg-engine/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting game host",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	doc, err := rules.LoadDocument(cfg.Rules.Path)
	if err != nil {
		logger.Fatal("failed to load rules", zap.String("path", cfg.Rules.Path), zap.Error(err))
	}
	logger.Info("rules loaded",
		zap.String("game", doc.GameInfo.Name),
		zap.Int("players", doc.GameInfo.PlayerCount),
	)

	catalog, err := repository.OpenCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	hub := server.NewHub(server.EngineFactory(doc, catalog, cfg.EngineOptions(logger)...), logger)
	httpServer := server.NewHTTPServer(cfg.Server.WebSocket, hub, logger)
	health := server.NewHealthServer(logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC health server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := health.GRPC().Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	go func() {
		logger.Info("starting WebSocket server",
			zap.String("address", cfg.Server.WebSocket.Address),
			zap.String("path", cfg.Server.WebSocket.Path),
		)
		if wsErr := httpServer.ListenAndServe(); wsErr != nil && !errors.Is(wsErr, http.ErrServerClosed) {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	health.SetServing(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket shutdown", zap.Error(err))
	}
	health.Shutdown()

	logger.Info("game host stopped", zap.Int("games", hub.GameCount()))
}
