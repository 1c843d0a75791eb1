package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"reelqueue/internal/config"
	"reelqueue/internal/daemon"
	"reelqueue/internal/ipc"
	"reelqueue/internal/logging"
	"reelqueue/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolvedPath, exists, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if !exists {
		logger.Info("no config file found, using defaults", logging.String("looked_at", resolvedPath))
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open task store", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, st, logger, builtinRunners(cfg, logger))
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	srv, err := ipc.NewServer(ctx, ipc.SocketPath(cfg), d, logger)
	if err != nil {
		logger.Error("start control socket", logging.Error(err))
		return
	}
	srv.Serve()
	defer srv.Close()

	<-ctx.Done()
	logger.Info("reelqueued shutting down")
}
