package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	apiserver "github.com/neocertify/neocertify/internal/api_server"
	"github.com/neocertify/neocertify/internal/config"
	"github.com/neocertify/neocertify/internal/store"
	"github.com/neocertify/neocertify/pkg/log"
)

func main() {
	cfgFile := flag.String("config", defaultConfigFile(), "path to the configuration file")
	flag.Parse()

	logger := log.InitLogs()
	cfg, err := config.LoadOrGenerate(*cfgFile)
	if err != nil {
		logger.Fatalf("reading configuration: %v", err)
	}
	log.SetLevel(logger, cfg.Service.LogLevel)
	logger.Infof("Using config: %s", *cfgFile)

	db, err := store.InitDB(cfg, logger)
	if err != nil {
		logger.Fatalf("initializing data store: %v", err)
	}
	st := store.NewStore(db, logger.WithField("pkg", "store"))
	defer func() {
		_ = st.Close()
	}()

	listener, err := net.Listen("tcp", cfg.Service.Address)
	if err != nil {
		logger.Fatalf("creating listener: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server := apiserver.New(logger, cfg, st, listener)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Run(ctx)
	})
	if err := group.Wait(); err != nil {
		logger.Fatalf("running API server: %v", err)
	}
}

func defaultConfigFile() string {
	if env := os.Getenv("NEOCERTIFY_CONFIG"); env != "" {
		return env
	}
	return config.ConfigFile()
}
