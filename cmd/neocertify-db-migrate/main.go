package main

import (
	"flag"
	"os"

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

	logger.Info("Running database migrations")
	db, err := store.InitDB(cfg, logger)
	if err != nil {
		logger.Fatalf("initializing data store: %v", err)
	}
	st := store.NewStore(db, logger.WithField("pkg", "store"))
	defer func() {
		_ = st.Close()
	}()

	if err := st.InitialMigration(); err != nil {
		logger.Fatalf("running initial migration: %v", err)
	}
	logger.Info("Database migration completed")
}

func defaultConfigFile() string {
	if env := os.Getenv("NEOCERTIFY_CONFIG"); env != "" {
		return env
	}
	return config.ConfigFile()
}
