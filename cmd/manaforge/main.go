// Command manaforge serves the deck-building API and offers maintenance
// commands over the deck database.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/manaforge/internal/cardlookup"
	"github.com/ramonehamilton/manaforge/internal/cards/scryfall"
	"github.com/ramonehamilton/manaforge/internal/commit"
	"github.com/ramonehamilton/manaforge/internal/config"
	"github.com/ramonehamilton/manaforge/internal/metrics"
	"github.com/ramonehamilton/manaforge/internal/storage"
	"github.com/ramonehamilton/manaforge/internal/storage/repository"
	"github.com/ramonehamilton/manaforge/internal/version"
)

var (
	cfgFile string
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "manaforge",
		Short:         "Deck building service",
		Long:          "Builds, validates and versions Magic: The Gathering decks.",
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.manaforge/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides the config file)")

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		validateCmd(),
		statsCmd(),
		historyCmd(),
		revertCmd(),
		cacheCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if cfg.App.DebugMode {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	return cfg, nil
}

// app holds the services shared by the commands.
type app struct {
	cfg     *config.Config
	db      *storage.DB
	decks   repository.DeckRepository
	history repository.HistoryRepository
	owned   repository.CollectionRepository
	cards   *cardlookup.Service
	search  *scryfall.Client
	commits *commit.Service
	metrics *metrics.Collector
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	busyTimeout, err := cfg.GetBusyTimeout()
	if err != nil {
		return nil, err
	}
	rateLimit, err := cfg.GetRateLimit()
	if err != nil {
		return nil, err
	}
	cacheTTL, err := cfg.GetCacheTTL()
	if err != nil {
		return nil, err
	}

	dbConfig := storage.DefaultConfig(path)
	dbConfig.BusyTimeout = busyTimeout
	dbConfig.AutoMigrate = cfg.Database.AutoMigrate
	db, err := storage.Open(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	decks := repository.NewDeckRepository(db.Conn())
	history := repository.NewHistoryRepository(db.Conn())

	client := scryfall.NewClient(scryfall.Options{
		BaseURL:   cfg.Scryfall.BaseURL,
		UserAgent: cfg.Scryfall.UserAgent,
		RateLimit: rateLimit,
	})
	collector := metrics.NewCollector()
	lookup := cardlookup.NewService(repository.NewCardCacheRepository(db.Conn()), client, cacheTTL).
		WithMetrics(collector)

	commits := commit.NewService(commit.Options{
		Transactor: commit.NewSQLTransactor(db),
		Decks:      decks,
		History:    history,
		Cards:      lookup,
		Metrics:    collector,
	})

	return &app{
		cfg:     cfg,
		db:      db,
		decks:   decks,
		history: history,
		owned:   repository.NewCollectionRepository(db.Conn()),
		cards:   lookup,
		search:  client,
		commits: commits,
		metrics: collector,
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
