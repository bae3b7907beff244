// Package cli implements the vitrina command line tool: search, fetch,
// and metadata ingestion against a catalog database.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/katworks/vitrina"
	"github.com/katworks/vitrina/pkg/config"
	"github.com/katworks/vitrina/pkg/linker"
	"github.com/katworks/vitrina/pkg/store"
	"github.com/katworks/vitrina/pkg/taxonomy"
	"github.com/katworks/vitrina/pkg/telemetry"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "vitrina",
		Short: "Vitrina: tagged media-archive catalog",
		Long: `Vitrina is the data and query layer of a tagged media-archive
catalog. This tool runs searches, fetches archive details, and ingests
metadata against the catalog database.`,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vitrina.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vitrina")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// openCatalog wires the pool, logger, alias table, and linker from the
// loaded configuration.
func openCatalog() (*vitrina.Client, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	db, err := store.Open(cfg.Database.DSN(), nil)
	if err != nil {
		return nil, nil, err
	}

	var aliases *taxonomy.AliasTable
	if cfg.Aliases != "" {
		aliases, err = taxonomy.LoadAliasTable(cfg.Aliases)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	client := vitrina.NewClient(db, &vitrina.Config{
		Aliases: aliases,
		Linker:  linker.Symlinker{Dir: cfg.Links.Dir},
		Logger:  logger,
	})

	return client, db, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	if cfg.Telemetry.ParquetPath != "" {
		audit, err := telemetry.NewAuditHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			return nil, err
		}
		handler = audit
	}

	return slog.New(handler), nil
}
