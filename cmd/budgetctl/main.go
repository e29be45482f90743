package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"budgeteer/internal/backend"
	"budgeteer/internal/cli"
	"budgeteer/internal/config"
	"budgeteer/internal/log"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:               "budgetctl",
		Short:             "Administer a budgeteer installation",
		Long:              "budgetctl migrates the database, seeds demo users and prints budget data from the command line.",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/budgeteer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("backend", "", "data backend (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().String("sqlite-path", "", "SQLite database path")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("database.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("database.sqlite_path", rootCmd.PersistentFlags().Lookup("sqlite-path"))
	_ = viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// initConfig layers flags over BUDGETEER_* variables over the YAML file over
// the server's own environment defaults.
func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "budgeteer"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	env := config.Load()
	viper.SetDefault("database.backend", env.DataBackend)
	viper.SetDefault("database.sqlite_path", env.SQLiteDBPath)
	viper.SetDefault("database.url", env.DatabaseURL)
	viper.SetDefault("seed.income", "5000")
	viper.SetDefault("seed.currency", "SLE")

	viper.SetEnvPrefix("BUDGETEER")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cli.SetupLogger(viper.GetString("log.level"))
	return nil
}

func backendConfig() (backend.Config, error) {
	cfg := backend.Config{
		Type:         backend.BackendType(viper.GetString("database.backend")),
		SQLiteDBPath: viper.GetString("database.sqlite_path"),
		DatabaseURL:  viper.GetString("database.url"),
	}
	return cfg, cfg.Validate()
}

// openBackend opens the configured store without an event publisher.
func openBackend(ctx context.Context) (*backend.Result, error) {
	cfg, err := backendConfig()
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(log.Discard()).CreateBackend(ctx, cfg)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the budgetctl version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "budgetctl %s\n", version)
		},
	}
}
