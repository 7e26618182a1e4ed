package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"dauchez-konnector/lib/billstore"
	"dauchez-konnector/lib/configutil"
	"dauchez-konnector/lib/serviceutil"

	"github.com/spf13/cobra"
)

type Config struct {
	Credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"credentials"`
	// defaults to the production extranet when empty
	BaseUrl    string `json:"base_url"`
	StorageDir string `json:"storage_dir"`
	DbPath     string `json:"db_path"`
	Debug      bool   `json:"debug"`
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dauchez-konnector",
	Short: "dauchez-konnector downloads rent bills from the Dauchez extranet.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath, "config", "c", "config.json5",
		"path to the configuration file",
	)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() Config {
	config, err := configutil.Load[Config](configPath)
	if err != nil {
		serviceutil.Fatal("failed to load configuration", err)
	}
	if config.StorageDir == "" {
		config.StorageDir = "bills"
	}
	if config.DbPath == "" {
		config.DbPath = "bills.db"
	}
	return config
}

func openStore(config Config) billstore.Store {
	database, err := sql.Open("sqlite", config.DbPath)
	if err != nil {
		serviceutil.Fatal("failed to open bill database", err)
	}
	store, err := billstore.NewStore(database, config.StorageDir)
	if err != nil {
		serviceutil.Fatal("failed to open bill store", err)
	}
	return store
}
