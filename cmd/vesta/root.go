package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envConfig     = "VESTA_CONFIG"
	defaultConfig = "./vesta.yaml"
)

var (
	cfgPath string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "vesta",
	Short: "Vesta action dispatcher",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle: loadEnv refers back to rootCmd.
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return loadEnv()
	}
	rootCmd.SilenceUsage = true

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVar(
		&cfgPath,
		"config",
		"",
		"Path to configuration file (env "+envConfig+")",
	)
	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Dotenv file loaded before reading the configuration",
	)
}

// loadEnv loads the dotenv file. A missing default file is not an error.
func loadEnv() error {
	err := godotenv.Load(envFile)
	if errors.Is(err, fs.ErrNotExist) && !rootCmd.PersistentFlags().Changed("env-file") {
		return nil
	}

	return err
}

func configPath() string {
	if cfgPath != "" {
		return cfgPath
	}

	if p := os.Getenv(envConfig); p != "" {
		return p
	}

	return defaultConfig
}
