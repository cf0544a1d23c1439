package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var stationFile string

var rootCmd = &cobra.Command{
	Use:   "facegate",
	Short: "A CLI client for a face recognition attendance service",
	Long: `Facegate is a client for a face recognition attendance service.
It logs users in by password or face, registers accounts and face samples,
marks attendance from captured frames, and renders attendance reports.
It can also run as a kiosk station serving a browser frontend.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&stationFile, "station", "", "Station YAML file overriding the environment configuration")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
