package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oxygene76/orrery/pkg/client"
	"github.com/oxygene76/orrery/pkg/utils"
)

const (
	appName = "orrery"
	version = "v1.0.0"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Solar system orrery with eclipse shading",
		Long: `orrery renders the Sun, planets and moons from JPL ephemeris data with
per-pixel phase shading, soft shadows between bodies of the same system,
orbit paths and trails. It runs in a truecolor terminal, serves frames
over HTTP and websocket, records frame sequences and scans for eclipses.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.orrery/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		initCmd(),
		fetchCmd(),
		viewCmd(),
		serveCmd(),
		recordCmd(),
		eclipsesCmd(),
		bodiesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*utils.Config, error) {
	config, err := utils.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return config, nil
}

// newApp loads the config, applies a --source override and builds the app
func newApp(cmd *cobra.Command) (*client.App, *utils.Config, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Lookup("source") != nil {
		if source, _ := cmd.Flags().GetString("source"); source != "" {
			config.Ephemeris.Source = source
		}
	}

	app, err := client.New(config, verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize orrery: %w", err)
	}
	return app, config, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
