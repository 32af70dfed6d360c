// Package commands implements the wanderlist CLI.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mmcdole/wanderlist/internal/api"
	"github.com/mmcdole/wanderlist/internal/cli/output"
	"github.com/mmcdole/wanderlist/internal/config"
	"github.com/mmcdole/wanderlist/internal/log"
	"github.com/mmcdole/wanderlist/internal/offline"
	"github.com/spf13/cobra"
)

var (
	// Version is injected by main
	Version = "dev"

	// Global flags
	cfgFile      string
	outputFormat string
	noColor      bool
)

var rootCmd = &cobra.Command{
	Use:   "wanderlist",
	Short: "Offline-first travel bucket list",
	Long: `wanderlist fronts the travel bucket list web app with an offline asset
cache and talks to its REST API from the command line.

Use "wanderlist [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with ctx
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: "+config.DefaultConfigFile()+")")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(bucketlistCmd)
	rootCmd.AddCommand(destinationsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// env is what every command needs after flag parsing
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	printer *output.Printer
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	out := cmd.OutOrStdout()
	color := false
	if f, ok := out.(*os.File); ok && !noColor {
		color = output.ColorSupported(f)
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		printer: output.NewPrinter(out, format, color),
	}, nil
}

func (e *env) apiClient() *api.Client {
	return api.NewClient(e.cfg.API.BaseURL, e.cfg.API.Timeout, e.logger)
}

// fetcher talks to the origin. Redirects are handed back to the caller
// rather than followed.
func (e *env) fetcher() *http.Client {
	return &http.Client{
		Timeout: e.cfg.API.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// offlineConfig builds the cache manager configuration for the current
// generation
func (e *env) offlineConfig() (offline.Config, error) {
	manifest, err := e.cfg.ManifestURLs()
	if err != nil {
		return offline.Config{}, err
	}
	return offline.Config{
		Name:      e.cfg.Cache.Name,
		Manifest:  manifest,
		APIMarker: e.cfg.Cache.APIMarker,
	}, nil
}
