// Package main provides the azdo-mcp entry point: an MCP server over Azure
// DevOps builds plus a few one-shot commands that call the same service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"azdo-mcp/src/config"
	"azdo-mcp/src/logger"
	"azdo-mcp/src/provider"
)

var (
	// Path given with --config. Empty means appsettings.json next to the binary.
	configPath string
	// Application configuration, loaded before any command runs.
	appConfig *config.Config
	// Filesystem for configuration and the log archive.
	appFs afero.Fs = afero.NewOsFs()
)

// startupLogDir is where configuration failures are logged, since the
// configured log directory is not known yet. Replaced in tests.
var startupLogDir = func() string {
	if dir := os.Getenv("AZDO_LOG_DIR"); dir != "" {
		return dir
	}
	return config.DefaultLogDir()
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "azdo-mcp",
	Short: "azdo-mcp - Azure DevOps builds and logs over MCP",
	Long: `azdo-mcp exposes Azure DevOps builds, job logs and a log archive as
MCP tools for one project and build definition.

Without a subcommand it serves MCP on stdio.

Configuration comes from appsettings.json next to the binary (or --config)
and from the environment: AZDO_URL, AZDO_PAT, AZDO_PROJECT,
AZDO_BUILD_DEFINITION, AZDO_BASE_PATH.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(appFs, configPath)
		if err != nil {
			err = fmt.Errorf("configuration error: %w", err)
			logStartupError(err)
			return err
		}
		appConfig = cfg
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), httpAddr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to appsettings.json")
	rootCmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
}

// logStartupError writes err to the rolling log file. main prints it to stderr.
func logStartupError(err error) {
	log, closeLog, lerr := logger.New(logger.Options{
		Dir:     startupLogDir(),
		Level:   "error",
		Console: io.Discard,
	})
	if lerr != nil {
		return
	}
	defer closeLog()
	log.Error("startup failed", "error", err)
}

// consoleLogger returns a stderr logger for the one-shot commands.
func consoleLogger() *logger.Logger {
	log := logger.NewConsole(appConfig.LogLevel)
	log.Debug("configuration", "settings", appConfig.Redacted())
	return log
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, provider.WrapError(err))
		stop()
		os.Exit(1)
	}
}
