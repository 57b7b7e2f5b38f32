package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"azdo-mcp/src/logger"
	"azdo-mcp/src/mcp"
)

// Address for streamable HTTP. Empty means stdio.
var httpAddr string

// serveCmd runs the MCP server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools (stdio by default)",
	Long: `Serve the get_builds, get_build_log, archive_build_logs and
list_archived_logs tools.

Logs go to stderr and to azdo-mcp.log in the log directory. Stdout is
reserved for the stdio transport.

Example:
  azdo-mcp serve
  azdo-mcp serve --http :8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), httpAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, addr string) error {
	log, closeLog, err := logger.New(logger.Options{
		Dir:   appConfig.LogDir,
		Level: appConfig.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer closeLog()

	log.Info("starting azdo-mcp", "version", mcp.Version)
	log.Debug("configuration", "settings", appConfig.Redacted())

	a, err := newApp(ctx, appConfig, log)
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcp.NewServer(a.svc, log)
	if addr != "" {
		err = server.RunHTTP(ctx, addr)
	} else {
		err = server.Run(ctx)
	}

	log.Info("azdo-mcp stopped")
	return err
}
