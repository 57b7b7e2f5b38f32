package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"azdo-mcp/src/azdo"
	"azdo-mcp/src/logger"
	"azdo-mcp/src/provider"
	"azdo-mcp/src/sanitize"
	"azdo-mcp/src/store"
)

// Name and Version are reported to MCP clients.
const (
	Name    = "azdo-mcp"
	Version = "1.0.0"
)

// DefaultMaxBytes caps the log text returned per job by get_build_log.
// A max_bytes of 0 means no limit; negative values fall back to this.
const DefaultMaxBytes = 64 * 1024

// DefaultBranch is used by get_builds when no branch is given.
const DefaultBranch = "refs/heads/main"

// BuildService is the part of azdo.Service the tools call.
type BuildService interface {
	GetBuildsByBranch(ctx context.Context, branch string, maxItems int) ([]azdo.Build, error)
	GetBuildLogs(ctx context.Context, buildID int) ([]azdo.BuildLog, error)
	ArchiveLogs(ctx context.Context) (*azdo.ArchiveResult, error)
	ListArchived(ctx context.Context, buildID int) ([]store.ArchivedLog, error)
	Options() azdo.Options
}

// Server is the MCP server for Azure DevOps builds.
type Server struct {
	mcpServer *server.MCPServer
	svc       BuildService
	log       *logger.Logger
}

// NewServer creates a new MCP server.
func NewServer(svc BuildService, log *logger.Logger) *Server {
	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	if log == nil {
		log = logger.Discard()
	}

	srv := &Server{
		mcpServer: s,
		svc:       svc,
		log:       log.WithComponent("mcp"),
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	buildsTool := mcp.NewTool("get_builds",
		mcp.WithDescription("Get the latest completed build of a branch for the configured build definition, with its report and timeline."),
		mcp.WithString("branch",
			mcp.Description("Branch name, e.g. main or refs/heads/main (default: refs/heads/main)"),
		),
	)

	logTool := mcp.NewTool("get_build_log",
		mcp.WithDescription("Get the job logs of a build. Returns one entry per job with its result, error count and attempt. Set include_content to get the cleaned log text."),
		mcp.WithString("build",
			mcp.Required(),
			mcp.Description("Build id or Azure DevOps results URL"),
		),
		mcp.WithBoolean("include_content",
			mcp.Description("Include the log text of every job (default: false)"),
		),
		mcp.WithNumber("max_bytes",
			mcp.Description("Max bytes of log text per job, keeping the end of the log (default: 65536; 0 means no limit, negative values use the default)"),
		),
		mcp.WithBoolean("compact",
			mcp.Description("Shorten long paths and collapse repeated lines in the log text (default: false)"),
		),
	)

	archiveTool := mcp.NewTool("archive_build_logs",
		mcp.WithDescription("Save the job logs of completed builds on the good and bad branches to the archive directory, including the logs of failed previous attempts."),
	)

	listTool := mcp.NewTool("list_archived_logs",
		mcp.WithDescription("List the archived log files of a build. Use after archive_build_logs."),
		mcp.WithString("build",
			mcp.Required(),
			mcp.Description("Build id or Azure DevOps results URL"),
		),
	)

	s.mcpServer.AddTool(buildsTool, s.handleGetBuilds)
	s.mcpServer.AddTool(logTool, s.handleGetBuildLog)
	s.mcpServer.AddTool(archiveTool, s.handleArchiveBuildLogs)
	s.mcpServer.AddTool(listTool, s.handleListArchivedLogs)
}

// Run serves MCP on stdio until ctx is cancelled or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.log.Info("serving MCP on stdio")
	err := server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RunHTTP serves MCP over streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.mcpServer)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving MCP over HTTP", "addr", addr)
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("shutting down HTTP server")
		return httpServer.Shutdown(context.WithoutCancel(ctx))
	}
}

// handleGetBuilds handles the get_builds tool call.
func (s *Server) handleGetBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	branch := strings.TrimSpace(request.GetString("branch", ""))
	if branch == "" {
		branch = DefaultBranch
	}

	builds, err := s.svc.GetBuildsByBranch(ctx, branch, 0)
	if err != nil {
		return s.toolError("get_builds", err), nil
	}

	return jsonResult(builds)
}

// handleGetBuildLog handles the get_build_log tool call.
func (s *Server) handleGetBuildLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, errResult := s.buildRef("get_build_log", request)
	if errResult != nil {
		return errResult, nil
	}

	includeContent := request.GetBool("include_content", false)
	maxBytes := maxBytesArg(request)
	compact := request.GetBool("compact", false)

	logs, err := s.svc.GetBuildLogs(ctx, ref.BuildID)
	if err != nil {
		return s.toolError("get_build_log", err), nil
	}

	response := make([]BuildLogResponse, 0, len(logs))
	for _, l := range logs {
		item := BuildLogResponse{BuildLog: l}
		if includeContent {
			text := sanitize.Clean(l.Content, 0)
			if compact {
				text = compactLog(text)
			}
			item.Content = sanitize.Truncate(text, maxBytes)
		}
		response = append(response, item)
	}

	return jsonResult(response)
}

// handleArchiveBuildLogs handles the archive_build_logs tool call.
func (s *Server) handleArchiveBuildLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.svc.ArchiveLogs(ctx)
	if err != nil {
		return s.toolError("archive_build_logs", err), nil
	}

	return jsonResult(result)
}

// handleListArchivedLogs handles the list_archived_logs tool call.
func (s *Server) handleListArchivedLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, errResult := s.buildRef("list_archived_logs", request)
	if errResult != nil {
		return errResult, nil
	}

	entries, err := s.svc.ListArchived(ctx, ref.BuildID)
	if err != nil {
		return s.toolError("list_archived_logs", err), nil
	}

	return jsonResult(ArchivedLogsResponse{BuildID: ref.BuildID, Logs: entries})
}

func (s *Server) buildRef(tool string, request mcp.CallToolRequest) (*provider.BuildRef, *mcp.CallToolResult) {
	raw := request.GetString("build", "")
	if raw == "" {
		return nil, mcp.NewToolResultError("build parameter is required")
	}

	ref, err := provider.ParseBuildRef(raw)
	if err != nil {
		return nil, s.toolError(tool, err)
	}

	opts := s.svc.Options()
	if err := provider.CheckScope(ref, opts.URL, opts.Project); err != nil {
		return nil, s.toolError(tool, err)
	}
	return ref, nil
}

// maxBytesArg reads max_bytes as a float so huge values cannot overflow int.
// Negative values get the default and huge ones are capped.
func maxBytesArg(request mcp.CallToolRequest) int {
	n := request.GetFloat("max_bytes", DefaultMaxBytes)
	switch {
	case n < 0 || math.IsNaN(n):
		return DefaultMaxBytes
	case n > math.MaxInt32:
		return math.MaxInt32
	}
	return int(n)
}

func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.log.Error("tool failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(provider.WrapError(err).Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
