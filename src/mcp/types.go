// Package mcp exposes Azure DevOps build queries as MCP tools.
package mcp

import (
	"azdo-mcp/src/azdo"
	"azdo-mcp/src/store"
)

// BuildLogResponse is one get_build_log entry.
// Content is set only when include_content is requested.
type BuildLogResponse struct {
	azdo.BuildLog
	Content string `json:"content,omitempty"`
}

// ArchivedLogsResponse is the list_archived_logs result.
type ArchivedLogsResponse struct {
	BuildID int                 `json:"buildId"`
	Logs    []store.ArchivedLog `json:"logs"`
}
