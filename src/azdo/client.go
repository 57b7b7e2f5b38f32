// Package azdo queries Azure DevOps Build for one project and build definition.
// All REST traffic, authentication and paging go through the Azure DevOps Go SDK.
package azdo

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"
)

// BranchPrefix is the ref prefix Azure DevOps expects on branch filters.
const BranchPrefix = "refs/heads/"

// RecordTypeJob is the timeline record type that owns a job log.
const RecordTypeJob = "Job"

// BuildAPI is the subset of the SDK build client used here.
// build.Client satisfies it.
type BuildAPI interface {
	GetBuilds(ctx context.Context, args build.GetBuildsArgs) (*build.GetBuildsResponseValue, error)
	GetBuildReport(ctx context.Context, args build.GetBuildReportArgs) (*build.BuildReportMetadata, error)
	GetBuildTimeline(ctx context.Context, args build.GetBuildTimelineArgs) (*build.Timeline, error)
	GetBuildLog(ctx context.Context, args build.GetBuildLogArgs) (io.ReadCloser, error)
}

// Connector opens a build client.
type Connector func(ctx context.Context) (BuildAPI, error)

// NewConnector returns a Connector authenticating with a personal access token.
// The connection is shared; each call resolves a fresh build client on it.
func NewConnector(orgURL, token string) Connector {
	conn := azuredevops.NewPatConnection(orgURL, token)
	return func(ctx context.Context) (BuildAPI, error) {
		client, err := build.NewClient(ctx, conn)
		if err != nil {
			return nil, fmt.Errorf("failed to create build client: %w", err)
		}
		return client, nil
	}
}

// NormalizeBranch ensures a branch name starts with refs/heads/.
func NormalizeBranch(name string) string {
	if strings.HasPrefix(name, BranchPrefix) {
		return name
	}
	return BranchPrefix + name
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
