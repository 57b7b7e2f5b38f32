package azdo

import (
	"context"
	"fmt"
	"io"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"
	"golang.org/x/sync/errgroup"

	"azdo-mcp/src/logger"
	"azdo-mcp/src/store"
)

// DefaultMaxItems is the number of builds requested per branch query.
const DefaultMaxItems = 10

// Options configures a Service.
type Options struct {
	// URL is the organization URL, used in returned records.
	URL          string
	Project      string
	DefinitionID int
	// BasePath is the archive root. ArchiveLogs fails when it is empty.
	BasePath   string
	MaxItems   int
	GoodBranch string
	BadBranch  string
}

// LogSink persists archived log text.
type LogSink interface {
	// EnsureDir creates a directory and its parents.
	EnsureDir(path string) error
	// WriteLog copies r to entry.Path and returns the entry with size and time filled in.
	WriteLog(ctx context.Context, entry store.ArchivedLog, r io.Reader) (store.ArchivedLog, error)
	// List returns the logs archived for a build.
	List(ctx context.Context, buildID int) ([]store.ArchivedLog, error)
}

// Service answers build, log and archive queries for one build definition.
type Service struct {
	opts    Options
	connect Connector
	sink    LogSink
	log     *logger.Logger
}

// NewService creates a Service. sink may be nil when archiving is not used.
func NewService(opts Options, connect Connector, sink LogSink, log *logger.Logger) *Service {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.GoodBranch == "" {
		opts.GoodBranch = "main"
	}
	if opts.BadBranch == "" {
		opts.BadBranch = "make-main-fail"
	}
	opts.GoodBranch = NormalizeBranch(opts.GoodBranch)
	opts.BadBranch = NormalizeBranch(opts.BadBranch)

	if log == nil {
		log = logger.Discard()
	}

	return &Service{
		opts:    opts,
		connect: connect,
		sink:    sink,
		log:     log.WithComponent("azdo"),
	}
}

// Options returns the effective options, with branches normalized.
func (s *Service) Options() Options {
	return s.opts
}

// GetBuildsByBranch returns the newest completed build of the branch together
// with its report and timeline. A branch without builds yields an empty slice.
// maxItems <= 0 uses the configured default.
func (s *Service) GetBuildsByBranch(ctx context.Context, branch string, maxItems int) ([]Build, error) {
	s.log.Info("get builds by branch", "branch", branch)
	branch = NormalizeBranch(branch)

	if maxItems <= 0 {
		maxItems = s.opts.MaxItems
	}

	api, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	branchBuilds, err := s.listBuilds(ctx, api, branch, maxItems)
	if err != nil {
		s.log.Error("error getting builds for branch", "branch", branch, "error", err)
	}
	if len(branchBuilds) == 0 {
		s.log.Warn("no builds found for branch", "branch", branch)
		return []Build{}, nil
	}

	s.log.Info("builds found", "count", len(branchBuilds), "branch", branch)

	result := make([]Build, 0, 1)
	for _, b := range branchBuilds[:1] {
		buildID := deref(b.Id)

		var (
			report   *build.BuildReportMetadata
			timeline *build.Timeline
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			report, err = api.GetBuildReport(gctx, build.GetBuildReportArgs{
				Project: &s.opts.Project,
				BuildId: &buildID,
			})
			if err != nil {
				return fmt.Errorf("failed to get report for build %d: %w", buildID, err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			timeline, err = api.GetBuildTimeline(gctx, build.GetBuildTimelineArgs{
				Project: &s.opts.Project,
				BuildId: &buildID,
			})
			if err != nil {
				return fmt.Errorf("failed to get timeline for build %d: %w", buildID, err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		summary := newBuild(s.opts.URL, s.opts.Project, branch, b)
		summary.Report = report
		summary.Timeline = timeline
		result = append(result, summary)
	}

	return result, nil
}

// listBuilds returns completed builds of the definition on branch, newest first.
// top <= 0 means no limit.
func (s *Service) listBuilds(ctx context.Context, api BuildAPI, branch string, top int) ([]build.Build, error) {
	args := build.GetBuildsArgs{
		Project:      &s.opts.Project,
		Definitions:  &[]int{s.opts.DefinitionID},
		StatusFilter: &build.BuildStatusValues.Completed,
		BranchName:   &branch,
		QueryOrder:   &build.BuildQueryOrderValues.FinishTimeDescending,
	}
	if top > 0 {
		args.Top = &top
	}

	resp, err := api.GetBuilds(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds for %s: %w", branch, err)
	}
	if resp == nil {
		return nil, nil
	}

	for _, b := range resp.Value {
		s.log.Info("get build",
			"id", deref(b.Id),
			"buildNumber", deref(b.BuildNumber),
			"status", deref(b.Status),
			"result", deref(b.Result),
		)
	}

	return resp.Value, nil
}

// GetBuildLogs returns the log of every Job record in the build's timeline,
// in timeline order. Logs are read one at a time.
func (s *Service) GetBuildLogs(ctx context.Context, buildID int) ([]BuildLog, error) {
	api, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	timeline, err := api.GetBuildTimeline(ctx, build.GetBuildTimelineArgs{
		Project: &s.opts.Project,
		BuildId: &buildID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline for build %d: %w", buildID, err)
	}

	logs := []BuildLog{}
	for _, rec := range records(timeline) {
		s.logRecord(rec)

		if deref(rec.Type) != RecordTypeJob || rec.Log == nil || rec.Log.Id == nil {
			continue
		}

		content, err := s.readLog(ctx, api, buildID, *rec.Log.Id)
		if err != nil {
			return nil, err
		}

		logs = append(logs, newBuildLog(s.opts.URL, buildID, rec, content))
	}

	return logs, nil
}

func (s *Service) readLog(ctx context.Context, api BuildAPI, buildID, logID int) (string, error) {
	rc, err := s.openLog(ctx, api, buildID, logID)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read log %d of build %d: %w", logID, buildID, err)
	}
	return string(data), nil
}

func (s *Service) openLog(ctx context.Context, api BuildAPI, buildID, logID int) (io.ReadCloser, error) {
	rc, err := api.GetBuildLog(ctx, build.GetBuildLogArgs{
		Project: &s.opts.Project,
		BuildId: &buildID,
		LogId:   &logID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get log %d of build %d: %w", logID, buildID, err)
	}
	return rc, nil
}

func (s *Service) logRecord(rec build.TimelineRecord) {
	s.log.Debug("timeline record",
		"type", deref(rec.Type),
		"name", deref(rec.Name),
		"id", deref(rec.Id),
		"attempt", deref(rec.Attempt),
		"previousAttempts", len(deref(rec.PreviousAttempts)),
	)
}

func records(t *build.Timeline) []build.TimelineRecord {
	if t == nil || t.Records == nil {
		return nil
	}
	return *t.Records
}
