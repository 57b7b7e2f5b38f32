package azdo

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"
	"golang.org/x/sync/errgroup"

	"azdo-mcp/src/provider"
	"azdo-mcp/src/store"
)

// Archive bucket directories under BasePath.
const (
	BucketGood = "Good"
	BucketBad  = "Bad"
)

// ArchiveLogs saves the job logs of every completed build on the good and bad
// branches under BasePath/Good and BasePath/Bad. The branches are archived
// concurrently. A failing branch is logged and reported in its BranchArchive;
// the other branch still completes.
func (s *Service) ArchiveLogs(ctx context.Context) (*ArchiveResult, error) {
	if s.opts.BasePath == "" {
		return nil, provider.ErrMissingBasePath
	}
	if s.sink == nil {
		return nil, fmt.Errorf("archive sink is not configured")
	}

	api, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	var good, bad BranchArchive

	// Branch failures are captured in the summary, so the group never fails.
	var g errgroup.Group
	g.Go(func() error {
		good = s.archiveBranch(ctx, api, BucketGood, s.opts.GoodBranch)
		return nil
	})
	g.Go(func() error {
		bad = s.archiveBranch(ctx, api, BucketBad, s.opts.BadBranch)
		return nil
	})
	_ = g.Wait()

	return &ArchiveResult{
		Builds:   good.Builds,
		Branches: []BranchArchive{good, bad},
	}, nil
}

// ListArchived returns the archived log files of a build.
func (s *Service) ListArchived(ctx context.Context, buildID int) ([]store.ArchivedLog, error) {
	if s.sink == nil {
		return nil, fmt.Errorf("archive sink is not configured")
	}
	return s.sink.List(ctx, buildID)
}

func (s *Service) archiveBranch(ctx context.Context, api BuildAPI, bucket, branch string) BranchArchive {
	out := BranchArchive{
		Bucket: bucket,
		Branch: branch,
		Builds: []Build{},
	}

	builds, err := s.listBuilds(ctx, api, branch, 0)
	if err != nil {
		s.log.Error("error getting builds for branch", "branch", branch, "error", err)
		out.Error = err.Error()
		return out
	}

	a := &branchArchiver{
		svc:    s,
		api:    api,
		bucket: bucket,
		branch: branch,
		root:   filepath.Join(s.opts.BasePath, bucket),
	}

	for _, b := range builds {
		s.log.Info("get build logs",
			"id", deref(b.Id),
			"buildNumber", deref(b.BuildNumber),
			"status", deref(b.Status),
			"result", deref(b.Result),
		)

		if err := a.archiveBuild(ctx, deref(b.Id)); err != nil {
			s.log.Error("error getting builds for branch", "branch", branch, "error", err)
			out.Error = err.Error()
			break
		}
		out.Builds = append(out.Builds, newBuild(s.opts.URL, s.opts.Project, branch, b))
	}

	out.Files = a.files
	return out
}

// branchArchiver writes the logs of one branch. It is used by one goroutine.
type branchArchiver struct {
	svc    *Service
	api    BuildAPI
	bucket string
	branch string
	root   string
	files  int
}

func (a *branchArchiver) archiveBuild(ctx context.Context, buildID int) error {
	project := a.svc.opts.Project

	timeline, err := a.api.GetBuildTimeline(ctx, build.GetBuildTimelineArgs{
		Project: &project,
		BuildId: &buildID,
	})
	if err != nil {
		return fmt.Errorf("failed to get timeline for build %d: %w", buildID, err)
	}

	dir := filepath.Join(a.root, strconv.Itoa(buildID))
	for _, rec := range records(timeline) {
		if err := a.archiveRecord(ctx, buildID, dir, rec); err != nil {
			return err
		}
	}
	return nil
}

func (a *branchArchiver) archiveRecord(ctx context.Context, buildID int, dir string, rec build.TimelineRecord) error {
	a.svc.logRecord(rec)

	if deref(rec.Type) != RecordTypeJob {
		return nil
	}

	if err := a.svc.sink.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	attempts := deref(rec.PreviousAttempts)
	if len(attempts) == 0 {
		return nil
	}

	recordID := deref(rec.Id)

	if rec.Log != nil && rec.Log.Id != nil {
		logID := *rec.Log.Id
		entry := a.entry(buildID, recordID, logID, store.KindGood, deref(rec.Attempt))
		entry.Path = filepath.Join(dir, fmt.Sprintf("%s_good_%d_log.txt", recordID, logID))
		if err := a.save(ctx, entry); err != nil {
			return err
		}
	}

	a.svc.log.Debug("processing previous attempts", "count", len(attempts), "id", recordID)

	for _, prev := range attempts {
		if err := a.archiveAttempt(ctx, buildID, dir, recordID, prev); err != nil {
			return err
		}
	}
	return nil
}

func (a *branchArchiver) archiveAttempt(ctx context.Context, buildID int, dir string, recordID uuid.UUID, prev build.TimelineAttempt) error {
	timelineID := deref(prev.TimelineId)
	prevRecordID := deref(prev.RecordId)

	a.svc.log.Debug("previous attempt", "timelineId", timelineID, "recordId", prevRecordID)

	err := a.savePreviousAttempt(ctx, buildID, dir, recordID, timelineID, prevRecordID)
	if err != nil {
		a.svc.log.Error("failed to process previous attempt",
			"timelineId", timelineID,
			"recordId", prevRecordID,
			"error", err,
		)
	}
	return err
}

func (a *branchArchiver) savePreviousAttempt(ctx context.Context, buildID int, dir string, recordID, timelineID, prevRecordID uuid.UUID) error {
	project := a.svc.opts.Project

	previous, err := a.api.GetBuildTimeline(ctx, build.GetBuildTimelineArgs{
		Project:    &project,
		BuildId:    &buildID,
		TimelineId: &timelineID,
	})
	if err != nil {
		return fmt.Errorf("failed to get timeline %s of build %d: %w", timelineID, buildID, err)
	}

	for _, rec := range records(previous) {
		if deref(rec.Id) != prevRecordID {
			continue
		}
		if rec.Log == nil || rec.Log.Id == nil {
			return nil
		}

		logID := *rec.Log.Id
		attempt := deref(rec.Attempt)
		entry := a.entry(buildID, recordID, logID, store.KindFailed, attempt)
		entry.Path = filepath.Join(dir, fmt.Sprintf("%s_failed_%d_%d_log.txt", recordID, attempt, logID))
		return a.save(ctx, entry)
	}
	return nil
}

func (a *branchArchiver) entry(buildID int, recordID uuid.UUID, logID int, kind string, attempt int) store.ArchivedLog {
	return store.ArchivedLog{
		Bucket:   a.bucket,
		Branch:   a.branch,
		BuildID:  buildID,
		RecordID: recordID.String(),
		LogID:    logID,
		Kind:     kind,
		Attempt:  attempt,
	}
}

func (a *branchArchiver) save(ctx context.Context, entry store.ArchivedLog) error {
	rc, err := a.svc.openLog(ctx, a.api, entry.BuildID, entry.LogID)
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := a.svc.sink.WriteLog(ctx, entry, rc); err != nil {
		return fmt.Errorf("failed to write %s: %w", entry.Path, err)
	}
	a.files++
	return nil
}
