package azdo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"
)

// fakeAPI serves canned builds, timelines and logs.
type fakeAPI struct {
	mu sync.Mutex

	builds    map[string][]build.Build // by branch
	buildErrs map[string]error         // by branch
	timelines map[string]*build.Timeline
	logs      map[int]string
	logErrs   map[int]error
	reportErr error

	calls     int
	buildArgs []build.GetBuildsArgs
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		builds:    map[string][]build.Build{},
		buildErrs: map[string]error{},
		timelines: map[string]*build.Timeline{},
		logs:      map[int]string{},
		logErrs:   map[int]error{},
	}
}

func timelineKey(buildID int, timelineID uuid.UUID) string {
	return fmt.Sprintf("%d/%s", buildID, timelineID)
}

func (f *fakeAPI) connector() Connector {
	return func(ctx context.Context) (BuildAPI, error) { return f, nil }
}

func (f *fakeAPI) setTimeline(buildID int, timelineID uuid.UUID, recs ...build.TimelineRecord) {
	f.timelines[timelineKey(buildID, timelineID)] = &build.Timeline{Records: &recs}
}

func (f *fakeAPI) GetBuilds(ctx context.Context, args build.GetBuildsArgs) (*build.GetBuildsResponseValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.buildArgs = append(f.buildArgs, args)

	branch := deref(args.BranchName)
	if err := f.buildErrs[branch]; err != nil {
		return nil, err
	}
	builds := f.builds[branch]
	if args.Top != nil && len(builds) > *args.Top {
		builds = builds[:*args.Top]
	}
	return &build.GetBuildsResponseValue{Value: builds}, nil
}

func (f *fakeAPI) GetBuildReport(ctx context.Context, args build.GetBuildReportArgs) (*build.BuildReportMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.reportErr != nil {
		return nil, f.reportErr
	}
	content := fmt.Sprintf("report %d", deref(args.BuildId))
	return &build.BuildReportMetadata{BuildId: args.BuildId, Content: &content}, nil
}

func (f *fakeAPI) GetBuildTimeline(ctx context.Context, args build.GetBuildTimelineArgs) (*build.Timeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	t, ok := f.timelines[timelineKey(deref(args.BuildId), deref(args.TimelineId))]
	if !ok {
		return nil, &azuredevops.WrappedError{StatusCode: ptr(404), Message: ptr("timeline not found")}
	}
	return t, nil
}

func (f *fakeAPI) GetBuildLog(ctx context.Context, args build.GetBuildLogArgs) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	id := deref(args.LogId)
	if err := f.logErrs[id]; err != nil {
		return nil, err
	}
	text, ok := f.logs[id]
	if !ok {
		return nil, errors.New("log not found")
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func ptr[T any](v T) *T { return &v }

func completedBuild(id int, number string) build.Build {
	return build.Build{
		Id:          ptr(id),
		BuildNumber: ptr(number),
		Status:      &build.BuildStatusValues.Completed,
		Result:      &build.BuildResultValues.Succeeded,
		StartTime:   &azuredevops.Time{},
	}
}

func jobRecord(id uuid.UUID, name string, attempt, logID int, previous ...build.TimelineAttempt) build.TimelineRecord {
	rec := build.TimelineRecord{
		Id:               ptr(id),
		Type:             ptr(RecordTypeJob),
		Name:             ptr(name),
		Attempt:          ptr(attempt),
		PreviousAttempts: &previous,
		ErrorCount:       ptr(0),
		Result:           &build.TaskResultValues.Succeeded,
		State:            &build.TimelineRecordStateValues.Completed,
	}
	if logID > 0 {
		rec.Log = &build.BuildLogReference{
			Id:   ptr(logID),
			Type: ptr("Container"),
			Url:  ptr(fmt.Sprintf("https://dev.azure.com/contoso/_apis/build/builds/logs/%d", logID)),
		}
	}
	return rec
}

func taskRecord(name string, logID int) build.TimelineRecord {
	rec := build.TimelineRecord{
		Id:      ptr(uuid.New()),
		Type:    ptr("Task"),
		Name:    ptr(name),
		Attempt: ptr(1),
	}
	if logID > 0 {
		rec.Log = &build.BuildLogReference{Id: ptr(logID)}
	}
	return rec
}
