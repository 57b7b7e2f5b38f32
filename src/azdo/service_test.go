package azdo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"
)

func TestNormalizeBranch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare name", "main", "refs/heads/main"},
		{"already qualified", "refs/heads/main", "refs/heads/main"},
		{"nested name", "feature/login", "refs/heads/feature/login"},
		{"empty", "", "refs/heads/"},
		{"pull ref is prefixed", "refs/pull/1/merge", "refs/heads/refs/pull/1/merge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeBranch(tt.input); got != tt.expected {
				t.Errorf("NormalizeBranch(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeBranch_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("result always has the prefix", prop.ForAll(
		func(name string) bool {
			return strings.HasPrefix(NormalizeBranch(name), BranchPrefix)
		},
		gen.AnyString(),
	))

	properties.Property("normalising is idempotent", prop.ForAll(
		func(name string) bool {
			once := NormalizeBranch(name)
			return NormalizeBranch(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("qualified names are unchanged", prop.ForAll(
		func(name string) bool {
			qualified := BranchPrefix + name
			return NormalizeBranch(qualified) == qualified
		},
		gen.AlphaString(),
	))

	properties.Property("bare names keep their suffix", prop.ForAll(
		func(name string) bool {
			return NormalizeBranch(name) == BranchPrefix+name
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

func newTestService(api *fakeAPI, opts Options) *Service {
	if opts.URL == "" {
		opts.URL = "https://dev.azure.com/contoso"
	}
	if opts.Project == "" {
		opts.Project = "Fabrikam"
	}
	if opts.DefinitionID == 0 {
		opts.DefinitionID = 42
	}
	return NewService(opts, api.connector(), nil, nil)
}

func TestGetBuildsByBranch(t *testing.T) {
	api := newFakeAPI()
	api.builds["refs/heads/main"] = []build.Build{
		completedBuild(300, "20240521.3"),
		completedBuild(299, "20240521.2"),
	}
	api.setTimeline(300, uuid.Nil, jobRecord(uuid.New(), "Build", 1, 5))

	svc := newTestService(api, Options{})

	builds, err := svc.GetBuildsByBranch(context.Background(), "main", 0)
	if err != nil {
		t.Fatalf("GetBuildsByBranch() unexpected error: %v", err)
	}

	if len(builds) != 1 {
		t.Fatalf("GetBuildsByBranch() returned %d builds, want only the newest", len(builds))
	}

	b := builds[0]
	if b.BuildID != 300 {
		t.Errorf("BuildID = %d, want 300", b.BuildID)
	}
	if b.BranchName != "refs/heads/main" {
		t.Errorf("BranchName = %q, want refs/heads/main", b.BranchName)
	}
	if b.URL != "https://dev.azure.com/contoso" {
		t.Errorf("URL = %q", b.URL)
	}
	if b.WebURL != "https://dev.azure.com/contoso/Fabrikam/_build/results?buildId=300" {
		t.Errorf("WebURL = %q", b.WebURL)
	}
	if b.Report == nil || deref(b.Report.Content) != "report 300" {
		t.Errorf("Report = %+v, want the build report", b.Report)
	}
	if b.Timeline == nil || len(records(b.Timeline)) != 1 {
		t.Errorf("Timeline = %+v, want the build timeline", b.Timeline)
	}
	if b.StartedAt == nil {
		t.Error("StartedAt should be set from the build start time")
	}

	if len(api.buildArgs) != 1 {
		t.Fatalf("GetBuilds called %d times, want 1", len(api.buildArgs))
	}
	args := api.buildArgs[0]
	if deref(args.Top) != DefaultMaxItems {
		t.Errorf("Top = %d, want %d", deref(args.Top), DefaultMaxItems)
	}
	if deref(args.StatusFilter) != build.BuildStatusValues.Completed {
		t.Errorf("StatusFilter = %v, want completed", deref(args.StatusFilter))
	}
	if defs := deref(args.Definitions); len(defs) != 1 || defs[0] != 42 {
		t.Errorf("Definitions = %v, want [42]", defs)
	}
}

func TestGetBuildsByBranch_MaxItems(t *testing.T) {
	api := newFakeAPI()
	api.builds["refs/heads/main"] = []build.Build{completedBuild(1, "1")}
	api.setTimeline(1, uuid.Nil)

	svc := newTestService(api, Options{})
	if _, err := svc.GetBuildsByBranch(context.Background(), "refs/heads/main", 3); err != nil {
		t.Fatal(err)
	}
	if got := deref(api.buildArgs[0].Top); got != 3 {
		t.Errorf("Top = %d, want 3", got)
	}
}

func TestGetBuildsByBranch_Empty(t *testing.T) {
	tests := []struct {
		name  string
		setup func(api *fakeAPI)
	}{
		{
			name:  "no builds",
			setup: func(api *fakeAPI) {},
		},
		{
			name: "list fails",
			setup: func(api *fakeAPI) {
				api.buildErrs["refs/heads/gone"] = errors.New("service unavailable")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			tt.setup(api)
			svc := newTestService(api, Options{})

			builds, err := svc.GetBuildsByBranch(context.Background(), "gone", 0)
			if err != nil {
				t.Fatalf("GetBuildsByBranch() unexpected error: %v", err)
			}
			if builds == nil || len(builds) != 0 {
				t.Fatalf("GetBuildsByBranch() = %v, want empty slice", builds)
			}

			data, _ := json.Marshal(builds)
			if string(data) != "[]" {
				t.Errorf("JSON = %s, want []", data)
			}
		})
	}
}

func TestGetBuildsByBranch_ReportFails(t *testing.T) {
	api := newFakeAPI()
	api.builds["refs/heads/main"] = []build.Build{completedBuild(7, "7")}
	api.setTimeline(7, uuid.Nil)
	api.reportErr = errors.New("boom")

	svc := newTestService(api, Options{})
	if _, err := svc.GetBuildsByBranch(context.Background(), "main", 0); err == nil {
		t.Error("GetBuildsByBranch() should fail when the report cannot be read")
	}
}

func TestGetBuildsByBranch_ConnectFails(t *testing.T) {
	connect := func(ctx context.Context) (BuildAPI, error) {
		return nil, errors.New("no route to host")
	}
	svc := NewService(Options{Project: "p"}, connect, nil, nil)

	if _, err := svc.GetBuildsByBranch(context.Background(), "main", 0); err == nil {
		t.Error("GetBuildsByBranch() should return connection errors")
	}
}

func TestGetBuildLogs(t *testing.T) {
	api := newFakeAPI()
	jobA, jobB := uuid.New(), uuid.New()
	api.setTimeline(50, uuid.Nil,
		taskRecord("Checkout", 1),
		jobRecord(jobA, "Build", 1, 2),
		jobRecord(uuid.New(), "Skipped", 1, 0),
		jobRecord(jobB, "Test", 2, 3),
	)
	api.logs[1] = "checkout log"
	api.logs[2] = "build log"
	api.logs[3] = "test log"

	svc := newTestService(api, Options{})

	logs, err := svc.GetBuildLogs(context.Background(), 50)
	if err != nil {
		t.Fatalf("GetBuildLogs() unexpected error: %v", err)
	}

	if len(logs) != 2 {
		t.Fatalf("GetBuildLogs() returned %d logs, want 2 job logs", len(logs))
	}

	if logs[0].LogID != 2 || logs[0].Content != "build log" || logs[0].TaskName != "Build" {
		t.Errorf("logs[0] = %+v", logs[0])
	}
	if logs[1].LogID != 3 || logs[1].Content != "test log" || logs[1].Attempt != 2 {
		t.Errorf("logs[1] = %+v", logs[1])
	}
	if logs[1].Result != "succeeded" || logs[1].Status != "completed" {
		t.Errorf("logs[1] result/status = %q/%q", logs[1].Result, logs[1].Status)
	}
	if logs[0].TimelineRecord == nil || deref(logs[0].TimelineRecord.Id) != jobA {
		t.Error("TimelineRecord should be the source record")
	}

	data, err := json.Marshal(logs[0])
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "build log") {
		t.Errorf("log content must not be serialised: %s", data)
	}
}

func TestGetBuildLogs_Errors(t *testing.T) {
	t.Run("missing timeline", func(t *testing.T) {
		svc := newTestService(newFakeAPI(), Options{})
		if _, err := svc.GetBuildLogs(context.Background(), 404); err == nil {
			t.Error("GetBuildLogs() should fail for an unknown build")
		}
	})

	t.Run("log read fails", func(t *testing.T) {
		api := newFakeAPI()
		api.setTimeline(1, uuid.Nil, jobRecord(uuid.New(), "Build", 1, 9))
		api.logErrs[9] = errors.New("reset by peer")

		svc := newTestService(api, Options{})
		if _, err := svc.GetBuildLogs(context.Background(), 1); err == nil {
			t.Error("GetBuildLogs() should fail when a log cannot be read")
		}
	})
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(Options{GoodBranch: "release"}, newFakeAPI().connector(), nil, nil)
	opts := svc.Options()

	if opts.MaxItems != DefaultMaxItems {
		t.Errorf("MaxItems = %d, want %d", opts.MaxItems, DefaultMaxItems)
	}
	if opts.GoodBranch != "refs/heads/release" {
		t.Errorf("GoodBranch = %q, want refs/heads/release", opts.GoodBranch)
	}
	if opts.BadBranch != "refs/heads/make-main-fail" {
		t.Errorf("BadBranch = %q, want refs/heads/make-main-fail", opts.BadBranch)
	}
}
