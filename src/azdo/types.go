package azdo

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/build"
)

// Build is the summary returned for a branch query.
type Build struct {
	// URL is the organization URL the build was read from.
	URL string `json:"url"`
	// WebURL is the results page of the build.
	WebURL      string     `json:"webUrl,omitempty"`
	BranchName  string     `json:"branchName"`
	StartedAt   *time.Time `json:"startedAt"`
	BuildID     int        `json:"buildId"`
	BuildNumber string     `json:"buildNumber,omitempty"`
	Status      string     `json:"status,omitempty"`
	Result      string     `json:"result,omitempty"`

	Build    *build.Build               `json:"build,omitempty"`
	Report   *build.BuildReportMetadata `json:"report,omitempty"`
	Timeline *build.Timeline            `json:"timeline,omitempty"`
}

// BuildLog is one job log of a build. Content is carried but never serialised.
type BuildLog struct {
	URL     string `json:"url"`
	BuildID int    `json:"buildId"`
	LogID   int    `json:"logId"`
	LogURL  string `json:"logUrl"`
	LogType string `json:"logType"`

	Content string `json:"-"`

	ErrorCount     *int                  `json:"errorCount"`
	Attempt        int                   `json:"attempt"`
	TaskName       string                `json:"taskName,omitempty"`
	Result         string                `json:"result,omitempty"`
	Status         string                `json:"status,omitempty"`
	TimelineRecord *build.TimelineRecord `json:"timelineRecord,omitempty"`
}

// BranchArchive summarises the archive run for one branch.
type BranchArchive struct {
	Bucket string  `json:"bucket"`
	Branch string  `json:"branch"`
	Builds []Build `json:"builds"`
	Files  int     `json:"files"`
	Error  string  `json:"error,omitempty"`
}

// ArchiveResult is returned by Service.ArchiveLogs.
type ArchiveResult struct {
	// Builds are the archived builds of the good branch.
	Builds   []Build         `json:"builds"`
	Branches []BranchArchive `json:"branches"`
}

func newBuild(orgURL, project, branch string, b build.Build) Build {
	out := Build{
		URL:         orgURL,
		BranchName:  branch,
		BuildID:     deref(b.Id),
		BuildNumber: deref(b.BuildNumber),
		Build:       &b,
	}
	if b.StartTime != nil {
		started := b.StartTime.Time
		out.StartedAt = &started
	}
	if b.Status != nil {
		out.Status = string(*b.Status)
	}
	if b.Result != nil {
		out.Result = string(*b.Result)
	}
	if out.BuildID > 0 {
		out.WebURL = resultsURL(orgURL, project, out.BuildID)
	}
	return out
}

func newBuildLog(orgURL string, buildID int, rec build.TimelineRecord, content string) BuildLog {
	out := BuildLog{
		URL:            orgURL,
		BuildID:        buildID,
		LogID:          deref(rec.Log.Id),
		LogURL:         deref(rec.Log.Url),
		LogType:        deref(rec.Log.Type),
		Content:        content,
		ErrorCount:     rec.ErrorCount,
		Attempt:        deref(rec.Attempt),
		TaskName:       deref(rec.Name),
		TimelineRecord: &rec,
	}
	if rec.Result != nil {
		out.Result = string(*rec.Result)
	}
	if rec.State != nil {
		out.Status = string(*rec.State)
	}
	return out
}

func resultsURL(orgURL, project string, buildID int) string {
	return fmt.Sprintf("%s/%s/_build/results?buildId=%d",
		strings.TrimRight(orgURL, "/"), url.PathEscape(project), buildID)
}
