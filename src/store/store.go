// Package store defines the index of archived build logs.
package store

import (
	"context"
	"time"
)

// Kind of an archived log file.
const (
	KindGood   = "good"
	KindFailed = "failed"
)

// ArchivedLog describes one log file written to the archive.
type ArchivedLog struct {
	// Bucket is the archive subdirectory the build belongs to ("Good" or "Bad").
	Bucket string `json:"bucket"`
	// Branch is the fully qualified branch the build ran on.
	Branch   string `json:"branch"`
	BuildID  int    `json:"buildId"`
	RecordID string `json:"recordId"`
	LogID    int    `json:"logId"`
	// Kind is KindGood for the record's current log, KindFailed for a previous attempt.
	Kind    string `json:"kind"`
	Attempt int    `json:"attempt"`
	Path    string `json:"path"`
	Bytes   int64  `json:"bytes"`

	WrittenAt time.Time `json:"writtenAt"`
}

// Index records archived logs so they can be listed without walking the archive.
type Index interface {
	// Record saves or replaces the entry for log.Path.
	Record(ctx context.Context, log ArchivedLog) error

	// List returns the entries for a build, ordered by path.
	List(ctx context.Context, buildID int) ([]ArchivedLog, error)

	// Close closes the index connection
	Close() error
}
