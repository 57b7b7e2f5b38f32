// Package archive writes build logs to the on-disk archive, indexes them and
// announces each file on the broker.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"azdo-mcp/src/broker"
	"azdo-mcp/src/logger"
	"azdo-mcp/src/store"
)

// Sink writes archived logs through an afero filesystem.
type Sink struct {
	fs     afero.Fs
	index  store.Index
	events broker.Broker
	log    *logger.Logger
	now    func() time.Time
}

// NewSink creates a Sink. A nil index or broker falls back to the in-memory one.
func NewSink(fs afero.Fs, index store.Index, events broker.Broker, log *logger.Logger) *Sink {
	if index == nil {
		index = store.NewMemoryIndex()
	}
	if events == nil {
		events = broker.NewInMemoryBroker()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Sink{
		fs:     fs,
		index:  index,
		events: events,
		log:    log.WithComponent("archive"),
		now:    time.Now,
	}
}

// EnsureDir creates path and any missing parents.
func (s *Sink) EnsureDir(path string) error {
	return s.fs.MkdirAll(path, 0o755)
}

// WriteLog writes r to entry.Path, replacing any existing file.
// The written entry is recorded in the index and published on
// broker.TopicLogsArchived. Index and publish failures are logged only;
// the file on disk is the source of truth.
func (s *Sink) WriteLog(ctx context.Context, entry store.ArchivedLog, r io.Reader) (store.ArchivedLog, error) {
	if entry.Path == "" {
		return entry, fmt.Errorf("archived log has no path")
	}

	if err := s.EnsureDir(filepath.Dir(entry.Path)); err != nil {
		return entry, err
	}

	f, err := s.fs.OpenFile(entry.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return entry, err
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return entry, err
	}

	entry.Bytes = n
	entry.WrittenAt = s.now().UTC()

	s.log.Debug("log archived", "path", entry.Path, "bytes", n, "kind", entry.Kind)

	if err := s.index.Record(ctx, entry); err != nil {
		s.log.Warn("failed to index archived log", "path", entry.Path, "error", err)
	}
	s.publish(ctx, entry)

	return entry, nil
}

// List returns the indexed logs of a build.
func (s *Sink) List(ctx context.Context, buildID int) ([]store.ArchivedLog, error) {
	return s.index.List(ctx, buildID)
}

func (s *Sink) publish(ctx context.Context, entry store.ArchivedLog) {
	data, err := json.Marshal(entry)
	if err != nil {
		s.log.Warn("failed to marshal archive event", "path", entry.Path, "error", err)
		return
	}

	key := strconv.Itoa(entry.BuildID)
	if err := s.events.Publish(ctx, broker.TopicLogsArchived, key, data); err != nil {
		s.log.Warn("failed to publish archive event", "path", entry.Path, "error", err)
	}
}
