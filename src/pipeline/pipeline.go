// Package pipeline opens the archive backends: the log index and the event
// broker. Local mode keeps both in memory. Shared mode uses Postgres and/or
// Redpanda, so other processes can see what was archived.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"azdo-mcp/src/broker"
	"azdo-mcp/src/logger"
	"azdo-mcp/src/store"
)

// Mode selects where archive metadata goes.
type Mode int

const (
	// LocalMode keeps the index and events in memory.
	LocalMode Mode = iota
	// SharedMode writes to Postgres and/or Redpanda.
	SharedMode
)

func (m Mode) String() string {
	if m == SharedMode {
		return "shared"
	}
	return "local"
}

// Config holds the backend settings.
type Config struct {
	PostgresDSN     string
	RedpandaBrokers []string
}

// DetectMode returns SharedMode when any external backend is configured.
func DetectMode(cfg *Config) Mode {
	if cfg == nil {
		return LocalMode
	}
	if cfg.PostgresDSN != "" || len(cfg.RedpandaBrokers) > 0 {
		return SharedMode
	}
	return LocalMode
}

// Backends are the opened index and broker.
type Backends struct {
	Mode  Mode
	Index store.Index
	// Events receives archive events. It always includes Local.
	Events broker.Broker
	// Local delivers archive events to in-process subscribers.
	Local *broker.InMemoryBroker
}

// Open connects the configured backends. Anything not configured falls back
// to its in-memory implementation.
func Open(ctx context.Context, cfg *Config, log *logger.Logger) (*Backends, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.WithComponent("pipeline")

	b := &Backends{
		Mode:  DetectMode(cfg),
		Local: broker.NewInMemoryBroker(),
	}

	if cfg.PostgresDSN != "" {
		index, err := store.NewPostgresIndex(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open Postgres index: %w", err)
		}
		log.Info("archive index: postgres")
		b.Index = index
	} else {
		b.Index = store.NewMemoryIndex()
	}

	if len(cfg.RedpandaBrokers) > 0 {
		events, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers)
		if err != nil {
			b.Index.Close()
			return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
		}
		log.Info("archive events: redpanda", "brokers", cfg.RedpandaBrokers)
		b.Events = broker.NewFanout(events, b.Local)
	} else {
		b.Events = b.Local
	}

	log.Debug("backends opened", "mode", b.Mode)
	return b, nil
}

// Close shuts down the broker and the index.
func (b *Backends) Close() error {
	return errors.Join(b.Events.Close(), b.Index.Close())
}
