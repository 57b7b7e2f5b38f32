package main

import (
	"context"

	"azdo-mcp/src/archive"
	"azdo-mcp/src/azdo"
	"azdo-mcp/src/config"
	"azdo-mcp/src/logger"
	"azdo-mcp/src/pipeline"
)

// connectorFactory opens the Azure DevOps connection. Replaced in tests.
var connectorFactory = azdo.NewConnector

// app is the wired service and the backends it owns.
type app struct {
	svc      *azdo.Service
	backends *pipeline.Backends
}

// newApp opens the archive backends and builds the service.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	backends, err := pipeline.Open(ctx, &pipeline.Config{
		PostgresDSN:     cfg.PostgresDSN,
		RedpandaBrokers: cfg.RedpandaBrokers,
	}, log)
	if err != nil {
		return nil, err
	}

	connect := connectorFactory(cfg.URL, cfg.Token)
	sink := archive.NewSink(appFs, backends.Index, backends.Events, log)
	svc := azdo.NewService(serviceOptions(cfg), connect, sink, log)

	return &app{svc: svc, backends: backends}, nil
}

func serviceOptions(cfg *config.Config) azdo.Options {
	return azdo.Options{
		URL:          cfg.URL,
		Project:      cfg.Project,
		DefinitionID: cfg.BuildDefinitionID,
		BasePath:     cfg.BasePath,
		MaxItems:     cfg.MaxItems,
		GoodBranch:   cfg.GoodBranch,
		BadBranch:    cfg.BadBranch,
	}
}

func (a *app) Close() error {
	return a.backends.Close()
}
