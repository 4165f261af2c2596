package cmd

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"terarelay/aria2"
	"terarelay/catalog"
	"terarelay/hydrax"
	"terarelay/internal"
	"terarelay/pipeline"
	"terarelay/resolver"
	"terarelay/utils"
)

// app bundles the wired pipeline dependencies shared by the commands.
type app struct {
	store    *catalog.Store
	registry *resolver.Registry
	orch     *pipeline.Orchestrator
}

// buildApp connects the persistence layer and assembles the pipeline.
// A catalog connection failure aborts startup; the pipeline must not run
// degraded without its source of truth.
func buildApp(ctx context.Context, metrics *internal.Metrics) (*app, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	store, err := catalog.Connect(connectCtx, config.MongoURI, config.MongoDatabase)
	if err != nil {
		return nil, err
	}

	resolveClient := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:  config.ResolveTimeout,
		ProxyURL: config.ProxyURL,
	})
	// Daemon and upload calls get the longer bound to accommodate large
	// transfers.
	transferClient := utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
		Timeout:  config.TransferTimeout,
		ProxyURL: config.ProxyURL,
	})

	registry := resolver.NewRegistry(store, resolveClient, config.ResolveTimeout)

	if err := store.Init(connectCtx, registry.DefaultID()); err != nil {
		_ = store.Close(ctx)
		return nil, err
	}

	downloader := aria2.NewClient(aria2.Config{
		RPCURL:       config.Aria2RPCURL,
		Secret:       config.Aria2Secret,
		PollInterval: config.PollInterval,
		MaxWait:      config.MaxWait,
	}, transferClient)

	uploader := hydrax.NewClient(config.UploadEndpoint, transferClient)

	orch, err := pipeline.New(pipeline.Options{
		Resolver:   registry,
		Gate:       pipeline.NewGate(store, config.SizeLimitMB, config.SizeFailClosed),
		Downloader: downloader,
		Uploader:   uploader,
		Catalog:    store,
		WorkDir:    config.DownloadDir,
		Metrics:    metrics,
	})
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}

	return &app{store: store, registry: registry, orch: orch}, nil
}

// close releases the app's resources.
func (a *app) close(ctx context.Context) {
	if err := a.store.Close(ctx); err != nil {
		internal.LogWarn("failed to close catalog connection")
	}
}

// newMetrics registers pipeline metrics on the default registry.
func newMetrics() *internal.Metrics {
	return internal.NewMetrics(prometheus.DefaultRegisterer)
}
