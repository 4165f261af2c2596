// Package pipeline composes link resolution, the transfer gate, the
// delegated download and the CDN upload into a per-link state machine and
// a sequential batch driver.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"terarelay/internal"
	"terarelay/utils"
)

// MirrorFunc is the optional archival side channel invoked with the raw
// local file after a successful upload. Failures are logged, never fatal.
type MirrorFunc func(ctx context.Context, localPath string, rec internal.CatalogRecord) error

// ProgressFunc receives each finished link's outcome so front ends can
// render progress without the pipeline knowing about message lifecycles.
type ProgressFunc func(done, total int, outcome internal.LinkOutcome)

// Orchestrator drives the per-link pipeline. Links within one batch are
// processed strictly sequentially to bound bandwidth and disk usage;
// independent batches may run concurrently.
type Orchestrator struct {
	resolver   internal.LinkResolver
	gate       *Gate
	downloader internal.DownloadClient
	uploader   internal.Uploader
	catalog    internal.Catalog
	links      *utils.LinkValidator
	fs         *utils.FileOperations
	workDir    string
	mirror     MirrorFunc
	metrics    *internal.Metrics
}

// Options configures an Orchestrator.
type Options struct {
	Resolver   internal.LinkResolver
	Gate       *Gate
	Downloader internal.DownloadClient
	Uploader   internal.Uploader
	Catalog    internal.Catalog
	Links      *utils.LinkValidator
	WorkDir    string
	Mirror     MirrorFunc
	Metrics    *internal.Metrics
}

// New creates an orchestrator and ensures the working directory exists.
func New(opts Options) (*Orchestrator, error) {
	if opts.Links == nil {
		opts.Links = utils.NewLinkValidator()
	}

	fs := utils.NewFileOperations()
	if err := fs.EnsureDir(opts.WorkDir); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}

	return &Orchestrator{
		resolver:   opts.Resolver,
		gate:       opts.Gate,
		downloader: opts.Downloader,
		uploader:   opts.Uploader,
		catalog:    opts.Catalog,
		links:      opts.Links,
		fs:         fs,
		workDir:    opts.WorkDir,
		mirror:     opts.Mirror,
		metrics:    opts.Metrics,
	}, nil
}

// ProcessBatch runs the per-link state machine for every eligible link,
// one at a time, and aggregates the outcomes in input order. One link's
// failure never stops the rest of the batch. Returns a NoLinks error when
// the input contains no recognized share link after deduplication.
func (o *Orchestrator) ProcessBatch(ctx context.Context, links []string, progress ProgressFunc) (*internal.BatchResult, error) {
	eligible := o.links.Filter(links)
	if len(eligible) == 0 {
		return nil, internal.NewRelayError(internal.ErrNoLinks, "no eligible links in batch")
	}

	o.metrics.ObserveBatch(len(eligible))
	internal.LogInfo("processing batch", zap.Int("links", len(eligible)))

	result := &internal.BatchResult{Outcomes: make([]internal.LinkOutcome, 0, len(eligible))}
	for i, link := range eligible {
		outcome := o.processLink(ctx, link)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.OK() {
			o.metrics.ObserveOutcome("success")
		} else {
			o.metrics.ObserveOutcome(outcome.Err.Type.String())
		}
		if progress != nil {
			progress(i+1, len(eligible), outcome)
		}
	}

	internal.LogInfo("batch finished",
		zap.Int("links", len(eligible)),
		zap.Int("succeeded", result.Succeeded()))

	return result, nil
}

// processLink is the per-link state machine:
// resolving -> gating -> downloading -> uploading -> recording -> done,
// with every failure absorbed into a link-scoped outcome.
func (o *Orchestrator) processLink(ctx context.Context, link string) internal.LinkOutcome {
	o.metrics.TransferStarted()
	defer o.metrics.TransferFinished()

	log := internal.GetLogger().With(zap.String("link", link))

	// Resolving
	start := time.Now()
	resolved, err := o.resolver.Resolve(ctx, link)
	o.metrics.ObserveStage("resolve", time.Since(start))
	if err != nil {
		log.Warn("resolve failed", zap.Error(err))
		return failure(link, err, internal.ErrResolveTransport)
	}
	log = log.With(zap.String("name", resolved.Name))

	// Gating
	gated := o.gate.Evaluate(ctx, resolved)
	switch gated.Decision {
	case GateDuplicate:
		log.Info("file already processed",
			zap.String("reference", gated.Existing.PublicReference))
		return internal.LinkOutcome{
			Link: link,
			Err: internal.NewRelayError(internal.ErrDuplicate,
				fmt.Sprintf("%s already processed (%s)", resolved.Name, gated.Existing.SizeLabel)),
			Existing: gated.Existing,
		}
	case GateReject:
		log.Info("file rejected", zap.String("reason", gated.Reason))
		return failure(link, internal.NewRelayError(internal.ErrTooLarge, gated.Reason), internal.ErrTooLarge)
	}

	// Downloading, scoped to a transfer-unique directory so concurrent
	// batches cannot collide on resolver-provided names.
	dir, err := o.fs.NewTransferDir(o.workDir)
	if err != nil {
		log.Error("working directory unavailable", zap.Error(err))
		return failure(link, err, internal.ErrDownload)
	}
	defer func() {
		if err := o.fs.RemoveTransferDir(dir); err != nil {
			log.Warn("failed to clean up transfer dir", zap.String("dir", dir), zap.Error(err))
		}
	}()

	start = time.Now()
	gid, err := o.downloader.Submit(ctx, resolved.DirectURL, dir, resolved.Name)
	if err != nil {
		log.Warn("download submit failed", zap.Error(err))
		return failure(link, err, internal.ErrDownload)
	}

	job, err := o.downloader.AwaitCompletion(ctx, gid)
	o.metrics.ObserveStage("download", time.Since(start))
	if err != nil {
		log.Warn("download failed", zap.String("gid", gid), zap.Error(err))
		return failure(link, err, internal.ErrDownload)
	}
	if len(job.Files) == 0 {
		log.Warn("download produced no files", zap.String("gid", gid))
		return failure(link, internal.NewRelayError(internal.ErrDownload, "download produced no files"), internal.ErrDownload)
	}
	localPath := job.Files[0]

	// Uploading
	start = time.Now()
	uploaded, err := o.uploader.Upload(ctx, localPath)
	o.metrics.ObserveStage("upload", time.Since(start))
	if err != nil {
		log.Warn("upload failed", zap.Error(err))
		return failure(link, err, internal.ErrUpload)
	}

	rec := internal.CatalogRecord{
		Name:            resolved.Name,
		SizeLabel:       resolved.SizeLabel,
		PublicReference: uploaded.PublicReference,
	}

	// Best-effort archival mirror of the raw file; a failure here must
	// not fail the pipeline.
	if o.mirror != nil {
		if err := o.mirror(ctx, localPath, rec); err != nil {
			log.Warn("archival mirror failed", zap.Error(err))
		}
	}

	// Recording. Losing the insert race to a concurrent run is the same
	// situation as a just-missed duplicate check: the file is cataloged,
	// so this link still succeeded.
	if err := o.catalog.Insert(ctx, &rec); err != nil {
		if errors.Is(err, internal.ErrDuplicateKey) {
			log.Info("record already inserted by concurrent run")
		} else {
			log.Error("catalog insert failed", zap.Error(err))
			return failure(link, internal.WrapRelayError(internal.ErrRecord, "failed to record transfer", err), internal.ErrRecord)
		}
	}

	log.Info("link transferred",
		zap.String("size", rec.SizeLabel),
		zap.String("reference", rec.PublicReference))

	return internal.LinkOutcome{
		Link: link,
		Summary: &internal.TransferSummary{
			Name:            rec.Name,
			SizeLabel:       rec.SizeLabel,
			PublicReference: rec.PublicReference,
		},
	}
}

func failure(link string, err error, fallback internal.ErrorType) internal.LinkOutcome {
	return internal.LinkOutcome{Link: link, Err: internal.AsRelayError(err, fallback)}
}
