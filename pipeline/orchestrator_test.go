package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terarelay/internal"
)

type fakeResolver struct {
	files map[string]*internal.ResolvedFile
	errs  map[string]error
	calls int
}

func (r *fakeResolver) Resolve(ctx context.Context, link string) (*internal.ResolvedFile, error) {
	r.calls++
	if err, ok := r.errs[link]; ok {
		return nil, err
	}
	if f, ok := r.files[link]; ok {
		return f, nil
	}
	return nil, internal.NewRelayError(internal.ErrResolveBackend, "unknown link")
}

type fakeDownloader struct {
	submitErr error
	awaitErr  error
	message   string
	submits   int
	awaits    int
}

func (d *fakeDownloader) Submit(ctx context.Context, url, dir, filename string) (string, error) {
	d.submits++
	if d.submitErr != nil {
		return "", d.submitErr
	}
	return "gid-1", nil
}

func (d *fakeDownloader) AwaitCompletion(ctx context.Context, gid string) (*internal.DownloadJob, error) {
	d.awaits++
	if d.awaitErr != nil {
		return nil, d.awaitErr
	}
	return &internal.DownloadJob{
		ID:     gid,
		Status: internal.JobComplete,
		Files:  []string{"/tmp/fake/clip.mp4"},
	}, nil
}

type fakeUploader struct {
	err     error
	uploads int
}

func (u *fakeUploader) Upload(ctx context.Context, localPath string) (*internal.UploadResult, error) {
	u.uploads++
	if u.err != nil {
		return nil, u.err
	}
	return &internal.UploadResult{PublicReference: "https://cdn/clip", Slug: "clip"}, nil
}

type fixture struct {
	resolver   *fakeResolver
	downloader *fakeDownloader
	uploader   *fakeUploader
	catalog    *fakeCatalog
	orch       *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		resolver: &fakeResolver{
			files: map[string]*internal.ResolvedFile{},
			errs:  map[string]error{},
		},
		downloader: &fakeDownloader{},
		uploader:   &fakeUploader{},
		catalog:    newFakeCatalog(),
	}

	orch, err := New(Options{
		Resolver:   f.resolver,
		Gate:       NewGate(f.catalog, 50, false),
		Downloader: f.downloader,
		Uploader:   f.uploader,
		Catalog:    f.catalog,
		WorkDir:    t.TempDir(),
	})
	require.NoError(t, err)
	f.orch = orch
	return f
}

const (
	linkClip  = "https://terabox.com/s/clip"
	linkMovie = "https://terabox.com/s/abc"
	linkOther = "https://terabox.com/s/other"
)

func (f *fixture) addFile(link, name, size string) {
	f.resolver.files[link] = &internal.ResolvedFile{
		Name:      name,
		SizeLabel: size,
		DirectURL: "http://x/" + name,
		BackendID: "api_one",
	}
}

func TestProcessBatch_Success(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkClip, "clip.mp4", "10 MB")

	result, err := f.orch.ProcessBatch(context.Background(), []string{linkClip}, nil)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)

	outcome := result.Outcomes[0]
	require.True(t, outcome.OK())
	assert.Equal(t, "clip.mp4", outcome.Summary.Name)
	assert.Equal(t, "10 MB", outcome.Summary.SizeLabel)
	assert.Equal(t, "https://cdn/clip", outcome.Summary.PublicReference)

	require.Contains(t, f.catalog.records, "clip.mp4")
	assert.Equal(t, 1, f.catalog.insertions)
}

func TestProcessBatch_TooLargeSkipsTransfer(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkMovie, "movie.mp4", "120 MB")

	result, err := f.orch.ProcessBatch(context.Background(), []string{linkMovie}, nil)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)

	outcome := result.Outcomes[0]
	require.False(t, outcome.OK())
	assert.Equal(t, internal.ErrTooLarge, outcome.Err.Type)

	// No download, upload or record attempts for a rejected file.
	assert.Zero(t, f.downloader.submits)
	assert.Zero(t, f.uploader.uploads)
	assert.Zero(t, f.catalog.insertions)
}

func TestProcessBatch_DownloadErrorCarriesDaemonMessage(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkClip, "clip.mp4", "10 MB")
	f.downloader.awaitErr = internal.NewRelayError(internal.ErrDownload, "disk full")

	result, err := f.orch.ProcessBatch(context.Background(), []string{linkClip}, nil)
	require.NoError(t, err)

	outcome := result.Outcomes[0]
	require.False(t, outcome.OK())
	assert.Equal(t, internal.ErrDownload, outcome.Err.Type)
	assert.Equal(t, "disk full", outcome.Err.Message)
	assert.Zero(t, f.uploader.uploads)
}

func TestProcessBatch_SecondRunIsDuplicate(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkClip, "clip.mp4", "10 MB")

	first, err := f.orch.ProcessBatch(context.Background(), []string{linkClip}, nil)
	require.NoError(t, err)
	require.True(t, first.Outcomes[0].OK())

	second, err := f.orch.ProcessBatch(context.Background(), []string{linkClip}, nil)
	require.NoError(t, err)

	outcome := second.Outcomes[0]
	assert.True(t, outcome.IsDuplicate())
	require.NotNil(t, outcome.Existing)
	assert.Equal(t, "https://cdn/clip", outcome.Existing.PublicReference)

	// Exactly one record, one transfer.
	assert.Equal(t, 1, f.catalog.insertions)
	assert.Equal(t, 1, f.downloader.submits)
}

func TestProcessBatch_OrderPreservedPastFailures(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkClip, "clip.mp4", "10 MB")
	f.resolver.errs[linkMovie] = internal.NewRelayError(internal.ErrResolveTransport, "timeout")
	f.addFile(linkOther, "other.mp4", "5 MB")

	batch := []string{linkClip, linkMovie, linkOther}
	result, err := f.orch.ProcessBatch(context.Background(), batch, nil)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)

	assert.Equal(t, linkClip, result.Outcomes[0].Link)
	assert.True(t, result.Outcomes[0].OK())
	assert.Equal(t, linkMovie, result.Outcomes[1].Link)
	assert.False(t, result.Outcomes[1].OK())
	assert.Equal(t, linkOther, result.Outcomes[2].Link)
	assert.True(t, result.Outcomes[2].OK())
}

func TestProcessBatch_InputDeduplicated(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkClip, "clip.mp4", "10 MB")
	f.addFile(linkOther, "other.mp4", "5 MB")

	result, err := f.orch.ProcessBatch(context.Background(),
		[]string{linkClip, linkClip, linkOther}, nil)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, 2, f.resolver.calls)
}

func TestProcessBatch_NoEligibleLinks(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		links []string
	}{
		{name: "empty", links: nil},
		{name: "unsupported_domain", links: []string{"https://example.com/s/abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orch.ProcessBatch(context.Background(), tt.links, nil)
			require.Error(t, err)
			assert.True(t, internal.IsType(err, internal.ErrNoLinks))
		})
	}
}

func TestProcessBatch_LostInsertRaceIsSuccess(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkClip, "clip.mp4", "10 MB")
	// A concurrent run recorded the file between gate check and insert.
	f.catalog.insertErr = internal.ErrDuplicateKey

	result, err := f.orch.ProcessBatch(context.Background(), []string{linkClip}, nil)
	require.NoError(t, err)
	assert.True(t, result.Outcomes[0].OK())
}

func TestProcessBatch_RecordFailureFailsLink(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkClip, "clip.mp4", "10 MB")
	f.catalog.insertErr = errors.New("connection reset")

	result, err := f.orch.ProcessBatch(context.Background(), []string{linkClip}, nil)
	require.NoError(t, err)

	outcome := result.Outcomes[0]
	require.False(t, outcome.OK())
	assert.Equal(t, internal.ErrRecord, outcome.Err.Type)
}

func TestProcessBatch_MirrorFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkClip, "clip.mp4", "10 MB")

	mirrorCalls := 0
	f.orch.mirror = func(ctx context.Context, localPath string, rec internal.CatalogRecord) error {
		mirrorCalls++
		return errors.New("channel unavailable")
	}

	result, err := f.orch.ProcessBatch(context.Background(), []string{linkClip}, nil)
	require.NoError(t, err)
	assert.True(t, result.Outcomes[0].OK())
	assert.Equal(t, 1, mirrorCalls)
}

func TestProcessBatch_ProgressCallback(t *testing.T) {
	f := newFixture(t)
	f.addFile(linkClip, "clip.mp4", "10 MB")
	f.addFile(linkOther, "other.mp4", "5 MB")

	var seen []int
	progress := func(done, total int, outcome internal.LinkOutcome) {
		assert.Equal(t, 2, total)
		seen = append(seen, done)
	}

	_, err := f.orch.ProcessBatch(context.Background(), []string{linkClip, linkOther}, progress)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}
