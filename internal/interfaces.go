package internal

import "context"

// LinkResolver translates a share link into a direct download URL plus
// metadata via the currently selected resolver backend.
type LinkResolver interface {
	Resolve(ctx context.Context, link string) (*ResolvedFile, error)
}

// DownloadClient wraps the delegated download daemon's RPC protocol.
type DownloadClient interface {
	// Submit hands a URL to the daemon and returns its opaque job handle.
	Submit(ctx context.Context, url, dir, filename string) (string, error)
	// AwaitCompletion polls the job until it leaves the active state.
	AwaitCompletion(ctx context.Context, gid string) (*DownloadJob, error)
}

// Uploader pushes a local file to the streaming CDN.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (*UploadResult, error)
}

// Catalog is the durable record of every fully transferred file.
// Find returns (nil, nil) when no record exists. Insert returns an error
// wrapping ErrDuplicateKey when the name is already cataloged.
type Catalog interface {
	Find(ctx context.Context, name string) (*CatalogRecord, error)
	Insert(ctx context.Context, rec *CatalogRecord) error
}

// SettingsStore persists the active resolver backend selection.
// ActiveBackend returns an empty string when no selection is stored.
type SettingsStore interface {
	ActiveBackend(ctx context.Context) (string, error)
	SetActiveBackend(ctx context.Context, id string) error
}
