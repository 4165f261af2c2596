package internal

// ResolvedFile is the normalized result of a resolver backend call.
type ResolvedFile struct {
	Name      string `json:"name"`
	SizeLabel string `json:"size_label"`
	DirectURL string `json:"direct_url"`
	BackendID string `json:"backend_id"`
}

// CatalogRecord is the durable mapping from file name to CDN location.
// The bson field names match the original collection schema.
type CatalogRecord struct {
	Name            string `bson:"file_name" json:"file_name"`
	SizeLabel       string `bson:"file_size" json:"file_size"`
	PublicReference string `bson:"urlIframe" json:"urlIframe"`
}

// JobStatus is the daemon-reported state of a delegated download.
type JobStatus string

const (
	JobActive   JobStatus = "active"
	JobComplete JobStatus = "complete"
	JobError    JobStatus = "error"
	JobRemoved  JobStatus = "removed"
)

// DownloadJob tracks a delegated download from submission to its terminal state.
type DownloadJob struct {
	ID      string
	Status  JobStatus
	Files   []string
	Message string
}

// UploadResult is the CDN's answer to a successful upload.
type UploadResult struct {
	PublicReference string `json:"urlIframe"`
	Slug            string `json:"slug"`
}

// TransferSummary is returned for a link that made it all the way through.
type TransferSummary struct {
	Name            string `json:"name"`
	SizeLabel       string `json:"size_label"`
	PublicReference string `json:"public_reference"`
}

// LinkOutcome is the per-link result inside a batch. Exactly one of Summary
// or Err is set. Existing carries the catalog record for duplicate outcomes
// so callers can render "already processed" with the known location.
type LinkOutcome struct {
	Link     string           `json:"link"`
	Summary  *TransferSummary `json:"summary,omitempty"`
	Err      *RelayError      `json:"error,omitempty"`
	Existing *CatalogRecord   `json:"existing,omitempty"`
}

// OK reports whether the link was fully transferred.
func (o LinkOutcome) OK() bool {
	return o.Err == nil
}

// IsDuplicate reports whether the link resolved to an already-cataloged file.
func (o LinkOutcome) IsDuplicate() bool {
	return o.Err != nil && o.Err.Type == ErrDuplicate
}

// BatchResult aggregates per-link outcomes in input order.
type BatchResult struct {
	Outcomes []LinkOutcome `json:"outcomes"`
}

// Succeeded returns the number of fully transferred links.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// BackendInfo describes a resolver backend for administrative listing.
type BackendInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
