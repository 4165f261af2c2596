package resolver

import (
	"terarelay/internal"
)

// Success sentinels used by the backends. The flat backends answer with
// either string; the nested backend always uses the short form.
const (
	statusSuccessLong  = "✅ Successfully"
	statusSuccessShort = "✅ Success"
)

// flatResponse is the layout shared by the flat-shape backends.
type flatResponse struct {
	Status       string `json:"status"`
	FileName     string `json:"file_name"`
	FileSize     string `json:"file_size"`
	DownloadLink string `json:"download_link"`
	StreamingURL string `json:"streaming_url"`
}

func (r *flatResponse) normalize(backendID string) (*internal.ResolvedFile, error) {
	if r.Status != statusSuccessLong && r.Status != statusSuccessShort {
		return nil, backendFailure(r.Status)
	}

	// The streaming URL is preferred when the backend supplies both.
	direct := r.StreamingURL
	if direct == "" {
		direct = r.DownloadLink
	}
	if direct == "" {
		return nil, internal.NewRelayError(internal.ErrResolveBackend, "no download link in response")
	}

	return &internal.ResolvedFile{
		Name:      orDefault(r.FileName, "unknown"),
		SizeLabel: orDefault(r.FileSize, "0 MB"),
		DirectURL: direct,
		BackendID: backendID,
	}, nil
}

// nestedResponse is the layout of the nested-shape backend, which wraps the
// metadata in an array under decorated field names.
type nestedResponse struct {
	Status string       `json:"status"`
	Items  []nestedItem `json:"📋 Extracted Info"`
}

type nestedItem struct {
	Title      string `json:"📄 Title"`
	Size       string `json:"📦 Size"`
	DirectLink string `json:"🔗 Direct Download Link"`
}

func (r *nestedResponse) normalize(backendID string) (*internal.ResolvedFile, error) {
	if r.Status != statusSuccessShort || len(r.Items) == 0 {
		return nil, backendFailure(r.Status)
	}

	item := r.Items[0]
	if item.DirectLink == "" {
		return nil, internal.NewRelayError(internal.ErrResolveBackend, "no download link in response")
	}

	return &internal.ResolvedFile{
		Name:      orDefault(item.Title, "unknown"),
		SizeLabel: orDefault(item.Size, "0 MB"),
		DirectURL: item.DirectLink,
		BackendID: backendID,
	}, nil
}

// backendFailure turns the backend's own status text into a resolve error.
func backendFailure(status string) *internal.RelayError {
	if status == "" {
		status = "unknown error"
	}
	return internal.NewRelayError(internal.ErrResolveBackend, status)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
