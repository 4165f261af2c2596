// Package hydrax wraps the streaming CDN's upload endpoint.
package hydrax

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"terarelay/internal"
	"terarelay/utils"
)

// Client uploads local files to the CDN as multipart form data.
type Client struct {
	endpoint string
	http     *utils.HTTPClient
}

// NewClient creates an upload client for the given endpoint.
func NewClient(endpoint string, httpClient *utils.HTTPClient) *Client {
	return &Client{endpoint: endpoint, http: httpClient}
}

type uploadResponse struct {
	Status    bool   `json:"status"`
	Msg       string `json:"msg"`
	URLIframe string `json:"urlIframe"`
	Slug      string `json:"slug"`
}

// Upload streams the file at localPath to the CDN and returns its public
// reference. A single attempt per call; retry policy belongs to the caller.
func (c *Client) Upload(ctx context.Context, localPath string) (*internal.UploadResult, error) {
	var resp uploadResponse
	if err := c.http.PostMultipartFile(ctx, c.endpoint, "file", localPath, &resp); err != nil {
		return nil, internal.WrapRelayError(internal.ErrUpload, "upload failed", err)
	}

	if !resp.Status {
		message := resp.Msg
		if message == "" {
			message = "upload rejected"
		}
		return nil, internal.NewRelayError(internal.ErrUpload, message)
	}

	internal.LogDebug("file uploaded",
		zap.String("file", filepath.Base(localPath)),
		zap.String("slug", resp.Slug))

	return &internal.UploadResult{
		PublicReference: resp.URLIframe,
		Slug:            resp.Slug,
	}, nil
}
