// Package aria2 wraps the aria2 daemon's JSON-RPC protocol for delegated
// downloads: submit a URI, then poll the job until it leaves the active
// state.
package aria2

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"terarelay/internal"
	"terarelay/utils"
)

// Client talks to a single aria2 RPC endpoint.
type Client struct {
	rpcURL       string
	secret       string
	http         *utils.HTTPClient
	pollInterval time.Duration
	// maxWait bounds AwaitCompletion; zero waits as long as the daemon
	// reports the job active.
	maxWait time.Duration
	seq     atomic.Int64
}

// Config holds aria2 client configuration.
type Config struct {
	RPCURL       string
	Secret       string
	PollInterval time.Duration
	MaxWait      time.Duration
}

// NewClient creates an aria2 RPC client.
func NewClient(cfg Config, httpClient *utils.HTTPClient) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Client{
		rpcURL:       cfg.RPCURL,
		secret:       cfg.Secret,
		http:         httpClient,
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("aria2 rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one request/response RPC exchange. The shared secret, when
// configured, is prepended to the parameter list as a token parameter.
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	if c.secret != "" {
		params = append([]interface{}{"token:" + c.secret}, params...)
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      fmt.Sprintf("terarelay-%d", c.seq.Add(1)),
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	if err := c.http.PostJSON(ctx, c.rpcURL, req, &resp); err != nil {
		return fmt.Errorf("rpc call %s failed: %w", method, err)
	}
	if resp.Error != nil {
		return resp.Error
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// Submit hands a URL to the daemon and returns its job handle (gid).
// Continuation on daemon restart is enabled; dir and filename scope the
// result to the caller's working directory.
func (c *Client) Submit(ctx context.Context, url, dir, filename string) (string, error) {
	options := map[string]string{
		"dir":      dir,
		"continue": "true",
	}
	if filename != "" {
		options["out"] = filename
	}

	var gid string
	err := c.call(ctx, "aria2.addUri", []interface{}{[]string{url}, options}, &gid)
	if err != nil {
		return "", internal.WrapRelayError(internal.ErrDownload, "failed to submit download", err)
	}

	internal.LogDebug("download submitted", zap.String("gid", gid), zap.String("dir", dir))
	return gid, nil
}

// statusResult is the subset of aria2.tellStatus this client needs.
type statusResult struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	Files        []struct {
		Path string `json:"path"`
	} `json:"files"`
}

// AwaitCompletion polls the job's status on a fixed interval until it is no
// longer active. Any transport failure during polling terminates the wait
// with a download failure; the daemon does not distinguish the two cases
// for the caller's purposes.
func (c *Client) AwaitCompletion(ctx context.Context, gid string) (*internal.DownloadJob, error) {
	var deadline <-chan time.Time
	if c.maxWait > 0 {
		timer := time.NewTimer(c.maxWait)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var status statusResult
		if err := c.call(ctx, "aria2.tellStatus", []interface{}{gid}, &status); err != nil {
			return nil, internal.WrapRelayError(internal.ErrDownload, "failed to query download status", err)
		}

		switch status.Status {
		case "complete":
			files := make([]string, 0, len(status.Files))
			for _, f := range status.Files {
				files = append(files, f.Path)
			}
			return &internal.DownloadJob{ID: gid, Status: internal.JobComplete, Files: files}, nil

		case "error", "removed":
			message := status.ErrorMessage
			if message == "" {
				message = "Download failed"
			}
			return &internal.DownloadJob{ID: gid, Status: internal.JobError, Message: message},
				internal.NewRelayError(internal.ErrDownload, message)
		}

		select {
		case <-ticker.C:
		case <-deadline:
			return nil, internal.NewRelayError(internal.ErrDownload,
				fmt.Sprintf("download did not finish within %s", c.maxWait))
		case <-ctx.Done():
			return nil, internal.WrapRelayError(internal.ErrDownload, "download wait canceled", ctx.Err())
		}
	}
}
