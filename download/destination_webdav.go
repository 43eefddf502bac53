package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/robertkozin/vidgrab/tr"
)

var _ Destination = (*RCloneWebDAVDestination)(nil)

// RCloneWebDAVDestination stores files on an `rclone serve webdav` instance.
// Only plain PUT and GET are used, so any WebDAV server works.
type RCloneWebDAVDestination struct {
	baseURL string
	client  *http.Client
}

// NewRCloneWebDAV opens rclone+webdav://host:port/path over http. The query
// string is dropped.
func NewRCloneWebDAV(ctx context.Context, config *url.URL) (*RCloneWebDAVDestination, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("rclone+webdav destination needs a host: %s", config.Redacted())
	}

	base := *config
	base.Scheme = "http"
	base.RawQuery = ""
	base.Fragment = ""

	return &RCloneWebDAVDestination{baseURL: base.String(), client: http.DefaultClient}, nil
}

func (r *RCloneWebDAVDestination) String() string {
	return fmt.Sprintf("rclone+webdav: %q", r.baseURL)
}

func (r *RCloneWebDAVDestination) Close() error {
	return nil
}

func (r *RCloneWebDAVDestination) Download(ctx context.Context, name string) ([]byte, error) {
	resp, err := r.do(ctx, http.MethodGet, name, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s from webdav: %w", name, err)
	}
	return content, nil
}

func (r *RCloneWebDAVDestination) Upload(ctx context.Context, name string, content []byte) error {
	resp, err := r.do(ctx, http.MethodPut, name, content)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// do sends one request for name. A 404 becomes fs.ErrNotExist and any other
// non-2xx status an error; on success the caller closes the body.
func (r *RCloneWebDAVDestination) do(ctx context.Context, method, name string, content []byte) (resp *http.Response, err error) {
	ctx, span := tracer.Start(ctx, "webdav "+method)
	defer tr.End(span, &err)

	if err := validateSimpleFilename(name); err != nil {
		return nil, err
	}

	var body io.Reader
	if content != nil {
		body = bytes.NewReader(content)
	}
	req, err := http.NewRequestWithContext(ctx, method, urlCat(r.baseURL, url.PathEscape(name)), body)
	if err != nil {
		return nil, fmt.Errorf("creating webdav %s request: %w", method, err)
	}
	if content != nil {
		req.ContentLength = int64(len(content))
	}

	resp, err = r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webdav %s %s: %w", method, name, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("webdav %s %s: %w", method, name, fs.ErrNotExist)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("webdav %s %s: unexpected status %s", method, name, resp.Status)
	}
	return resp, nil
}
