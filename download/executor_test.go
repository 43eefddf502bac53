package download

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robertkozin/vidgrab/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mp4 header bytes so content sniffing sees a video
const fakeVideo = "\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"

func newTestExecutor(t *testing.T) (*Executor, *MockRelay, *MockOpener, string) {
	dir := t.TempDir()
	dest, err := NewFSDestination(context.Background(), &url.URL{Scheme: "fs", Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { dest.Close() })

	relay := new(MockRelay)
	opener := new(MockOpener)
	exec := &Executor{
		Relay:         relay,
		Destination:   dest,
		Opener:        opener,
		FallbackDelay: time.Millisecond,
		Now:           func() time.Time { return time.UnixMilli(1700000000000) },
	}
	return exec, relay, opener, dir
}

func TestExecutorDownload(t *testing.T) {
	ctx := context.Background()
	descriptor := resolve.Descriptor{
		Title:       "dance",
		Platform:    resolve.TikTok,
		DownloadURL: "https://cdn.test/v.mp4?sig=a%2Fb&x=1",
		Filename:    "tiktok_1.mp4",
	}

	t.Run("saves the body", func(t *testing.T) {
		exec, relay, opener, dir := newTestExecutor(t)
		relay.On("Get", mock.Anything, descriptor.DownloadURL).Return(response(http.StatusOK, fakeVideo), nil)

		out, err := exec.Download(ctx, descriptor)

		require.NoError(t, err)
		assert.Equal(t, Saved, out.Kind)
		assert.Equal(t, "tiktok_1.mp4", out.Filename)
		assert.Equal(t, fakeVideo, string(out.Content))

		saved, err := os.ReadFile(filepath.Join(dir, "tiktok_1.mp4"))
		require.NoError(t, err)
		assert.Equal(t, fakeVideo, string(saved))
		opener.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
	})

	t.Run("default filename", func(t *testing.T) {
		exec, relay, _, dir := newTestExecutor(t)
		d := descriptor
		d.Filename = ""
		relay.On("Get", mock.Anything, d.DownloadURL).Return(response(http.StatusOK, fakeVideo), nil)

		out, err := exec.Download(ctx, d)

		require.NoError(t, err)
		assert.Equal(t, "video_1700000000000.mp4", out.Filename)
		assert.FileExists(t, filepath.Join(dir, out.Filename))
	})

	t.Run("empty body opens the url externally", func(t *testing.T) {
		exec, relay, opener, dir := newTestExecutor(t)
		relay.On("Get", mock.Anything, descriptor.DownloadURL).Return(response(http.StatusOK, ""), nil)
		opener.On("Open", mock.Anything, descriptor.DownloadURL).Return(nil)

		out, err := exec.Download(ctx, descriptor)

		require.NoError(t, err)
		assert.Equal(t, OpenedExternally, out.Kind)
		assert.Equal(t, descriptor.DownloadURL, out.URL)
		assert.ErrorIs(t, out.Reason, resolve.ErrEmptyBody)
		opener.AssertExpectations(t)
		assert.NoFileExists(t, filepath.Join(dir, descriptor.Filename))
	})

	fallbacks := []struct {
		name    string
		resp    *http.Response
		err     error
		maxSize int64
		reason  string
	}{
		{name: "relay exhausted", err: &resolve.ExhaustedError{Err: resolve.ErrAllProxiesExhausted, Causes: errors.New("direct: refused")}, reason: "all proxies failed"},
		{name: "partial content", resp: response(http.StatusPartialContent, fakeVideo), reason: "unexpected status"},
		{name: "html error page", resp: response(http.StatusOK, "<!DOCTYPE html><html><body>blocked</body></html>"), reason: "text/html"},
		{name: "too large", resp: response(http.StatusOK, fakeVideo), maxSize: 4, reason: "too large"},
	}

	for _, tt := range fallbacks {
		t.Run(tt.name, func(t *testing.T) {
			exec, relay, opener, _ := newTestExecutor(t)
			exec.MaxMediaSize = tt.maxSize
			relay.On("Get", mock.Anything, descriptor.DownloadURL).Return(tt.resp, tt.err)
			opener.On("Open", mock.Anything, descriptor.DownloadURL).Return(nil)

			out, err := exec.Download(ctx, descriptor)

			require.NoError(t, err)
			assert.Equal(t, OpenedExternally, out.Kind)
			assert.ErrorContains(t, out.Reason, tt.reason)
			opener.AssertExpectations(t)
		})
	}

	t.Run("invalid filename", func(t *testing.T) {
		exec, relay, opener, _ := newTestExecutor(t)
		d := descriptor
		d.Filename = "../escape.mp4"
		opener.On("Open", mock.Anything, d.DownloadURL).Return(nil)

		out, err := exec.Download(ctx, d)

		require.NoError(t, err)
		assert.Equal(t, OpenedExternally, out.Kind)
		relay.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("opener failure is an error", func(t *testing.T) {
		exec, relay, opener, _ := newTestExecutor(t)
		relay.On("Get", mock.Anything, descriptor.DownloadURL).Return(response(http.StatusOK, ""), nil)
		opener.On("Open", mock.Anything, descriptor.DownloadURL).Return(errors.New("no browser"))

		_, err := exec.Download(ctx, descriptor)

		assert.ErrorContains(t, err, "no browser")
	})

	t.Run("cancelled while waiting to fall back", func(t *testing.T) {
		exec, relay, opener, _ := newTestExecutor(t)
		exec.FallbackDelay = time.Hour
		relay.On("Get", mock.Anything, descriptor.DownloadURL).Return(response(http.StatusOK, ""), nil)

		ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err := exec.Download(ctx, descriptor)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		opener.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
	})
}
