package download

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDestination(t *testing.T) {
	ctx := context.Background()

	t.Run("fs", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "saved")

		dest, err := NewDestination(ctx, "fs://"+dir)
		require.NoError(t, err)
		defer dest.Close()

		require.NoError(t, dest.Upload(ctx, "a.mp4", []byte("video")))

		got, err := dest.Download(ctx, "a.mp4")
		require.NoError(t, err)
		assert.Equal(t, "video", string(got))
		assert.FileExists(t, filepath.Join(dir, "a.mp4"))

		_, err = dest.Download(ctx, "missing.mp4")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := NewDestination(ctx, "s3://bucket")
		assert.ErrorContains(t, err, "unknown destination: s3")
	})
}

func TestFSDestinationRejectsPaths(t *testing.T) {
	ctx := context.Background()
	dest, err := NewDestination(ctx, "fs://"+t.TempDir())
	require.NoError(t, err)
	defer dest.Close()

	for _, name := range []string{"../x.mp4", "a/b.mp4", "", ".."} {
		assert.Error(t, dest.Upload(ctx, name, []byte("x")), name)
		_, err := dest.Download(ctx, name)
		assert.Error(t, err, name)
	}
}

func TestFSDestinationServer(t *testing.T) {
	ctx := context.Background()
	dest, err := NewDestination(ctx, "fs://"+t.TempDir()+"?server=127.0.0.1:0")
	require.NoError(t, err)
	defer dest.Close()

	require.NoError(t, dest.Upload(ctx, "clip.mp4", []byte("video")))

	fsDest := dest.(*FSDestination)
	resp, err := http.Get("http://" + fsDest.server.Addr + "/clip.mp4")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Equal(t, "video", string(body))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Empty(t, resp.Header.Get("Content-Disposition"))

	require.NoError(t, dest.Upload(ctx, "planted.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)))
	planted, err := http.Get("http://" + fsDest.server.Addr + "/planted.svg")
	require.NoError(t, err)
	planted.Body.Close()
	assert.Equal(t, "attachment", planted.Header.Get("Content-Disposition"))
	assert.Contains(t, planted.Header.Get("Content-Security-Policy"), "sandbox")

	listing, err := http.Get("http://" + fsDest.server.Addr + "/")
	require.NoError(t, err)
	listing.Body.Close()
	assert.Equal(t, http.StatusNotFound, listing.StatusCode)

	post, err := http.Post("http://"+fsDest.server.Addr+"/clip.mp4", "text/plain", nil)
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}
