package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/robertkozin/vidgrab/download"
	"github.com/robertkozin/vidgrab/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintDescriptor(t *testing.T) {
	d := resolve.Descriptor{Title: "t", Platform: resolve.Twitter, Duration: "Unknown", DownloadURL: "https://cdn.test/v.mp4"}
	var buf bytes.Buffer

	require.NoError(t, PrintDescriptor(&buf, d))

	var got resolve.Descriptor
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, d, got)
	assert.Contains(t, buf.String(), `  "download_url": "https://cdn.test/v.mp4"`)
}

func TestPrintOpener(t *testing.T) {
	var buf bytes.Buffer
	raw := "https://cdn.test/v.mp4?sig=a%2Fb"

	require.NoError(t, PrintOpener(&buf).Open(context.Background(), raw))

	assert.Contains(t, buf.String(), raw+"\n")
}

func TestPrintOutcome(t *testing.T) {
	dest, err := download.NewDestination(context.Background(), "fs://"+t.TempDir())
	require.NoError(t, err)
	defer dest.Close()

	d := resolve.Descriptor{Title: "clip"}
	var buf bytes.Buffer

	require.NoError(t, PrintOutcome(&buf, d, download.Outcome{Kind: download.Saved, Filename: "clip.mp4"}, dest))
	assert.Contains(t, buf.String(), `downloaded "clip" to clip.mp4`)

	buf.Reset()
	require.NoError(t, PrintOutcome(&buf, d, download.Outcome{Kind: download.OpenedExternally}, dest))
	assert.Equal(t, "opening download page for \"clip\"\n", buf.String())
}
