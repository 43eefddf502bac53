package download

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
)

func init() {
	mime.AddExtensionType(".mp4", "video/mp4")
	mime.AddExtensionType(".webm", "video/webm")
	mime.AddExtensionType(".jpg", "image/jpeg")
	mime.AddExtensionType(".jpeg", "image/jpeg")
	mime.AddExtensionType(".png", "image/png")
	mime.AddExtensionType(".mp3", "audio/mpeg")
}

// Destination is where saved media ends up.
type Destination interface {
	io.Closer
	fmt.Stringer
	Upload(ctx context.Context, name string, content []byte) error
	Download(ctx context.Context, name string) ([]byte, error)
}

// NewDestination picks a destination by url scheme: fs, b2 or rclone+webdav.
func NewDestination(ctx context.Context, rawConfig string) (dest Destination, err error) {
	config, err := url.Parse(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("parsing destination %q: %w", rawConfig, err)
	}

	switch config.Scheme {
	case "b2":
		dest, err = NewB2(ctx, config)
	case "fs":
		dest, err = NewFSDestination(ctx, config)
	case "rclone+webdav":
		dest, err = NewRCloneWebDAV(ctx, config)
	default:
		err = fmt.Errorf("unknown destination: %s", config.Scheme)
	}
	return dest, err
}

func validateSimpleFilename(filename string) error {
	if filename == "" || filename == "." || filename == ".." {
		return fmt.Errorf("invalid filename %q", filename)
	}
	if filepath.Base(filename) != filename || strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("filename %q must not contain path separators", filename)
	}
	return nil
}

func urlCat(a, b string) string {
	return strings.TrimSuffix(a, "/") + "/" + strings.TrimPrefix(b, "/")
}
