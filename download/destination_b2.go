package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"path/filepath"

	blazer "github.com/Backblaze/blazer/b2"
	"github.com/robertkozin/vidgrab/tr"
)

var _ Destination = (*B2Destination)(nil)

// B2Destination stores files in a Backblaze B2 bucket.
type B2Destination struct {
	bucket *blazer.Bucket
}

// NewB2 opens b2://<keyID>:<appKey>@<bucket>.
func NewB2(ctx context.Context, config *url.URL) (*B2Destination, error) {
	keyID := config.User.Username()
	appKey, _ := config.User.Password()
	bucketName := config.Hostname()
	if keyID == "" || appKey == "" || bucketName == "" {
		return nil, fmt.Errorf("b2 destination needs b2://<keyID>:<appKey>@<bucket>, got %s", config.Redacted())
	}

	client, err := blazer.NewClient(ctx, keyID, appKey)
	if err != nil {
		return nil, fmt.Errorf("creating b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("opening b2 bucket %s: %w", bucketName, err)
	}

	return &B2Destination{bucket: bucket}, nil
}

func (b2 *B2Destination) String() string {
	return fmt.Sprintf("b2 %q bucket", b2.bucket.Name())
}

func (b2 *B2Destination) Close() error {
	return nil
}

func (b2 *B2Destination) Download(ctx context.Context, name string) (content []byte, err error) {
	ctx, span := tracer.Start(ctx, "b2 download")
	defer tr.End(span, &err)

	if err := validateSimpleFilename(name); err != nil {
		return nil, err
	}

	r := b2.bucket.Object(name).NewReader(ctx)
	defer r.Close()

	content, err = io.ReadAll(r)
	switch {
	case blazer.IsNotExist(err):
		return nil, fmt.Errorf("b2 %s: %w", name, fs.ErrNotExist)
	case err != nil:
		return nil, fmt.Errorf("reading %s from b2: %w", name, err)
	}
	return content, nil
}

// Upload writes content in a single chunk; media is already held in memory.
func (b2 *B2Destination) Upload(ctx context.Context, name string, content []byte) (err error) {
	ctx, span := tracer.Start(ctx, "b2 upload")
	defer tr.End(span, &err)

	contentType, err := uploadContentType(name)
	if err != nil {
		return err
	}

	w := b2.bucket.Object(name).NewWriter(ctx, blazer.WithAttrsOption(&blazer.Attrs{ContentType: contentType}))
	w.ChunkSize = len(content) + 1
	w.UseFileBuffer = false

	if _, err := w.ReadFrom(bytes.NewReader(content)); err != nil {
		w.Close()
		return fmt.Errorf("writing %s to b2: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing b2 upload of %s: %w", name, err)
	}
	return nil
}

// uploadContentType validates name and returns the content type B2 should
// store for it. B2 needs one up front, so names without a known extension
// are refused.
func uploadContentType(name string) (string, error) {
	if err := validateSimpleFilename(name); err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	if ext == "" {
		return "", fmt.Errorf("b2 upload %s: missing extension", name)
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "", fmt.Errorf("b2 upload %s: unknown extension %s", name, ext)
	}
	return contentType, nil
}
