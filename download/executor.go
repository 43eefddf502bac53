package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robertkozin/vidgrab/resolve"
	"github.com/robertkozin/vidgrab/tr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	megaByte            = 1024 * 1024
	DefaultMaxMediaSize = megaByte * 500

	DefaultFallbackDelay = time.Second
)

var (
	tracer = otel.Tracer("download")

	downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidgrab_downloads_total",
		Help: "Download executions by outcome.",
	}, []string{"outcome"})
)

type Kind string

const (
	Saved            Kind = "saved"
	OpenedExternally Kind = "opened_externally"
)

// Outcome is how a download ended. Content is the saved media when Kind is
// Saved; Reason holds why the direct save was abandoned otherwise.
type Outcome struct {
	Kind     Kind
	Filename string
	URL      string
	Content  []byte
	Reason   error
}

// Opener hands a url to the user when it cannot be saved directly,
// like opening it in a new browser tab.
type Opener interface {
	Open(ctx context.Context, rawURL string) error
}

type OpenerFunc func(ctx context.Context, rawURL string) error

func (f OpenerFunc) Open(ctx context.Context, rawURL string) error {
	return f(ctx, rawURL)
}

// Executor saves a resolved video, falling back to opening its url externally.
type Executor struct {
	Relay         resolve.Getter
	Destination   Destination
	Opener        Opener
	FallbackDelay time.Duration
	MaxMediaSize  int64
	Now           func() time.Time
	Logger        *slog.Logger
}

// Download never fails because the media could not be fetched; that ends
// in OpenedExternally. Errors come only from the opener or ctx.
func (e *Executor) Download(ctx context.Context, d resolve.Descriptor) (out Outcome, err error) {
	ctx, span := tracer.Start(ctx, "download")
	defer tr.End(span, &err)
	span.SetAttributes(attribute.String("download_url", d.DownloadURL), attribute.String("platform", d.Platform.String()))

	log := e.logger().With("download_url", d.DownloadURL, "platform", d.Platform)

	filename, content, saveErr := e.save(ctx, d)
	if saveErr == nil {
		downloads.WithLabelValues(string(Saved)).Inc()
		log.Info("saved", "filename", filename, "size", len(content), "destination", e.Destination)
		return Outcome{Kind: Saved, Filename: filename, URL: d.DownloadURL, Content: content}, nil
	}

	log.Warn("direct download failed, opening externally", "err", saveErr, "causes", resolve.Causes(saveErr))

	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-time.After(e.FallbackDelay):
	}

	if e.Opener == nil {
		return Outcome{}, errors.New("no opener to fall back to")
	}
	if err := e.Opener.Open(ctx, d.DownloadURL); err != nil {
		return Outcome{}, fmt.Errorf("opening %s externally: %w", d.DownloadURL, err)
	}

	downloads.WithLabelValues(string(OpenedExternally)).Inc()
	return Outcome{Kind: OpenedExternally, URL: d.DownloadURL, Reason: saveErr}, nil
}

func (e *Executor) save(ctx context.Context, d resolve.Descriptor) (string, []byte, error) {
	if e.Destination == nil {
		return "", nil, errors.New("no destination configured")
	}

	filename := d.Filename
	if filename == "" {
		filename = "video_" + strconv.FormatInt(e.now().UnixMilli(), 10) + ".mp4"
	}
	if err := validateSimpleFilename(filename); err != nil {
		return "", nil, err
	}

	body, err := e.fetch(ctx, d.DownloadURL)
	if err != nil {
		return "", nil, err
	}

	if err := e.Destination.Upload(ctx, filename, body); err != nil {
		return "", nil, fmt.Errorf("uploading: %w", err)
	}
	return filename, body, nil
}

func (e *Executor) fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	resp, err := e.Relay.Get(ctx, mediaURL)
	if err != nil {
		return nil, fmt.Errorf("fetching media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status fetching media: %s", resp.Status)
	}

	maxSize := e.maxMediaSize()
	if resp.ContentLength > maxSize {
		return nil, fmt.Errorf("remote media is too large: %dbytes", resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("downloading media to memory: %w", err)
	}
	if len(body) == 0 {
		return nil, resolve.ErrEmptyBody
	}
	if int64(len(body)) > maxSize {
		return nil, fmt.Errorf("remote media is larger than %dbytes", maxSize)
	}

	// proxies answer some failures with a 200 html page
	if contentType := http.DetectContentType(body); strings.HasPrefix(contentType, "text/html") {
		return nil, fmt.Errorf("%w: got %s", resolve.ErrEmptyBody, contentType)
	}

	return body, nil
}

func (e *Executor) maxMediaSize() int64 {
	if e.MaxMediaSize <= 0 {
		return DefaultMaxMediaSize
	}
	return e.MaxMediaSize
}

func (e *Executor) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
