package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robertkozin/vidgrab/tr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("resolve")

type Resolver interface {
	Resolve(ctx context.Context, pageURL string) (Descriptor, error)
}

// Options overrides the third-party endpoints. Zero values use the defaults.
type Options struct {
	TikTokAPIs    []string
	InstagramAPI  string
	TwitterAPI    string
	YouTubeWorker string
	Now           func() time.Time
}

// Pipeline classifies a page url and hands it to that platform's resolver.
type Pipeline struct {
	Resolvers map[Platform]Resolver
	Logger    *slog.Logger
}

func NewPipeline(relay Getter, opts Options) *Pipeline {
	return &Pipeline{
		Resolvers: map[Platform]Resolver{
			TikTok:    &TikTokResolver{Relay: relay, APIs: opts.TikTokAPIs, Now: opts.Now},
			Instagram: &InstagramResolver{Relay: relay, API: opts.InstagramAPI, Now: opts.Now},
			Twitter:   &TwitterResolver{Relay: relay, API: opts.TwitterAPI, Now: opts.Now},
			YouTube:   &YouTubeResolver{Worker: opts.YouTubeWorker},
		},
	}
}

func (p *Pipeline) Resolve(ctx context.Context, rawURL string) (d Descriptor, err error) {
	rawURL = strings.TrimSpace(rawURL)
	requestID := uuid.NewString()

	ctx, span := tracer.Start(ctx, "resolve")
	defer tr.End(span, &err)
	span.SetAttributes(attribute.String("request_id", requestID), attribute.String("url", rawURL))

	log := p.logger().With("request_id", requestID, "url", rawURL)

	platform, err := Classify(rawURL)
	if err != nil {
		resolutions.WithLabelValues("none", "rejected").Inc()
		log.Info("rejected url", "err", err)
		return Descriptor{}, err
	}
	span.SetAttributes(attribute.String("platform", platform.String()))

	resolver, ok := p.Resolvers[platform]
	if !ok {
		resolutions.WithLabelValues(platform.Prefix(), "rejected").Inc()
		return Descriptor{}, fmt.Errorf("%w: no resolver for %s", ErrUnsupportedPlatform, platform)
	}

	d, err = resolver.Resolve(ctx, rawURL)
	if err != nil {
		resolutions.WithLabelValues(platform.Prefix(), "error").Inc()
		log.Warn("resolving failed", "platform", platform, "err", err, "causes", Causes(err))
		return Descriptor{}, err
	}

	resolutions.WithLabelValues(platform.Prefix(), "ok").Inc()
	log.Info("resolved", "platform", platform, "download_url", d.DownloadURL, "filename", d.Filename)
	return d, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
