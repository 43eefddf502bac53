package resolve

import (
	"context"
	"time"

	"github.com/robertkozin/vidgrab/tr"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultInstagramAPI = "https://instagram-downloader-download-instagram-videos-stories.p.rapidapi.com/index?url={url}"
	DefaultTwitterAPI   = "https://twitsave.com/info?url={url}"
)

var (
	_ Resolver = (*InstagramResolver)(nil)
	_ Resolver = (*TwitterResolver)(nil)
)

type InstagramResolver struct {
	Relay Getter
	API   string
	Now   func() time.Time
}

func (r *InstagramResolver) Resolve(ctx context.Context, pageURL string) (Descriptor, error) {
	return resolveSingle(ctx, Instagram, r.Relay, firstNonEmpty(r.API, DefaultInstagramAPI), instagramShape, pageURL, now(r.Now))
}

type TwitterResolver struct {
	Relay Getter
	API   string
	Now   func() time.Time
}

func (r *TwitterResolver) Resolve(ctx context.Context, pageURL string) (Descriptor, error) {
	return resolveSingle(ctx, Twitter, r.Relay, firstNonEmpty(r.API, DefaultTwitterAPI), twitterShape, pageURL, now(r.Now))
}

// resolveSingle queries one API once; there is no fallback to other APIs.
func resolveSingle(ctx context.Context, p Platform, relay Getter, api string, s shape, pageURL string, at time.Time) (d Descriptor, err error) {
	ctx, span := tracer.Start(ctx, p.Prefix()+"_resolve")
	defer tr.End(span, &err)
	span.SetAttributes(attribute.String("api", strategyName(api)))

	body, err := getJSON(ctx, relay, expand(api, pageURL))
	if err != nil {
		return Descriptor{}, &PlatformError{Platform: p, Err: err}
	}

	m, ok := matchShapes(body, s)
	if !ok {
		return Descriptor{}, &PlatformError{Platform: p, Err: ErrNotFound}
	}

	return newDescriptor(p, m, timestampFilename(p, at)), nil
}
