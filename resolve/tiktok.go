package resolve

import (
	"context"
	"errors"
	"time"

	"github.com/robertkozin/vidgrab/tr"
)

var DefaultTikTokAPIs = []string{
	"https://api.tiklydown.eu.org/api/download?url={url}",
	"https://www.tikwm.com/api/?url={url}",
	"https://tikdown.org/api?url={url}",
}

var _ Resolver = (*TikTokResolver)(nil)

// TikTokResolver asks each API in turn until one returns a playable url.
type TikTokResolver struct {
	Relay Getter
	APIs  []string
	Now   func() time.Time
}

func (t *TikTokResolver) Resolve(ctx context.Context, pageURL string) (d Descriptor, err error) {
	ctx, span := tracer.Start(ctx, "tiktok_resolve")
	defer tr.End(span, &err)

	apis := t.APIs
	if len(apis) == 0 {
		apis = DefaultTikTokAPIs
	}

	attempts := make([]attempt[media], len(apis))
	for i, api := range apis {
		attempts[i] = attempt[media]{
			name: strategyName(api),
			run: func(ctx context.Context) (media, error) {
				return t.query(ctx, expand(api, pageURL))
			},
		}
	}

	m, err := firstOf(ctx, attempts)
	if err != nil {
		return Descriptor{}, &PlatformError{
			Platform: TikTok,
			Err:      &ExhaustedError{Err: ErrAllAPIsExhausted, Causes: err},
		}
	}

	return newDescriptor(TikTok, m, timestampFilename(TikTok, now(t.Now))), nil
}

func (t *TikTokResolver) query(ctx context.Context, apiURL string) (media, error) {
	body, err := getJSON(ctx, t.Relay, apiURL)
	if err != nil {
		return media{}, err
	}

	m, ok := matchShapes(body, tiktokShapes...)
	if !ok {
		return media{}, errors.New("no playable url in response")
	}
	return m, nil
}

func now(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now()
	}
	return clock()
}
