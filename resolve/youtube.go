package resolve

import (
	"context"
	"fmt"
	"regexp"
)

const (
	DefaultYouTubeWorker = "https://ytdl.shipit.workers.dev/?url={url}"

	youtubeThumbnail = "https://img.youtube.com/vi/%s/hqdefault.jpg"
)

var youtubeIDPattern = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

var _ Resolver = (*YouTubeResolver)(nil)

// YouTubeResolver never calls an API. The download url points at an
// external worker that resolves the video when it is fetched.
type YouTubeResolver struct {
	Worker string
}

// YouTubeID extracts the 11 character video id from a watch, short, embed or /v/ url.
func YouTubeID(pageURL string) string {
	m := youtubeIDPattern.FindStringSubmatch(pageURL)
	if m == nil {
		return ""
	}
	return m[1]
}

func (y *YouTubeResolver) Resolve(ctx context.Context, pageURL string) (Descriptor, error) {
	id := YouTubeID(pageURL)
	if id == "" {
		return Descriptor{}, &PlatformError{Platform: YouTube, Err: ErrInvalidID}
	}

	m := media{
		url:       expand(firstNonEmpty(y.Worker, DefaultYouTubeWorker), pageURL),
		thumbnail: fmt.Sprintf(youtubeThumbnail, id),
	}
	return newDescriptor(YouTube, m, "youtube_"+id+".mp4"), nil
}
