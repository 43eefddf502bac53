package resolve

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	unknownDuration = "Unknown"

	stockThumbnail    = "https://images.unsplash.com/photo-1611605698335-8b1569810432?w=300&h=200&fit=crop"
	fallbackThumbnail = "https://images.unsplash.com/photo-1611162617474-5b21e879e113?w=300&h=200&fit=crop"
)

// FallbackThumbnail is shown when a rendered thumbnail fails to load.
const FallbackThumbnail = fallbackThumbnail

// Descriptor is the normalized result of resolving a video page.
type Descriptor struct {
	Title        string   `json:"title"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Duration     string   `json:"duration"`
	Platform     Platform `json:"platform"`
	Author       string   `json:"author"`
	DownloadURL  string   `json:"download_url"`
	Filename     string   `json:"filename"`
}

type defaults struct {
	title     string
	thumbnail string
	author    string
}

var platformDefaults = map[Platform]defaults{
	TikTok:    {"TikTok Video", stockThumbnail, "TikTok User"},
	Instagram: {"Instagram Video", fallbackThumbnail, "Instagram User"},
	Twitter:   {"Twitter Video", stockThumbnail, "Twitter User"},
	YouTube:   {"YouTube Video", fallbackThumbnail, "YouTube Channel"},
}

// media is what a response-shape matcher pulls out of an API body.
type media struct {
	url       string
	title     string
	thumbnail string
	author    string
}

func newDescriptor(p Platform, m media, filename string) Descriptor {
	def := platformDefaults[p]
	return Descriptor{
		Title:        firstNonEmpty(m.title, def.title),
		ThumbnailURL: firstNonEmpty(m.thumbnail, def.thumbnail),
		Duration:     unknownDuration,
		Platform:     p,
		Author:       firstNonEmpty(m.author, def.author),
		DownloadURL:  m.url,
		Filename:     filename,
	}
}

func timestampFilename(p Platform, now time.Time) string {
	return p.Prefix() + "_" + strconv.FormatInt(now.UnixMilli(), 10) + ".mp4"
}

// FormatDuration renders seconds as m:ss, or Unknown when zero.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return unknownDuration
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func validMediaURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unexpected scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
