package resolve

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/match"
)

type Platform string

const (
	TikTok    Platform = "TikTok"
	Instagram Platform = "Instagram"
	Twitter   Platform = "Twitter"
	YouTube   Platform = "YouTube"
)

// Platforms lists the supported platforms in classification order.
var Platforms = []Platform{TikTok, Instagram, Twitter, YouTube}

// hostPatterns are substring matches against the hostname, so any host
// merely containing one of these tokens is accepted.
var hostPatterns = map[Platform][]string{
	TikTok:    {"*tiktok.com*", "*vm.tiktok.com*"},
	Instagram: {"*instagram.com*", "*www.instagram.com*"},
	Twitter:   {"*twitter.com*", "*x.com*"},
	YouTube:   {"*youtube.com*", "*www.youtube.com*", "*youtu.be*"},
}

var placeholders = map[Platform]string{
	TikTok:    "https://www.tiktok.com/@username/video/123456789",
	Instagram: "https://www.instagram.com/reel/ABC1234567/",
	Twitter:   "https://twitter.com/user/status/123456789",
	YouTube:   "https://youtube.com/watch?v=ABC1234567",
}

func (p Platform) String() string {
	return string(p)
}

// Prefix is the lowercase platform name used for filenames and metric labels.
func (p Platform) Prefix() string {
	return strings.ToLower(string(p))
}

// Placeholder returns an example page URL for p.
func Placeholder(p Platform) string {
	return placeholders[p]
}

// Classify reports which platform raw belongs to.
func Classify(raw string) (Platform, error) {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidURL, raw)
	}

	host := strings.ToLower(u.Hostname())
	if host != "" {
		for _, p := range Platforms {
			if hostMatch(host, hostPatterns[p]) {
				return p, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, host)
}

// Valid reports whether raw is a supported video page URL.
func Valid(raw string) bool {
	_, err := Classify(raw)
	return err == nil
}

func hostMatch(host string, patterns []string) bool {
	for _, p := range patterns {
		if match.Match(host, p) {
			return true
		}
	}
	return false
}
