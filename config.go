package main

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robertkozin/vidgrab/download"
	"github.com/robertkozin/vidgrab/resolve"
)

type Config struct {
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	Listen   string     `env:"LISTEN" envDefault:":8080"`

	Destination string `env:"DESTINATION" envDefault:"fs://downloads"`
	PublicURL   string `env:"PUBLIC_URL"`

	DiscordToken string `env:"DISCORD_TOKEN"`
	SentryDSN    string `env:"SENTRY_DSN"`

	AttemptTimeout  time.Duration `env:"ATTEMPT_TIMEOUT" envDefault:"15s"`
	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"5m"`
	FallbackDelay   time.Duration `env:"FALLBACK_DELAY" envDefault:"1s"`
	MaxMediaSize    int64         `env:"MAX_MEDIA_SIZE" envDefault:"524288000"`
	UserAgent       string        `env:"USER_AGENT"`

	AllowPrivateHosts bool `env:"ALLOW_PRIVATE_HOSTS"`

	Proxies       []string `env:"PROXIES" envSeparator:","`
	TikTokAPIs    []string `env:"TIKTOK_APIS" envSeparator:","`
	InstagramAPI  string   `env:"INSTAGRAM_API"`
	TwitterAPI    string   `env:"TWITTER_API"`
	YouTubeWorker string   `env:"YOUTUBE_WORKER"`
}

func loadConfig() (Config, error) {
	return env.ParseAs[Config]()
}

// relay builds a relay whose attempts time out after timeout. Unless
// ALLOW_PRIVATE_HOSTS is set it will not connect to non-public addresses.
func (c Config) relay(timeout time.Duration) *resolve.Relay {
	relay := resolve.NewRelay(c.Proxies, timeout, c.UserAgent)
	if c.AllowPrivateHosts {
		return relay
	}
	return relay.PublicOnly()
}

func (c Config) resolveOptions() resolve.Options {
	return resolve.Options{
		TikTokAPIs:    c.TikTokAPIs,
		InstagramAPI:  c.InstagramAPI,
		TwitterAPI:    c.TwitterAPI,
		YouTubeWorker: c.YouTubeWorker,
	}
}

func (c Config) executor(dest download.Destination, opener download.Opener) *download.Executor {
	return &download.Executor{
		Relay:         c.relay(c.DownloadTimeout),
		Destination:   dest,
		Opener:        opener,
		FallbackDelay: c.FallbackDelay,
		MaxMediaSize:  c.MaxMediaSize,
	}
}
