package shell

import (
	"context"
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/robertkozin/vidgrab/resolve"
)

const (
	invalidInput   = "invalid url or unsupported platform"
	genericFailure = "failed to process video, try again or use another video"
)

// UserMessage turns a pipeline error into the single line shown to a user.
func UserMessage(err error) string {
	var pe *resolve.PlatformError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, resolve.ErrInvalidURL), errors.Is(err, resolve.ErrUnsupportedPlatform):
		return invalidInput
	case errors.As(err, &pe):
		return pe.Error()
	}
	return genericFailure
}

// report sends unexpected failures to sentry. Rejected input is not reported.
func report(ctx context.Context, err error) {
	if err == nil || errors.Is(err, resolve.ErrInvalidURL) || errors.Is(err, resolve.ErrUnsupportedPlatform) {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
