package resolve

import "errors"

var (
	ErrInvalidURL          = errors.New("invalid url")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrAllProxiesExhausted = errors.New("all proxies failed")
	ErrAllAPIsExhausted    = errors.New("all apis failed, try again later")
	ErrNotFound            = errors.New("video not found")
	ErrInvalidID           = errors.New("invalid video id")
	ErrEmptyBody           = errors.New("empty or invalid body")
)

// PlatformError prefixes a resolver failure with the platform it came from.
type PlatformError struct {
	Platform Platform
	Err      error
}

func (pe *PlatformError) Error() string {
	return pe.Platform.String() + ": " + pe.Err.Error()
}

func (pe *PlatformError) Unwrap() error {
	return pe.Err
}

// ExhaustedError is returned when every candidate in a fallback chain failed.
// Its message is the summary alone; Causes keeps each candidate's failure.
type ExhaustedError struct {
	Err    error
	Causes error
}

func (ee *ExhaustedError) Error() string {
	return ee.Err.Error()
}

func (ee *ExhaustedError) Unwrap() []error {
	return []error{ee.Err, ee.Causes}
}

// Causes returns the per-candidate failures behind err, or "" if there are none.
func Causes(err error) string {
	var ee *ExhaustedError
	if errors.As(err, &ee) && ee.Causes != nil {
		return ee.Causes.Error()
	}
	return ""
}
