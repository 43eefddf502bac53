package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/robertkozin/vidgrab/tr"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// DefaultProxies are tried in order; the last one reaches the target directly.
var DefaultProxies = []string{
	"https://api.allorigins.win/raw?url={url}",
	"https://corsproxy.io/?{url}",
	"https://cors-anywhere.herokuapp.com/{raw}",
	"{raw}",
}

// Strategy is one outbound path to a target. Template placeholders:
// {url} is replaced by the escaped target (spaces as %20), {raw} by the target as is.
type Strategy struct {
	Name     string
	Template string
}

func NewStrategy(template string) Strategy {
	return Strategy{Name: strategyName(template), Template: template}
}

func NewStrategies(templates []string) []Strategy {
	strategies := make([]Strategy, len(templates))
	for i, t := range templates {
		strategies[i] = NewStrategy(t)
	}
	return strategies
}

func (s Strategy) URL(target string) string {
	return expand(s.Template, target)
}

// Relay fetches a target through an ordered chain of proxies.
type Relay struct {
	Strategies []Strategy
	Client     *http.Client
	UserAgent  string
}

// NewRelay returns a relay over templates whose attempts each time out after timeout.
// A zero timeout means no limit.
func NewRelay(templates []string, timeout time.Duration, userAgent string) *Relay {
	if len(templates) == 0 {
		templates = DefaultProxies
	}
	return &Relay{
		Strategies: NewStrategies(templates),
		Client:     &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
	}
}

// Get returns the first 2xx response any strategy yields. The caller must
// close the response body.
func (r *Relay) Get(ctx context.Context, target string) (resp *http.Response, err error) {
	ctx, span := tracer.Start(ctx, "relay")
	defer tr.End(span, &err)
	span.SetAttributes(attribute.String("target", target))

	attempts := make([]attempt[*http.Response], len(r.Strategies))
	for i, s := range r.Strategies {
		attempts[i] = attempt[*http.Response]{
			name: s.Name,
			run: func(ctx context.Context) (*http.Response, error) {
				return r.try(ctx, s, target)
			},
		}
	}

	resp, err = firstOf(ctx, attempts)
	if err != nil {
		return nil, &ExhaustedError{Err: ErrAllProxiesExhausted, Causes: err}
	}
	return resp, nil
}

func (r *Relay) try(ctx context.Context, s Strategy, target string) (resp *http.Response, err error) {
	ctx, span := tracer.Start(ctx, "relay_attempt")
	defer tr.End(span, &err)
	span.SetAttributes(attribute.String("strategy", s.Name))

	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		relayAttempts.WithLabelValues(s.Name, result).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(target), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", firstNonEmpty(r.UserAgent, DefaultUserAgent))
	req.Header.Set("Accept", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err = client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("not OK: %s", resp.Status)
	}

	return resp, nil
}

func expand(template, target string) string {
	return strings.NewReplacer("{url}", escapeComponent(target), "{raw}", target).Replace(template)
}

// escapeComponent escapes s for use as a query value, with spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func strategyName(template string) string {
	if template == "{raw}" {
		return "direct"
	}
	u, err := url.Parse(strings.NewReplacer("{url}", "", "{raw}", "").Replace(template))
	if err != nil || u.Host == "" {
		return template
	}
	return u.Host
}
