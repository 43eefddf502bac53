package tr

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

var (
	hostPortPattern = regexp.MustCompile(`^[\w.-]+:\d+$`)
	schemePattern   = regexp.MustCompile(`^(http|https)`)
)

// Init installs a global tracer provider exporting over OTLP/gRPC when
// OTEL_EXPORTER_OTLP_ENDPOINT is set. Otherwise the otel default noop
// provider stays in place. The returned func flushes and stops the exporter.
func Init(ctx context.Context, serviceName string) (shutdown func(), err error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func() {}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating otel resource: %w", err)
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}

	isLocal, err := isLoopbackAddress(endpoint)
	if err != nil {
		return nil, fmt.Errorf("figuring out if %q is a local address: %w", endpoint, err)
	} else if isLocal {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if rawHeaders := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); rawHeaders != "" {
		opts = append(opts, otlptracegrpc.WithHeaders(parseOtelEnvHeaders(rawHeaders)))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating otlp trace grpc exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tp.Shutdown(ctx)
	}, nil
}

func parseOtelEnvHeaders(fromEnv string) map[string]string {
	headers := map[string]string{}
	for _, pair := range strings.Split(fromEnv, ",") {
		key, val, _ := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}

func endpointHostname(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)

	switch {
	case hostPortPattern.MatchString(endpoint):
		host, _, _ := strings.Cut(endpoint, ":")
		return host, nil
	case schemePattern.MatchString(endpoint):
		u, err := url.Parse(endpoint)
		if err != nil {
			return "", err
		}
		return u.Hostname(), nil
	}
	return endpoint, nil
}

func isLoopbackAddress(endpoint string) (bool, error) {
	hostname, err := endpointHostname(endpoint)
	if err != nil {
		return false, err
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return false, err
	}

	for _, ip := range ips {
		if !ip.IsLoopback() && !ip.IsPrivate() {
			return false, nil
		}
	}
	return true, nil
}
