package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/robertkozin/vidgrab/download"
	"github.com/robertkozin/vidgrab/resolve"
	"github.com/robertkozin/vidgrab/shell"
	"github.com/robertkozin/vidgrab/tr"
)

const usage = `usage: vidgrab <command> [url]

commands:
  resolve <url>   print the resolved video as json
  download <url>  resolve and save the video to DESTINATION
  serve           run the web front end on LISTEN
  discord         run the discord bot (DISCORD_TOKEN)`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	cmd := args[0]

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	setupLogger(cfg, cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tr.Init(ctx, "vidgrab")
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer shutdownTracer()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			return fmt.Errorf("initializing sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	pipeline := resolve.NewPipeline(cfg.relay(cfg.AttemptTimeout), cfg.resolveOptions())

	switch cmd {
	case "resolve":
		return resolveCmd(ctx, pipeline, args[1:])
	case "download":
		return downloadCmd(ctx, cfg, pipeline, args[1:])
	case "serve":
		return serveCmd(ctx, cfg, pipeline)
	case "discord":
		return discordCmd(ctx, cfg, pipeline)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func setupLogger(cfg Config, cmd string) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewJSONHandler(os.Stderr, opts)
	if cmd == "resolve" || cmd == "download" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func resolveCmd(ctx context.Context, pipeline *resolve.Pipeline, args []string) error {
	if len(args) != 1 {
		return errors.New(usage)
	}

	d, err := pipeline.Resolve(ctx, args[0])
	if err != nil {
		return errors.New(shell.UserMessage(err))
	}
	return shell.PrintDescriptor(os.Stdout, d)
}

func downloadCmd(ctx context.Context, cfg Config, pipeline *resolve.Pipeline, args []string) error {
	if len(args) != 1 {
		return errors.New(usage)
	}

	d, err := pipeline.Resolve(ctx, args[0])
	if err != nil {
		return errors.New(shell.UserMessage(err))
	}

	dest, err := download.NewDestination(ctx, cfg.Destination)
	if err != nil {
		return fmt.Errorf("opening destination: %w", err)
	}
	defer dest.Close()

	exec := cfg.executor(dest, shell.PrintOpener(os.Stdout))
	out, err := exec.Download(ctx, d)
	if err != nil {
		return fmt.Errorf("downloading: %w", err)
	}
	return shell.PrintOutcome(os.Stdout, d, out, dest)
}

func serveCmd(ctx context.Context, cfg Config, pipeline *resolve.Pipeline) error {
	dest, err := download.NewDestination(ctx, cfg.Destination)
	if err != nil {
		return fmt.Errorf("opening destination: %w", err)
	}
	defer dest.Close()

	web := &shell.Web{
		Resolver: pipeline,
		Executor: cfg.executor(dest, nil),
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           web.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("web server started", "addr", server.Addr, "destination", dest)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down web server")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func discordCmd(ctx context.Context, cfg Config, pipeline *resolve.Pipeline) error {
	if cfg.DiscordToken == "" {
		return errors.New("missing env var: DISCORD_TOKEN")
	}

	bot := &shell.Discord{
		Token:     cfg.DiscordToken,
		Resolver:  pipeline,
		PublicURL: cfg.PublicURL,
	}

	if cfg.PublicURL != "" {
		dest, err := download.NewDestination(ctx, cfg.Destination)
		if err != nil {
			return fmt.Errorf("opening destination: %w", err)
		}
		defer dest.Close()
		bot.Executor = cfg.executor(dest, nil)
	}

	if err := bot.Start(); err != nil {
		return fmt.Errorf("starting discord bot: %w", err)
	}
	defer bot.Close()

	slog.Info("discord bot is now running")
	<-ctx.Done()
	return nil
}
