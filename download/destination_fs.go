package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

var _ Destination = (*FSDestination)(nil)

// FSDestination saves files under one directory, optionally serving them over http.
type FSDestination struct {
	root   *os.Root
	server *http.Server
}

// NewFSDestination opens fs://<dir>. With ?server=<addr> the directory is
// also served read-only at addr.
func NewFSDestination(ctx context.Context, config *url.URL) (*FSDestination, error) {
	dir := config.Host + config.Path
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("opening root: %w", err)
	}
	dest := &FSDestination{root: root}

	if addr := config.Query().Get("server"); addr != "" {
		if err := dest.startServer(addr); err != nil {
			root.Close()
			return nil, fmt.Errorf("starting server: %w", err)
		}
	}

	return dest, nil
}

func (fs *FSDestination) startServer(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	fs.server = &http.Server{
		Addr:                         ln.Addr().String(),
		Handler:                      savedFiles(http.FileServerFS(fs.root.FS())),
		ReadHeaderTimeout:            5 * time.Second,
		DisableGeneralOptionsHandler: true,
	}

	go func() {
		if err := fs.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("fs destination server stopped", "addr", fs.server.Addr, "err", err)
		}
	}()
	return nil
}

func (fs *FSDestination) String() string {
	addr := "none"
	if fs.server != nil {
		addr = fs.server.Addr
	}
	return fmt.Sprintf("filesystem destination at %s server=%s", fs.root.Name(), addr)
}

func (fs *FSDestination) Close() error {
	var errs []error

	if fs.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fs.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if err := fs.root.Close(); err != nil {
		errs = append(errs, fmt.Errorf("root close: %w", err))
	}

	return errors.Join(errs...)
}

func (fs *FSDestination) Upload(ctx context.Context, name string, content []byte) error {
	if err := validateSimpleFilename(name); err != nil {
		return err
	}
	return fs.root.WriteFile(name, content, 0o644)
}

func (fs *FSDestination) Download(ctx context.Context, name string) ([]byte, error) {
	if err := validateSimpleFilename(name); err != nil {
		return nil, err
	}
	return fs.root.ReadFile(name)
}

func savedFiles(next http.Handler) http.Handler {
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			res.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// no directory listings
		if strings.HasSuffix(req.URL.Path, "/") {
			http.NotFound(res, req)
			return
		}

		if strings.HasSuffix(req.URL.Path, ".mp4") {
			res.Header().Set("Content-Type", "video/mp4")
		}
		res.Header().Set("Cache-Control", "public, max-age=3600")
		// saved files are media, never pages
		res.Header().Set("X-Content-Type-Options", "nosniff")
		res.Header().Set("Content-Security-Policy", "sandbox; default-src 'none'")
		if !strings.HasPrefix(mime.TypeByExtension(path.Ext(req.URL.Path)), "video/") {
			res.Header().Set("Content-Disposition", "attachment")
		}

		next.ServeHTTP(res, req)
	})
}
