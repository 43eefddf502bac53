package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertkozin/vidgrab/download"
	"github.com/robertkozin/vidgrab/resolve"
)

var page = `<!doctype html>
<html lang="en">
<head>
<title>vidgrab</title>
<meta charset="utf-8">
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/water.css@2/out/water.css">
</head>
<body>
	<h1>Video Downloader</h1>

	<p>
	{{range .Platforms}}
		<a href="/?platform={{.}}">{{.}}</a>
	{{end}}
	</p>

	<form method="POST" action="/">
		<label for="input">Video URL</label>
		<input type="url" id="input" name="input" placeholder="Example: {{.Placeholder}}" value="{{.Input}}" style="width: 100%" autofocus>
		<button type="submit" id="submit" {{if not .Valid}}disabled{{end}}>Download</button>
	</form>

	{{if .Error}}
		<h2>Error</h2>
		<p>{{.Error}}</p>
	{{end}}

	{{with .Video}}
		<h2>{{.Title}}</h2>
		<img src="{{.ThumbnailURL}}" alt="{{.Title}}" style="max-width: 300px; height: auto;" onerror="this.src='{{$.FallbackThumbnail}}'">
		<p>{{.Duration}} &middot; {{.Platform}} &middot; {{.Author}}</p>
		<form method="POST" action="/download">
			<input type="hidden" name="input" value="{{$.Input}}">
			<button type="submit">Download now</button>
		</form>
	{{end}}

	<script>
	const input = document.getElementById("input");
	const submit = document.getElementById("submit");
	input.addEventListener("input", async () => {
		const res = await fetch("/api/validate?url=" + encodeURIComponent(input.value.trim()));
		const body = await res.json();
		submit.disabled = !body.valid;
	});
	</script>
</body>
</html>`

type pageData struct {
	Platforms         []resolve.Platform
	Placeholder       string
	Input             string
	Valid             bool
	Video             *resolve.Descriptor
	Error             string
	FallbackThumbnail string
}

var tmpl = template.Must(template.New("page").Parse(page))

// Web is the browser front end: a form that resolves a url, and a download
// button that saves the video or redirects to it.
type Web struct {
	Resolver resolve.Resolver
	Executor *download.Executor
	Logger   *slog.Logger
}

func (web *Web) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", web.index)
	mux.HandleFunc("POST /{$}", web.submit)
	mux.HandleFunc("POST /download", web.download)
	mux.HandleFunc("GET /api/validate", web.apiValidate)
	mux.HandleFunc("GET /api/resolve", web.apiResolve)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (web *Web) index(w http.ResponseWriter, r *http.Request) {
	data := newPageData(r.URL.Query().Get("url"))
	if p := platformByPrefix(r.URL.Query().Get("platform")); p != "" {
		data.Placeholder = resolve.Placeholder(p)
	}
	web.render(w, http.StatusOK, data)
}

func (web *Web) submit(w http.ResponseWriter, r *http.Request) {
	data := newPageData(r.FormValue("input"))

	if !data.Valid {
		data.Error = invalidInput
		web.render(w, http.StatusUnprocessableEntity, data)
		return
	}

	d, err := web.Resolver.Resolve(r.Context(), data.Input)
	if err != nil {
		report(r.Context(), err)
		data.Error = UserMessage(err)
		web.render(w, http.StatusUnprocessableEntity, data)
		return
	}

	data.Video = &d
	web.render(w, http.StatusOK, data)
}

// download resolves the submitted page url again and saves what it points
// to. Media urls are never taken from the form.
func (web *Web) download(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.FormValue("input"))
	if !resolve.Valid(input) {
		http.Error(w, invalidInput, http.StatusBadRequest)
		return
	}

	d, err := web.Resolver.Resolve(r.Context(), input)
	if err != nil {
		report(r.Context(), err)
		http.Error(w, UserMessage(err), http.StatusUnprocessableEntity)
		return
	}

	var opened string
	exec := *web.Executor
	exec.Opener = download.OpenerFunc(func(_ context.Context, rawURL string) error {
		opened = rawURL
		return nil
	})

	out, err := exec.Download(r.Context(), d)
	if err != nil {
		web.logger().Error("download", "input", input, "err", err)
		http.Error(w, genericFailure, http.StatusInternalServerError)
		return
	}

	if out.Kind == download.OpenedExternally {
		http.Redirect(w, r, opened, http.StatusSeeOther)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(out.Filename))
	if contentType == "" {
		contentType = http.DetectContentType(out.Content)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, out.Filename, time.Time{}, bytes.NewReader(out.Content))
}

type validateResponse struct {
	Valid    bool             `json:"valid"`
	Platform resolve.Platform `json:"platform,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (web *Web) apiValidate(w http.ResponseWriter, r *http.Request) {
	p, err := resolve.Classify(r.URL.Query().Get("url"))
	writeJSON(w, http.StatusOK, validateResponse{Valid: err == nil, Platform: p})
}

func (web *Web) apiResolve(w http.ResponseWriter, r *http.Request) {
	d, err := web.Resolver.Resolve(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		report(r.Context(), err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (web *Web) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		web.logger().Error("template execute", "err", err)
	}
}

func (web *Web) logger() *slog.Logger {
	if web.Logger == nil {
		return slog.Default()
	}
	return web.Logger
}

func newPageData(input string) pageData {
	input = strings.TrimSpace(input)
	return pageData{
		Platforms:         resolve.Platforms,
		Placeholder:       resolve.Placeholder(resolve.TikTok),
		Input:             input,
		Valid:             resolve.Valid(input),
		FallbackThumbnail: resolve.FallbackThumbnail,
	}
}

func platformByPrefix(prefix string) resolve.Platform {
	for _, p := range resolve.Platforms {
		if p.Prefix() == strings.ToLower(prefix) {
			return p
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("writing json", "err", fmt.Errorf("encoding %T: %w", v, err))
	}
}
