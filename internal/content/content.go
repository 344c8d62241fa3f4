package content

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// contentTypes maps file extensions to the Content-Type served for them.
// Anything else is served as application/octet-stream.
var contentTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".wasm": "application/wasm",
}

// bootstrapScript is the client-side reload bootstrap appended to HTML
// documents in live-reload mode. It opens a WebSocket to the reload path on
// the current host; any message reloads the page, and a dropped connection
// reloads after a short delay (picking up a fresh session from the restarted
// server).
const bootstrapScript = `
<script>
(function() {
    const ws = new WebSocket('ws://' + window.location.host + '%s');
    ws.onmessage = () => {
        console.log('reloading');
        window.location.reload();
    };
    ws.onclose = () => {
        console.log('disconnected');
        setTimeout(() => window.location.reload(), 1000);
    };
})();
</script>
`

// Responder serves files from a static site tree.
//
// URL paths resolve as follows: /static/... maps verbatim below the root;
// everything else maps into <root>/pages, where "/" and directories resolve
// to their index.html and an extensionless path gets ".html" appended.
// Any resolution or open failure is a 404 with body "404 Not Found".
type Responder struct {
	root   string
	script string // injected into HTML responses; empty disables injection
}

// New creates a Responder over root. A non-empty reloadPath enables
// live-reload injection: HTML documents are served fully buffered with the
// bootstrap script for reloadPath appended.
func New(root, reloadPath string) *Responder {
	r := &Responder{root: root}
	if reloadPath != "" {
		r.script = fmt.Sprintf(bootstrapScript, reloadPath)
	}
	return r
}

func (c *Responder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.serveFile(w, c.resolve(r.URL.Path))
}

// resolve maps a request path to a filesystem path below the root.
func (c *Responder) resolve(urlPath string) string {
	// Clean relative to "/" so ".." segments cannot escape the root.
	clean := path.Clean("/" + urlPath)

	if clean == "/static" || strings.HasPrefix(clean, "/static/") {
		return filepath.Join(c.root, filepath.FromSlash(clean))
	}

	p := filepath.Join(c.root, "pages", filepath.FromSlash(clean))
	if info, err := os.Stat(p); clean == "/" || (err == nil && info.IsDir()) {
		p = filepath.Join(p, "index.html")
	} else if filepath.Ext(p) == "" {
		p += ".html"
	}
	return p
}

func (c *Responder) serveFile(w http.ResponseWriter, fsPath string) {
	f, err := os.Open(fsPath)
	if err != nil {
		notFound(w)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		notFound(w)
		return
	}

	ctype := contentTypes[strings.ToLower(filepath.Ext(fsPath))]
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	// HTML with live reload enabled is buffered so the bootstrap script can
	// be appended. Everything else streams straight from the file.
	if c.script != "" && ctype == "text/html" {
		body, err := io.ReadAll(f)
		if err != nil {
			notFound(w)
			return
		}
		body = append(body, c.script...)
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if _, err := w.Write(body); err != nil {
			slog.Debug("content: write failed", "path", fsPath, "err", err)
		}
		return
	}

	w.Header().Set("Content-Type", ctype)
	if _, err := io.Copy(w, f); err != nil {
		slog.Debug("content: stream failed", "path", fsPath, "err", err)
	}
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("404 Not Found")) //nolint:errcheck
}
