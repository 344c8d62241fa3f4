package content_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/liveserve/liveserve/internal/content"
)

// newSite builds a site tree with a pages/ and static/ directory.
func newSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// get issues a request against a Responder and returns status, headers, body.
func get(t *testing.T, h http.Handler, path string) (*http.Response, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

const indexHTML = "<html><body>hello</body></html>"

func TestServe_HTMLInjectsBootstrapScript(t *testing.T) {
	root := newSite(t, map[string]string{"pages/index.html": indexHTML})
	resp, body := get(t, content.New(root, "/__live_reload"), "/")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/html" {
		t.Errorf("Content-Type: got %q, want text/html", got)
	}
	if !strings.HasPrefix(body, indexHTML) {
		t.Errorf("body does not start with the original document:\n%s", body)
	}
	if !strings.Contains(body, "new WebSocket('ws://' + window.location.host + '/__live_reload')") {
		t.Errorf("bootstrap script missing:\n%s", body)
	}
	if resp.ContentLength != int64(len(body)) {
		t.Errorf("Content-Length: got %d, want %d", resp.ContentLength, len(body))
	}
}

func TestServe_NoInjectionWhenDisabled(t *testing.T) {
	root := newSite(t, map[string]string{"pages/index.html": indexHTML})
	_, body := get(t, content.New(root, ""), "/")

	if body != indexHTML {
		t.Errorf("body: got %q, want original document untouched", body)
	}
}

func TestServe_NonHTMLNotInjected(t *testing.T) {
	root := newSite(t, map[string]string{"pages/site.css": "body { color: red }"})
	resp, body := get(t, content.New(root, "/__live_reload"), "/site.css")

	if got := resp.Header.Get("Content-Type"); got != "text/css" {
		t.Errorf("Content-Type: got %q, want text/css", got)
	}
	if body != "body { color: red }" {
		t.Errorf("body: got %q", body)
	}
}

func TestServe_ExtensionlessPathGetsHTML(t *testing.T) {
	root := newSite(t, map[string]string{"pages/about.html": "<html>about</html>"})
	resp, body := get(t, content.New(root, ""), "/about")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if body != "<html>about</html>" {
		t.Errorf("body: got %q", body)
	}
}

func TestServe_DirectoryResolvesToIndex(t *testing.T) {
	root := newSite(t, map[string]string{"pages/docs/index.html": "<html>docs</html>"})
	_, body := get(t, content.New(root, ""), "/docs")

	if body != "<html>docs</html>" {
		t.Errorf("body: got %q", body)
	}
}

func TestServe_StaticPrefixMapsBelowRoot(t *testing.T) {
	root := newSite(t, map[string]string{"static/logo.svg": "<svg/>"})
	resp, body := get(t, content.New(root, ""), "/static/logo.svg")

	if got := resp.Header.Get("Content-Type"); got != "image/svg+xml" {
		t.Errorf("Content-Type: got %q, want image/svg+xml", got)
	}
	if body != "<svg/>" {
		t.Errorf("body: got %q", body)
	}
}

func TestServe_UnknownExtensionIsOctetStream(t *testing.T) {
	root := newSite(t, map[string]string{"static/data.bin": "\x00\x01"})
	resp, _ := get(t, content.New(root, ""), "/static/data.bin")

	if got := resp.Header.Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("Content-Type: got %q, want application/octet-stream", got)
	}
}

func TestServe_MissingFileIs404(t *testing.T) {
	root := newSite(t, map[string]string{"pages/index.html": indexHTML})
	resp, body := get(t, content.New(root, "/__live_reload"), "/nope.html")

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
	if body != "404 Not Found" {
		t.Errorf("body: got %q, want %q", body, "404 Not Found")
	}
	if strings.Contains(body, "WebSocket") {
		t.Error("404 response must not carry the bootstrap script")
	}
}

func TestServe_TraversalCannotEscapeRoot(t *testing.T) {
	root := newSite(t, map[string]string{"pages/index.html": indexHTML})
	secret := filepath.Join(filepath.Dir(root), "secret.txt")
	if err := os.WriteFile(secret, []byte("top secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(secret) })

	// Sent raw so the client does not collapse the dot segments itself.
	srv := httptest.NewServer(content.New(root, ""))
	t.Cleanup(srv.Close)
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.URL.Opaque = "//" + req.URL.Host + "/../../secret.txt"
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if string(body) == "top secret" {
		t.Fatal("traversal escaped the site root")
	}
}
