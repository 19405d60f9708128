package http

import (
	"io"
	"io/fs"
	"net/http"
	"strings"
	"testing"
)

func TestEmbeddedStaticFiles(t *testing.T) {
	for _, name := range []string{"static/css/style.css", "static/js/websocket.js"} {
		data, err := fs.ReadFile(staticFiles, name)
		if err != nil {
			t.Fatalf("expected embedded asset %s, got error: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("embedded asset %s is empty", name)
		}
	}
}

func TestStaticReleaseClientIsServed(t *testing.T) {
	server := newTestServer(t, "http://example.invalid")

	resp := doRequest(t, server.Client(), http.MethodGet, server.URL+"/static/js/websocket.js", nil, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for websocket client, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "javascript") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "'/ws'") {
		t.Fatalf("websocket client does not target /ws: %q", body)
	}
}
