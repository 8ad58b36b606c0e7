package httpd

import "testing"

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"index.html":     "text/html; charset=utf-8",
		"INDEX.HTM":      "text/html; charset=utf-8",
		"app.js":         "text/javascript; charset=utf-8",
		"mod.mjs":        "text/javascript; charset=utf-8",
		"engine.wasm":    "application/wasm",
		"data.json":      "application/json",
		"a/b/style.css":  "text/css; charset=utf-8",
		"archive.tar.gz": "application/gzip",
		"Makefile":       defaultContentType,
		"blob.zzzunkn":   defaultContentType,
	}
	for name, want := range cases {
		if got := contentType(name); got != want {
			t.Fatalf("contentType(%q)=%q want=%q", name, got, want)
		}
	}
}
