// Package swagger serves the OpenAPI document and a ReDoc page for it.
package swagger

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
)

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
)

const (
	documentedPath = "/api/heroes"
	redocScript    = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"
)

// Register attaches the API docs routes to mux. heroesPath rewrites the
// collection path in the document when the backend is mounted elsewhere.
// Routes:
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> OpenAPI document
func Register(mux *http.ServeMux, heroesPath string) {
	if mux == nil {
		panic("mux is nil")
	}

	doc := OpenAPI
	if p := "/" + strings.Trim(heroesPath, "/"); p != "/" && p != documentedPath {
		doc = bytes.ReplaceAll(OpenAPI, []byte(documentedPath), []byte(p))
	}

	mux.HandleFunc("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(doc)
	})
}

// Minimal HTML that loads ReDoc and points it at /openapi.yaml.
const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Heroes API Docs</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="` + redocScript + `"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`
