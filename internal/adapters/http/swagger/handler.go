// Package swagger serves the OpenAPI document and a plain endpoint index.
package swagger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
	ErrParse = errors.New("openapi document is invalid")
)

// Operation is one method+path pair from the OpenAPI document.
type Operation struct {
	Method  string
	Path    string
	Summary string
}

type document struct {
	Info struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

var httpMethods = []string{"get", "put", "post", "delete", "patch"}

// Operations parses spec and returns its operations sorted by path then method.
func Operations(spec []byte) (title string, ops []Operation, err error) {
	var doc document
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if len(doc.Paths) == 0 {
		return "", nil, fmt.Errorf("%w: no paths", ErrParse)
	}

	for path, item := range doc.Paths {
		for method, node := range item {
			if !slices.Contains(httpMethods, method) {
				continue
			}
			var op struct {
				Summary string `yaml:"summary"`
			}
			if err := node.Decode(&op); err != nil {
				return "", nil, fmt.Errorf("%w: %s %s: %w", ErrParse, method, path, err)
			}
			ops = append(ops, Operation{Method: strings.ToUpper(method), Path: path, Summary: op.Summary})
		}
	}
	slices.SortFunc(ops, func(a, b Operation) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return strings.TrimSpace(doc.Info.Title + " " + doc.Info.Version), ops, nil
}

// Register attaches the docs routes to mux.
// Routes:
//
//	GET /api-docs      -> HTML endpoint index
//	GET /openapi.yaml  -> embedded OpenAPI spec
//
// It panics when mux is nil or the embedded document does not parse.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	page, err := renderIndex(OpenAPI)
	if err != nil {
		panic(err)
	}

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>API Docs - {{.Title}}</title>
    <style>body{font-family:sans-serif;margin:2rem}td{padding:.2rem .8rem}code{font-weight:bold}</style>
  </head>
  <body>
    <h1>{{.Title}}</h1>
    <p>Full document: <a href="/openapi.yaml">/openapi.yaml</a></p>
    <table id="operations">
      {{range .Ops}}<tr><td><code>{{.Method}}</code></td><td>{{.Path}}</td><td>{{.Summary}}</td></tr>
      {{end}}
    </table>
  </body>
</html>`))

func renderIndex(spec []byte) ([]byte, error) {
	title, ops, err := Operations(spec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, struct {
		Title string
		Ops   []Operation
	}{title, ops}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServe, err)
	}
	return buf.Bytes(), nil
}
