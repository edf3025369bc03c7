package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"wisdombot/internal/teaching"
	logx "wisdombot/pkg/logx"
)

// Raw HTML in article bodies is escaped (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

const indexHTML = `<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>仏教の教え</title></head>
<body>
<h1>仏教の教え</h1>
<ul>
{{- range .}}
<li><a href="/blog/{{.Key}}">{{.Title}}</a></li>
{{- end}}
</ul>
</body>
</html>
`

const entryHTML = `<!DOCTYPE html>
<html lang="ja">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<article>
<h1>{{.Title}}</h1>
{{.Body}}
</article>
<p><a href="/blog">一覧へ戻る</a></p>
</body>
</html>
`

var blogTemplates = func() *template.Template {
	t := template.Must(template.New("index").Parse(indexHTML))
	template.Must(t.New("entry").Parse(entryHTML))
	return t
}()

type article struct {
	Key   string
	Title string
	Body  template.HTML
}

// articles is the rendered teaching table, built once.
type articles struct {
	list  []article
	byKey map[string]article
}

func loadArticles() (*articles, error) {
	entries := teaching.All()
	a := &articles{list: make([]article, 0, len(entries)), byKey: make(map[string]article, len(entries))}
	for _, e := range entries {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(e.Body), &buf); err != nil {
			return nil, fmt.Errorf("render %s: %w", e.Key, err)
		}
		art := article{Key: e.Key, Title: e.Title, Body: template.HTML(buf.String())} //nolint:gosec // goldmark escapes raw HTML
		a.list = append(a.list, art)
		a.byKey[e.Key] = art
	}
	return a, nil
}

func (s *Server) blogIndex(w http.ResponseWriter, _ *http.Request) {
	s.renderHTML(w, "index", s.articles.list)
}

func (s *Server) blogEntry(w http.ResponseWriter, r *http.Request) {
	art, ok := s.articles.byKey[chi.URLParam(r, "key")]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.renderHTML(w, "entry", art)
}

func (s *Server) renderHTML(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := blogTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("template failed", logx.String("template", name), logx.Err(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
