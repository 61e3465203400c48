package server

import (
	"embed"
	"html/template"
	"net/http"

	"mnemosyne/internal/logging"
	"mnemosyne/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type contentsView struct {
	Rows         []store.Content
	InlineImages bool
	Start        string
	End          string
	Count        int
}

type queryView struct {
	Question string
	Answer   string
	Entries  string
}

func (s *Server) renderIndex(w http.ResponseWriter) {
	s.renderPage(w, "index.html", nil)
}

func (s *Server) renderContents(w http.ResponseWriter, rows []store.Content, inlineImages bool, start, end string) {
	s.renderPage(w, "contents.html", contentsView{
		Rows:         rows,
		InlineImages: inlineImages,
		Start:        start,
		End:          end,
		Count:        len(rows),
	})
}

func (s *Server) renderQuery(w http.ResponseWriter, view queryView) {
	s.renderPage(w, "query.html", view)
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render page failed", logging.String("page", name), logging.Error(err))
	}
}
