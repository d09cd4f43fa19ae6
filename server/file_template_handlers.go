package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/jrsteele09/fee-portal/notify"
	"github.com/jrsteele09/fee-portal/users"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const baseTemplate = "base.html"

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.ParseFS(TemplateFilesFS(), baseTemplate, name)
}

func mustParseTemplate(name string) *template.Template {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		panic("Failed to parse " + name + " template: " + err.Error())
	}
	return tmpl
}

// PageData is the model of every rendered page
type PageData struct {
	AppName      string
	Title        string
	User         *users.User
	Toasts       []notify.Toast
	Error        string
	Message      string
	Email        string
	Redirect     string
	DashboardURL string
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, status int, data PageData) {
	data.AppName = s.config.GetAppName()
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, baseTemplate, data); err != nil {
		log.Err(err).Str("page", data.Title).Msg("Failed to render template")
	}
}
