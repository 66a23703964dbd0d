package app

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

const (
	templateRoot    = "templates"
	layoutsGlob     = "templates/layouts/*.html"
	partialsGlob    = "templates/partials/*.html"
	htmlContentType = "text/html; charset=utf-8"
)

// TemplateRenderer is a gin HTML renderer built from a templates/ tree:
//
//	templates/
//	  layouts/   base skeletons, e.g. {{ define "base" }}
//	  partials/  shared fragments such as nav and footer
//	  <dir>/     page templates, addressed as "<dir>/<file>.html"
//
// Every page gets its own clone of layouts and partials, so pages can
// redefine the same blocks ("title", "content") without clashing. In debug
// mode the tree is parsed again on each render; otherwise once at startup.
type TemplateRenderer struct {
	fs    fs.FS
	funcs template.FuncMap
	debug bool
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer creates a renderer reading from fsys. Parse errors
// are reported here in release mode and on render in debug mode.
func NewTemplateRenderer(fsys fs.FS, debug bool) (*TemplateRenderer, error) {
	r := &TemplateRenderer{fs: fsys, funcs: templateFuncMap(), debug: debug}
	if debug {
		return r, nil
	}
	pages, err := r.parse()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.pages = pages
	return r, nil
}

// Instance implements render.HTMLRender. name is relative to templates/,
// for example "pages/section.html" or "errors/404.html".
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	pages := r.pages
	if r.debug {
		var err error
		if pages, err = r.parse(); err != nil {
			return &HTMLInstance{Name: name, err: err}
		}
	}
	return &HTMLInstance{Template: pages[name], Name: name, Data: data}
}

func (r *TemplateRenderer) parse() (map[string]*template.Template, error) {
	base := template.New("").Funcs(r.funcs)
	for _, pattern := range []string{layoutsGlob, partialsGlob} {
		files, err := fs.Glob(r.fs, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, f := range files {
			if err := parseInto(base, r.fs, f, f); err != nil {
				return nil, err
			}
		}
	}

	files, err := r.discoverPageTemplates()
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		page, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", f, err)
		}
		name := strings.TrimPrefix(f, templateRoot+"/")
		if err := parseInto(page, r.fs, f, name); err != nil {
			return nil, err
		}
		pages[name] = page
	}
	return pages, nil
}

func parseInto(t *template.Template, fsys fs.FS, file, name string) error {
	content, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	if _, err := t.New(name).Parse(string(content)); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	return nil
}

// discoverPageTemplates lists every .html file under templates/ outside
// layouts/ and partials/.
func (r *TemplateRenderer) discoverPageTemplates() ([]string, error) {
	var pages []string
	err := fs.WalkDir(r.fs, templateRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		switch path.Dir(p) {
		case templateRoot + "/layouts", templateRoot + "/partials":
			return nil
		}
		pages = append(pages, p)
		return nil
	})
	return pages, err
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		// json embeds v in a script context, e.g. an Alpine x-data attribute.
		"json": func(v any) template.JS {
			b, err := json.Marshal(v)
			if err != nil {
				return template.JS("null")
			}
			return template.JS(b)
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2 Jan 2006 15:04 UTC")
		},
		// navActive reports whether the nav entry for prefix should be
		// highlighted on current. "/" only matches itself.
		"navActive": func(current, prefix string) bool {
			if prefix == "/" {
				return current == "/"
			}
			return current == prefix || strings.HasPrefix(current, prefix+"/")
		},
		"year": func() int { return time.Now().Year() },
	}
}

// HTMLInstance renders one page template. It is returned by
// TemplateRenderer.Instance.
type HTMLInstance struct {
	Template *template.Template
	Name     string
	Data     any
	err      error
}

// Render writes the page to w.
func (h *HTMLInstance) Render(w http.ResponseWriter) error {
	h.WriteContentType(w)
	if h.err != nil {
		return h.err
	}
	if h.Template == nil {
		return fmt.Errorf("template %q not found", h.Name)
	}
	return h.Template.ExecuteTemplate(w, h.Name, h.Data)
}

// WriteContentType sets an HTML Content-Type unless one is already set.
func (h *HTMLInstance) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if len(header["Content-Type"]) == 0 {
		header["Content-Type"] = []string{htmlContentType}
	}
}
