package app

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

// testFS mirrors the web/templates layout with a base layout, a nav
// partial and two pages.
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{
			Data: []byte(
				`{{ define "base" }}<!DOCTYPE html><html>` +
					`<head><title>{{ block "title" . }}Default{{ end }}</title></head>` +
					`<body>{{ block "nav" . }}{{ end }}{{ block "content" . }}{{ end }}</body>` +
					`</html>{{ end }}`),
		},
		"templates/partials/nav.html": &fstest.MapFile{
			Data: []byte(`{{ define "nav" }}<nav>{{ if navActive .Path "/app" }}app-active{{ else }}idle{{ end }}</nav>{{ end }}`),
		},
		"templates/pages/section.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}{{ .Title }}{{ end }}` +
					`{{ define "content" }}<h1>{{ .Title }}</h1>{{ end }}`),
		},
		"templates/errors/404.html": &fstest.MapFile{
			Data: []byte(
				`{{ template "base" . }}` +
					`{{ define "title" }}Not Found{{ end }}` +
					`{{ define "content" }}<h1>404 Not Found</h1>{{ end }}`),
		},
	}
}

func renderPage(t *testing.T, r *TemplateRenderer, name string, data any) string {
	t.Helper()
	w := httptest.NewRecorder()
	if err := r.Instance(name, data).Render(w); err != nil {
		t.Fatalf("Render(%s) error: %v", name, err)
	}
	return w.Body.String()
}

func TestTemplateFuncMap(t *testing.T) {
	fm := templateFuncMap()

	t.Run("json", func(t *testing.T) {
		fn := fm["json"].(func(any) template.JS)
		got := fn(map[string]string{"route": `pro"tected`})
		var back map[string]string
		if err := json.Unmarshal([]byte(got), &back); err != nil {
			t.Fatalf("json output %q is not valid JSON: %v", got, err)
		}
		if back["route"] != `pro"tected` {
			t.Errorf("round trip = %q", back["route"])
		}
		if fn(nil) != "null" {
			t.Errorf("json(nil) = %q; want null", fn(nil))
		}
		if fn(make(chan int)) != "null" {
			t.Error("unmarshalable value should render null")
		}
	})

	t.Run("formatTime", func(t *testing.T) {
		fn := fm["formatTime"].(func(time.Time) string)
		loc := time.FixedZone("AEST", 10*3600)
		if got := fn(time.Date(2026, 3, 15, 14, 30, 0, 0, loc)); got != "15 Mar 2026 04:30 UTC" {
			t.Errorf("formatTime() = %q", got)
		}
		if got := fn(time.Time{}); got != "" {
			t.Errorf("formatTime(zero) = %q; want empty", got)
		}
	})

	t.Run("navActive", func(t *testing.T) {
		fn := fm["navActive"].(func(string, string) bool)
		tests := []struct {
			current, prefix string
			want            bool
		}{
			{"/app", "/app", true},
			{"/app/settings", "/app", true},
			{"/application", "/app", false},
			{"/", "/", true},
			{"/pricing", "/", false},
		}
		for _, tt := range tests {
			if got := fn(tt.current, tt.prefix); got != tt.want {
				t.Errorf("navActive(%q, %q) = %v; want %v", tt.current, tt.prefix, got, tt.want)
			}
		}
	})

	t.Run("year", func(t *testing.T) {
		if got := fm["year"].(func() int)(); got < 2026 {
			t.Errorf("year() = %d", got)
		}
	})
}

func TestNewTemplateRenderer_Release(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if r.debug {
		t.Error("expected debug=false")
	}
	for _, name := range []string{"pages/section.html", "errors/404.html"} {
		if _, ok := r.pages[name]; !ok {
			t.Errorf("expected page %q to be loaded", name)
		}
	}
	if _, ok := r.pages["layouts/base.html"]; ok {
		t.Error("layouts must not be addressable as pages")
	}
}

func TestNewTemplateRenderer_Debug(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), true)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if r.pages != nil {
		t.Error("pages should be parsed per render in debug mode")
	}
	body := renderPage(t, r, "errors/404.html", map[string]any{"Path": "/missing"})
	if !strings.Contains(body, "<title>Not Found</title>") || !strings.Contains(body, "<h1>404 Not Found</h1>") {
		t.Errorf("unexpected body:\n%s", body)
	}
}

func TestNewTemplateRenderer_InvalidTemplate(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/layouts/base.html": &fstest.MapFile{Data: []byte(`{{ define "base" }}{{ end }}`)},
		"templates/bad/page.html":     &fstest.MapFile{Data: []byte(`{{ invalid_syntax `)},
	}
	if _, err := NewTemplateRenderer(badFS, false); err == nil {
		t.Fatal("expected error for invalid template syntax")
	}

	r, err := NewTemplateRenderer(badFS, true)
	if err != nil {
		t.Fatalf("debug mode should defer parse errors, got %v", err)
	}
	if err := r.Instance("bad/page.html", nil).Render(httptest.NewRecorder()); err == nil {
		t.Error("expected parse error on render in debug mode")
	}
}

func TestTemplateRenderer_PagesDoNotShareBlocks(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}

	body := renderPage(t, r, "pages/section.html", map[string]any{"Title": "Coach", "Path": "/app/plan"})
	for _, want := range []string{"<!DOCTYPE html>", "<title>Coach</title>", "<h1>Coach</h1>", "<nav>app-active</nav>"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	body = renderPage(t, r, "errors/404.html", map[string]any{"Path": "/nope"})
	if !strings.Contains(body, "<title>Not Found</title>") || strings.Contains(body, "Coach") {
		t.Errorf("404 page picked up blocks from another page:\n%s", body)
	}
}

func TestTemplateRenderer_Instance_NotFound(t *testing.T) {
	r, err := NewTemplateRenderer(testFS(), false)
	if err != nil {
		t.Fatalf("NewTemplateRenderer() error: %v", err)
	}
	if err := r.Instance("nonexistent.html", nil).Render(httptest.NewRecorder()); err == nil {
		t.Error("Render() should return error for nonexistent template")
	}
}

func TestHTMLInstance_ContentType(t *testing.T) {
	w := httptest.NewRecorder()
	(&HTMLInstance{}).WriteContentType(w)
	if got := w.Header().Get("Content-Type"); got != htmlContentType {
		t.Errorf("Content-Type = %q; want %q", got, htmlContentType)
	}

	w = httptest.NewRecorder()
	w.Header().Set("Content-Type", "application/json")
	(&HTMLInstance{}).WriteContentType(w)
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type should not be overwritten; got %q", got)
	}
}

func TestHTMLInstance_Render_Error(t *testing.T) {
	err := (&HTMLInstance{err: errors.New("parse error")}).Render(httptest.NewRecorder())
	if err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("Render() error = %v; want parse error", err)
	}
}

func TestDiscoverPageTemplates(t *testing.T) {
	r := &TemplateRenderer{fs: testFS()}
	pages, err := r.discoverPageTemplates()
	if err != nil {
		t.Fatalf("discoverPageTemplates() error: %v", err)
	}
	slices.Sort(pages)
	want := []string{"templates/errors/404.html", "templates/pages/section.html"}
	if !slices.Equal(pages, want) {
		t.Errorf("pages = %v; want %v", pages, want)
	}
}
