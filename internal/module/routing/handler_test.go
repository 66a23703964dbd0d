package routing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/glutton4gainz/edge/internal/pkg"
	"github.com/glutton4gainz/edge/internal/route"
)

func setupRouter(h *RouteHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewModule(h).RegisterRoutes(r.Group("/api/v1"), r.Group("/"))
	return r
}

func get(r *gin.Engine, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestRouteHandler_Classify(t *testing.T) {
	r := setupRouter(NewRouteHandler(nil, "passthrough"))

	tests := []struct {
		path     string
		wantPath string
		excluded bool
		class    string
	}{
		{"/app", "/app", false, "protected"},
		{"/app/settings", "/app/settings", false, "protected"},
		{"/coach/123", "/coach/123", false, "protected"},
		{"/login", "/login", false, "auth"},
		{"/signup/step2", "/signup/step2", false, "auth"},
		{"/", "/", false, "unclassified"},
		{"/pricing", "/pricing", false, "unclassified"},
		{"/application", "/application", false, "protected"},
		{"/stats?range=week", "/stats", false, "protected"},
		{"/api/users", "/api/users", true, ""},
		{"/_next/static/chunk.js", "/_next/static/chunk.js", true, ""},
		{"/favicon.ico", "/favicon.ico", true, ""},
		{"/manifest.json", "/manifest.json", true, ""},
		{"/icons/icon-192.png", "/icons/icon-192.png", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(r, "/api/v1/routes/classify?path="+url.QueryEscape(tt.path))
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var res ClassifyResult
			if err := json.Unmarshal(w.Body.Bytes(), &pkg.Response{Data: &res}); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if res.Path != tt.wantPath || res.Excluded != tt.excluded || res.Classification != tt.class {
				t.Errorf("got %+v, want path=%s excluded=%v class=%q", res, tt.wantPath, tt.excluded, tt.class)
			}
		})
	}
}

func TestRouteHandler_Classify_Validation(t *testing.T) {
	r := setupRouter(NewRouteHandler(nil, "passthrough"))

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"missing", "", "required"},
		{"relative", "?path=app", "startswith=/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "/api/v1/routes/classify"+tt.query)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var resp pkg.ValidationErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if resp.Errors["path"] != tt.want {
				t.Errorf("errors[path] = %q, want %q", resp.Errors["path"], tt.want)
			}
		})
	}
}

func TestRouteHandler_Prefixes(t *testing.T) {
	c := route.NewClassifier([]string{"/members"}, []string{"/join", "/welcome"})
	r := setupRouter(NewRouteHandler(c, "enforce"))

	w := get(r, "/api/v1/routes")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var view PrefixesView
	if err := json.Unmarshal(w.Body.Bytes(), &pkg.Response{Data: &view}); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !slices.Equal(view.Protected, []string{"/members"}) || !slices.Equal(view.Auth, []string{"/join", "/welcome"}) {
		t.Errorf("unexpected prefixes %+v", view)
	}
	if view.Mode != "enforce" {
		t.Errorf("Mode = %q", view.Mode)
	}
}

func TestNewModule_NilHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil handler")
		}
	}()
	NewModule(nil)
}
