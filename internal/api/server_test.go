package api

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nerrad567/marketplace-core/internal/auth"
	"github.com/nerrad567/marketplace-core/internal/catalog"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/logging"
	"github.com/nerrad567/marketplace-core/internal/media"
)

type failingDB struct{}

func (failingDB) HealthCheck(context.Context) error { return errors.New("disk gone") }
func (failingDB) Stats() sql.DBStats                { return sql.DBStats{} }

func TestNew_RequiredDeps(t *testing.T) {
	full := func() Deps {
		return Deps{
			Logger:     logging.Discard(),
			Auth:       auth.NewService(nil, nil, auth.NewTokenIssuer(testSecret, 0), 0),
			Products:   catalog.NewSQLiteProductRepository(nil),
			Categories: catalog.NewCategorySet(nil),
			Media:      &media.LocalStore{},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Deps)
	}{
		{"logger", func(d *Deps) { d.Logger = nil }},
		{"auth", func(d *Deps) { d.Auth = nil }},
		{"products", func(d *Deps) { d.Products = nil }},
		{"categories", func(d *Deps) { d.Categories = nil }},
		{"media", func(d *Deps) { d.Media = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := full()
			tt.mutate(&d)
			if _, err := New(d); err == nil {
				t.Errorf("New() without %s succeeded", tt.name)
			}
		})
	}

	srv, err := New(full())
	if err != nil {
		t.Fatalf("New() with all deps error = %v", err)
	}
	if srv.observer == nil {
		t.Error("default gate observer not set")
	}
	if srv.auditCh != nil {
		t.Error("audit channel created without an audit repository")
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[HealthResponse](t, rec)
	if resp.Status != statusOK || resp.Checks["database"] != checkOK || resp.Version != "test" {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	env := newTestEnv(t)
	env.srv.db = failingDB{}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil), "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decode[HealthResponse](t, rec)
	if resp.Status != statusDown || resp.Checks["database"] != checkDown {
		t.Errorf("health = %+v", resp)
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/metrics", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decode[SystemMetrics](t, rec)
	if m.Catalog.Categories != 14 {
		t.Errorf("categories = %d, want 14", m.Catalog.Categories)
	}
	if m.MQTT.Connected || m.InfluxDB.Connected || m.Feed.Relaying {
		t.Errorf("optional deps reported live: %+v", m)
	}
	if m.Runtime.Goroutines == 0 {
		t.Error("goroutines = 0")
	}
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/categories", nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cats := decode[[]catalog.Category](t, rec)
	if len(cats) != 14 {
		t.Fatalf("len = %d, want 14", len(cats))
	}
	if cats[len(cats)-1].Type != catalog.CategoryTypeService {
		t.Errorf("last category = %+v, want a service", cats[len(cats)-1])
	}
}

func TestMiddleware_RequestID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil), "")
	if got := rec.Header().Get("X-Request-ID"); len(got) != 2*requestIDBytes {
		t.Errorf("generated request id = %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = env.do(req, "")
	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied" {
		t.Errorf("request id = %q, want client-supplied", got)
	}
}

func TestMiddleware_CORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/vendor/items/create", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := env.do(req, "")

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Errorf("allow-origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("allow-headers = %q", got)
	}
}

func TestMiddleware_CORSRestricted(t *testing.T) {
	env := newTestEnv(t)
	env.srv.cfg.CORS.AllowedOrigins = []string{"https://shop.example.com"}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := env.do(req, "")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q for disallowed origin", got)
	}
}

func TestMiddleware_Recovery(t *testing.T) {
	env := newTestEnv(t)

	h := env.srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	expectError(t, rec, http.StatusInternalServerError, msgInternal)
}

func TestUploadsServed(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signupVendor(t, "seller@example.com")
	p := env.createProduct(t, token, "Lamp", "Lighting")

	rec := env.do(httptest.NewRequest(http.MethodGet, p.Image, nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d", p.Image, rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(body) != string(pngBytes) {
		t.Error("served image differs from upload")
	}
}

func TestBodyLimit(t *testing.T) {
	env := newTestEnv(t)

	body := `{"email":"a@example.com","password":"` + strings.Repeat("x", maxRequestBodySize) + `"}`
	rec := env.do(newRequest(http.MethodPost, "/api/user/signup", strings.NewReader(body)), "")
	expectError(t, rec, http.StatusBadRequest, msgInvalidJSON)
}
