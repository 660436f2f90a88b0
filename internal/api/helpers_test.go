package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nerrad567/marketplace-core/internal/audit"
	"github.com/nerrad567/marketplace-core/internal/auth"
	"github.com/nerrad567/marketplace-core/internal/catalog"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/config"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/database"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/logging"
	"github.com/nerrad567/marketplace-core/internal/media"
	_ "github.com/nerrad567/marketplace-core/migrations"
)

// testSecret is a signing key that satisfies the config minimum length.
var testSecret = []byte("test-secret-key-at-least-32-characters-long")

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

// recordingObserver keeps every gate decision for assertions.
type recordingObserver struct {
	mu        sync.Mutex
	decisions []GateDecision
}

func (o *recordingObserver) ObserveGate(_ context.Context, d GateDecision) {
	o.mu.Lock()
	o.decisions = append(o.decisions, d)
	o.mu.Unlock()
}

func (o *recordingObserver) last() GateDecision {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.decisions) == 0 {
		return GateDecision{}
	}
	return o.decisions[len(o.decisions)-1]
}

// testEnv is a server wired to a real migrated database and a temp
// upload directory.
type testEnv struct {
	srv        *Server
	handler    http.Handler
	db         *database.DB
	uploadsDir string
	observer   *recordingObserver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{
		Path:        filepath.Join(t.TempDir(), "api-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(t.Context()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	categories, err := catalog.LoadCategorySet(t.Context(), catalog.NewSQLiteCategoryRepository(db.DB))
	if err != nil {
		t.Fatalf("LoadCategorySet() error = %v", err)
	}

	uploadsDir := filepath.Join(t.TempDir(), "uploads")
	store, err := media.NewLocalStore(uploadsDir, "/uploads", 1<<20)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	svc := auth.NewService(
		auth.NewUserRepository(db.DB),
		auth.NewVendorRepository(db.DB),
		auth.NewTokenIssuer(testSecret, auth.DefaultTokenTTL),
		auth.MinBcryptCost,
	)

	observer := &recordingObserver{}
	srv, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1", Port: 0},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Uploads: config.UploadsConfig{
			Backend:   config.UploadBackendLocal,
			Dir:       uploadsDir,
			URLPrefix: "/uploads",
			MaxSizeMB: 1,
		},
		Logger:     logging.Discard(),
		DB:         db,
		Auth:       svc,
		Products:   catalog.NewSQLiteProductRepository(db.DB),
		Categories: categories,
		Media:      store,
		AuditRepo:  audit.NewSQLiteRepository(db.DB),
		Observer:   observer,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &testEnv{
		srv:        srv,
		handler:    srv.Handler(),
		db:         db,
		uploadsDir: uploadsDir,
		observer:   observer,
	}
}

// startAuditWriter runs the audit drain until the test ends.
func (e *testEnv) startAuditWriter(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.srv.drainAuditLog(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// do sends req through the router.
func (e *testEnv) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// doJSON sends body encoded as JSON.
func (e *testEnv) doJSON(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return e.do(req, token)
}

// image is an optional file part for doMultipart.
type image struct {
	filename string
	data     []byte
}

// doMultipart sends fields and an optional image as multipart/form-data.
func (e *testEnv) doMultipart(t *testing.T, method, path string, fields map[string]string, img *image, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if img != nil {
		fw, err := mw.CreateFormFile(imageField, img.filename)
		if err != nil {
			t.Fatalf("creating file part: %v", err)
		}
		if _, err := fw.Write(img.data); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(req, token)
}

// decode unmarshals a response body into T.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

// expectError checks status and that both message keys carry want.
func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, want string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	got := decode[Error](t, rec)
	if got.Message != want || got.ErrorText != want {
		t.Errorf("error body = message %q / error %q, want %q", got.Message, got.ErrorText, want)
	}
}

// signupVendor registers a vendor and returns its ID and token.
func (e *testEnv) signupVendor(t *testing.T, email string) (string, string) {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/api/vendor/register", map[string]string{
		"name":      "Vendor " + email,
		"email":     email,
		"password":  "hunter2hunter2",
		"storeName": "Store " + email,
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("vendor signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[vendorAuthResponse](t, rec)
	return resp.Vendor.ID, resp.Token
}

// signupUser registers a shopper and returns its ID and token.
func (e *testEnv) signupUser(t *testing.T, email string) (string, string) {
	t.Helper()

	rec := e.doJSON(t, http.MethodPost, "/api/user/signup", map[string]string{
		"email":    email,
		"password": "hunter2hunter2",
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("user signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[userAuthResponse](t, rec)
	return resp.User.ID, resp.Token
}

// createProduct creates a product through the API and returns it.
func (e *testEnv) createProduct(t *testing.T, token, name, category string) catalog.Product {
	t.Helper()

	rec := e.doMultipart(t, http.MethodPost, "/api/vendor/items/create", map[string]string{
		"name":        name,
		"description": name + " description",
		"price":       "19.99",
		"category":    category,
	}, &image{filename: "photo.png", data: pngBytes}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	return *decode[productEnvelope](t, rec).Product
}

// productEnvelope decodes {message, product} responses.
type productEnvelope struct {
	Message string           `json:"message"`
	Product *catalog.Product `json:"product"`
}

// listCategory fetches the public listing and returns the product names.
func (e *testEnv) listCategory(t *testing.T, category string) []string {
	t.Helper()

	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/vendor/items/category/"+category, nil), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("listing status = %d, body %s", rec.Code, rec.Body.String())
	}
	names := []string{}
	for _, p := range decode[[]catalog.Product](t, rec) {
		names = append(names, p.Name)
	}
	return names
}

// newRequest builds a request with a JSON content type.
func newRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}
