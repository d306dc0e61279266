package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AhmeWagih/resume-analyzer/internal/bootstrap"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/auth"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/config"
)

func buildApp(t *testing.T, cfg config.Config) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func bearer(t *testing.T, app *bootstrap.App, sub string) string {
	t.Helper()
	claims := auth.Claims{Email: "someone@example.com"}
	claims.Subject = sub
	tok, err := app.Signer.Sign(claims)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok
}

func serve(app *bootstrap.App, req *http.Request, authz string) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", authz)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func uploadArtifact(t *testing.T, app *bootstrap.App, authz, name, content string) string {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/artifacts", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := serve(app, req, authz)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	return out.Path
}

func runLifecycle(t *testing.T, app *bootstrap.App) {
	t.Helper()
	authz := bearer(t, app, "google:1")

	docPath := uploadArtifact(t, app, authz, "cv.txt", "Go engineer with SQL experience")
	imgPath := uploadArtifact(t, app, authz, "preview.txt", "preview")

	payload, _ := json.Marshal(map[string]any{
		"companyName": "Acme",
		"jobTitle":    "Backend Engineer",
		"resumePath":  docPath,
		"imagePath":   imgPath,
		"feedback":    map[string]any{"overallScore": 82},
	})
	createReq := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", bytes.NewReader(payload))
	createReq.Header.Set("Content-Type", "application/json")
	rec := serve(app, createReq, authz)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("create: bad body %s", rec.Body.String())
	}

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+created.ID+"/text", nil), authz)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("Go engineer")) {
		t.Fatalf("text: unexpected %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil), authz)
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte(created.ID)) {
		t.Fatalf("list: unexpected %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(app, httptest.NewRequest(http.MethodDelete, "/api/v1/resumes/"+created.ID, nil), authz)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/"+docPath, nil), authz)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("artifact should be gone, got %d", rec.Code)
	}
	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+created.ID, nil), authz)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("record should be gone, got %d", rec.Code)
	}
}

func TestLifecycleWithMemoryRecords(t *testing.T) {
	app := buildApp(t, config.Config{
		Port:            "0",
		Env:             "dev",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		RecordStore:     "memory",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		BulkAbortAfter:  5,
	})
	runLifecycle(t, app)
}

func TestLifecycleWithSQLiteRecords(t *testing.T) {
	dir := t.TempDir()
	app := buildApp(t, config.Config{
		Port:            "0",
		Env:             "dev",
		RecordStore:     "sqlite",
		SQLitePath:      filepath.Join(dir, "db", "resumes.db"),
		ObjectStoreType: "local",
		LocalStoreDir:   filepath.Join(dir, "artifacts"),
	})
	runLifecycle(t, app)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	_, err := bootstrap.Build(context.Background(), config.Config{RecordStore: "postgres"})
	if err == nil {
		t.Fatalf("expected error for postgres without DATABASE_URL")
	}
}
