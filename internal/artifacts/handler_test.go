package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object/local"
)

func newRouter(t *testing.T, userID string) (*gin.Engine, *local.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := local.New(t.TempDir())

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	})
	NewHandler(store).RegisterRoutes(api)
	return r, store
}

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadThenDownload(t *testing.T) {
	r, _ := newRouter(t, "google:1")

	body, contentType := multipartBody(t, "cv.txt", []byte("hello world"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/artifacts", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Path      string `json:"path"`
		SizeBytes int64  `json:"sizeBytes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Path == "" || created.SizeBytes != int64(len("hello world")) {
		t.Fatalf("unexpected response %+v", created)
	}

	get := httptest.NewRecorder()
	r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/"+created.Path, nil))
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", get.Code)
	}
	if get.Body.String() != "hello world" {
		t.Fatalf("unexpected body %q", get.Body.String())
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	r, _ := newRouter(t, "google:1")

	body, contentType := multipartBody(t, "page.html", []byte("<html><body>x</body></html>"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/artifacts", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestUploadRequiresFile(t *testing.T) {
	r, _ := newRouter(t, "google:1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/artifacts", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDownloadHidesOtherUsersArtifacts(t *testing.T) {
	r, store := newRouter(t, "google:1")

	key, _, _, err := store.Save(context.Background(), "google:2", "cv.txt", bytes.NewReader([]byte("secret")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/artifacts/"+key, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
