package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AhmeWagih/resume-analyzer/internal/resumes"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/auth"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/config"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/server/middleware"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv/memory"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object/local"
	"github.com/AhmeWagih/resume-analyzer/internal/users"
)

type routerFixture struct {
	router *gin.Engine
	signer *auth.Signer
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signer, err := auth.NewSigner("router-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	store := local.New(t.TempDir())
	registry := resumes.NewRegistry(memory.New(), store, nil, resumes.DefaultBulkAbortAfter)

	r := NewRouter(RouterDeps{
		Config:        config.Config{Env: "dev", CORSAllowOrigin: []string{"http://localhost:5173"}},
		Verifier:      signer,
		Revocations:   auth.NewRevocationList(),
		Registry:      registry,
		ResumeHandler: resumes.NewHandler(registry, store),
		UserHandler:   users.NewHandler(users.NewService(users.NewKVRepo(memory.New()))),
		Limiter:       middleware.NewRateLimiter(nil),
	})
	return routerFixture{router: r, signer: signer}
}

func (f routerFixture) token(t *testing.T, sub string) string {
	t.Helper()
	claims := auth.Claims{Email: sub + "@example.com"}
	claims.Subject = sub
	tok, err := f.signer.Sign(claims)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return tok
}

func (f routerFixture) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(http.MethodGet, "/api/v1/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	rec := f.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "resume_list_total") {
		t.Fatalf("metrics: unexpected %d %s", rec.Code, rec.Body.String())
	}
}

func TestResumeRoutesRequireLogin(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/resumes", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "login_required") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	f := newRouterFixture(t)
	tok := f.token(t, "google:1")

	if rec := f.do(http.MethodGet, "/api/v1/resumes", tok); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(http.MethodGet, "/api/v1/me", tok); rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/api/v1/auth/sign-out", tok); rec.Code != http.StatusNoContent {
		t.Fatalf("sign-out: expected 204, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/v1/resumes", tok); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after sign-out, got %d", rec.Code)
	}
}

func TestSignOutDiscardsArmedBulkDelete(t *testing.T) {
	f := newRouterFixture(t)
	tok := f.token(t, "google:1")

	rec := f.do(http.MethodPost, "/api/v1/resumes/delete-all", tok)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	f.do(http.MethodPost, "/api/v1/auth/sign-out", tok)

	fresh := f.token(t, "google:1")
	rec = f.do(http.MethodGet, "/api/v1/resumes/state", fresh)
	if !strings.Contains(rec.Body.String(), `"bulkConfirmArmed":false`) {
		t.Fatalf("expected disarmed state, got %s", rec.Body.String())
	}
}

func TestDestructiveRoutesAreRateLimited(t *testing.T) {
	f := newRouterFixture(t)
	tok := f.token(t, "google:1")

	burst := defaultRateLimits[middleware.GroupDestructive].Burst
	for i := 0; i < burst; i++ {
		if rec := f.do(http.MethodDelete, "/api/v1/resumes/r1", tok); rec.Code != http.StatusOK {
			t.Fatalf("delete %d: expected 200, got %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	rec := f.do(http.MethodDelete, "/api/v1/resumes/r1", tok)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	// Reads are in a separate bucket.
	if rec := f.do(http.MethodGet, "/api/v1/resumes/state", tok); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for read, got %d", rec.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
