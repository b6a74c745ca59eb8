package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/postservice"
	"github.com/starford/quire/internal/testutil"
)

var blogFiles = map[string]string{
	"index.md":       "<!--\ntitle: Home\n-->\n# Welcome\n\nRead [hello](posts/hello).\n",
	"posts/hello.md": "<!--\ntitle: Hello\ndate: 2024-02-01\n-->\n# Hello\n\nuniqueword lives here.\n",
}

// testEnv sets up a temp content root, SQLite index, service and the full
// router the server mounts.
func testEnv(t *testing.T, sseHandler http.Handler) (http.Handler, string) {
	t.Helper()
	r, root := testutil.TestRenderer(t, blogFiles)
	ix := testutil.TestIndex(t, r)
	svc := postservice.NewService(r, ix.DB())

	router := chi.NewRouter()
	router.Use(CORSMiddleware([]string{"*"}, 3600))
	router.Mount("/api", NewRouter(svc, sseHandler))
	MountPages(router, svc, "blog")
	return router, root
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errResponse {
	t.Helper()
	var body errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestPage_Rendered(t *testing.T) {
	router, _ := testEnv(t, nil)

	w := get(t, router, "/blog/posts/hello")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<title>Hello</title>") {
		t.Errorf("body missing title: %s", w.Body.String())
	}
}

func TestPage_IndexDocument(t *testing.T) {
	router, _ := testEnv(t, nil)

	w := get(t, router, "/blog/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<title>Home</title>") {
		t.Errorf("did not render index: %s", w.Body.String())
	}

	w = get(t, router, "/blog")
	if w.Code != http.StatusMovedPermanently || w.Header().Get("Location") != "/blog/" {
		t.Errorf("bare prefix = %d %q, want redirect to /blog/", w.Code, w.Header().Get("Location"))
	}
}

func TestPage_NotFound(t *testing.T) {
	router, _ := testEnv(t, nil)

	w := get(t, router, "/blog/missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeError(t, w)
	if body.Error != KindFileRead || body.Code != http.StatusNotFound {
		t.Errorf("error body = %+v", body)
	}
}

func TestPage_TemplateError(t *testing.T) {
	router, root := testEnv(t, nil)
	tmpl := filepath.Join(filepath.Dir(root), "template.html")
	if err := os.WriteFile(tmpl, []byte("no placeholder"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := get(t, router, "/blog/posts/hello")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decodeError(t, w); body.Error != KindTemplate {
		t.Errorf("error kind = %q", body.Error)
	}
}

func TestListPosts(t *testing.T) {
	router, _ := testEnv(t, nil)

	w := get(t, router, "/api/posts?limit=10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp PostListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Posts) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Posts[0].Path != "posts/hello.md" {
		t.Errorf("first post = %q, want the dated post", resp.Posts[0].Path)
	}
}

func TestGetPost(t *testing.T) {
	router, _ := testEnv(t, nil)

	w := get(t, router, "/api/posts/posts%2Fhello")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var post PostDetail
	_ = json.Unmarshal(w.Body.Bytes(), &post)
	if post.Path != "posts/hello.md" || post.Title != "Hello" {
		t.Errorf("post = %+v", post)
	}
	if len(post.Backlinks) != 1 || post.Backlinks[0] != "index.md" {
		t.Errorf("backlinks = %v", post.Backlinks)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	router, _ := testEnv(t, nil)

	w := get(t, router, "/api/posts/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body := decodeError(t, w); body.Error != KindNotFound {
		t.Errorf("error kind = %q", body.Error)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router, _ := testEnv(t, nil)

	w := get(t, router, "/api/search?q=uniqueword")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].Path != "posts/hello.md" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router, _ := testEnv(t, nil)

	w := get(t, router, "/api/search")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", w.Code)
	}
	if body := decodeError(t, w); body.Error != KindBadRequest {
		t.Errorf("error kind = %q", body.Error)
	}
}

func TestBacklinksEndpoint(t *testing.T) {
	router, _ := testEnv(t, nil)

	w := get(t, router, "/api/backlinks/blog/posts/hello")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp BacklinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Path != "posts/hello.md" || len(resp.Backlinks) != 1 || resp.Backlinks[0] != "index.md" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCORS_Preflight(t *testing.T) {
	router, _ := testEnv(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "X-Custom")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	h := w.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("allow origin = %q", h.Get("Access-Control-Allow-Origin"))
	}
	if h.Get("Access-Control-Allow-Headers") != "X-Custom" {
		t.Errorf("allow headers = %q", h.Get("Access-Control-Allow-Headers"))
	}
	if h.Get("Access-Control-Max-Age") != "3600" {
		t.Errorf("max age = %q", h.Get("Access-Control-Max-Age"))
	}
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := CORSMiddleware([]string{"https://a.example"}, 60)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://a.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://a.example" {
		t.Errorf("allowed origin = %q", got)
	}

	req.Header.Set("Origin", "https://b.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got header %q", got)
	}
}

func TestSSEEvents_Mounted(t *testing.T) {
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	router, _ := testEnv(t, sseHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE status = %d", w.Code)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{fmt.Errorf("%w: x.md", apperr.ErrFileRead), http.StatusNotFound, KindFileRead},
		{apperr.ErrInvalidPath, http.StatusNotFound, KindInvalidPath},
		{postservice.ErrIndexDisabled, http.StatusNotFound, KindNotFound},
		{apperr.ErrMissingMetadata, http.StatusBadRequest, KindMissingMetadata},
		{apperr.ErrMarkdownParse, http.StatusInternalServerError, KindMarkdownParse},
		{apperr.ErrLanguage, http.StatusInternalServerError, KindLanguage},
		{apperr.ErrFileWrite, http.StatusInternalServerError, KindFileWrite},
		{errors.New("boom"), http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		status, kind := classify(tt.err)
		if status != tt.status || kind != tt.kind {
			t.Errorf("classify(%v) = %d %s, want %d %s", tt.err, status, kind, tt.status, tt.kind)
		}
	}
}
