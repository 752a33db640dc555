package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/schema"
	"github.com/goliatone/go-dataviews/pkg/testsupport"
)

const postsYAML = `
fieldSets:
  posts:
    - id: title
      type: text
      required: true
      enableGlobalSearch: true
    - id: status
      type: text
      elements:
        - {value: draft, label: Draft}
        - {value: publish, label: Published}
    - id: password
      type: text
      visibleWhen: status == "publish"
forms:
  post-edit:
    fieldSet: posts
    type: panel
    fields:
      - title
      - id: meta
        label: Meta
        children: [status, password]
views:
  posts-table:
    fieldSet: posts
    sort: {field: title, direction: asc}
  posts-bad:
    fieldSet: posts
    filters:
      - {field: missing, operator: is, value: x}
`

func testItems() []field.Item {
	return []field.Item{
		{"title": "Hello world", "status": "draft"},
		{"title": "Zebra crossing", "status": "publish", "password": "secret"},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := schema.LoadFS(testsupport.MapFS(map[string]string{"posts.yaml": postsYAML}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	srv, err := New(Static{S: store}, WithItems(func(context.Context, string, string) ([]field.Item, error) {
		return testItems(), nil
	}))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := testsupport.DecodeJSON[map[string]string](t, rec.Body.Bytes())
	if body["status"] != "ok" || body["revision"] == "" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestLayouts(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/layouts", "")
	var plain []layoutInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &plain); err != nil {
		t.Fatalf("decode: %v", err)
	}
	types := make([]string, 0, len(plain))
	for _, info := range plain {
		types = append(types, string(info.Type))
		if len(info.Options) != 0 {
			t.Fatalf("expected no options without a field set, got %v", info.Options)
		}
	}
	if diff := cmp.Diff([]string{"grid", "list", "table"}, types); diff != "" {
		t.Fatalf("layout types (-want +got):\n%s", diff)
	}

	rec = do(t, srv, http.MethodGet, "/layouts?set=posts", "")
	var resolved []layoutInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &resolved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resolved[2].Options) == 0 {
		t.Fatalf("expected table options for posts")
	}

	if rec := do(t, srv, http.MethodGet, "/layouts?set=missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown set, got %d", rec.Code)
	}
}

func TestListViews(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/views", "")
	want := map[string][]string{
		"views":     {"posts-bad", "posts-table"},
		"forms":     {"post-edit"},
		"fieldSets": {"posts"},
	}
	testsupport.AssertEqual(t, "listing", want, testsupport.DecodeJSON[map[string][]string](t, rec.Body.Bytes()))
}

func TestRenderView(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/views/posts-table", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	html := rec.Body.String()
	if !strings.Contains(html, "Hello world") || !strings.Contains(html, "Zebra crossing") {
		t.Fatalf("expected both items rendered:\n%s", html)
	}

	rec = do(t, srv, http.MethodGet, "/views/posts-table?layout=list&search=zebra", "")
	html = rec.Body.String()
	if strings.Contains(html, "Hello world") || !strings.Contains(html, "dataviews-list") {
		t.Fatalf("expected filtered list layout:\n%s", html)
	}
}

func TestRenderView_Errors(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		target string
		status int
	}{
		{"/views/missing", http.StatusNotFound},
		{"/views/posts-table?layout=kanban", http.StatusNotFound},
		{"/views/posts-bad", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if rec := do(t, srv, http.MethodGet, tt.target, ""); rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRenderForm(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/forms/post-edit?item=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	html := rec.Body.String()
	for _, fragment := range []string{`<legend>Meta</legend>`, `value="Zebra crossing"`, `name="password"`, `action="/forms/post-edit?item=1"`} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected %q in form:\n%s", fragment, html)
		}
	}

	rec = do(t, srv, http.MethodGet, "/forms/post-edit", "")
	if strings.Contains(rec.Body.String(), `name="password"`) {
		t.Fatalf("expected password hidden for a draft")
	}

	if rec := do(t, srv, http.MethodGet, "/forms/post-edit?item=9", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing item, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/forms/post-edit?item=x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad item, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/forms/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing form, got %d", rec.Code)
	}
}

func TestSubmitForm(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/forms/post-edit", `{"status":"publish","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	ok := testsupport.DecodeJSON[submitResult](t, rec.Body.Bytes())
	want := field.Item{"title": "Hello world", "status": "publish", "password": "pw"}
	testsupport.AssertEqual(t, "merged item", want, ok.Item)

	rec = do(t, srv, http.MethodPost, "/forms/post-edit", `{"title":""}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var invalid submitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &invalid); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(invalid.Errors["title"]) == 0 {
		t.Fatalf("expected title error, got %v", invalid.Errors)
	}

	if rec := do(t, srv, http.MethodPost, "/forms/post-edit", `{`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestFileItems(t *testing.T) {
	dir := testsupport.Workspace(t, map[string]string{
		"posts.json": `[{"title":"A"}]`,
		"all.yaml":   "- title: B\n- title: C\n",
	})
	fallback := filepath.Join(dir, "all.yaml")

	load := FileItems(dir, fallback)
	items, err := load(context.Background(), "posts", "posts.json")
	if err != nil {
		t.Fatalf("load view items: %v", err)
	}
	if diff := cmp.Diff([]field.Item{{"title": "A"}}, items); diff != "" {
		t.Fatalf("view items (-want +got):\n%s", diff)
	}

	items, err = load(context.Background(), "posts", "")
	if err != nil {
		t.Fatalf("load fallback: %v", err)
	}
	if diff := cmp.Diff([]field.Item{{"title": "B"}, {"title": "C"}}, items); diff != "" {
		t.Fatalf("fallback items (-want +got):\n%s", diff)
	}

	if items, err := FileItems(dir, "")(context.Background(), "posts", ""); err != nil || items != nil {
		t.Fatalf("expected no items, got %v %v", items, err)
	}
	if _, err := load(context.Background(), "posts", "missing.json"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestAssets(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/assets/dataviews.css", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), ".dataviews-table") {
		t.Fatalf("expected stylesheet, got %d", rec.Code)
	}
	page := do(t, srv, http.MethodGet, "/views/posts-table", "").Body.String()
	if !strings.Contains(page, `<link rel="stylesheet" href="/assets/dataviews.css">`) {
		t.Fatalf("expected stylesheet link in page")
	}
}
