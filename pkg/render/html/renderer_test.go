package html

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/form"
	"github.com/goliatone/go-dataviews/pkg/layouts"
	"github.com/goliatone/go-dataviews/pkg/view"
)

type stubSelector struct {
	selection *theme.Selection
	err       error
	calls     int
}

func (s *stubSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls++
	return s.selection, s.err
}

func postFields(t *testing.T) []field.Field {
	t.Helper()
	yes := true
	return field.MustNormalize([]field.Descriptor{
		{ID: "title", Type: field.TypeText, EnableGlobalSearch: &yes},
		{ID: "status", Type: field.TypeText, Elements: []field.Element{
			{Value: "draft", Label: "Draft"},
			{Value: "publish", Label: "Published"},
		}},
		{ID: "featured_media", Type: field.TypeMedia},
		{ID: "menu_order", Type: field.TypeInteger},
	})
}

func postItems() []field.Item {
	return []field.Item{
		{"title": "Hello <world>", "status": "publish", "featured_media": "https://example.com/a.png", "menu_order": 1},
		{"title": "Draft post", "status": "draft", "featured_media": "javascript:alert(1)", "menu_order": 2},
	}
}

func newRenderer(t *testing.T, opts ...Option) (*Renderer, *layouts.Registry) {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	registry, err := r.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r, registry
}

func render(t *testing.T, r *Renderer, registry *layouts.Registry, v view.View) string {
	t.Helper()
	out, err := r.RenderView(context.Background(), registry, v, postItems(), postFields(t), PageOptions{Title: "Posts", BaseURL: "/views/posts"})
	if err != nil {
		t.Fatalf("render view: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(html, fragment) {
			t.Fatalf("expected output to contain %q:\n%s", fragment, html)
		}
	}
}

func TestRenderView_Table(t *testing.T) {
	r, registry := newRenderer(t)
	html := render(t, r, registry, view.View{Type: "table", Layout: map[string]any{layouts.OptionDensity: "compact"}})

	assertContains(t, html,
		"dataviews-table--compact",
		`<th data-field="featured_media">Featured media</th>`,
		"<td>Published</td>",
		"Hello &lt;world&gt;",
		`class="dataviews__layout is-active"`,
	)
	if strings.Contains(html, "Hello <world>") {
		t.Fatalf("expected item values to be escaped")
	}
}

func TestRenderView_GridAndList(t *testing.T) {
	r, registry := newRenderer(t)

	grid := render(t, r, registry, view.View{Type: "grid", Layout: map[string]any{layouts.OptionBadgeFields: []any{"status"}}})
	assertContains(t, grid,
		`<img class="dataviews-grid__media" src="https://example.com/a.png"`,
		`<span class="dataviews-badge">Published</span>`,
		`<h2 class="dataviews-grid__title">Draft post</h2>`,
	)
	if strings.Contains(grid, "javascript:") {
		t.Fatalf("expected unsafe media url to be dropped")
	}

	list := render(t, r, registry, view.View{Type: "list", Search: "draft"})
	assertContains(t, list, `<strong class="dataviews-list__title">Draft post</strong>`)
	if strings.Contains(list, "Hello &lt;world&gt;") {
		t.Fatalf("expected search to filter the list")
	}
}

func TestRenderView_Pagination(t *testing.T) {
	r, registry := newRenderer(t)
	html := render(t, r, registry, view.View{Type: "table", PerPage: 1, Page: 1})
	assertContains(t, html, "Page 1 of 2 (2 items)", "page=2")
}

func TestRenderView_UnknownLayout(t *testing.T) {
	r, registry := newRenderer(t)
	_, err := r.RenderView(context.Background(), registry, view.View{Type: "kanban"}, postItems(), postFields(t), PageOptions{})
	if !errors.Is(err, layouts.ErrUnknownLayout) {
		t.Fatalf("expected ErrUnknownLayout, got %v", err)
	}
}

func TestRenderView_CancelledContext(t *testing.T) {
	r, registry := newRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderView(ctx, registry, view.View{Type: "table"}, postItems(), postFields(t), PageOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRenderForm(t *testing.T) {
	r, _ := newRenderer(t)
	fields := postFields(t)
	f := form.Form{
		Type: form.LayoutPanel,
		Fields: []form.Ref{
			{ID: "title"},
			form.Group("meta", "Meta", "status", "menu_order"),
		},
	}
	layout, err := form.Dispatch(postItems()[0], f, fields, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	out, err := r.RenderForm(context.Background(), layout, FormOptions{
		Title:  "Edit post",
		Action: "/forms/post-edit",
		Errors: map[string][]string{"menu_order": {"must be positive"}},
	})
	if err != nil {
		t.Fatalf("render form: %v", err)
	}
	html := string(out)
	assertContains(t, html,
		`dataviews-form--panel`,
		`action="/forms/post-edit"`,
		`<legend>Meta</legend>`,
		`<input type="radio" name="status" value="publish" checked>`,
		`type="number"`,
		`must be positive`,
		`value="Hello &lt;world&gt;"`,
	)
}

func TestRenderForm_Empty(t *testing.T) {
	r, _ := newRenderer(t)
	out, err := r.RenderForm(context.Background(), form.Layout{Type: form.LayoutRegular}, FormOptions{})
	if err != nil {
		t.Fatalf("render form: %v", err)
	}
	if strings.Contains(string(out), "<button") {
		t.Fatalf("expected no submit button for an empty form")
	}
}

func TestRenderer_ThemeTokens(t *testing.T) {
	selector := &stubSelector{selection: &theme.Selection{
		Theme:   "acme",
		Variant: "dark",
		Manifest: &theme.Manifest{
			Name:   "acme",
			Tokens: map[string]string{"brand": "#123456", "bad": "red;}</style>", "surface": "#fff"},
			Variants: map[string]theme.Variant{
				"dark": {Tokens: map[string]string{"surface": "#000"}},
			},
		},
	}}
	r, registry := newRenderer(t, WithTheme(selector, "acme", "dark"))
	html := render(t, r, registry, view.View{Type: "table"})

	assertContains(t, html, `data-theme="acme"`, "--brand:#123456;", "--surface:#000;")
	if strings.Contains(html, "--bad") {
		t.Fatalf("expected unsafe token value dropped")
	}
	if selector.calls == 0 {
		t.Fatalf("expected selector to be consulted")
	}
}

func TestRenderer_ThemeErrorFallsBack(t *testing.T) {
	selector := &stubSelector{err: errors.New("no such theme")}
	r, registry := newRenderer(t, WithTheme(selector, "missing", ""))
	html := render(t, r, registry, view.View{Type: "table"})
	if strings.Contains(html, "data-theme") {
		t.Fatalf("expected page without theme block")
	}
}

func TestRenderer_TemplateOverride(t *testing.T) {
	overrides := fstest.MapFS{
		"list.tpl": {Data: []byte(`<ol class="custom">{% for row in rows %}<li>{{ row.title }}</li>{% endfor %}</ol>`)},
	}
	r, registry := newRenderer(t, WithTemplates(overrides))
	html := render(t, r, registry, view.View{Type: "list"})
	assertContains(t, html, `<ol class="custom"><li>Hello &lt;world&gt;</li><li>Draft post</li></ol>`)
}

func TestRenderer_ThemeFromRegistry(t *testing.T) {
	dir := t.TempDir()
	data := "name: acme\nversion: 1.0.0\ntokens:\n  brand: \"#111\"\n  surface: \"#fff\"\nvariants:\n  dark:\n    tokens:\n      brand: \"#222\"\n"
	if err := os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	manifest, err := theme.LoadFile(os.DirFS(dir), "acme.yaml")
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	provider := theme.NewRegistry()
	if err := provider.Register(manifest); err != nil {
		t.Fatalf("register manifest: %v", err)
	}
	selector := theme.Selector{Registry: provider, DefaultTheme: "acme"}

	r, registry := newRenderer(t, WithTheme(selector, "", "dark"))
	html := render(t, r, registry, view.View{Type: "table"})
	assertContains(t, html, `data-theme="acme"`, `data-variant="dark"`, "--brand:#222;", "--surface:#fff;")

	r, registry = newRenderer(t, WithTheme(selector, "other", ""))
	html = render(t, r, registry, view.View{Type: "table"})
	assertContains(t, html, "--brand:#111;")
}

func TestRenderer_ThemeUnknownWithoutDefault(t *testing.T) {
	selector := theme.Selector{Registry: theme.NewRegistry()}
	r, registry := newRenderer(t, WithTheme(selector, "missing", ""))
	html := render(t, r, registry, view.View{Type: "table"})
	if strings.Contains(html, "data-theme") {
		t.Fatalf("expected page without theme block")
	}
}
