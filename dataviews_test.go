package dataviews

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/goliatone/go-dataviews/pkg/testsupport"
)

func TestAssetsFSContainsStylesheet(t *testing.T) {
	data, err := fs.ReadFile(AssetsFS(), "dataviews.css")
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	if !strings.Contains(string(data), ".dataviews-grid") {
		t.Fatalf("expected stylesheet to style the grid layout")
	}
}

func TestEmbeddedTemplatesIncludeLayouts(t *testing.T) {
	for _, name := range []string{"page.tpl", "table.tpl", "grid.tpl", "list.tpl", "form.tpl"} {
		if _, err := fs.Stat(EmbeddedTemplates(), name); err != nil {
			t.Fatalf("expected template %s: %v", name, err)
		}
	}
}

func TestRenderView(t *testing.T) {
	descriptors := []Descriptor{
		{ID: "title", Type: "text"},
		{ID: "menu_order", Type: "integer"},
	}
	items := []Item{{"title": "First", "menu_order": 2}, {"title": "Second", "menu_order": 1}}

	out, err := RenderView(context.Background(), descriptors, items, View{Type: "table"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "First") || !strings.Contains(html, "Menu order") {
		t.Fatalf("unexpected output:\n%s", html)
	}
}

func TestDispatch(t *testing.T) {
	fields, err := Normalize([]Descriptor{{ID: "title", Type: "text"}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var got Edits
	layout, err := Dispatch(Item{"title": "a"}, Form{}, fields, func(e Edits) { got = e })
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !layout.Empty() {
		t.Fatalf("expected empty layout for a form without fields")
	}
	if got != nil {
		t.Fatalf("expected no edits")
	}
}

func TestLoadDir(t *testing.T) {
	dir := testsupport.Workspace(t, map[string]string{
		"posts.yaml": "fieldSets:\n  posts:\n    - {id: title, type: text}\n",
	})
	store, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	testsupport.AssertEqual(t, "field sets", []string{"posts"}, store.FieldSets())
}
