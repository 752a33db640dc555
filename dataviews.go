package dataviews

import (
	"context"
	"io/fs"
	"os"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/form"
	"github.com/goliatone/go-dataviews/pkg/render/html"
	"github.com/goliatone/go-dataviews/pkg/schema"
	"github.com/goliatone/go-dataviews/pkg/view"
)

// Descriptor aliases field.Descriptor so callers can declare fields from the
// top-level module.
type Descriptor = field.Descriptor

// Field aliases field.Field.
type Field = field.Field

// Item aliases field.Item.
type Item = field.Item

// Edits aliases field.Edits.
type Edits = field.Edits

// View aliases view.View.
type View = view.View

// Form aliases form.Form.
type Form = form.Form

// Normalize resolves descriptors into fields using the default type table,
// control registry and visibility evaluator.
func Normalize(descriptors []Descriptor, options ...field.Option) ([]Field, error) {
	return field.Normalize(descriptors, options...)
}

// Dispatch builds the form layout for data. onChange receives the edits
// produced by each control.
func Dispatch(data Item, f Form, fields []Field, onChange func(Edits)) (form.Layout, error) {
	return form.Dispatch(data, f, fields, onChange)
}

// LoadDir loads the field sets, forms and views under dir.
func LoadDir(dir string, options ...schema.Option) (*schema.Store, error) {
	return schema.LoadFS(os.DirFS(dir), options...)
}

// RenderView normalizes descriptors and renders items through the layout
// named by v.Type with the default HTML renderer. It is the simplest entry
// point for callers that just want a page.
func RenderView(ctx context.Context, descriptors []Descriptor, items []Item, v View, options ...html.Option) ([]byte, error) {
	fields, err := field.Normalize(descriptors)
	if err != nil {
		return nil, err
	}
	renderer, err := html.New(options...)
	if err != nil {
		return nil, err
	}
	registry, err := renderer.Registry()
	if err != nil {
		return nil, err
	}
	return renderer.RenderView(ctx, registry, v, items, fields, html.PageOptions{})
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or override them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// AssetsFS exposes the bundled stylesheet.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(dataviews.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return html.AssetsFS()
}
