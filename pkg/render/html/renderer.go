package html

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"
	"go.uber.org/zap"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/form"
	"github.com/goliatone/go-dataviews/pkg/layouts"
	"github.com/goliatone/go-dataviews/pkg/view"
)

//go:embed templates/*.tpl assets/*.css
var embedded embed.FS

// TemplatesFS returns the bundled templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// AssetsFS returns the bundled stylesheet. Mount it and pass its URL to
// WithStylesheet:
//
//	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServerFS(html.AssetsFS())))
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithTemplates layers fsys over the bundled templates. Files with the same
// name replace the bundled ones.
func WithTemplates(fsys fs.FS) Option {
	return func(r *Renderer) {
		r.overrides = fsys
	}
}

// WithTheme selects a go-theme theme whose tokens are exposed as CSS custom
// properties on rendered pages.
func WithTheme(selector theme.ThemeSelector, name, variant string) Option {
	return func(r *Renderer) {
		r.selector = selector
		r.themeName = name
		r.themeVariant = variant
	}
}

// WithStylesheet links a stylesheet from every page.
func WithStylesheet(url string) Option {
	return func(r *Renderer) {
		r.stylesheet = url
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer produces HTML for view layouts and edit forms.
type Renderer struct {
	engine       *engine
	overrides    fs.FS
	selector     theme.ThemeSelector
	themeName    string
	themeVariant string
	stylesheet   string
	logger       *zap.Logger
}

// New constructs a Renderer.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	eng, err := newEngine(r.overrides, TemplatesFS())
	if err != nil {
		return nil, err
	}
	r.engine = eng
	return r, nil
}

// Components returns the table, grid and list layout components.
func (r *Renderer) Components() map[layouts.Type]layouts.Component {
	return map[layouts.Type]layouts.Component{
		layouts.TypeTable: r.component(r.tableContext, "table"),
		layouts.TypeGrid:  r.component(r.gridContext, "grid"),
		layouts.TypeList:  r.component(r.listContext, "list"),
	}
}

// Registry builds a layout registry backed by this renderer.
func (r *Renderer) Registry() (*layouts.Registry, error) {
	return layouts.NewRegistry(layouts.Defaults(r.Components())...)
}

type contextBuilder func(v view.View, items []field.Item, fields []field.Field) pongo2.Context

func (r *Renderer) component(build contextBuilder, name string) layouts.Component {
	return layouts.ComponentFunc(func(ctx context.Context, v view.View, items []field.Item, fields []field.Field) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := r.engine.render(name, build(v, items, fields))
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	})
}

// PageOptions decorates a full page.
type PageOptions struct {
	Title string
	// BaseURL is used for layout switcher and pagination links.
	BaseURL string
}

// RenderView applies v to items, renders the page through the layout
// registered for v.Type and wraps it in a page with a layout switcher and
// pagination. Unknown layout types fail with layouts.ErrUnknownLayout.
func (r *Renderer) RenderView(ctx context.Context, registry *layouts.Registry, v view.View, items []field.Item, fields []field.Field, opts PageOptions) ([]byte, error) {
	entry, err := registry.Get(layouts.Type(v.Type))
	if err != nil {
		return nil, err
	}
	result, err := view.Apply(items, fields, v)
	if err != nil {
		return nil, err
	}
	body, err := entry.Component.Render(ctx, v, result.Items, view.VisibleFields(fields, v))
	if err != nil {
		return nil, fmt.Errorf("html: render %s layout: %w", entry.Type, err)
	}

	switcher := make([]map[string]any, 0)
	for _, t := range registry.Types() {
		e := registry.MustGet(t)
		switcher = append(switcher, map[string]any{
			"type":   string(t),
			"label":  e.Label,
			"icon":   e.Icon,
			"active": t == entry.Type,
		})
	}

	page := max(v.Page, 1)
	data := pongo2.Context{
		"title":    opts.Title,
		"base_url": opts.BaseURL,
		"layouts":  switcher,
		"body":     string(body),
		"search":   v.Search,
		"page":     page,
		"pages":    result.TotalPages,
		"total":    result.TotalItems,
		"has_prev": page > 1,
		"has_next": page < result.TotalPages,
		"prev":     page - 1,
		"next":     page + 1,
		"layout":   string(entry.Type),
	}
	return r.page(data)
}

// FormOptions decorates a rendered form.
type FormOptions struct {
	Title  string
	Action string
	// Errors are shown next to the matching controls, keyed by field id.
	Errors map[string][]string
}

// RenderForm renders a dispatched form layout as a standalone page.
func (r *Renderer) RenderForm(ctx context.Context, layout form.Layout, opts FormOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes, err := r.renderNodes(layout.Nodes, opts.Errors)
	if err != nil {
		return nil, err
	}
	body, err := r.engine.render("form", pongo2.Context{
		"layout":   string(layout.Type),
		"action":   opts.Action,
		"nodes":    nodes,
		"is_empty": layout.Empty(),
	})
	if err != nil {
		return nil, err
	}
	return r.page(pongo2.Context{"title": opts.Title, "body": body, "pages": 0})
}

func (r *Renderer) page(data pongo2.Context) ([]byte, error) {
	resolved, err := resolveTheme(r.selector, r.themeName, r.themeVariant)
	if err != nil {
		r.logger.Warn("html: theme unavailable, rendering without tokens", zap.Error(err))
	}
	data["stylesheet"] = r.stylesheet
	if resolved != nil {
		data["theme"] = resolved.Name
		data["variant"] = resolved.Variant
		data["css_vars"] = resolved.CSSVars()
	}
	out, err := r.engine.render("page", data)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (r *Renderer) renderNodes(nodes []form.Node, errs map[string][]string) ([]string, error) {
	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if node.Kind == form.KindGroup {
			children, err := r.renderNodes(node.Children, errs)
			if err != nil {
				return nil, err
			}
			html, err := r.engine.render("group", pongo2.Context{
				"id":        node.ID,
				"label":     node.Label,
				"direction": string(node.Direction),
				"children":  children,
			})
			if err != nil {
				return nil, err
			}
			out = append(out, html)
			continue
		}
		html, err := r.engine.render("control", controlContext(node, errs[node.Field.ID]))
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

func controlContext(node form.Node, extra []string) pongo2.Context {
	f := node.Field
	value := node.Value
	selected := make(map[string]bool)
	if list, ok := field.ToSlice(value); ok {
		for _, v := range list {
			selected[field.ToString(v)] = true
		}
	} else if value != nil {
		selected[field.ToString(value)] = true
	}

	options := make([]map[string]any, 0, len(f.Elements))
	for _, el := range f.Elements {
		key := field.ToString(el.Value)
		options = append(options, map[string]any{
			"value":       key,
			"label":       el.Label,
			"description": el.Description,
			"selected":    selected[key],
		})
	}

	text := field.ToString(value)
	if list, ok := field.ToSlice(value); ok {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			parts = append(parts, field.ToString(v))
		}
		text = strings.Join(parts, ", ")
	}
	if f.Type == field.TypeDatetime {
		if ts, ok := field.ToTime(value); ok {
			text = ts.UTC().Format("2006-01-02T15:04")
		}
	}
	checked, _ := value.(bool)

	return pongo2.Context{
		"id":          f.ID,
		"label":       f.Label,
		"description": f.Description,
		"required":    f.Required,
		"control":     node.Control,
		"value":       text,
		"display":     node.Display,
		"checked":     checked,
		"options":     options,
		"errors":      append(append([]string(nil), node.Errors...), extra...),
	}
}
