package html

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

const templateExt = ".tpl"

// engine wraps a pongo2 template set with a compiled template cache.
type engine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

func newEngine(sources ...fs.FS) (*engine, error) {
	var loaders []pongo2.TemplateLoader
	for _, src := range sources {
		if src != nil {
			loaders = append(loaders, pongo2.NewFSLoader(src))
		}
	}
	if len(loaders) == 0 {
		return nil, errors.New("html: no template sources")
	}
	registerFilters()
	return &engine{
		set:       pongo2.NewSet("dataviews", loaders...),
		templates: make(map[string]*pongo2.Template),
	}, nil
}

func (e *engine) render(name string, data pongo2.Context) (string, error) {
	path := name
	if !strings.HasSuffix(path, templateExt) {
		path += templateExt
	}
	tmpl, err := e.template(path)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(data, &buf); err != nil {
		return "", fmt.Errorf("html: execute template %q: %w", path, err)
	}
	return buf.String(), nil
}

func (e *engine) template(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("html: load template %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}

var filtersOnce sync.Once

// registerFilters installs the package filters into pongo2's global filter
// table once per process.
func registerFilters() {
	filtersOnce.Do(func() {
		if !pongo2.FilterExists("dv_attr") {
			pongo2.RegisterFilter("dv_attr", filterAttr)
		}
	})
}

// filterAttr turns a value into a token safe for class and data attributes.
func filterAttr(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var b strings.Builder
	for _, r := range strings.ToLower(in.String()) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return pongo2.AsValue(b.String()), nil
}
