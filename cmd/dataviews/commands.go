package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/form"
	"github.com/goliatone/go-dataviews/pkg/openapi"
	"github.com/goliatone/go-dataviews/pkg/render/html"
	"github.com/goliatone/go-dataviews/pkg/render/tui"
	"github.com/goliatone/go-dataviews/pkg/schema"
	"github.com/goliatone/go-dataviews/pkg/server"
)

var (
	renderLayout string
	renderSearch string
	renderPage   int
	outputPath   string
	themePath    string
	themeVariant string
	itemIndex    int
	serveAddr    string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <dir> <field-set>",
	Short: "Print the normalized fields of a field set as JSON",
	Args:  cobra.ExactArgs(2),
	RunE:  runNormalize,
}

var openapiCmd = &cobra.Command{
	Use:   "openapi <document> [operation]",
	Short: "List operations or print the fields of an operation's request body",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runOpenAPI,
}

var renderCmd = &cobra.Command{
	Use:   "render <dir> <view>",
	Short: "Render a view as an HTML page",
	Args:  cobra.ExactArgs(2),
	RunE:  runRender,
}

var formCmd = &cobra.Command{
	Use:   "form <dir> <form>",
	Short: "Render an edit form for one item as HTML",
	Args:  cobra.ExactArgs(2),
	RunE:  runForm,
}

var editCmd = &cobra.Command{
	Use:   "edit <dir> <form>",
	Short: "Edit one item in the terminal and print the edits as JSON",
	Args:  cobra.ExactArgs(2),
	RunE:  runEdit,
}

var serveCmd = &cobra.Command{
	Use:   "serve <dir>",
	Short: "Serve a live preview that reloads when documents change",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func fieldOptions() []field.Option {
	opts := []field.Option{field.WithLogger(logger)}
	if strict {
		opts = append(opts, field.WithDuplicatePolicy(field.DuplicateReject))
	}
	return opts
}

func loadOptions() []schema.Option {
	return []schema.Option{schema.WithLogger(logger), schema.WithFieldOptions(fieldOptions()...)}
}

func loadStore(dir string) (*schema.Store, error) {
	return schema.LoadFS(os.DirFS(dir), loadOptions()...)
}

func newRenderer(extra ...html.Option) (*html.Renderer, error) {
	opts := append([]html.Option{html.WithLogger(logger)}, extra...)
	if themePath != "" {
		selector, err := themeSelector(themePath, themeVariant)
		if err != nil {
			return nil, err
		}
		opts = append(opts, html.WithTheme(selector, "", themeVariant))
	}
	return html.New(opts...)
}

func themeSelector(path, variant string) (theme.Selector, error) {
	manifest, err := theme.LoadFile(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return theme.Selector{}, fmt.Errorf("theme: %w", err)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return theme.Selector{}, fmt.Errorf("theme %q has no variant %q", manifest.Name, variant)
		}
	}
	provider := theme.NewRegistry()
	if err := provider.Register(manifest); err != nil {
		return theme.Selector{}, fmt.Errorf("theme: %w", err)
	}
	return theme.Selector{Registry: provider, DefaultTheme: manifest.Name, DefaultVariant: variant}, nil
}

func runNormalize(cmd *cobra.Command, args []string) error {
	store, err := loadStore(args[0])
	if err != nil {
		return err
	}
	fields, err := store.Fields(args[1])
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), fields)
}

func runOpenAPI(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	opts := []openapi.Option{openapi.WithLogger(logger)}
	if len(args) == 1 {
		ids, err := openapi.Operations(cmd.Context(), data, opts...)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	}

	descriptors, err := openapi.Descriptors(cmd.Context(), data, args[1], opts...)
	if err != nil {
		return err
	}
	fields, err := field.Normalize(descriptors, fieldOptions()...)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), fields)
}

func runRender(cmd *cobra.Command, args []string) error {
	dir, name := args[0], args[1]
	store, err := loadStore(dir)
	if err != nil {
		return err
	}
	doc, ok := store.View(name)
	if !ok {
		return fmt.Errorf("%w: view %q", schema.ErrNotFound, name)
	}
	fields, err := store.Fields(doc.FieldSet)
	if err != nil {
		return err
	}
	items, err := server.FileItems(dir, itemsPath)(cmd.Context(), doc.FieldSet, doc.Items)
	if err != nil {
		return err
	}

	v := doc.View
	if renderLayout != "" {
		v.Type = renderLayout
	}
	if renderSearch != "" {
		v.Search = renderSearch
	}
	if renderPage > 0 {
		v.Page = renderPage
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	registry, err := renderer.Registry()
	if err != nil {
		return err
	}
	out, err := renderer.RenderView(cmd.Context(), registry, v, items, fields, html.PageOptions{Title: field.DefaultLabeler(name)})
	if err != nil {
		return err
	}
	return writeOutput(cmd, out)
}

func runForm(cmd *cobra.Command, args []string) error {
	doc, fields, item, err := loadFormItem(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	layout, err := form.New(form.WithLogger(logger)).Dispatch(item, doc.Form, fields, nil)
	if err != nil {
		return err
	}
	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	errs, err := form.Validate(item, doc.Form, fields)
	if err != nil {
		return err
	}
	out, err := renderer.RenderForm(cmd.Context(), layout, html.FormOptions{Title: field.DefaultLabeler(args[1]), Errors: errs})
	if err != nil {
		return err
	}
	return writeOutput(cmd, out)
}

func runEdit(cmd *cobra.Command, args []string) error {
	doc, fields, item, err := loadFormItem(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	editor := tui.New(
		tui.WithLogger(logger),
		tui.WithOutput(cmd.ErrOrStderr()),
		tui.WithDispatcher(form.New(form.WithLogger(logger))),
	)
	edits, err := editor.Run(cmd.Context(), item, doc.Form, fields)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), edits)
}

func runServe(cmd *cobra.Command, args []string) error {
	dir := args[0]
	watcher, err := schema.NewWatcher(dir,
		schema.WithLoadOptions(loadOptions()...),
		schema.WithReloadHook(func(store *schema.Store, err error) {
			if err != nil {
				logger.Warn("schema reload failed, keeping previous documents", zap.Error(err))
				return
			}
			logger.Info("schema reloaded", zap.String("revision", store.Revision()))
		}),
	)
	if err != nil {
		return err
	}
	defer watcher.Close()

	renderer, err := newRenderer(html.WithStylesheet(server.StylesheetURL))
	if err != nil {
		return err
	}
	srv, err := server.New(watcher,
		server.WithLogger(logger),
		server.WithRenderer(renderer),
		server.WithItems(server.FileItems(dir, itemsPath)),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, serveAddr)
}

func loadFormItem(ctx context.Context, dir, name string) (schema.Form, []field.Field, field.Item, error) {
	store, err := loadStore(dir)
	if err != nil {
		return schema.Form{}, nil, nil, err
	}
	doc, ok := store.Form(name)
	if !ok {
		return schema.Form{}, nil, nil, fmt.Errorf("%w: form %q", schema.ErrNotFound, name)
	}
	fields, err := store.Fields(doc.FieldSet)
	if err != nil {
		return schema.Form{}, nil, nil, err
	}
	items, err := server.FileItems(dir, itemsPath)(ctx, doc.FieldSet, "")
	if err != nil {
		return schema.Form{}, nil, nil, err
	}
	switch {
	case itemIndex < 0:
		return schema.Form{}, nil, nil, fmt.Errorf("invalid item index %d", itemIndex)
	case itemIndex < len(items):
		return doc, fields, items[itemIndex], nil
	case len(items) == 0 && itemIndex == 0:
		return doc, fields, field.Item{}, nil
	default:
		return schema.Form{}, nil, nil, fmt.Errorf("item %d not found (%d items)", itemIndex, len(items))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutput(cmd *cobra.Command, data []byte) error {
	if outputPath == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", outputPath)
	return nil
}
