package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/form"
	"github.com/goliatone/go-dataviews/pkg/layouts"
	"github.com/goliatone/go-dataviews/pkg/render/html"
	"github.com/goliatone/go-dataviews/pkg/schema"
	"github.com/goliatone/go-dataviews/pkg/view"
)

const maxEditBytes = 1 << 20

type layoutInfo struct {
	Type    layouts.Type           `json:"type"`
	Label   string                 `json:"label"`
	Icon    string                 `json:"icon,omitempty"`
	Options []layouts.ConfigOption `json:"options,omitempty"`
}

// submitResult is the response to a form submission.
type submitResult struct {
	Item   field.Item          `json:"item"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"revision": s.source.Store().Revision(),
	})
}

// listLayouts reports the registered layouts. With ?set= the configuration
// options are resolved against that field set.
func (s *Server) listLayouts(w http.ResponseWriter, r *http.Request) {
	var fields []field.Field
	if set := r.URL.Query().Get("set"); set != "" {
		var err error
		if fields, err = s.source.Store().Fields(set); err != nil {
			s.fail(w, err)
			return
		}
	}

	out := make([]layoutInfo, 0)
	for _, t := range s.registry.Types() {
		entry := s.registry.MustGet(t)
		info := layoutInfo{Type: t, Label: entry.Label, Icon: entry.Icon}
		if entry.ConfigOptions != nil && fields != nil {
			info.Options = entry.ConfigOptions.Options(fields)
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listViews(w http.ResponseWriter, r *http.Request) {
	store := s.source.Store()
	writeJSON(w, http.StatusOK, map[string][]string{
		"views":     store.Views(),
		"forms":     store.Forms(),
		"fieldSets": store.FieldSets(),
	})
}

func (s *Server) renderView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	store := s.source.Store()
	doc, ok := store.View(name)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown view %q", name))
		return
	}
	fields, err := store.Fields(doc.FieldSet)
	if err != nil {
		s.fail(w, err)
		return
	}

	v := doc.View
	query := r.URL.Query()
	if layout := query.Get("layout"); layout != "" {
		v.Type = layout
	}
	if query.Has("search") {
		v.Search = query.Get("search")
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 0 {
		v.Page = page
	}
	if v.PerPage == 0 && s.perPage > 0 {
		v.PerPage = s.perPage
	}

	items, err := s.items(r.Context(), doc.FieldSet, doc.Items)
	if err != nil {
		s.fail(w, err)
		return
	}
	out, err := s.renderer.RenderView(r.Context(), s.registry, v, items, fields, html.PageOptions{
		Title:   field.DefaultLabeler(name),
		BaseURL: "/views/" + name,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeHTML(w, out)
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "form")
	doc, fields, item, ok := s.formContext(w, r, name)
	if !ok {
		return
	}
	layout, err := s.dispatcher.Dispatch(item, doc.Form, fields, nil)
	if err != nil {
		s.fail(w, err)
		return
	}
	action := "/forms/" + name
	if idx := r.URL.Query().Get("item"); idx != "" {
		action += "?item=" + idx
	}
	out, err := s.renderer.RenderForm(r.Context(), layout, html.FormOptions{
		Title:  field.DefaultLabeler(name),
		Action: action,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeHTML(w, out)
}

// submitForm merges JSON edits into the selected item and validates the
// result. Items are not persisted.
func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "form")
	doc, fields, item, ok := s.formContext(w, r, name)
	if !ok {
		return
	}

	var edits field.Edits
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEditBytes))
	if err := dec.Decode(&edits); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid edits: "+err.Error())
		return
	}

	merged := form.Apply(item, edits)
	errs, err := form.Validate(merged, doc.Form, fields)
	if err != nil {
		s.fail(w, err)
		return
	}
	status := http.StatusOK
	if len(errs) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, submitResult{Item: merged, Errors: errs})
}

func (s *Server) formContext(w http.ResponseWriter, r *http.Request, name string) (schema.Form, []field.Field, field.Item, bool) {
	store := s.source.Store()
	doc, ok := store.Form(name)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown form %q", name))
		return schema.Form{}, nil, nil, false
	}
	fields, err := store.Fields(doc.FieldSet)
	if err != nil {
		s.fail(w, err)
		return schema.Form{}, nil, nil, false
	}
	items, err := s.items(r.Context(), doc.FieldSet, "")
	if err != nil {
		s.fail(w, err)
		return schema.Form{}, nil, nil, false
	}

	idx := 0
	if raw := r.URL.Query().Get("item"); raw != "" {
		if idx, err = strconv.Atoi(raw); err != nil || idx < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_ITEM", "invalid item index: "+raw)
			return schema.Form{}, nil, nil, false
		}
	}
	switch {
	case idx < len(items):
		return doc, fields, items[idx], true
	case len(items) == 0 && idx == 0:
		return doc, fields, field.Item{}, true
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("item %d not found", idx))
		return schema.Form{}, nil, nil, false
	}
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, layouts.ErrUnknownLayout), errors.Is(err, schema.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, view.ErrUnknownField), errors.Is(err, view.ErrUnsupportedOperator), errors.Is(err, view.ErrNotSortable):
		writeError(w, http.StatusBadRequest, "INVALID_VIEW", err.Error())
	default:
		s.logger.Error("server: request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
