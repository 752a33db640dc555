package html

import (
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/layouts"
	"github.com/goliatone/go-dataviews/pkg/view"
)

func (r *Renderer) tableContext(v view.View, items []field.Item, fields []field.Field) pongo2.Context {
	columns := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, map[string]any{"id": f.ID, "label": f.Header})
	}
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		cells := make([]string, 0, len(fields))
		for _, f := range fields {
			cells = append(cells, f.Render(item))
		}
		rows = append(rows, map[string]any{"cells": cells})
	}
	return pongo2.Context{
		"density": layouts.LayoutString(v.Layout, layouts.OptionDensity, "balanced"),
		"columns": columns,
		"rows":    rows,
	}
}

func (r *Renderer) gridContext(v view.View, items []field.Item, fields []field.Field) pongo2.Context {
	media, primary := cardFields(v, fields)
	badgeIDs := badgeFields(v)
	cards := make([]map[string]any, 0, len(items))
	for _, item := range items {
		card := itemCard(item, fields, media, primary)
		var badges []string
		for _, f := range fields {
			if badgeIDs[f.ID] {
				if text := f.Render(item); text != "" {
					badges = append(badges, text)
				}
			}
		}
		card["badges"] = badges
		cards = append(cards, card)
	}
	return pongo2.Context{"cards": cards}
}

func (r *Renderer) listContext(v view.View, items []field.Item, fields []field.Field) pongo2.Context {
	media, primary := cardFields(v, fields)
	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, itemCard(item, fields, media, primary))
	}
	return pongo2.Context{"rows": rows}
}

// cardFields picks the media and primary fields for card-like layouts from
// the view options, falling back to the first media and text fields.
func cardFields(v view.View, fields []field.Field) (media, primary string) {
	for _, f := range fields {
		if media == "" && f.Type == field.TypeMedia {
			media = f.ID
		}
		if primary == "" && f.Type == field.TypeText {
			primary = f.ID
		}
	}
	return layouts.LayoutString(v.Layout, layouts.OptionMediaField, media),
		layouts.LayoutString(v.Layout, layouts.OptionPrimaryField, primary)
}

func badgeFields(v view.View) map[string]bool {
	out := make(map[string]bool)
	list, ok := field.ToSlice(v.Layout[layouts.OptionBadgeFields])
	if !ok {
		return out
	}
	for _, id := range list {
		out[field.ToString(id)] = true
	}
	return out
}

func itemCard(item field.Item, fields []field.Field, media, primary string) map[string]any {
	card := map[string]any{}
	details := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		switch f.ID {
		case media:
			card["media"] = mediaURL(f.GetValue(item))
		case primary:
			card["title"] = f.Render(item)
		default:
			details = append(details, map[string]any{"label": f.Header, "value": f.Render(item)})
		}
	}
	card["fields"] = details
	return card
}

// mediaURL only accepts absolute http(s) or root-relative URLs.
func mediaURL(value any) string {
	url := strings.TrimSpace(field.ToString(value))
	switch {
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "http://"):
		return url
	case strings.HasPrefix(url, "/") && !strings.HasPrefix(url, "//"):
		return url
	}
	return ""
}
