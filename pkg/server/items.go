package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dataviews/pkg/field"
)

// ItemsFunc loads the records for a field set. path is the items file named
// by a view document, empty for forms.
type ItemsFunc func(ctx context.Context, fieldSet, path string) ([]field.Item, error)

func noItems(context.Context, string, string) ([]field.Item, error) { return nil, nil }

// FileItems reads items from JSON or YAML files. Relative view paths resolve
// against dir; fallback is used when a view names no file and for forms.
func FileItems(dir, fallback string) ItemsFunc {
	return func(ctx context.Context, _ string, path string) ([]field.Item, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch {
		case path != "" && !filepath.IsAbs(path):
			path = filepath.Join(dir, path)
		case path == "":
			path = fallback
		}
		if path == "" {
			return nil, nil
		}
		return ReadItems(path)
	}
}

// ReadItems decodes a file holding an array of objects.
func ReadItems(path string) ([]field.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server: read items: %w", err)
	}
	var items []field.Item
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &items)
	} else {
		err = yaml.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("server: decode items %s: %w", path, err)
	}
	return items, nil
}
