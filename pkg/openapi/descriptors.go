package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-dataviews/pkg/field"
)

var (
	// ErrOperationNotFound is returned when no operation matches the id.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestBody is returned when the operation has no object body.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)

// Extension keys read from property schemas.
const (
	ExtensionType         = "x-dataviews-type"
	ExtensionEdit         = "x-dataviews-edit"
	ExtensionVisibleWhen  = "x-dataviews-visible-when"
	ExtensionGlobalSearch = "x-dataviews-global-search"
)

// Option customises document conversion.
type Option func(*config)

type config struct {
	logger   *zap.Logger
	validate bool
}

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValidation validates the document before conversion.
func WithValidation(enabled bool) Option {
	return func(c *config) {
		c.validate = enabled
	}
}

func load(ctx context.Context, data []byte, opts []Option) (*openapi3.T, config, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, cfg, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, cfg, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, cfg, fmt.Errorf("openapi: load document: %w", err)
	}
	if cfg.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, cfg, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return doc, cfg, nil
}

// Operations lists the operation ids of a document in sorted order.
// Operations without an id are listed as "method:path".
func Operations(ctx context.Context, data []byte, opts ...Option) ([]string, error) {
	doc, _, err := load(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	var ids []string
	eachOperation(doc, func(id string, _ *openapi3.Operation) bool {
		ids = append(ids, id)
		return true
	})
	sort.Strings(ids)
	return ids, nil
}

// Descriptors converts the JSON request body of operationID into field
// descriptors, one per top-level property, sorted by property name.
func Descriptors(ctx context.Context, data []byte, operationID string, opts ...Option) ([]field.Descriptor, error) {
	doc, cfg, err := load(ctx, data, opts)
	if err != nil {
		return nil, err
	}

	var operation *openapi3.Operation
	eachOperation(doc, func(id string, op *openapi3.Operation) bool {
		if id == operationID {
			operation = op
			return false
		}
		return true
	})
	if operation == nil {
		return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	body := requestSchema(operation.RequestBody)
	if body == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, operationID)
	}
	properties, required := collectProperties(body)
	if len(properties) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoRequestBody, operationID)
	}

	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	descriptors := make([]field.Descriptor, 0, len(names))
	for _, name := range names {
		desc, ok := convertProperty(name, properties[name], required[name])
		if !ok {
			cfg.logger.Debug("openapi: skipping unsupported property",
				zap.String("operation", operationID),
				zap.String("property", name),
			)
			continue
		}
		descriptors = append(descriptors, desc)
	}
	return descriptors, nil
}

var methods = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "HEAD", "OPTIONS", "TRACE"}

func eachOperation(doc *openapi3.T, fn func(id string, op *openapi3.Operation) bool) {
	if doc.Paths == nil {
		return
	}
	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for _, method := range methods {
			op := item.GetOperation(method)
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			if !fn(id, op) {
				return
			}
		}
	}
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

// collectProperties merges properties and required lists across allOf.
func collectProperties(schema *openapi3.Schema) (map[string]*openapi3.Schema, map[string]bool) {
	properties := make(map[string]*openapi3.Schema)
	required := make(map[string]bool)
	var walk func(*openapi3.Schema)
	walk = func(s *openapi3.Schema) {
		if s == nil {
			return
		}
		for _, part := range s.AllOf {
			if part != nil {
				walk(part.Value)
			}
		}
		for name, ref := range s.Properties {
			if ref != nil && ref.Value != nil {
				properties[name] = ref.Value
			}
		}
		for _, name := range s.Required {
			required[name] = true
		}
	}
	walk(schema)
	return properties, required
}

func convertProperty(name string, schema *openapi3.Schema, required bool) (field.Descriptor, bool) {
	fieldType, ok := mapType(schema)
	if override, has := stringExtension(schema.Extensions, ExtensionType); has {
		fieldType, ok = field.Type(override), true
	}
	if !ok {
		return field.Descriptor{}, false
	}

	desc := field.Descriptor{
		ID:          name,
		Type:        fieldType,
		Label:       strings.TrimSpace(schema.Title),
		Description: strings.TrimSpace(schema.Description),
		Required:    required,
	}

	enum := schema.Enum
	if fieldType == field.TypeArray && schema.Items != nil && schema.Items.Value != nil {
		enum = schema.Items.Value.Enum
	}
	for _, value := range enum {
		desc.Elements = append(desc.Elements, field.Element{
			Value: value,
			Label: field.DefaultLabeler(fmt.Sprint(value)),
		})
	}

	if edit, has := stringExtension(schema.Extensions, ExtensionEdit); has {
		desc.Edit = edit
	}
	if rule, has := stringExtension(schema.Extensions, ExtensionVisibleWhen); has {
		desc.VisibleWhen = rule
	}
	if search, has := schema.Extensions[ExtensionGlobalSearch].(bool); has {
		desc.EnableGlobalSearch = &search
	}
	return desc, true
}

func mapType(schema *openapi3.Schema) (field.Type, bool) {
	if schema.Type == nil {
		return field.TypeText, true
	}
	switch {
	case schema.Type.Is(openapi3.TypeString):
		switch schema.Format {
		case "email", "idn-email":
			return field.TypeEmail, true
		case "date", "date-time":
			return field.TypeDatetime, true
		case "binary", "byte":
			return field.TypeMedia, true
		}
		return field.TypeText, true
	case schema.Type.Is(openapi3.TypeInteger):
		return field.TypeInteger, true
	case schema.Type.Is(openapi3.TypeNumber):
		return field.TypeNumber, true
	case schema.Type.Is(openapi3.TypeBoolean):
		return field.TypeBoolean, true
	case schema.Type.Is(openapi3.TypeArray):
		return field.TypeArray, true
	}
	return "", false
}

func stringExtension(ext map[string]any, key string) (string, bool) {
	value, ok := ext[key].(string)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
