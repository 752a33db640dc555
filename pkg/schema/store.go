package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-dataviews/pkg/field"
)

// ErrNotFound is returned when a named field set, form or view is missing.
var ErrNotFound = errors.New("schema: not found")

// Option customises loading.
type Option func(*config)

type config struct {
	logger      *zap.Logger
	fieldOpts   []field.Option
	defaultType string
}

// WithLogger injects a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFieldOptions forwards options to field normalization.
func WithFieldOptions(opts ...field.Option) Option {
	return func(c *config) {
		c.fieldOpts = append(c.fieldOpts, opts...)
	}
}

// WithDefaultViewType sets the layout type of views that omit one.
func WithDefaultViewType(t string) Option {
	return func(c *config) {
		if t != "" {
			c.defaultType = t
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{logger: zap.NewNop(), defaultType: "table"}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Store holds the field sets, forms and views loaded from a directory tree.
// A Store is immutable; reloads build a new one.
type Store struct {
	revision  string
	fieldSets map[string][]field.Descriptor
	forms     map[string]Form
	views     map[string]View
	memos     map[string]*field.Memo
}

// LoadFS walks fsys and parses every JSON/YAML document. Names must be unique
// across files; forms and views must reference a declared field set. A nil
// fsys yields an empty store.
func LoadFS(fsys fs.FS, opts ...Option) (*Store, error) {
	cfg := newConfig(opts)
	store := &Store{
		fieldSets: make(map[string][]field.Descriptor),
		forms:     make(map[string]Form),
		views:     make(map[string]View),
		memos:     make(map[string]*field.Memo),
	}
	if fsys == nil {
		return store, nil
	}

	hash := sha256.New()
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDocumentFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		hash.Write([]byte(path))
		hash.Write(data)

		if isSequence(data) {
			cfg.logger.Debug("schema: skipping items file", zap.String("path", path))
			return nil
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		cfg.logger.Debug("schema: loaded document",
			zap.String("path", path),
			zap.Int("fieldSets", len(doc.FieldSets)),
			zap.Int("forms", len(doc.Forms)),
			zap.Int("views", len(doc.Views)),
		)
		return store.merge(doc, path, cfg)
	})
	if err != nil {
		return nil, err
	}

	if err := store.checkReferences(); err != nil {
		return nil, err
	}
	for name := range store.fieldSets {
		store.memos[name] = field.NewMemo(append([]field.Option{field.WithLogger(cfg.logger)}, cfg.fieldOpts...)...)
	}
	store.revision = hex.EncodeToString(hash.Sum(nil))
	return store, nil
}

func (s *Store) merge(doc document, path string, cfg config) error {
	for raw, descriptors := range doc.FieldSets {
		name := strings.TrimSpace(raw)
		if name == "" {
			return fmt.Errorf("schema: file %s defines a field set with an empty name", path)
		}
		if _, exists := s.fieldSets[name]; exists {
			return fmt.Errorf("schema: duplicate field set %q (file %s)", name, path)
		}
		s.fieldSets[name] = descriptors
	}
	for raw, f := range doc.Forms {
		name := strings.TrimSpace(raw)
		if name == "" {
			return fmt.Errorf("schema: file %s defines a form with an empty name", path)
		}
		if _, exists := s.forms[name]; exists {
			return fmt.Errorf("schema: duplicate form %q (file %s)", name, path)
		}
		s.forms[name] = f
	}
	for raw, v := range doc.Views {
		name := strings.TrimSpace(raw)
		if name == "" {
			return fmt.Errorf("schema: file %s defines a view with an empty name", path)
		}
		if _, exists := s.views[name]; exists {
			return fmt.Errorf("schema: duplicate view %q (file %s)", name, path)
		}
		if v.Type == "" {
			v.Type = cfg.defaultType
		}
		s.views[name] = v
	}
	return nil
}

func (s *Store) checkReferences() error {
	for _, name := range sortedKeys(s.forms) {
		if _, ok := s.fieldSets[s.forms[name].FieldSet]; !ok {
			return fmt.Errorf("schema: form %q references unknown field set %q", name, s.forms[name].FieldSet)
		}
	}
	for _, name := range sortedKeys(s.views) {
		if _, ok := s.fieldSets[s.views[name].FieldSet]; !ok {
			return fmt.Errorf("schema: view %q references unknown field set %q", name, s.views[name].FieldSet)
		}
	}
	return nil
}

// Revision identifies the loaded content. Identical trees share a revision.
func (s *Store) Revision() string {
	if s == nil {
		return ""
	}
	return s.revision
}

// Descriptors returns the raw descriptors of a field set.
func (s *Store) Descriptors(name string) ([]field.Descriptor, bool) {
	if s == nil {
		return nil, false
	}
	descriptors, ok := s.fieldSets[name]
	if !ok {
		return nil, false
	}
	return append([]field.Descriptor(nil), descriptors...), true
}

// Fields normalizes a field set. The result is memoized for the lifetime of
// the store.
func (s *Store) Fields(name string) ([]field.Field, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: field set %q", ErrNotFound, name)
	}
	descriptors, ok := s.fieldSets[name]
	if !ok {
		return nil, fmt.Errorf("%w: field set %q", ErrNotFound, name)
	}
	fields, err := s.memos[name].Fields(s.revision, func() []field.Descriptor { return descriptors })
	if err != nil {
		return nil, fmt.Errorf("schema: field set %q: %w", name, err)
	}
	return fields, nil
}

// Form returns a form document.
func (s *Store) Form(name string) (Form, bool) {
	if s == nil {
		return Form{}, false
	}
	f, ok := s.forms[name]
	return f, ok
}

// View returns a view document.
func (s *Store) View(name string) (View, bool) {
	if s == nil {
		return View{}, false
	}
	v, ok := s.views[name]
	return v, ok
}

// FieldSets lists field set names in sorted order.
func (s *Store) FieldSets() []string {
	if s == nil {
		return nil
	}
	return sortedKeys(s.fieldSets)
}

// Forms lists form names in sorted order.
func (s *Store) Forms() []string {
	if s == nil {
		return nil
	}
	return sortedKeys(s.forms)
}

// Views lists view names in sorted order.
func (s *Store) Views() []string {
	if s == nil {
		return nil
	}
	return sortedKeys(s.views)
}

// Empty reports whether the store holds anything.
func (s *Store) Empty() bool {
	return s == nil || (len(s.fieldSets) == 0 && len(s.forms) == 0 && len(s.views) == 0)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
