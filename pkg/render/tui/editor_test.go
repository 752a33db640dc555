package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dataviews/pkg/field"
	"github.com/goliatone/go-dataviews/pkg/form"
)

type stubDriver struct {
	inputs    []string
	selectIdx []int
	multiIdx  [][]int
	confirm   []bool
	info      []string
	messages  []string

	inputPos   int
	selectPos  int
	multiPos   int
	confirmPos int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	s.messages = append(s.messages, cfg.Message)
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

func editorFields(t *testing.T) []field.Field {
	t.Helper()
	return field.MustNormalize([]field.Descriptor{
		{ID: "title", Type: field.TypeText, Required: true},
		{ID: "status", Type: field.TypeText, Elements: []field.Element{
			{Value: "draft", Label: "Draft"},
			{Value: "publish", Label: "Published"},
		}},
		{ID: "password", Type: field.TypeText, VisibleWhen: `status == "publish"`},
		{ID: "menu_order", Type: field.TypeInteger},
		{ID: "sticky", Type: field.TypeBoolean},
		{ID: "tags", Type: field.TypeArray, Elements: []field.Element{
			{Value: "news", Label: "News"},
			{Value: "ui", Label: "UI"},
		}},
	})
}

func editorForm() form.Form {
	return form.Form{Fields: []form.Ref{
		{ID: "title"},
		{ID: "status"},
		{ID: "password"},
		form.Group("meta", "Meta", "menu_order", "sticky"),
		{ID: "tags"},
	}}
}

func TestEditor_Run(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"", "New title", "secret", "abc", "1"},
		selectIdx: []int{1},
		confirm:   []bool{true},
		multiIdx:  [][]int{{0, 1}},
	}
	editor := New(WithPromptDriver(driver))

	item := field.Item{"title": "Old", "status": "draft", "menu_order": 1}
	edits, err := editor.Run(context.Background(), item, editorForm(), editorFields(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := field.Edits{
		"title":    "New title",
		"status":   "publish",
		"password": "secret",
		"sticky":   true,
		"tags":     []any{"news", "ui"},
	}
	if diff := cmp.Diff(want, edits); diff != "" {
		t.Fatalf("edits mismatch (-want +got):\n%s", diff)
	}

	wantMessages := []string{"Title", "Title", "Status", "Password", "Menu order", "Menu order", "Sticky", "Tags"}
	if diff := cmp.Diff(wantMessages, driver.messages); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}

	if len(driver.info) != 3 {
		t.Fatalf("expected three info messages, got %v", driver.info)
	}
	if !strings.HasPrefix(driver.info[0], "Invalid Title") || driver.info[1] != "Meta" || !strings.HasPrefix(driver.info[2], "Invalid Menu order") {
		t.Fatalf("unexpected info messages: %v", driver.info)
	}
	if item["title"] != "Old" {
		t.Fatalf("input item mutated")
	}
}

func TestEditor_HiddenFieldNotAsked(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Title"},
		selectIdx: []int{2},
	}
	editor := New(WithPromptDriver(driver))
	f := form.Fields("title", "status", "password")

	edits, err := editor.Run(context.Background(), field.Item{"status": "draft"}, f, editorFields(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := field.Edits{"title": "Title", "status": nil}
	if diff := cmp.Diff(want, edits); diff != "" {
		t.Fatalf("edits mismatch (-want +got):\n%s", diff)
	}
	for _, msg := range driver.messages {
		if msg == "Password" {
			t.Fatalf("password should stay hidden")
		}
	}
}

func TestEditor_NestedFieldsCompareByPath(t *testing.T) {
	fields, err := field.Normalize([]field.Descriptor{
		{ID: "author.name", Type: "text"},
		{ID: "author.city", Type: "text"},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	driver := &stubDriver{inputs: []string{"Ada", "Paris"}}
	editor := New(WithPromptDriver(driver))
	item := field.Item{"author": map[string]any{"name": "Ada", "city": "Rome"}}

	edits, err := editor.Run(context.Background(), item, form.Fields("author.name", "author.city"), fields)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := field.Edits{"author.city": "Paris"}
	if diff := cmp.Diff(want, edits); diff != "" {
		t.Fatalf("edits mismatch (-want +got):\n%s", diff)
	}
}

func TestEditor_Aborted(t *testing.T) {
	editor := New(WithPromptDriver(abortingDriver{&stubDriver{}}))
	_, err := editor.Run(context.Background(), field.Item{}, form.Fields("title"), editorFields(t))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestEditor_EmptyForm(t *testing.T) {
	editor := New(WithPromptDriver(&stubDriver{}))
	edits, err := editor.Run(context.Background(), field.Item{"title": "x"}, form.Form{}, editorFields(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(edits) != 0 {
		t.Fatalf("expected no edits, got %v", edits)
	}
}

type abortingDriver struct{ *stubDriver }

func (abortingDriver) Input(context.Context, InputConfig) (string, error) { return "", ErrAborted }

func TestParsers(t *testing.T) {
	if v, err := parseInteger("42"); err != nil || v != int64(42) {
		t.Fatalf("parseInteger: %v %v", v, err)
	}
	if _, err := parseInteger("4.2"); err == nil {
		t.Fatalf("expected integer parse error")
	}
	if v, err := parseDatetime("2024-05-01"); err != nil || v != "2024-05-01T00:00:00Z" {
		t.Fatalf("parseDatetime: %v %v", v, err)
	}
	if v, _ := parseList(" a, ,b "); !cmp.Equal(v, []any{"a", "b"}) {
		t.Fatalf("parseList: %v", v)
	}
	if v, _ := parseString(""); v != nil {
		t.Fatalf("expected nil for empty string")
	}
}
