package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dataviews/pkg/field"
)

const postsAPI = `
openapi: 3.0.3
info:
  title: Posts
  version: 1.0.0
paths:
  /posts:
    post:
      operationId: createPost
      requestBody:
        content:
          application/json:
            schema:
              allOf:
                - type: object
                  required: [title]
                  properties:
                    title:
                      type: string
                      title: Post title
                      x-dataviews-global-search: true
                - type: object
                  properties:
                    status:
                      type: string
                      enum: [draft, publish]
                    password:
                      type: string
                      x-dataviews-visible-when: status == "publish"
                    author_email:
                      type: string
                      format: email
                    date:
                      type: string
                      format: date-time
                    menu_order:
                      type: integer
                    rating:
                      type: number
                    sticky:
                      type: boolean
                    tags:
                      type: array
                      items:
                        type: string
                        enum: [news, ui]
                    featured_media:
                      type: integer
                      x-dataviews-type: media
                      x-dataviews-edit: media
                    meta:
                      type: object
      responses:
        "201":
          description: created
    get:
      responses:
        "200":
          description: ok
`

func TestDescriptors(t *testing.T) {
	descriptors, err := Descriptors(context.Background(), []byte(postsAPI), "createPost")
	if err != nil {
		t.Fatalf("descriptors: %v", err)
	}
	yes := true
	want := []field.Descriptor{
		{ID: "author_email", Type: field.TypeEmail},
		{ID: "date", Type: field.TypeDatetime},
		{ID: "featured_media", Type: field.TypeMedia, Edit: "media"},
		{ID: "menu_order", Type: field.TypeInteger},
		{ID: "password", Type: field.TypeText, VisibleWhen: `status == "publish"`},
		{ID: "rating", Type: field.TypeNumber},
		{ID: "status", Type: field.TypeText, Elements: []field.Element{
			{Value: "draft", Label: "Draft"},
			{Value: "publish", Label: "Publish"},
		}},
		{ID: "sticky", Type: field.TypeBoolean},
		{ID: "tags", Type: field.TypeArray, Elements: []field.Element{
			{Value: "news", Label: "News"},
			{Value: "ui", Label: "Ui"},
		}},
		{ID: "title", Type: field.TypeText, Label: "Post title", Required: true, EnableGlobalSearch: &yes},
	}
	if diff := cmp.Diff(want, descriptors); diff != "" {
		t.Fatalf("descriptors mismatch (-want +got):\n%s", diff)
	}

	if _, err := field.Normalize(descriptors); err != nil {
		t.Fatalf("converted descriptors should normalize: %v", err)
	}
}

func TestOperations(t *testing.T) {
	ids, err := Operations(context.Background(), []byte(postsAPI))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	if diff := cmp.Diff([]string{"createPost", "get:/posts"}, ids); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestDescriptors_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Descriptors(ctx, []byte(postsAPI), "deletePost"); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
	if _, err := Descriptors(ctx, []byte(postsAPI), "get:/posts"); !errors.Is(err, ErrNoRequestBody) {
		t.Fatalf("expected ErrNoRequestBody, got %v", err)
	}
	if _, err := Descriptors(ctx, []byte("   "), "createPost"); err == nil {
		t.Fatalf("expected error for empty document")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Descriptors(cancelled, []byte(postsAPI), "createPost"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
