package records_test

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/commands/records"
	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/pkg/testsupport"
)

func newRegistry(t *testing.T, backend *testsupport.Backend) *resources.Registry {
	t.Helper()
	client, err := apiclient.New(backend.Server(t).URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return resources.NewRegistry(client, resources.Deps{})
}

func TestDeleteRecordCommandValidation(t *testing.T) {
	h := records.NewDeleteRecordHandler(nil, nil)
	err := h.Execute(context.Background(), records.DeleteRecordCommand{Resource: "blogs"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteRecordSoftDeletesBlogs(t *testing.T) {
	backend := testsupport.NewBackend()
	id := backend.Seed("blogs", map[string]any{"title": "Old news"})[0]
	h := records.NewDeleteRecordHandler(newRegistry(t, backend), nil)

	err := h.Execute(context.Background(), records.DeleteRecordCommand{Resource: "blogs", ID: id, IdempotencyKey: "k-1"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	calls := backend.CallsTo(http.MethodPatch, "/blogs/"+id)
	if len(calls) != 1 || calls[0].IdempotencyKey != "k-1" {
		t.Fatalf("expected one keyed soft delete, got %+v", calls)
	}
	if backend.Record("blogs", id)["isDeleted"] != true {
		t.Fatalf("expected isDeleted flag")
	}
}

func TestDeleteRecordUnknownResource(t *testing.T) {
	backend := testsupport.NewBackend()
	h := records.NewDeleteRecordHandler(newRegistry(t, backend), nil)

	err := h.Execute(context.Background(), records.DeleteRecordCommand{Resource: "widgets", ID: "1"})
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found category, got %v", err)
	}
}

func TestDeleteRecordPropagatesBackendNotFound(t *testing.T) {
	backend := testsupport.NewBackend()
	h := records.NewDeleteRecordHandler(newRegistry(t, backend), nil)

	err := h.Execute(context.Background(), records.DeleteRecordCommand{Resource: "books", ID: "missing"})
	if !apiclient.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetVisibility(t *testing.T) {
	backend := testsupport.NewBackend()
	id := backend.Seed("testimonial", map[string]any{"clientName": "Marco", "isVisible": true})[0]
	h := records.NewSetVisibilityHandler(newRegistry(t, backend), nil)

	if err := h.Execute(context.Background(), records.SetVisibilityCommand{Resource: "testimonials", ID: id}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if backend.Record("testimonial", id)["isVisible"] != false {
		t.Fatalf("expected hidden testimonial")
	}

	err := h.Execute(context.Background(), records.SetVisibilityCommand{Resource: "books", ID: "b-1", Visible: true})
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input category, got %v", err)
	}
}
