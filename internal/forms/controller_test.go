package forms_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-admin/internal/forms"
)

type button struct {
	ID    string
	Title string
	Link  string
}

func (b button) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Title, forms.Text(1, 40)...),
		validation.Field(&b.Link, validation.Required, forms.Link),
	)
}

type heroDraft struct {
	Title   string
	Price   string
	Buttons []button
}

func (d heroDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, forms.Text(3, 80)...),
		validation.Field(&d.Price, forms.NumericString, forms.NonNegative),
		validation.Field(&d.Buttons),
	)
}

func TestValidateReportsEveryRequiredField(t *testing.T) {
	ctrl := forms.NewController(heroDraft{Buttons: []button{{Title: "", Link: ""}}})

	err := ctrl.Validate()
	if !goerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	want := map[string]string{
		"Title":           "cannot be blank",
		"Buttons.0.Title": "cannot be blank",
		"Buttons.0.Link":  "cannot be blank",
	}
	if diff := cmp.Diff(want, ctrl.Errors()); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if ctrl.FieldError("Buttons.0.Link") == "" {
		t.Fatal("expected nested field error lookup")
	}
}

func TestSubmitBlockedByValidation(t *testing.T) {
	ctrl := forms.NewController(heroDraft{Title: "Train", Price: "abc"})
	called := false

	err := ctrl.Submit(context.Background(), func(context.Context, heroDraft) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if called {
		t.Fatal("expected submit function not to run")
	}
	if got := ctrl.FieldError("Price"); got != "must be a number" {
		t.Fatalf("expected numeric error, got %q", got)
	}
	fields, ok := goerrors.GetValidationErrors(err)
	if !ok || len(fields) != 1 || fields[0].Field != "Price" {
		t.Fatalf("expected price field error, got %+v", fields)
	}
}

func TestSubmitSuccessClearsDirty(t *testing.T) {
	ctrl := forms.NewController(heroDraft{})
	ctrl.Set(func(d *heroDraft) { d.Title = "Open mat" })
	if !ctrl.Dirty() {
		t.Fatal("expected dirty after Set")
	}

	var submitted heroDraft
	err := ctrl.Submit(context.Background(), func(_ context.Context, d heroDraft) error {
		submitted = d
		return nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Title != "Open mat" {
		t.Fatalf("unexpected draft %+v", submitted)
	}
	if ctrl.Dirty() || ctrl.Loading() {
		t.Fatal("expected clean, idle form after success")
	}
}

func TestSubmitFailureKeepsValuesAndMapsRemoteErrors(t *testing.T) {
	ctrl := forms.NewController(heroDraft{})
	ctrl.Set(func(d *heroDraft) { d.Title = "Duplicate" })

	remote := goerrors.NewValidation("Validation failed", goerrors.FieldError{Field: "title", Message: "already exists"})
	err := ctrl.Submit(context.Background(), func(context.Context, heroDraft) error { return remote })
	if !errors.Is(err, remote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if ctrl.Values().Title != "Duplicate" {
		t.Fatal("expected user input to survive a rejected submission")
	}
	if !ctrl.Dirty() {
		t.Fatal("expected form to stay dirty")
	}
	if got := ctrl.FieldError("title"); got != "already exists" {
		t.Fatalf("expected remote field error, got %q", got)
	}
}

func TestSubmitRefusesConcurrentSubmission(t *testing.T) {
	ctrl := forms.NewController(heroDraft{Title: "Seminar"})
	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ctrl.Submit(context.Background(), func(context.Context, heroDraft) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if !ctrl.Loading() {
		t.Fatal("expected loading while in flight")
	}
	if err := ctrl.Submit(context.Background(), func(context.Context, heroDraft) error { return nil }); !errors.Is(err, forms.ErrSubmitting) {
		t.Fatalf("expected ErrSubmitting, got %v", err)
	}
	close(release)
	wg.Wait()
}

func TestResetDiscardsEditsAndErrors(t *testing.T) {
	ctrl := forms.NewController(heroDraft{})
	ctrl.BeginFetch()
	if err := ctrl.Submit(context.Background(), func(context.Context, heroDraft) error { return nil }); !errors.Is(err, forms.ErrLoading) {
		t.Fatalf("expected ErrLoading, got %v", err)
	}
	ctrl.Set(func(d *heroDraft) { d.Title = "typed early" })
	_ = ctrl.Validate()

	ctrl.Reset(heroDraft{Title: "From server"})

	if ctrl.Values().Title != "From server" || ctrl.Defaults().Title != "From server" {
		t.Fatalf("expected fetched values, got %+v", ctrl.Values())
	}
	if ctrl.Dirty() || ctrl.Loading() || len(ctrl.Errors()) != 0 {
		t.Fatal("expected reset to clear dirty, loading and errors")
	}
}

func TestSetFieldErrorsMerges(t *testing.T) {
	ctrl := forms.NewController(heroDraft{})
	_ = ctrl.Validate()
	ctrl.SetFieldErrors(map[string]string{"Price": "too high"})
	errs := ctrl.Errors()
	if errs["Title"] == "" || errs["Price"] != "too high" {
		t.Fatalf("unexpected errors %+v", errs)
	}
}
