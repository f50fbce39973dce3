package forms

import (
	"errors"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func TestNumericString(t *testing.T) {
	cases := map[string]bool{
		"":      true,
		"12":    true,
		"12.50": true,
		"-3":    true,
		"abc":   false,
		"1,000": false,
		".":     false,
		"-":     false,
		"1e":    false,
		"NaN":   false,
		"Inf":   false,
		"-inf":  false,
	}
	for input, ok := range cases {
		err := validation.Validate(input, NumericString)
		if ok && err != nil {
			t.Fatalf("%q: expected valid, got %v", input, err)
		}
		if !ok && err == nil {
			t.Fatalf("%q: expected error", input)
		}
	}
}

func TestRating(t *testing.T) {
	for _, input := range []string{"1", "4.5", "5"} {
		if err := validation.Validate(input, Rating); err != nil {
			t.Fatalf("%q: unexpected error %v", input, err)
		}
	}
	for _, input := range []string{"0", "6", "x", ".", "NaN"} {
		if err := validation.Validate(input, Rating); err == nil {
			t.Fatalf("%q: expected error", input)
		}
	}
}

func TestLink(t *testing.T) {
	for _, input := range []string{"/contact", "https://example.com/join", ""} {
		if err := validation.Validate(input, Link); err != nil {
			t.Fatalf("%q: unexpected error %v", input, err)
		}
	}
	if err := validation.Validate("not a url", Link); err == nil {
		t.Fatal("expected invalid link error")
	}
}

func TestNumber(t *testing.T) {
	if got := Number("12.5"); got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}
	if got := Number(" "); got != nil {
		t.Fatalf("expected nil for blank, got %v", got)
	}
}

func TestFieldErrorsFlattensNested(t *testing.T) {
	err := validation.Errors{
		"title": validation.NewError("required", "cannot be blank"),
		"options": validation.Errors{
			"1": validation.Errors{"subTitle": validation.NewError("length", "too long")},
		},
	}
	got := FieldErrors(err)
	if got["title"] != "cannot be blank" || got["options.1.subTitle"] != "too long" {
		t.Fatalf("unexpected flatten result %+v", got)
	}
	if len(FieldErrors(errors.New("boom"))) != 0 {
		t.Fatal("expected non-field errors to be ignored")
	}
}
