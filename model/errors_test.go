package model

import "testing"

func TestErrorEnvelope_Error(t *testing.T) {
	e := &ErrorEnvelope{Code: ErrNotFound, Message: "Record not found"}
	want := "NOT_FOUND: Record not found"
	if got := e.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorEnvelope_implements_error(t *testing.T) {
	var _ error = (*ErrorEnvelope)(nil)
}

func TestNewForbiddenError(t *testing.T) {
	e := NewForbiddenError("Insufficient permissions to update listing")
	if e.Code != ErrForbidden {
		t.Errorf("Code = %q, want %q", e.Code, ErrForbidden)
	}
}

func TestNewValidationError(t *testing.T) {
	details := []ValidationError{
		{Field: "title", Type: ValidationRequired, Message: "title is required"},
	}
	e := NewValidationError(details)
	if e.Code != ErrValidationError {
		t.Errorf("Code = %q, want %q", e.Code, ErrValidationError)
	}
	if len(e.Details) != 1 {
		t.Fatalf("Details length = %d, want 1", len(e.Details))
	}
	if e.Details[0].Field != "title" {
		t.Errorf("Details[0].Field = %q, want %q", e.Details[0].Field, "title")
	}
}

func TestGeneralError(t *testing.T) {
	ve := GeneralError("backend unavailable")
	if ve.Field != GeneralField {
		t.Errorf("Field = %q, want %q", ve.Field, GeneralField)
	}
	if ve.Message != "backend unavailable" {
		t.Errorf("Message = %q, want %q", ve.Message, "backend unavailable")
	}
}

func TestNewInternalError(t *testing.T) {
	e := NewInternalError()
	if e.Code != ErrInternalError {
		t.Errorf("Code = %q, want %q", e.Code, ErrInternalError)
	}
}
