package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := NewConflict("taken")
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}
	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}
	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestFromErrorKeepsWrappedAppError(t *testing.T) {
	appErr := NewNotFound("Member not found")
	wrapped := stdErrors.Join(stdErrors.New("context"), appErr)

	if out := FromError(wrapped); out != appErr {
		t.Fatal("expected FromError to unwrap the AppError")
	}

	out := FromError(stdErrors.New("raw"))
	if out.Code != CodeInternal || out.Internal == nil {
		t.Fatalf("expected internal error with cause, got %+v", out)
	}
}

func TestTaxonomyStatusCodes(t *testing.T) {
	cases := map[*AppError]int{
		NewBadRequest("x"):                        http.StatusBadRequest,
		NewUnauthenticated("x"):                   http.StatusUnauthorized,
		NewForbidden("x"):                         http.StatusForbidden,
		NewNotFound("x"):                          http.StatusNotFound,
		NewConflict("x"):                          http.StatusConflict,
		NewStateConflict("x"):                     http.StatusBadRequest,
		NewDependency("x", stdErrors.New("db")): http.StatusInternalServerError,
	}
	for err, status := range cases {
		if err.StatusCode != status {
			t.Fatalf("%s: expected %d, got %d", err.Code, status, err.StatusCode)
		}
	}
}

func TestDependencyKeepsCause(t *testing.T) {
	cause := stdErrors.New("connection reset")
	err := NewDependency("Failed to create team", cause)

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected dependency error to unwrap to its cause")
	}
	if err.Message != "Failed to create team" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
}
