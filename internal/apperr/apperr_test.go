package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("missing field"), http.StatusBadRequest},
		{"conflict", Conflict("duplicate username"), http.StatusBadRequest},
		{"not found", NotFound("user 7 not found"), http.StatusNotFound},
		{"storage", Storage("insert failed", errors.New("io timeout")), http.StatusInternalServerError},
		{"internal", Internal("boom", nil), http.StatusInternalServerError},
		{"plain error", errors.New("anything"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Status(c.err); got != c.want {
				t.Errorf("Status = %d, want %d", got, c.want)
			}
		})
	}
}

func TestWrappedStatus(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound("user 3 not found"))
	if got := Status(err); got != http.StatusNotFound {
		t.Errorf("Status through wrap = %d, want 404", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("saving trip", cause)
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if err.Error() != "saving trip: connection refused" {
		t.Errorf("message = %q", err.Error())
	}
}
