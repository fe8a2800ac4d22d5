package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/creatorspace/community-api/internal/core/domain"
)

func TestWithStorage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    domain.Kind
		message string
	}{
		{"unique", fmt.Errorf("insert: %w", domain.ErrUniqueViolation), domain.KindConflict, "Resource already exists"},
		{"reference", domain.ErrReferenceViolation, domain.KindValidation, "Invalid reference to related resource"},
		{"other", errors.New("boom"), domain.KindDatabase, "Database operation failed"},
		{"taxonomy", domain.NewNotFoundError("Post not found"), domain.KindNotFound, "Post not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WithStorage(func() (int, error) { return 0, tt.err })
			de, ok := domain.AsError(err)
			if !ok {
				t.Fatalf("expected taxonomy error, got %v", err)
			}
			if de.Kind() != tt.kind || de.Message() != tt.message {
				t.Fatalf("got %s %q", de.Kind(), de.Message())
			}
		})
	}
}

func TestWithStorage_PreservesCause(t *testing.T) {
	cause := errors.New("socket closed")
	_, err := WithStorage(func() (string, error) { return "", cause })
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestWithStorage_Success(t *testing.T) {
	v, err := WithStorage(func() (int, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Fatalf("got %d %v", v, err)
	}
}

func TestNewPagination(t *testing.T) {
	p := newPagination(3, 10, 25)
	if p.HasMore || p.TotalPages != 3 {
		t.Fatalf("unexpected %+v", p)
	}
	p = newPagination(1, 10, 0)
	if p.HasMore || p.TotalPages != 0 {
		t.Fatalf("unexpected %+v", p)
	}
	if page, limit := normalizePage(-1, 1000); page != 1 || limit != maxPageLimit {
		t.Fatalf("normalizePage = %d, %d", page, limit)
	}
}
