package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("confirm booking: %w", InvalidTransition("confirmed", "pending", "booking is not pending"))

	if got := KindOf(err); got != KindConflict {
		t.Fatalf("KindOf = %q, want %q", got, KindConflict)
	}
	if !errors.Is(err, &Error{Kind: KindConflict, Code: CodeInvalidTransition}) {
		t.Fatalf("errors.Is should match conflict/invalid_transition")
	}
	if errors.Is(err, &Error{Kind: KindConflict, Code: CodeDuplicate}) {
		t.Fatalf("errors.Is should not match a different code")
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != "" {
		t.Fatalf("KindOf(plain) = %q, want empty", got)
	}
}

func TestIsValidation_IncludesReferential(t *testing.T) {
	if !IsValidation(Referential(map[string]string{"service": "missing"})) {
		t.Fatalf("referential errors must count as validation")
	}
	if IsValidation(NotFound("booking", "x")) {
		t.Fatalf("not found is not a validation error")
	}
}

func TestError_MessageListsFieldsSorted(t *testing.T) {
	err := Validation(map[string]string{"price": "bad", "name": "required"})
	msg := err.Error()
	if !strings.Contains(msg, "name: required; price: bad") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(Transient(errors.New("conn reset"))) {
		t.Fatalf("transient errors must be retryable")
	}
	if Retryable(Conflict(CodeDuplicate, "dup")) {
		t.Fatalf("conflicts must not be retryable")
	}
}
