package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOfSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", Precondition("workflow.mail_report", "report must be approved before mailing"))
	if CodeOf(err) != CodePreconditionFailed {
		t.Fatalf("expected precondition code, got %q", CodeOf(err))
	}
	if !IsCode(err, CodePreconditionFailed) {
		t.Fatalf("IsCode mismatch")
	}
}

func TestDependencyKeepsExistingCode(t *testing.T) {
	inner := NotFound("store.get", "test request not found")
	if CodeOf(Dependency("render", inner)) != CodeNotFound {
		t.Fatalf("dependency wrapping must not mask a typed error")
	}
	if CodeOf(Dependency("render", errors.New("chrome crashed"))) != CodeDependency {
		t.Fatalf("expected dependency code")
	}
	if Dependency("render", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestErrorMessageFormat(t *testing.T) {
	err := Validation("store.create", "invalid request id %q", "X")
	want := `store.create: invalid request id "X" (validation)`
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}
