package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/drydeck/drydeck/internal/locations"
)

type testMessage struct{}

func (testMessage) Type() string { return "drydeck.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "drydeck.test.invalid" }

func (invalidMessage) Validate() error {
	return validation.Errors{"zip": errors.New("zip is required")}
}

type recordedOutcome struct {
	name   string
	status Status
}

func recorder(out *[]recordedOutcome) Observer {
	return ObserverFunc(func(name string, status Status, _ time.Duration) {
		*out = append(*out, recordedOutcome{name: name, status: status})
	})
}

func TestHandlerExecuteSuccess(t *testing.T) {
	var outcomes []recordedOutcome
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	}, WithObserver[testMessage](recorder(&outcomes)))

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
	if len(outcomes) != 1 || outcomes[0].status != StatusSuccess || outcomes[0].name != "drydeck.test.message" {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	var outcomes []recordedOutcome
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	}, WithObserver[invalidMessage](recorder(&outcomes)))

	err := h.Execute(context.Background(), invalidMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}

	var typed *goerrors.Error
	if !errors.As(err, &typed) || len(typed.ValidationErrors) != 1 || typed.ValidationErrors[0].Field != "zip" {
		t.Fatalf("expected zip field error, got %+v", typed)
	}
	if typed.TextCode != codeValidationFailed {
		t.Fatalf("unexpected text code %q", typed.TextCode)
	}
	if len(outcomes) != 1 || outcomes[0].status != StatusInvalid {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !errors.Is(err, execErr) {
		t.Fatalf("expected wrapped error to unwrap to source")
	}
}

func TestHandlerCategorisesAddressErrors(t *testing.T) {
	cases := []struct {
		err      error
		category goerrors.Category
		code     string
	}{
		{locations.ErrAddressExists, goerrors.CategoryConflict, codeAddressExists},
		{locations.ErrAddressNotFound, goerrors.CategoryNotFound, codeAddressNotFound},
		{(&locations.Address{}).Validate(), goerrors.CategoryValidation, codeAddressInvalid},
	}
	for _, tc := range cases {
		h := NewHandler[testMessage](func(context.Context, testMessage) error {
			return tc.err
		})
		err := h.Execute(context.Background(), testMessage{})
		var typed *goerrors.Error
		if !errors.As(err, &typed) {
			t.Fatalf("expected *goerrors.Error, got %T", err)
		}
		if typed.Category != tc.category || typed.TextCode != tc.code {
			t.Fatalf("%v: got %s/%s", tc.err, typed.Category, typed.TextCode)
		}
	}

	h := NewHandler[testMessage](func(context.Context, testMessage) error {
		return (&locations.Address{}).Validate()
	})
	var typed *goerrors.Error
	if !errors.As(h.Execute(context.Background(), testMessage{}), &typed) {
		t.Fatalf("expected *goerrors.Error")
	}
	if len(typed.ValidationErrors) != len(locations.RequiredFields()) {
		t.Fatalf("expected one field error per required component, got %+v", typed.ValidationErrors)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	var outcomes []recordedOutcome
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond), WithObserver[testMessage](recorder(&outcomes)))

	err := h.Execute(context.Background(), testMessage{})
	var typed *goerrors.Error
	if !errors.As(err, &typed) || typed.TextCode != codeContextTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].status != StatusContextError {
		t.Fatalf("unexpected outcomes %+v", outcomes)
	}
}
