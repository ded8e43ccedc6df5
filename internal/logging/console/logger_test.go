package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/drydeck/drydeck/internal/logging"
	"github.com/drydeck/drydeck/internal/logging/console"
)

func TestConsoleLoggerWritesLogfmtLine(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC)

	provider := console.NewProvider(console.Options{
		Writer: &buf,
		Clock:  func() time.Time { return now },
	})

	logger := logging.WithFields(provider.GetLogger("drydeck.locations"), map[string]any{"module": "drydeck.locations"})
	ctx := logging.ContextWithFields(context.Background(), map[string]any{"request_id": "req-1"})
	logger = logger.WithContext(ctx)

	id := uuid.MustParse("8a51a9b1-2d30-4b2c-8ecd-2c0b87dfa999")
	logger.Info("locations.address.created", "address_id", id, "address", "1 Main St")

	got := strings.TrimSpace(buf.String())
	want := `ts=2024-03-14T15:09:26Z level=info logger=drydeck.locations msg=locations.address.created address="1 Main St" address_id=8a51a9b1-2d30-4b2c-8ecd-2c0b87dfa999 module=drydeck.locations request_id=req-1`
	if got != want {
		t.Fatalf("unexpected entry\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConsoleLoggerFiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf, Level: console.LevelWarn})

	logger := provider.GetLogger("drydeck.test")
	logger.Info("skipped")
	logger.Error("kept", "error", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "msg=kept") || !strings.Contains(lines[0], "error=boom") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestConsoleLoggerHandlesOddArguments(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf})

	provider.GetLogger("").Debug("odd", 42, "value", "dangling")

	got := buf.String()
	if !strings.Contains(got, "arg0=value") || !strings.Contains(got, "dangling=null") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	if level, err := console.ParseLevel("WARNING"); err != nil || level != console.LevelWarn {
		t.Fatalf("ParseLevel(WARNING) = %v, %v", level, err)
	}
	if level, err := console.ParseLevel(""); err != nil || level != console.LevelDebug {
		t.Fatalf("ParseLevel(\"\") = %v, %v", level, err)
	}
	if _, err := console.ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
