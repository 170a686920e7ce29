package plugin

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestGuardedContainsPanic(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := guarded(log, "wild", "init", func() error {
		panic("runaway")
	})
	if err == nil {
		t.Fatal("guarded() swallowed the panic entirely")
	}
	if !strings.Contains(err.Error(), "wild") || !strings.Contains(err.Error(), "runaway") {
		t.Errorf("error = %v, want extension id and panic value", err)
	}
}

func TestGuardedWrapsErrors(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := errors.New("bad state")

	err := guarded(log, "ext1", "shutdown", func() error { return base })
	if !errors.Is(err, base) {
		t.Errorf("error = %v, want wrapped base error", err)
	}
	if !strings.Contains(err.Error(), "ext1") {
		t.Errorf("error = %v, want extension id", err)
	}
}

func TestGuardedNilError(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := guarded(log, "ext1", "init", func() error { return nil }); err != nil {
		t.Errorf("guarded() error = %v, want nil", err)
	}
}
