package plugin

import (
	"fmt"
	"log/slog"
)

// guarded runs one extension entry point and converts an escaping
// panic into an error. Every call into extension code crosses this
// boundary so a misbehaving extension cannot take the host down.
func guarded(log *slog.Logger, id, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extension %s: %s panicked: %v", id, op, r)
			log.Error("extension panic contained", "extension", id, "op", op, "panic", r)
		}
	}()

	if err = fn(); err != nil {
		err = fmt.Errorf("extension %s: %s: %w", id, op, err)
	}
	return err
}
