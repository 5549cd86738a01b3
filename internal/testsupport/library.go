package testsupport

import (
	"context"
	"testing"

	"enchant/internal/config"
	"enchant/internal/library"
)

// MustOpenLibrary opens a library for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config, opts ...library.Option) *library.Library {
	t.Helper()
	lib, err := library.Open(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = lib.Close()
	})
	return lib
}
