package library_test

import (
	"context"
	"os"
	"testing"

	"enchant/internal/clip"
	"enchant/internal/objectstore"
)

func mustID(t *testing.T, value string) objectstore.ID {
	t.Helper()
	id, err := objectstore.ParseID(value)
	if err != nil {
		t.Fatalf("ParseID(%q): %v", value, err)
	}
	return id
}

type recordingEncoder struct {
	cuts []clip.CutRequest
}

func (e *recordingEncoder) Cut(_ context.Context, req clip.CutRequest) error {
	e.cuts = append(e.cuts, req)
	return os.WriteFile(req.Output, []byte("clip"), 0o644)
}
