package fileutil

import (
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// HashCopy streams src into dst while feeding every byte to h, so content
// identity and the copy come from a single read pass.
func HashCopy(dst io.Writer, src io.Reader, h hash.Hash) (int64, error) {
	if h == nil {
		return io.Copy(dst, src)
	}
	return io.Copy(io.MultiWriter(dst, h), src)
}

// Publish moves a finished temp file to target without ever replacing an
// existing target. It reports false when target already existed; the temp
// file is removed in every case.
func Publish(tempPath, target string) (bool, error) {
	defer func() { _ = os.Remove(tempPath) }()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return false, fmt.Errorf("create parent directory: %w", err)
	}
	err := os.Link(tempPath, target)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}

	// Some filesystems refuse hard links; fall back to an existence check and
	// rename. Identical content makes the remaining race harmless.
	if _, statErr := os.Stat(target); statErr == nil {
		return false, nil
	}
	if err := os.Rename(tempPath, target); err != nil {
		return false, fmt.Errorf("rename into place: %w", err)
	}
	return true, nil
}

// WriteFile writes data to path through a sibling temp file and rename so
// readers never observe a partial file.
func WriteFile(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
