package objectstore

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"enchant/internal/apperr"
	"enchant/internal/fileutil"
)

// IDLength is the number of hex characters in an object identifier.
const IDLength = 40

// ID is the hex SHA-1 digest of an object's content.
type ID string

func (id ID) String() string { return string(id) }

// Valid reports whether id is 40 lowercase hex characters.
func (id ID) Valid() bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ParseID validates and returns a user-supplied identifier. Uppercase input
// is folded to lowercase.
func ParseID(value string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(value)))
	if !id.Valid() {
		return "", apperr.New(apperr.KindInvalidInput, "parse object id", value, "expected 40 hex characters")
	}
	return id, nil
}

// Store is a content-addressed object store rooted at a directory.
type Store struct {
	root string
}

// Open prepares the objects and tmp directories under root.
func Open(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "open object store", "", "root directory required")
	}
	for _, dir := range []string{filepath.Join(root, "objects"), filepath.Join(root, "tmp")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperr.Wrap(apperr.KindIO, "open object store", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns root/objects/id[0:2]/id[2:]. It does not validate id.
func (s *Store) Path(id ID) string {
	return ObjectPath(s.root, id)
}

// ObjectPath is the layout function shared by every store implementation.
func ObjectPath(root string, id ID) string {
	value := string(id)
	if len(value) < 3 {
		return filepath.Join(root, "objects", value)
	}
	return filepath.Join(root, "objects", value[:2], value[2:])
}

// Put stores the file at sourcePath and returns its identifier. Content that
// is already present is not copied again.
func (s *Store) Put(sourcePath string) (ID, error) {
	file, err := os.Open(sourcePath)
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, "objectstore put", sourcePath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, "objectstore put", sourcePath, err)
	}
	if info.IsDir() {
		return "", apperr.New(apperr.KindIO, "objectstore put", sourcePath, "is a directory")
	}

	id, err := s.put(file)
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, "objectstore put", sourcePath, err)
	}
	return id, nil
}

// PutReader stores everything read from r.
func (s *Store) PutReader(r io.Reader) (ID, error) {
	id, err := s.put(r)
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, "objectstore put", "stream", err)
	}
	return id, nil
}

func (s *Store) put(r io.Reader) (ID, error) {
	tmpPath := filepath.Join(s.root, "tmp", uuid.NewString())
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create temp object: %w", err)
	}

	hasher := sha1.New()
	if _, err := fileutil.HashCopy(tmp, r, hasher); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("copy content: %w", err)
	}
	if err := tmp.Chmod(0o444); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("seal temp object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp object: %w", err)
	}

	id := ID(hex.EncodeToString(hasher.Sum(nil)))
	if s.Exists(id) {
		_ = os.Remove(tmpPath)
		return id, nil
	}
	if _, err := fileutil.Publish(tmpPath, s.Path(id)); err != nil {
		return "", fmt.Errorf("publish object %s: %w", id, err)
	}
	return id, nil
}

// Exists reports whether an object with id is stored.
func (s *Store) Exists(id ID) bool {
	if !id.Valid() {
		return false
	}
	info, err := os.Stat(s.Path(id))
	return err == nil && !info.IsDir()
}

// Open returns a reader for the object content.
func (s *Store) Open(id ID) (io.ReadCloser, error) {
	if !id.Valid() {
		return nil, apperr.New(apperr.KindInvalidInput, "objectstore open", string(id), "malformed object id")
	}
	file, err := os.Open(s.Path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.Wrap(apperr.KindNotFound, "objectstore open", string(id), nil)
		}
		return nil, apperr.Wrap(apperr.KindIO, "objectstore open", string(id), err)
	}
	return file, nil
}

// ReadAll returns the full object content.
func (s *Store) ReadAll(id ID) ([]byte, error) {
	rc, err := s.Open(id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, "objectstore read", string(id), err)
	}
	return data, nil
}

// Walk calls fn for every stored object id. Entries that do not follow the
// layout are skipped.
func (s *Store) Walk(fn func(ID) error) error {
	objectsDir := filepath.Join(s.root, "objects")
	prefixes, err := os.ReadDir(objectsDir)
	if err != nil {
		return apperr.Wrap(apperr.KindIO, "objectstore walk", objectsDir, err)
	}
	for _, prefix := range prefixes {
		if !prefix.IsDir() || len(prefix.Name()) != 2 {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(objectsDir, prefix.Name()))
		if err != nil {
			return apperr.Wrap(apperr.KindIO, "objectstore walk", prefix.Name(), err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			id := ID(prefix.Name() + entry.Name())
			if !id.Valid() {
				continue
			}
			if err := fn(id); err != nil {
				return err
			}
		}
	}
	return nil
}
