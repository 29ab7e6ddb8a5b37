package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileStore is the attachment storage collaborator. The workflow core
// only ever talks to this interface.
type FileStore interface {
	Save(r io.Reader, name string) (locator string, err error)
	Open(locator string) (io.ReadCloser, error)
	Delete(locator string) error
}

// DateBasedStore writes files under root/YYYY/MM/DD/<uuid>_<name>.
type DateBasedStore struct {
	Root string
}

func NewDateBasedStore(root string) *DateBasedStore {
	return &DateBasedStore{Root: root}
}

func (s *DateBasedStore) Save(r io.Reader, name string) (string, error) {
	now := time.Now()
	rel := filepath.Join(
		now.Format("2006"), now.Format("01"), now.Format("02"),
		fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(name)),
	)
	full := filepath.Join(s.Root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(full)
		return "", err
	}
	return rel, nil
}

func (s *DateBasedStore) Open(locator string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.Root, locator))
}

func (s *DateBasedStore) Delete(locator string) error {
	err := os.Remove(filepath.Join(s.Root, locator))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
