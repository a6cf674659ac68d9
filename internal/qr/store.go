package qr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

const imageDir = "qr-codes"

var (
	ErrInvalidKey = errors.New("invalid qr image key")
	keyPattern    = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)
)

// Store persists rendered images keyed by ticket code.
type Store interface {
	Put(ctx context.Context, code string, png []byte) error
	Remove(ctx context.Context, code string) error
	Exists(ctx context.Context, code string) (bool, error)
	Path(code string) (string, error)
}

// FileStore keeps images at <root>/qr-codes/<code>.png.
type FileStore struct {
	dir string
}

func NewFileStore(storageRoot string) (*FileStore, error) {
	dir := filepath.Join(storageRoot, imageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create qr directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Path(code string) (string, error) {
	if !keyPattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, code)
	}
	return filepath.Join(s.dir, code+".png"), nil
}

// Put writes through a temp file and rename so readers never see a partial
// image.
func (s *FileStore) Put(ctx context.Context, code string, png []byte) error {
	path, err := s.Path(code)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, code+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(png); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}

func (s *FileStore) Remove(ctx context.Context, code string) error {
	path, err := s.Path(code)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) Exists(ctx context.Context, code string) (bool, error) {
	path, err := s.Path(code)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
