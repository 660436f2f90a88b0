package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes images to a directory on disk.
type LocalStore struct {
	dir       string
	urlPrefix string
	maxBytes  int64
	now       func() time.Time
}

// NewLocalStore creates dir if needed and returns a store whose URLs start
// with urlPrefix (normally "/uploads").
func NewLocalStore(dir, urlPrefix string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: path.Clean("/" + urlPrefix),
		maxBytes:  maxBytes,
		now:       time.Now,
	}, nil
}

// Dir returns the directory served under the URL prefix.
func (s *LocalStore) Dir() string {
	return s.dir
}

// URLPrefix returns the path prefix of returned URLs.
func (s *LocalStore) URLPrefix() string {
	return s.urlPrefix
}

// Save writes the upload and returns "<prefix>/<name>". A partially
// written file is removed on failure.
func (s *LocalStore) Save(ctx context.Context, u Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	up, err := inspect(u)
	if err != nil {
		return "", err
	}

	name := FileName(s.now(), up.ext)
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640) //nolint:gosec // name is generated, not client supplied
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(up.body, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(full) //nolint:errcheck // best effort cleanup
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Delete removes the file behind url. URLs outside the prefix and files
// that are already gone are ignored.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, ok := strings.CutPrefix(url, s.urlPrefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing upload file: %w", err)
	}
	return nil
}
