package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Errors returned by Save.
var (
	ErrUnsupportedType = errors.New("image must be a jpeg, png, gif or webp file")
	ErrTooLarge        = errors.New("image exceeds the upload size limit")
)

// sniffLen is how many leading bytes are used for content detection.
const sniffLen = 512

// allowedTypes maps accepted file extensions to their content type.
var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Upload is one file received from a client.
type Upload struct {
	Filename string // client-supplied name; only its extension is kept
	Body     io.Reader
}

// Store persists an upload and returns the URL clients should use for it.
// Delete removes an object by the URL Save returned; unknown URLs are not
// an error.
type Store interface {
	Save(ctx context.Context, u Upload) (string, error)
	Delete(ctx context.Context, url string) error
}

// FileName returns a fresh object name for an upload with the given
// extension, e.g. "1700000000000-482913377.png".
func FileName(now time.Time, ext string) string {
	return fmt.Sprintf("%d-%d%s", now.UnixMilli(), rand.Int64N(1e9), strings.ToLower(ext)) //nolint:gosec // name uniqueness, not security
}

// checkedUpload is an upload whose type has been verified.
type checkedUpload struct {
	ext         string
	contentType string
	body        io.Reader // sniffed prefix followed by the remainder
}

// inspect validates the extension and sniffs the first bytes of u.Body.
// The returned body still yields the whole file.
func inspect(u Upload) (*checkedUpload, error) {
	ext := strings.ToLower(filepath.Ext(u.Filename))
	want, ok := allowedTypes[ext]
	if !ok {
		return nil, ErrUnsupportedType
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]

	if got := http.DetectContentType(head); got != want {
		return nil, fmt.Errorf("%w: content is %s", ErrUnsupportedType, got)
	}

	return &checkedUpload{
		ext:         ext,
		contentType: want,
		body:        io.MultiReader(bytes.NewReader(head), u.Body),
	}, nil
}

// readLimited reads r fully, failing with ErrTooLarge past limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
