// Package local stores uploaded media on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// URLPrefix is the public path the upload directory is served under.
const URLPrefix = "/uploads"

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	safeID      = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ErrOutsideRoot is returned for media URLs that do not resolve inside the
// upload directory.
var ErrOutsideRoot = errors.New("local: media path outside upload root")

// Store writes media to <root>/users/<userID>/<name>-<unixms><ext>.
type Store struct {
	root string
	now  func() time.Time
}

func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: abs, now: time.Now}, nil
}

// Root is the absolute upload directory.
func (s *Store) Root() string { return s.root }

// Save copies content to a new file and returns its public URL. The file
// extension follows contentType, never the client's filename.
func (s *Store) Save(ctx context.Context, userID, filename, contentType string, content io.Reader) (string, error) {
	if !safeID.MatchString(userID) {
		return "", fmt.Errorf("save media: invalid user id %q", userID)
	}
	ext, err := extensionFor(contentType)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, "users", userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name := storedName(filename, ext, s.now())
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close media file: %w", err)
	}

	return path.Join(URLPrefix, "users", userID, name), nil
}

// Delete removes the file behind mediaURL. Missing files are not an error.
func (s *Store) Delete(_ context.Context, mediaURL string) error {
	p, err := s.resolve(mediaURL)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove media file: %w", err)
	}
	return nil
}

func (s *Store) resolve(mediaURL string) (string, error) {
	rel, ok := strings.CutPrefix(path.Clean("/"+mediaURL), URLPrefix+"/")
	if !ok {
		return "", ErrOutsideRoot
	}
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	if !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return p, nil
}

// extensionFor maps a detected MIME type to its canonical extension.
func extensionFor(contentType string) (string, error) {
	mt := mimetype.Lookup(contentType)
	if mt == nil || mt.Extension() == "" {
		return "", fmt.Errorf("save media: unsupported content type %q", contentType)
	}
	return mt.Extension(), nil
}

// storedName keeps a sanitised base name, adds a millisecond timestamp and
// appends ext.
func storedName(filename, ext string, now time.Time) string {
	base := filepath.Base(filepath.Clean("/" + filename))
	name := unsafeChars.ReplaceAllString(strings.TrimSuffix(base, filepath.Ext(base)), "_")
	if len(name) > 64 {
		name = name[:64]
	}
	if name == "" || name == "_" {
		name = "media"
	}
	return fmt.Sprintf("%s-%d%s", name, now.UnixMilli(), ext)
}
