// Package storage owns the on-disk lifecycle of uploaded signature images:
// transient staging for one request, promotion into the durable history area,
// and best-effort deletion. Artifacts are plain files under a single uploads
// root; the "/uploads/..." public access paths map 1:1 onto it.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/veriscribe/signature-api/internal/core/domain"
)

const (
	historySubdir = "history"
	publicPrefix  = "/uploads/"
)

var allowedExts = map[string]struct{}{
	".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {}, ".bmp": {},
}

var allowedMimes = map[string]struct{}{
	"image/jpeg": {}, "image/jpg": {}, "image/png": {}, "image/gif": {}, "image/bmp": {},
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// Store manages the uploads root and its history subdirectory.
type Store struct {
	uploadDir  string
	historyDir string
	maxBytes   int64
	log        zerolog.Logger
}

// NewStore creates the uploads and history directories if needed.
func NewStore(uploadDir string, maxBytes int64, log zerolog.Logger) (*Store, error) {
	historyDir := filepath.Join(uploadDir, historySubdir)
	for _, dir := range []string{uploadDir, historyDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
		}
	}
	return &Store{
		uploadDir:  uploadDir,
		historyDir: historyDir,
		maxBytes:   maxBytes,
		log:        log,
	}, nil
}

// Staged is a transient on-disk copy of one uploaded file, scoped to a single
// request. It is either promoted into history or discarded; handlers defer a
// Discard so no staged file outlives its request.
type Staged struct {
	Path         string
	OriginalName string
	store        *Store
}

// Accept validates and stages an incoming upload. Size and type failures are
// distinguishable: domain.ErrUploadTooLarge vs domain.ErrUploadBadType.
// The staged name is a nanosecond prefix plus a random suffix, so concurrent
// uploads of the same file can never collide.
func (s *Store) Accept(fh *multipart.FileHeader) (*Staged, error) {
	if fh.Size > s.maxBytes {
		return nil, domain.ErrUploadTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedExts[ext]; !ok {
		return nil, domain.ErrUploadBadType
	}
	mimeType := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if _, ok := allowedMimes[mimeType]; !ok {
		return nil, domain.ErrUploadBadType
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
	dst := filepath.Join(s.uploadDir, name)

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	written, err := io.Copy(out, io.LimitReader(src, s.maxBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.Discard(dst)
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if written > s.maxBytes {
		// Declared size lied; the on-disk copy proves it.
		s.Discard(dst)
		return nil, domain.ErrUploadTooLarge
	}

	return &Staged{Path: dst, OriginalName: fh.Filename, store: s}, nil
}

// Promote copies the staged file into the durable history area and deletes
// the staged original. Copy rather than rename: rename fails across devices
// and under open-file locks.
func (st *Staged) Promote(ownerID string) (string, error) {
	return st.store.Promote(st.Path, st.OriginalName, ownerID)
}

// Discard removes the staged file. Idempotent and best-effort.
func (st *Staged) Discard() {
	st.store.Discard(st.Path)
}

// PublicPath is the access path of the staged file inside the uploads root.
// Used when a staged file is kept as-is (profile images) instead of being
// promoted into history.
func (st *Staged) PublicPath() string {
	return publicPrefix + filepath.Base(st.Path)
}

// Promote implements the staged → durable copy for the given owner. The
// durable name is hist_<ownerId>_<epochMillis>_<sanitizedOriginalName>.
func (s *Store) Promote(stagedPath, originalName, ownerID string) (string, error) {
	clean := unsafeChars.ReplaceAllString(originalName, "_")
	name := fmt.Sprintf("hist_%s_%d_%s", ownerID, time.Now().UnixMilli(), clean)
	dst := filepath.Join(s.historyDir, name)

	if err := copyFile(stagedPath, dst); err != nil {
		return "", fmt.Errorf("promote upload: %w", err)
	}
	s.Discard(stagedPath)

	return publicPrefix + historySubdir + "/" + name, nil
}

// Discard deletes a file if it exists. It never reports failure to the
// caller; a leaked temp file is logged, not escalated.
func (s *Store) Discard(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to delete staged file")
	}
}

// ArtifactExists reports whether the file behind a public access path is
// still present on durable storage.
func (s *Store) ArtifactExists(publicPath string) bool {
	file, ok := s.artifactFile(publicPath)
	if !ok {
		return false
	}
	_, err := os.Stat(file)
	return err == nil
}

// RemoveArtifact deletes the file behind a public access path, best-effort.
func (s *Store) RemoveArtifact(publicPath string) {
	if file, ok := s.artifactFile(publicPath); ok {
		s.Discard(file)
	}
}

// ArtifactFile resolves a public "/uploads/..." path to its on-disk location.
// Paths that escape the uploads root resolve to nothing.
func (s *Store) ArtifactFile(publicPath string) (string, bool) {
	return s.artifactFile(publicPath)
}

func (s *Store) artifactFile(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, publicPrefix) {
		return "", false
	}
	rel := filepath.Clean(strings.TrimPrefix(publicPath, publicPrefix))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.Join(s.uploadDir, rel), true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}
