// Package blobstore persists receipt images on the local filesystem under
// generated names and hands back references relative to the data root.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/log"

	"github.com/google/uuid"
)

// DefaultDir is the receipts directory, relative to the data root.
const DefaultDir = "receipts"

type Store struct {
	root   string // absolute data root
	dir    string // slash-separated, relative to root
	logger *log.Logger
}

// New returns a store writing into <root>/<dir>. dir must be a local,
// relative path; the directory itself is created lazily on first write.
func New(root, dir string, logger *log.Logger) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("blob store root is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob store root: %w", err)
	}
	if dir == "" {
		dir = DefaultDir
	}
	dir = filepath.ToSlash(filepath.Clean(dir))
	if !filepath.IsLocal(filepath.FromSlash(dir)) || dir == "." {
		return nil, fmt.Errorf("receipts directory %q must be a relative path inside the data root", dir)
	}
	if logger == nil {
		logger = log.Default(log.ComponentBlob)
	}
	return &Store{root: absRoot, dir: dir, logger: logger}, nil
}

// Root returns the absolute data root.
func (s *Store) Root() string {
	return s.root
}

// Store decodes an encoded image and writes it under a fresh UUID name. The
// returned reference is only handed out once the file is fully on disk.
func (s *Store) Store(ctx context.Context, encoded string) (string, error) {
	p, err := ParsePayload(encoded)
	if err != nil {
		return "", err
	}

	var img Image
	switch v := p.(type) {
	case Image:
		img = v
	case Unsupported:
		return "", core.Errorf(core.CodeValidation, "unsupported image type %q", v.Tag)
	default:
		return "", core.Errorf(core.CodeInternal, "unexpected payload %T", p)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := path.Join(s.dir, uuid.NewString()+"."+img.Format.Extension())
	if err := s.writeAtomic(ref, img.Data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store receipt", log.FieldError, err)
		return "", err
	}

	s.logger.InfoContext(ctx, "Receipt stored",
		log.FieldReceipt, ref,
		log.FieldFormat, string(img.Format),
		log.FieldBytes, len(img.Data))
	return ref, nil
}

func (s *Store) writeAtomic(ref string, data []byte) (err error) {
	target := filepath.Join(s.root, filepath.FromSlash(ref))
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return core.WrapError(core.CodeIO, "create receipts directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".receipt-*.tmp")
	if err != nil {
		return core.WrapError(core.CodeIO, "create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return core.WrapError(core.CodeIO, "write receipt", err)
	}
	if err = tmp.Sync(); err != nil {
		return core.WrapError(core.CodeIO, "sync receipt", err)
	}
	if err = tmp.Close(); err != nil {
		return core.WrapError(core.CodeIO, "close receipt", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return core.WrapError(core.CodeIO, "chmod receipt", err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return core.WrapError(core.CodeIO, "rename receipt", err)
	}
	if err = syncDir(dir); err != nil {
		return core.WrapError(core.CodeIO, "sync receipts directory", err)
	}
	return nil
}

// syncDir flushes a directory entry so a rename into it survives a crash.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		d.Close()
		return err
	}
	return d.Close()
}

// Resolve maps a reference to its absolute path. Only names this store
// hands out resolve: <receipts dir>/<uuid>.<format extension>.
func (s *Store) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", core.NewError(core.CodeValidation, "receipt reference is required")
	}
	if path.Dir(ref) != s.dir || !isBlobName(path.Base(ref)) {
		return "", core.Errorf(core.CodeValidation, "receipt reference %q is not a stored receipt", ref)
	}
	return filepath.Join(s.root, filepath.FromSlash(ref)), nil
}

func isBlobName(name string) bool {
	stem, ext, ok := strings.Cut(name, ".")
	if !ok {
		return false
	}
	switch Format(ext) {
	case FormatJPEG, FormatPNG, FormatWebP, FormatGIF:
	default:
		return false
	}
	id, err := uuid.Parse(stem)
	return err == nil && id.String() == stem
}

// Exists reports whether the referenced blob is a regular file on disk.
func (s *Store) Exists(ctx context.Context, ref string) (bool, error) {
	p, err := s.Resolve(ref)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, core.WrapError(core.CodeIO, "stat receipt", err)
	}
	return info.Mode().IsRegular(), nil
}

// Open returns a reader for the referenced blob. The caller closes it.
func (s *Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	p, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, core.Errorf(core.CodeNotFound, "receipt %q not found", ref)
	}
	if err != nil {
		return nil, core.WrapError(core.CodeIO, "open receipt", err)
	}
	return f, nil
}

// Remove deletes the referenced blob. A missing file is not an error.
func (s *Store) Remove(ctx context.Context, ref string) error {
	p, err := s.Resolve(ref)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return core.WrapError(core.CodeIO, "remove receipt", err)
	}
	s.logger.DebugContext(ctx, "Receipt removed", log.FieldReceipt, ref)
	return nil
}
