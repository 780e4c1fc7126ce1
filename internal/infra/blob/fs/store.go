// Package fs stores artifacts as plain files under a root directory, with a
// JSON sidecar per object holding its content type, checksum and metadata.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lineagecore/internal/blob/core"
)

// DefaultRoot is used when New is given an empty root.
const DefaultRoot = "./artifacts"

const sidecarSuffix = ".meta.json"

// Store implements core.Store on the local filesystem. Writes go through a
// temp file and a rename so readers never observe a partial object.
type Store struct {
	root string
}

// New returns a store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = DefaultRoot
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the directory objects are stored under.
func (s *Store) Root() string { return s.root }

// Driver implements core.Store.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Checksum    string            `json:"sha256"`
	Size        int64             `json:"size"`
	ModTime     time.Time         `json:"mod_time"`
}

func (s *Store) paths(key string) (clean, data, meta string, err error) {
	clean, err = core.CleanKey(key)
	if err != nil {
		return "", "", "", err
	}
	data = filepath.Join(s.root, filepath.FromSlash(clean))
	return clean, data, data + sidecarSuffix, nil
}

// Put implements core.Store.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	clean, data, meta, err := s.paths(key)
	if err != nil {
		return core.Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return core.Object{}, err
	}
	if !opts.Overwrite {
		if _, err := os.Stat(data); err == nil {
			return core.Object{}, fmt.Errorf("%w: %s", core.ErrExists, clean)
		}
	}
	if err := os.MkdirAll(filepath.Dir(data), 0o750); err != nil {
		return core.Object{}, fmt.Errorf("create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(data), ".upload-*")
	if err != nil {
		return core.Object{}, fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		_ = tmp.Close()
		return core.Object{}, fmt.Errorf("write %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		return core.Object{}, fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), data); err != nil {
		return core.Object{}, fmt.Errorf("commit %s: %w", clean, err)
	}
	sc := sidecar{
		ContentType: opts.ContentType,
		Metadata:    core.CloneMetadata(opts.Metadata),
		Checksum:    hex.EncodeToString(h.Sum(nil)),
		Size:        size,
		ModTime:     time.Now().UTC(),
	}
	if err := writeSidecar(meta, sc); err != nil {
		return core.Object{}, err
	}
	return sc.object(clean), nil
}

// Get implements core.Store.
func (s *Store) Get(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	clean, data, meta, err := s.paths(key)
	if err != nil {
		return core.Object{}, nil, err
	}
	f, err := os.Open(data) // #nosec G304 -- path is confined to the store root by CleanKey
	if err != nil {
		return core.Object{}, nil, notFound(clean, err)
	}
	sc, err := readSidecar(meta)
	if err != nil {
		_ = f.Close()
		return core.Object{}, nil, notFound(clean, err)
	}
	return sc.object(clean), f, nil
}

// Stat implements core.Store.
func (s *Store) Stat(_ context.Context, key string) (core.Object, error) {
	clean, _, meta, err := s.paths(key)
	if err != nil {
		return core.Object{}, err
	}
	sc, err := readSidecar(meta)
	if err != nil {
		return core.Object{}, notFound(clean, err)
	}
	return sc.object(clean), nil
}

// Delete implements core.Store.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	_, data, meta, err := s.paths(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(data); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("delete: %w", err)
	}
	_ = os.Remove(meta)
	return true, nil
}

// List implements core.Store. Keys are returned in lexical order.
func (s *Store) List(_ context.Context, prefix string) ([]core.Object, error) {
	var out []core.Object
	err := filepath.WalkDir(s.root, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, sidecarSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(p, sidecarSuffix))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		sc, err := readSidecar(p)
		if err != nil {
			return err
		}
		out = append(out, sc.object(key))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// SignURL returns an unauthenticated file:// URL for GET.
func (s *Store) SignURL(_ context.Context, key string, opts core.SignedURLOptions) (string, error) {
	if opts.Method != "" && !strings.EqualFold(opts.Method, "GET") {
		return "", core.ErrUnsupported
	}
	_, data, _, err := s.paths(key)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(data)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func (sc sidecar) object(key string) core.Object {
	return core.Object{
		Key:         key,
		Size:        sc.Size,
		ContentType: sc.ContentType,
		Checksum:    sc.Checksum,
		Metadata:    core.CloneMetadata(sc.Metadata),
		ModTime:     sc.ModTime,
	}
}

func notFound(key string, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return err
}

func writeSidecar(path string, sc sidecar) error {
	b, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sidecar: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	return nil
}

func readSidecar(path string) (sidecar, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- path is derived from a cleaned key
	if err != nil {
		return sidecar{}, err
	}
	var sc sidecar
	if err := json.Unmarshal(b, &sc); err != nil {
		return sidecar{}, fmt.Errorf("decode sidecar: %w", err)
	}
	return sc, nil
}
