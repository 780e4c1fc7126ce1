// Package artifact files per-run outputs into a blob store under
// runs/<run>/seed-<n>/<name>.
package artifact

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"lineagecore/internal/blob"
)

const rootPrefix = "runs/"

var runIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Entry is one archived artifact.
type Entry struct {
	Run  string
	Seed uint64
	Name string
	blob.Object
}

// Archiver stores and retrieves run artifacts.
type Archiver struct {
	store blob.Store
}

// NewArchiver wraps store.
func NewArchiver(store blob.Store) *Archiver { return &Archiver{store: store} }

// Key returns the object key for an artifact.
func Key(run string, seed uint64, name string) (string, error) {
	if !runIDPattern.MatchString(run) {
		return "", fmt.Errorf("artifact: invalid run id %q", run)
	}
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("artifact: invalid name %q", name)
	}
	return rootPrefix + run + "/seed-" + strconv.FormatUint(seed, 10) + "/" + name, nil
}

// Put stores r under the artifact key. Existing artifacts are replaced only
// when overwrite is set.
func (a *Archiver) Put(ctx context.Context, run string, seed uint64, name string, r io.Reader, overwrite bool) (Entry, error) {
	key, err := Key(run, seed, name)
	if err != nil {
		return Entry{}, err
	}
	obj, err := a.store.Put(ctx, key, r, blob.PutOptions{
		ContentType: contentType(name),
		Metadata:    map[string]string{"run": run, "seed": strconv.FormatUint(seed, 10)},
		Overwrite:   overwrite,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("archive %s: %w", key, err)
	}
	return Entry{Run: run, Seed: seed, Name: name, Object: obj}, nil
}

// PutFile archives the file at p under its base name.
func (a *Archiver) PutFile(ctx context.Context, run string, seed uint64, p string, overwrite bool) (Entry, error) {
	f, err := os.Open(p) // #nosec G304 -- caller-selected artifact
	if err != nil {
		return Entry{}, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return a.Put(ctx, run, seed, filepath.Base(p), f, overwrite)
}

// Open returns the artifact's content.
func (a *Archiver) Open(ctx context.Context, run string, seed uint64, name string) (io.ReadCloser, Entry, error) {
	key, err := Key(run, seed, name)
	if err != nil {
		return nil, Entry{}, err
	}
	obj, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, Entry{}, fmt.Errorf("fetch %s: %w", key, err)
	}
	return rc, Entry{Run: run, Seed: seed, Name: name, Object: obj}, nil
}

// List returns the artifacts of run, or of every run when run is empty.
// Objects outside the runs/<run>/seed-<n>/<name> layout are skipped.
func (a *Archiver) List(ctx context.Context, run string) ([]Entry, error) {
	prefix := rootPrefix
	if run != "" {
		if !runIDPattern.MatchString(run) {
			return nil, fmt.Errorf("artifact: invalid run id %q", run)
		}
		prefix += run + "/"
	}
	objs, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	out := make([]Entry, 0, len(objs))
	for _, obj := range objs {
		e, ok := parseKey(obj.Key)
		if !ok {
			continue
		}
		e.Object = obj
		out = append(out, e)
	}
	return out, nil
}

// Delete removes an artifact, reporting whether it existed.
func (a *Archiver) Delete(ctx context.Context, run string, seed uint64, name string) (bool, error) {
	key, err := Key(run, seed, name)
	if err != nil {
		return false, err
	}
	return a.store.Delete(ctx, key)
}

func parseKey(key string) (Entry, bool) {
	parts := strings.Split(strings.TrimPrefix(key, rootPrefix), "/")
	if len(parts) != 3 || !strings.HasPrefix(parts[1], "seed-") {
		return Entry{}, false
	}
	seed, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "seed-"), 10, 64)
	if err != nil {
		return Entry{}, false
	}
	return Entry{Run: parts[0], Seed: seed, Name: parts[2]}, true
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".txt", ".dat":
		return "text/tab-separated-values"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".db":
		return "application/vnd.sqlite3"
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
