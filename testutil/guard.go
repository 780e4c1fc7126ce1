// Package testutil holds layering checks shared by package tests. The model
// packages under pkg/ must stay free of the run infrastructure under internal/
// and of storage drivers, so any host can embed them.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Rule names a class of forbidden imports.
type Rule struct {
	Name      string
	Forbidden func(importPath string) bool
}

// NoInternal forbids anything under an internal/ directory.
var NoInternal = Rule{
	Name: "model packages must not depend on run infrastructure",
	Forbidden: func(p string) bool {
		return strings.Contains(p, "/internal/") || strings.HasSuffix(p, "/internal")
	},
}

// NoStorage forbids database, blob and metrics drivers.
var NoStorage = Rule{
	Name: "model packages must not import storage or metrics drivers",
	Forbidden: func(p string) bool {
		for _, prefix := range storagePrefixes {
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				return true
			}
		}
		return false
	},
}

var storagePrefixes = []string{
	"database/sql",
	"expvar",
	"github.com/aws/aws-sdk-go-v2",
	"github.com/jackc/pgx/v5",
	"github.com/prometheus/client_golang",
	"modernc.org/sqlite",
}

// AssertImports parses the non-test Go files in dir and fails t if any
// import breaks one of rules.
func AssertImports(t testing.TB, dir string, rules ...Rule) {
	t.Helper()
	imports, err := fileImports(dir)
	if err != nil {
		t.Fatalf("read imports of %s: %v", dir, err)
	}
	report(t, check(imports, rules))
}

// fileImports maps each import path to the files importing it.
func fileImports(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	out := make(map[string][]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			p := strings.Trim(imp.Path.Value, `"`)
			out[p] = append(out[p], name)
		}
	}
	return out, nil
}

func check(imports map[string][]string, rules []Rule) []string {
	var viols []string
	for p, files := range imports {
		for _, r := range rules {
			if r.Forbidden(p) {
				viols = append(viols, r.Name+": "+p+" (in "+strings.Join(files, ", ")+")")
			}
		}
	}
	sort.Strings(viols)
	return viols
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func report(t fatalLogger, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden imports:\n%s", strings.Join(viols, "\n"))
	}
}
