package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Package is one removable distribution and its on-disk size.
type Package struct {
	Name     string
	Version  string
	Location string
	Size     int64
}

// InstallDir is where the package's importable code lives.
func (p Package) InstallDir() string {
	if p.Location == "" {
		return ""
	}
	return filepath.Join(p.Location, strings.ReplaceAll(p.Name, "-", "_"))
}

// Snapshot is the immutable, name-sorted result of a single scan.
type Snapshot struct {
	pkgs []Package
}

// NewSnapshot sorts a copy of pkgs case-insensitively by name.
func NewSnapshot(pkgs []Package) Snapshot {
	cp := append([]Package(nil), pkgs...)
	sort.SliceStable(cp, func(i, j int) bool {
		return strings.ToLower(cp[i].Name) < strings.ToLower(cp[j].Name)
	})
	return Snapshot{pkgs: cp}
}

func (s Snapshot) Len() int { return len(s.pkgs) }

func (s Snapshot) At(i int) Package { return s.pkgs[i] }

// Packages returns a copy of the snapshot contents.
func (s Snapshot) Packages() []Package { return append([]Package(nil), s.pkgs...) }

// Find looks a package up case-insensitively.
func (s Snapshot) Find(name string) (Package, bool) {
	for _, p := range s.pkgs {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Package{}, false
}

// TotalSize sums every package in the snapshot.
func (s Snapshot) TotalSize() int64 {
	var total int64
	for _, p := range s.pkgs {
		total += p.Size
	}
	return total
}

// Options defines scanning behavior.
type Options struct {
	Concurrency int      // workers for size calculation
	Exclude     []string // extra glob patterns on top of the built-in exclusions
}

// Scan lists installed packages, drops excluded ones and sizes the rest.
// Only a provider failure is an error; unreadable files simply count as zero.
func Scan(ctx context.Context, provider Provider, opts Options) (Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
		if opts.Concurrency < 1 {
			opts.Concurrency = 1
		}
	}

	excl, err := DefaultExclusions().With(opts.Exclude...)
	if err != nil {
		return Snapshot{}, err
	}
	entries, err := provider.Installed(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list installed packages: %w", err)
	}

	seen := make(map[string]struct{}, len(entries))
	pkgs := make([]Package, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" || excl.Excludes(e.Name) {
			continue
		}
		key := strings.ToLower(e.Name)
		// first hit wins, same as the interpreter's import order
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		pkgs = append(pkgs, Package{Name: e.Name, Version: e.Version, Location: e.Location})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := range pkgs {
		i := i
		g.Go(func() error {
			pkgs[i].Size = dirSize(gctx, pkgs[i].InstallDir())
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(pkgs), nil
}

// dirSize computes total size in bytes of a directory tree. A missing
// directory is 0, and entries that cannot be read are skipped.
func dirSize(ctx context.Context, root string) int64 {
	if root == "" {
		return 0
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return 0
	}
	var total int64
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		var info fs.FileInfo
		var e error
		if d.Type()&os.ModeSymlink != 0 {
			// count the target of file links, never descend into linked dirs
			info, e = os.Stat(path)
			if e == nil && info.IsDir() {
				return nil
			}
		} else {
			info, e = d.Info()
		}
		if e != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
