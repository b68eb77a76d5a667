package tui

import (
	"strings"

	"py-package-man/internal/scanner"
)

// Selection holds the names picked from one snapshot. Keys are lower-cased
// since package names compare case-insensitively.
type Selection struct {
	names map[string]struct{}
}

func NewSelection() Selection {
	return Selection{names: map[string]struct{}{}}
}

func (s *Selection) init() {
	if s.names == nil {
		s.names = map[string]struct{}{}
	}
}

func (s Selection) Has(name string) bool {
	_, ok := s.names[strings.ToLower(name)]
	return ok
}

func (s Selection) Len() int { return len(s.names) }

func (s *Selection) Toggle(name string) {
	s.init()
	key := strings.ToLower(name)
	if _, ok := s.names[key]; ok {
		delete(s.names, key)
		return
	}
	s.names[key] = struct{}{}
}

// Add selects name without toggling; used when extending a selection.
func (s *Selection) Add(name string) {
	s.init()
	s.names[strings.ToLower(name)] = struct{}{}
}

// SelectAll selects every package in snap.
func (s *Selection) SelectAll(snap scanner.Snapshot) {
	s.init()
	for i := 0; i < snap.Len(); i++ {
		s.names[strings.ToLower(snap.At(i).Name)] = struct{}{}
	}
}

func (s *Selection) Clear() { s.names = map[string]struct{}{} }

// Revalidate drops names that are no longer in snap.
func (s *Selection) Revalidate(snap scanner.Snapshot) {
	for key := range s.names {
		if _, ok := snap.Find(key); !ok {
			delete(s.names, key)
		}
	}
}

// Packages returns the selected packages in list order.
func (s Selection) Packages(snap scanner.Snapshot) []scanner.Package {
	var out []scanner.Package
	for i := 0; i < snap.Len(); i++ {
		if s.Has(snap.At(i).Name) {
			out = append(out, snap.At(i))
		}
	}
	return out
}

// Size sums the selected packages.
func (s Selection) Size(snap scanner.Snapshot) int64 {
	var total int64
	for _, p := range s.Packages(snap) {
		total += p.Size
	}
	return total
}
