package capability

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// ErrDuplicateID is returned when an instance with an already indexed
// id is added.
var ErrDuplicateID = errors.New("capability: duplicate extension id")

// Entry is one indexed instance with its classified contracts.
type Entry struct {
	ID        string
	Extension Extension
	Kinds     []Kind
}

// Registry indexes live extension instances under the contracts they
// satisfy. Queries are safe to interleave with mutation.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*Entry
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Add classifies the instance and indexes it under every contract it
// satisfies. Returns the classified kinds.
func (r *Registry) Add(ext Extension) ([]Kind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ext.ID()
	if _, exists := r.entries[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	kinds := Classify(ext)
	r.entries[id] = &Entry{ID: id, Extension: ext, Kinds: kinds}
	r.order = append(r.order, id)
	return kinds, nil
}

// Remove drops the instance from every index. Removing an unknown id
// is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return
	}
	delete(r.entries, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Has reports whether the id is indexed.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// Kinds returns the classified contracts for the id.
func (r *Registry) Kinds(id string) []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	return append([]Kind(nil), e.Kinds...)
}

// Entries returns all indexed entries in registration order.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// ByKind returns every instance satisfying the contract, in
// registration order.
func (r *Registry) ByKind(k Kind) []Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Extension
	for _, id := range r.order {
		e := r.entries[id]
		for _, ek := range e.Kinds {
			if ek == k {
				out = append(out, e.Extension)
				break
			}
		}
	}
	return out
}

// First returns the first-registered instance satisfying the contract.
func (r *Registry) First(k Kind) (Extension, bool) {
	all := r.ByKind(k)
	if len(all) == 0 {
		return nil, false
	}
	return all[0], true
}

// CommandProviders returns all command providers in registration order.
func (r *Registry) CommandProviders() []CommandProvider {
	var out []CommandProvider
	for _, ext := range r.ByKind(KindCommand) {
		out = append(out, ext.(CommandProvider))
	}
	return out
}

// ColumnProviders returns all column providers in registration order.
func (r *Registry) ColumnProviders() []ColumnProvider {
	var out []ColumnProvider
	for _, ext := range r.ByKind(KindColumn) {
		out = append(out, ext.(ColumnProvider))
	}
	return out
}

// FindCommand resolves a command id to its provider. The first
// registered provider exposing the id wins.
func (r *Registry) FindCommand(commandID string) (CommandProvider, Command, bool) {
	for _, p := range r.CommandProviders() {
		for _, c := range p.Commands() {
			if c.ID == commandID {
				return p, c, true
			}
		}
	}
	return nil, Command{}, false
}

// FilesystemFor returns the filesystem provider whose prefix matches
// the path. Matching is case-insensitive; the longest matching prefix
// wins, ids breaking remaining ties in lexical order.
func (r *Registry) FilesystemFor(path string) (FilesystemProvider, bool) {
	lower := strings.ToLower(path)

	var (
		best    FilesystemProvider
		bestLen = -1
		bestID  string
	)
	for _, ext := range r.ByKind(KindFilesystem) {
		p := ext.(FilesystemProvider)
		prefix := strings.ToLower(p.Prefix())
		if prefix == "" || !strings.HasPrefix(lower, prefix) {
			continue
		}
		if len(prefix) > bestLen || (len(prefix) == bestLen && p.ID() < bestID) {
			best, bestLen, bestID = p, len(prefix), p.ID()
		}
	}
	return best, best != nil
}

// ViewerFor returns the viewer claiming the path. Extension matching
// is case-insensitive; a specific extension beats the "*" wildcard.
// Ties break by priority (higher wins), then matched-extension length,
// then lexical id order.
func (r *Registry) ViewerFor(path string) (Viewer, bool) {
	pathExt := strings.ToLower(filepath.Base(path))

	type match struct {
		viewer Viewer
		extLen int
		prio   int
		id     string
	}
	var best *match

	for _, ext := range r.ByKind(KindViewer) {
		v := ext.(Viewer)
		spec := v.ViewerSpec()
		for _, declared := range spec.Extensions {
			d := strings.ToLower(declared)
			var extLen int
			switch {
			case d == "*":
				extLen = 0
			case strings.HasSuffix(pathExt, d):
				extLen = len(d)
			default:
				continue
			}
			m := &match{viewer: v, extLen: extLen, prio: spec.Priority, id: v.ID()}
			if best == nil || better(m.prio, m.extLen, m.id, best.prio, best.extLen, best.id) {
				best = m
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return best.viewer, true
}

// ViewerForMediaType returns the highest-priority viewer declaring the
// media type. Matching is case-insensitive.
func (r *Registry) ViewerForMediaType(mediaType string) (Viewer, bool) {
	want := strings.ToLower(mediaType)

	var (
		best   Viewer
		prio   int
		bestID string
	)
	for _, ext := range r.ByKind(KindViewer) {
		v := ext.(Viewer)
		spec := v.ViewerSpec()
		for _, mt := range spec.MediaTypes {
			if strings.ToLower(mt) != want {
				continue
			}
			if best == nil || spec.Priority > prio || (spec.Priority == prio && v.ID() < bestID) {
				best, prio, bestID = v, spec.Priority, v.ID()
			}
		}
	}
	return best, best != nil
}

// ArchiveFor returns the archive handler whose declared extension
// matches the path. Matching is case-insensitive and compound-aware:
// the longest declared extension wins, so a ".tar.gz" handler beats a
// ".gz" handler for "backup.tar.gz".
func (r *Registry) ArchiveFor(path string) (ArchiveHandler, bool) {
	base := strings.ToLower(filepath.Base(path))

	var (
		best    ArchiveHandler
		bestLen = -1
		bestID  string
	)
	for _, ext := range r.ByKind(KindArchive) {
		h := ext.(ArchiveHandler)
		for _, declared := range h.ArchiveExtensions() {
			d := strings.ToLower(declared)
			if d == "" || !strings.HasSuffix(base, d) {
				continue
			}
			if len(d) > bestLen || (len(d) == bestLen && h.ID() < bestID) {
				best, bestLen, bestID = h, len(d), h.ID()
			}
		}
	}
	return best, best != nil
}

// better orders viewer matches: priority, then specificity, then id.
func better(prio, extLen int, id string, bPrio, bExtLen int, bID string) bool {
	if prio != bPrio {
		return prio > bPrio
	}
	if extLen != bExtLen {
		return extLen > bExtLen
	}
	return id < bID
}
