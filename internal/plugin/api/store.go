package api

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Store is the small per-session key/value configuration store exposed
// through the bridge. Values are scoped by extension id; extension reads
// may interleave freely with host writes. When a path is configured the
// store can be persisted as a two-level JSON document
// {"<extension>": {"<key>": value}}.
type Store struct {
	entries cmap.ConcurrentMap[string, any]

	path   string
	fileMu sync.Mutex // serializes Load/Save
}

// storeKeySep joins extension id and key in the in-memory map. NUL never
// occurs in either part.
const storeKeySep = "\x00"

// NewStore creates a store. path may be empty for a purely in-memory
// session store.
func NewStore(path string) *Store {
	return &Store{
		entries: cmap.New[any](),
		path:    path,
	}
}

// Get returns the value stored for an extension's key.
func (s *Store) Get(extension, key string) (any, bool) {
	return s.entries.Get(extension + storeKeySep + key)
}

// Set stores a value for an extension's key. Only JSON-representable
// scalar and composite values are accepted.
func (s *Store) Set(extension, key string, value any) error {
	if extension == "" || key == "" {
		return fmt.Errorf("store: extension and key must be non-empty")
	}
	switch value.(type) {
	case nil, bool, string, int, int64, float64, []any, map[string]any:
	default:
		return fmt.Errorf("store: unsupported value type %T", value)
	}
	s.entries.Set(extension+storeKeySep+key, value)
	return nil
}

// Delete removes a stored value.
func (s *Store) Delete(extension, key string) {
	s.entries.Remove(extension + storeKeySep + key)
}

// Keys returns the sorted keys stored for an extension.
func (s *Store) Keys(extension string) []string {
	prefix := extension + storeKeySep
	var keys []string
	for k := range s.entries.IterBuffered() {
		if strings.HasPrefix(k.Key, prefix) {
			keys = append(keys, strings.TrimPrefix(k.Key, prefix))
		}
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every entry. Called on full runtime shutdown.
func (s *Store) Clear() {
	s.entries.Clear()
}

// Load reads the backing JSON file, replacing in-memory contents.
// A missing file is not an error.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("store: read %s: %w", s.path, err)
	}
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("store: %s is not valid JSON", s.path)
	}

	s.entries.Clear()
	gjson.ParseBytes(data).ForEach(func(ext, keys gjson.Result) bool {
		keys.ForEach(func(key, val gjson.Result) bool {
			s.entries.Set(ext.String()+storeKeySep+key.String(), decodeValue(val))
			return true
		})
		return true
	})
	return nil
}

// decodeValue keeps integral JSON numbers as int64, matching the types
// handed in through Set.
func decodeValue(r gjson.Result) any {
	if r.Type == gjson.Number && !strings.ContainsAny(r.Raw, ".eE") {
		return r.Int()
	}
	return r.Value()
}

// Save writes the store contents to the backing JSON file.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	doc := []byte("{}")
	var err error
	for item := range s.entries.IterBuffered() {
		ext, key, ok := strings.Cut(item.Key, storeKeySep)
		if !ok {
			continue
		}
		doc, err = sjson.SetBytes(doc, escapePath(ext)+"."+escapePath(key), item.Val)
		if err != nil {
			return fmt.Errorf("store: encode %s: %w", item.Key, err)
		}
	}

	if err := os.WriteFile(s.path, doc, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}

// escapePath escapes sjson path metacharacters in a single path element.
func escapePath(s string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`)
	return r.Replace(s)
}
