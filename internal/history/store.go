package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// DefaultFile is used when no per-title file applies.
const DefaultFile = "history.json"

// ErrCorrupt is returned when a history file is not valid JSON.
var ErrCorrupt = errors.New("history file is corrupt")

// Store persists a History as a JSON document:
//
//	{"title": "...", "entries": ["newest", "older"]}
//
// A bare JSON array is accepted when loading.
type Store struct {
	dir      string
	title    string
	perTitle bool
	save     int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTitle names the session. With per-title files each title gets its
// own history.
func WithTitle(title string, perTitle bool) StoreOption {
	return func(s *Store) {
		s.title = title
		s.perTitle = perTitle
	}
}

// WithSaveCount bounds how many entries are written. Zero disables saving;
// a negative count keeps 9999 entries.
func WithSaveCount(n int) StoreOption {
	return func(s *Store) { s.save = n }
}

// NewStore creates a store writing into dir.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{dir: dir, save: DefaultLimit}
	for _, opt := range opts {
		opt(s)
	}
	if s.save < 0 {
		s.save = 9999
	}
	return s
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	name := DefaultFile
	if s.perTitle {
		if slug := Slug(s.title); slug != "" && slug != "lookout" {
			name = slug + ".json"
		}
	}
	return filepath.Join(s.dir, name)
}

// Load reads the stored entries. A missing file yields no entries.
func (s *Store) Load() ([]string, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: %w", s.Path(), ErrCorrupt)
	}

	list := gjson.ParseBytes(data)
	if !list.IsArray() {
		list = list.Get("entries")
	}
	var entries []string
	list.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String {
			entries = append(entries, v.String())
		}
		return true
	})
	return entries, nil
}

// Save writes up to the save count of entries. The file is replaced
// atomically.
func (s *Store) Save(entries []string) error {
	if s.save == 0 {
		return nil
	}
	if len(entries) > s.save {
		entries = entries[:s.save]
	}
	if entries == nil {
		entries = []string{}
	}

	doc, err := sjson.SetBytes([]byte(`{}`), "title", s.title)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	doc, err = sjson.SetBytes(doc, "entries", entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".history-*")
	if err != nil {
		return fmt.Errorf("create history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pretty.Pretty(doc)); err != nil {
		tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path()); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// Slug lowercases title and replaces runs of other characters with '-'.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
