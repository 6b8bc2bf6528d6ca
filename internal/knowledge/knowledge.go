// Package knowledge holds the static keyword-to-answer table consulted before
// the generator. The table is loaded once at start and never mutated.
package knowledge

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidBase is returned when a table fails validation.
var ErrInvalidBase = errors.New("invalid knowledge base")

// Entry is one canned answer and the keywords that trigger it.
type Entry struct {
	Name     string   `yaml:"name"      validate:"required"`
	Keywords []string `yaml:"keywords"  validate:"min=1,dive,required"`
	Response string   `yaml:"response"  validate:"required"`
	Category string   `yaml:"category"`
	FollowUp string   `yaml:"follow_up"`
}

type file struct {
	Entries []Entry `yaml:"entries"`
}

// Base is an ordered, read-only keyword table. Safe for concurrent use.
type Base struct {
	entries []Entry
}

// New validates entries and returns a Base that matches them in the given order.
// Keywords are lowercased so matching is case-insensitive.
func New(entries []Entry) (*Base, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidBase)
	}

	validate := validator.New()
	seen := make(map[string]struct{}, len(entries))
	normalized := make([]Entry, 0, len(entries))

	for i, e := range entries {
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("%w: entry %d (%q): %v", ErrInvalidBase, i, e.Name, err)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %q", ErrInvalidBase, e.Name)
		}
		seen[e.Name] = struct{}{}

		keywords := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = normalize(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("%w: entry %q has a blank keyword", ErrInvalidBase, e.Name)
			}
			keywords = append(keywords, kw)
		}
		e.Keywords = keywords
		e.Response = strings.TrimSpace(e.Response)
		normalized = append(normalized, e)
	}

	return &Base{entries: normalized}, nil
}

// Parse decodes a YAML document with a top-level "entries" list.
func Parse(data []byte) (*Base, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase, err)
	}
	return New(f.Entries)
}

// Load reads the table from path, or returns the built-in table when path is empty.
func Load(path string) (*Base, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return Parse(data)
}

// Match returns the first entry, in declaration order, with a keyword contained in text.
func (b *Base) Match(text string) (Entry, bool) {
	haystack := normalize(text)
	if strings.TrimSpace(haystack) == "" {
		return Entry{}, false
	}
	for _, e := range b.entries {
		for _, kw := range e.Keywords {
			if strings.Contains(haystack, kw) {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the table in declaration order.
func (b *Base) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len reports the number of entries.
func (b *Base) Len() int {
	return len(b.entries)
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// normalize lowercases s and folds typographic apostrophes, which Teams
// clients substitute for ASCII ones.
func normalize(s string) string {
	return apostrophes.Replace(strings.ToLower(s))
}
