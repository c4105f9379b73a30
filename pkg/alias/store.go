// Package alias keeps user given names for accessories in a bounded
// in-memory cache. Nothing is persisted; callers seed it at startup.
package alias

import (
	"strings"

	"github.com/Krajiyah/uwb-sdk/pkg/util"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// DefaultSize bounds the number of aliases kept
const DefaultSize = 256

// ErrEmptyAlias is returned when setting a blank alias
var ErrEmptyAlias = errors.New("alias is empty")

// Store maps normalized MACs to aliases, evicting the least recently used
type Store struct {
	cache *lru.Cache[string, string]
}

// New returns a store holding at most size aliases (DefaultSize when size <= 0)
func New(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, errors.Wrap(err, "alias cache")
	}
	return &Store{cache: c}, nil
}

// Seed adds every mac -> alias pair, skipping blank aliases
func (s *Store) Seed(aliases map[string]string) {
	for mac, a := range aliases {
		_ = s.Set(mac, a)
	}
}

// Set names mac
func (s *Store) Set(mac, alias string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return ErrEmptyAlias
	}
	s.cache.Add(util.NormalizeMAC(mac), alias)
	return nil
}

// Lookup returns the alias for mac
func (s *Store) Lookup(mac string) (string, bool) {
	if s == nil {
		return "", false
	}
	return s.cache.Get(util.NormalizeMAC(mac))
}

// Remove forgets the alias for mac and reports whether there was one
func (s *Store) Remove(mac string) bool {
	return s.cache.Remove(util.NormalizeMAC(mac))
}

// All returns a copy of every alias
func (s *Store) All() map[string]string {
	ret := map[string]string{}
	for _, mac := range s.cache.Keys() {
		if a, ok := s.cache.Peek(mac); ok {
			ret[mac] = a
		}
	}
	return ret
}

// Len returns the number of aliases
func (s *Store) Len() int { return s.cache.Len() }
