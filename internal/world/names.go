package world

import (
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"
)

// DefaultUnnamedPrefix prefixes names synthesised for unnamed entities.
const DefaultUnnamedPrefix = "__UNNAMED_ENTITY"

// NameAllocator synthesises names for entities constructed without one.
// Each world owns its allocator; loaders may share it across goroutines.
type NameAllocator struct {
	prefix string
	next   atomic.Uint64
}

func NewNameAllocator(prefix string) *NameAllocator {
	if prefix == "" {
		prefix = DefaultUnnamedPrefix
	}
	return &NameAllocator{prefix: prefix}
}

// Next returns prefix+n for a counter starting at zero.
func (a *NameAllocator) Next() string {
	n := a.next.Add(1) - 1
	return a.prefix + strconv.FormatUint(n, 10)
}

// NormalizeName trims and NFC-normalises a name so that canonically
// equivalent spellings collide in the world's name index.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
