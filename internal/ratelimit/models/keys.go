package models

import (
	"fmt"
	"strings"
)

type KeyPrefix string

const (
	KeyPrefixIP     KeyPrefix = "ip"
	KeyPrefixWallet KeyPrefix = "wallet"
)

// Key identifies one counter. Segments are escaped so a caller-controlled
// identifier containing ':' cannot collide with another bucket.
type Key struct {
	prefix     KeyPrefix
	identifier string
	class      Class
}

func NewKey(prefix KeyPrefix, identifier string, class Class) Key {
	return Key{
		prefix:     prefix,
		identifier: sanitizeKeySegment(identifier),
		class:      class,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, k.identifier, k.class)
}

// sanitizeKeySegment escapes '_' to '__' first, then ':' to '_c', which keeps
// the mapping injective.
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
