// Package recipekey formats and parses the namespaced recipe identity used
// everywhere a recipe is referenced outside its own detail record.
//
// "a"+id addresses a recipe served by the remote recipe API and "c"+id a
// recipe authored locally and kept in the recipe cache.
package recipekey

import (
	"errors"
	"fmt"
	"strconv"
)

// Namespace is the single-character prefix owning a recipe identity.
type Namespace byte

const (
	External Namespace = 'a'
	Local    Namespace = 'c'
)

func (n Namespace) String() string {
	switch n {
	case External:
		return "external"
	case Local:
		return "local"
	default:
		return fmt.Sprintf("namespace(%q)", byte(n))
	}
}

// ErrUnrecognizedKey is returned for any text that is not a valid key.
var ErrUnrecognizedKey = errors.New("unrecognized recipe key")

// Key is a recipe identity: a namespace plus an unsigned numeric id.
type Key struct {
	Namespace Namespace
	ID        uint64
}

// NewExternal returns the key of a remote recipe.
func NewExternal(id uint64) Key { return Key{Namespace: External, ID: id} }

// NewLocal returns the key of a locally authored recipe.
func NewLocal(id uint64) Key { return Key{Namespace: Local, ID: id} }

// IsExternal reports whether k addresses the remote source.
func (k Key) IsExternal() bool { return k.Namespace == External }

// IsLocal reports whether k addresses the recipe cache.
func (k Key) IsLocal() bool { return k.Namespace == Local }

// String is Format(k).
func (k Key) String() string { return Format(k) }

// Format renders k as prefix followed by the decimal id.
func Format(k Key) string {
	return string(rune(k.Namespace)) + strconv.FormatUint(k.ID, 10)
}

// Parse reads text produced by Format. The first byte must be 'a' or 'c'
// and the remainder one or more ASCII digits that fit in 64 bits.
func Parse(text string) (Key, error) {
	if len(text) < 2 {
		return Key{}, fmt.Errorf("%w: %q", ErrUnrecognizedKey, text)
	}
	ns := Namespace(text[0])
	if ns != External && ns != Local {
		return Key{}, fmt.Errorf("%w: %q", ErrUnrecognizedKey, text)
	}
	digits := text[1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Key{}, fmt.Errorf("%w: %q", ErrUnrecognizedKey, text)
		}
	}
	id, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrUnrecognizedKey, text)
	}
	return Key{Namespace: ns, ID: id}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) Key {
	k, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return k
}
