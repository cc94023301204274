// ABOUTME: Scope identity types and the storage-key derivation
// ABOUTME: A scope is either a typed identity (kind + id) or a named scope

package datastore

import (
	"fmt"
	"regexp"
	"strings"
)

// Scope identifies the isolation unit for storage. It is a sealed variant
// with two cases: TypedScope (kind + numeric id, e.g. a guild or a user) and
// NamedScope (an arbitrary name such as "global").
type Scope interface {
	// Key returns the filesystem-safe storage key for the scope. The mapping
	// is stable across process restarts: the same scope always resolves to
	// the same database file.
	//
	// Key is not injective across variants: TypedScope{"guild", 1} and
	// NamedScope("guild_1") both map to "guild_1" and therefore the same
	// file. Within a domain, stick to one variant per key space.
	Key() string

	// Type returns the registration key under which table schemas are linked:
	// the lowered kind for a typed scope, the lowered name for a named scope.
	Type() string

	validate() error
}

// TypedScope is a (kind, numeric id) scope identity, e.g. {"guild", 1234}.
type TypedScope struct {
	Kind string
	ID   uint64
}

// NamedScope is a scope identified by name alone, e.g. "global".
type NamedScope string

// GlobalScope is the conventional named scope for data shared across all
// typed scopes of a domain.
const GlobalScope = NamedScope("global")

var scopeKindPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Key returns lower("{kind}_{id}").
func (s TypedScope) Key() string {
	return strings.ToLower(fmt.Sprintf("%s_%d", s.Kind, s.ID))
}

// Type returns the lowered kind.
func (s TypedScope) Type() string {
	return strings.ToLower(s.Kind)
}

func (s TypedScope) String() string {
	return s.Key()
}

func (s TypedScope) validate() error {
	if !scopeKindPattern.MatchString(strings.ToLower(s.Kind)) {
		return fmt.Errorf("%w: kind %q", ErrInvalidScope, s.Kind)
	}
	return nil
}

var scopeKeyUnsafe = regexp.MustCompile(`[^a-z0-9_]`)

// Key returns the lowered name with every character outside [a-z0-9_]
// replaced by an underscore.
func (s NamedScope) Key() string {
	return scopeKeyUnsafe.ReplaceAllString(strings.ToLower(string(s)), "_")
}

// Type returns the lowered name.
func (s NamedScope) Type() string {
	return strings.ToLower(string(s))
}

func (s NamedScope) String() string {
	return s.Key()
}

func (s NamedScope) validate() error {
	if strings.TrimSpace(string(s)) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidScope)
	}
	return nil
}
