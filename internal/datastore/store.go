// ABOUTME: Process-level registry mapping domain names to domain registries
// ABOUTME: Constructed by the composition root and passed to each module

package datastore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// Store maps domain names to their registries. It replaces a process-wide
// singleton: the composition root constructs one Store and hands it to every
// module, so independently initialized modules converge on the same Domain
// instance for a given name. Reset exists for test isolation.
type Store struct {
	root   string
	logger *slog.Logger

	mu      sync.Mutex
	domains map[string]*Domain
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open creates a Store rooted at the given directory, creating it if needed.
func Open(root string, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, errors.New("datastore root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating datastore root: %w", err)
	}

	s := &Store{
		root:    root,
		domains: make(map[string]*Domain),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "datastore")
	}

	s.logger.Info("datastore opened", "root", root)
	return s, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// ResourcesDir returns the path of the shared resources folder under the
// store root. The folder is not created.
func (s *Store) ResourcesDir() string {
	return filepath.Join(s.root, "resources")
}

// domainNamePattern restricts domain names to identifiers, so the domain
// directory always lands directly under the store root.
var domainNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Domain returns the registry for the named domain, creating it (and its
// directory) on first reference. The same name always resolves to the same
// Domain instance for the Store's lifetime.
func (s *Store) Domain(name string) (*Domain, error) {
	name = strings.ToLower(name)
	if !domainNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid domain name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.domains[name]; ok {
		return d, nil
	}
	d, err := newDomain(name, filepath.Join(s.root, name), s.logger)
	if err != nil {
		return nil, err
	}
	s.domains[name] = d
	return d, nil
}

// Domains returns every domain created so far.
func (s *Store) Domains() []*Domain {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Domain, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, d)
	}
	return out
}

// CloseAll releases every live connection across all domains. The domains
// themselves remain usable; their connections reopen lazily.
func (s *Store) CloseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, d := range s.domains {
		if err := d.CloseAll(); err != nil {
			errs = append(errs, fmt.Errorf("domain %s: %w", d.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Reset closes every connection and forgets every domain, leaving files on
// disk untouched. Subsequent Domain calls return fresh instances.
func (s *Store) Reset() error {
	err := s.CloseAll()

	s.mu.Lock()
	s.domains = make(map[string]*Domain)
	s.mu.Unlock()

	return err
}
