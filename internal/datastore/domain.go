// ABOUTME: Per-domain registry of table schemas and cached scope connections
// ABOUTME: Lazily opens one connection per scope and owns the domain directory

package datastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Domain is a named namespace owning a directory on disk, a set of table
// schemas registered per scope type, and a cache of live scope connections.
// Exactly one Conn exists per live (domain, scope) pair: repeated Get calls
// for the same scope return the same instance until it is closed or deleted.
type Domain struct {
	name   string
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	conns   map[string]*Conn          // keyed by scope key
	schemas map[string][]*TableSchema // keyed by scope type
}

func newDomain(name, dir string, logger *slog.Logger) (*Domain, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating domain directory: %w", err)
	}
	return &Domain{
		name:    name,
		dir:     dir,
		logger:  logger,
		conns:   make(map[string]*Conn),
		schemas: make(map[string][]*TableSchema),
	}, nil
}

// Name returns the domain name.
func (d *Domain) Name() string { return d.name }

// Dir returns the domain's directory.
func (d *Domain) Dir() string { return d.dir }

// RegisterSchemas associates the schemas with a scope type: the kind of a
// typed scope ("guild", "user", ...) or the name of a named scope ("global").
// Registering the same scope type again replaces its schema set. This is a
// startup-time configuration operation; schemas registered after a scope has
// been opened only apply once that scope is reopened.
func (d *Domain) RegisterSchemas(scopeType string, schemas ...*TableSchema) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schemas[strings.ToLower(scopeType)] = schemas
}

// Schemas returns the schemas registered for a scope type.
func (d *Domain) Schemas(scopeType string) []*TableSchema {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.schemas[strings.ToLower(scopeType)]
}

// Get returns the cached connection for scope, opening the database file
// (and running schema bootstrap) on first call. The schemas applied are
// exactly those registered for the scope's type.
func (d *Domain) Get(ctx context.Context, scope Scope) (*Conn, error) {
	if err := scope.validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := scope.Key()
	if conn, ok := d.conns[key]; ok {
		return conn, nil
	}

	dataDir := filepath.Join(d.dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := openConn(ctx, d.name, scope, filepath.Join(dataDir, key+".db"), d.schemas[scope.Type()], d.logger)
	if err != nil {
		return nil, err
	}
	d.conns[key] = conn
	return conn, nil
}

// Conns returns every live connection of the domain.
func (d *Domain) Conns() []*Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Conn, 0, len(d.conns))
	for _, conn := range d.conns {
		out = append(out, conn)
	}
	return out
}

// Close releases the connection for scope and evicts it from the cache.
// Closing a scope that is not open is not an error.
func (d *Domain) Close(scope Scope) error {
	if err := scope.validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := scope.Key()
	conn, ok := d.conns[key]
	if !ok {
		return nil
	}
	delete(d.conns, key)
	return conn.Close()
}

// CloseAll releases every live connection of the domain.
func (d *Domain) CloseAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for key, conn := range d.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", key, err))
		}
	}
	d.conns = make(map[string]*Conn)
	return errors.Join(errs...)
}

// Delete closes the connection for scope (if open) and removes its database
// file. A subsequent Get recreates the file from scratch with defaults
// seeded.
func (d *Domain) Delete(scope Scope) error {
	if err := scope.validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	key := scope.Key()
	if conn, ok := d.conns[key]; ok {
		delete(d.conns, key)
		if err := conn.Close(); err != nil {
			return err
		}
	}

	path := filepath.Join(d.dir, "data", key+".db")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing database file: %w", err)
	}
	d.logger.Info("deleted scope database", "domain", d.name, "scope", key)
	return nil
}

// DeleteAll closes every connection and removes every database file of the
// domain.
func (d *Domain) DeleteAll() error {
	if err := d.CloseAll(); err != nil {
		return err
	}

	paths, err := filepath.Glob(filepath.Join(d.dir, "data", "*.db"))
	if err != nil {
		return fmt.Errorf("listing database files: %w", err)
	}
	var errs []error
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", path, err))
		}
	}
	if len(errs) == 0 {
		d.logger.Info("deleted all scope databases", "domain", d.name, "count", len(paths))
	}
	return errors.Join(errs...)
}

// Subfolder returns the path of a named folder inside the domain directory,
// creating it when create is true.
func (d *Domain) Subfolder(name string, create bool) (string, error) {
	path := filepath.Join(d.dir, name)
	if create {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return "", fmt.Errorf("creating subfolder: %w", err)
		}
	}
	return path, nil
}

// AssetsDir returns the domain's conventional assets folder path. The folder
// is not created.
func (d *Domain) AssetsDir() string {
	return filepath.Join(d.dir, "assets")
}
