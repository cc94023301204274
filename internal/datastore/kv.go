// ABOUTME: Key/value convenience accessors over two-column (key, value) tables
// ABOUTME: Shape is validated once per table and cached on the connection

package datastore

import (
	"context"
	"fmt"
)

// ensureKeyValue checks that table exists and is key/value shaped. Tables
// created from a key/value schema are trusted from bootstrap; foreign tables
// are introspected once and the verdict cached for the connection's lifetime.
func (c *Conn) ensureKeyValue(ctx context.Context, table string) error {
	if c.closed {
		return ErrClosed
	}
	if c.kvShapes[table] {
		return nil
	}
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	if !c.tables[table] {
		live, err := c.listTables(ctx)
		if err != nil {
			return err
		}
		c.tables = live
		if !live[table] {
			return fmt.Errorf("%w: %s", ErrUnknownTable, table)
		}
	}

	columns, err := c.ColumnNames(ctx, table)
	if err != nil {
		return err
	}
	if len(columns) != 2 || !containsAll(columns, "key", "value") {
		return fmt.Errorf("%w: %s has columns %v", ErrNotKeyValue, table, columns)
	}
	c.kvShapes[table] = true
	return nil
}

func containsAll(haystack []string, needles ...string) bool {
	for _, n := range needles {
		found := false
		for _, h := range haystack {
			if h == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GetValue returns the stored text for key. A missing key returns ("", false,
// nil), not an error.
func (c *Conn) GetValue(ctx context.Context, table, key string) (string, bool, error) {
	if err := c.ensureKeyValue(ctx, table); err != nil {
		return "", false, err
	}
	row, err := c.Fetch(ctx, fmt.Sprintf("SELECT value FROM %s WHERE key = ?", table), key)
	if err != nil {
		return "", false, err
	}
	if row == nil {
		return "", false, nil
	}
	return row.Text("value"), true, nil
}

// AllValues returns every key with its stored text form.
func (c *Conn) AllValues(ctx context.Context, table string) (map[string]string, error) {
	if err := c.ensureKeyValue(ctx, table); err != nil {
		return nil, err
	}
	rows, err := c.FetchAll(ctx, fmt.Sprintf("SELECT key, value FROM %s", table))
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Text("key")] = row.Text("value")
	}
	return values, nil
}

// SetValue upserts the row for key. Booleans are normalized to "1"/"0";
// other values are stored via their canonical text form. A value that cannot
// be rendered fails with ErrUnsupportedValue.
func (c *Conn) SetValue(ctx context.Context, table, key string, value any) error {
	if err := c.ensureKeyValue(ctx, table); err != nil {
		return err
	}
	text, err := encodeValue(value)
	if err != nil {
		return err
	}
	return c.Execute(ctx, fmt.Sprintf("INSERT OR REPLACE INTO %s (key, value) VALUES (?, ?)", table), key, text)
}

// DeleteValue removes the row for key if present. Deleting an absent key is
// not an error.
func (c *Conn) DeleteValue(ctx context.Context, table, key string) error {
	if err := c.ensureKeyValue(ctx, table); err != nil {
		return err
	}
	return c.Execute(ctx, fmt.Sprintf("DELETE FROM %s WHERE key = ?", table), key)
}
