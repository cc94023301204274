// ABOUTME: Declarative table schemas applied during connection bootstrap
// ABOUTME: General CREATE TABLE form and the two-column key/value form

package datastore

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ReseedPolicy controls when a schema's default rows are applied.
type ReseedPolicy int

const (
	// ReseedOnce applies default rows only when the table is first created.
	ReseedOnce ReseedPolicy = iota

	// ReseedAlways re-applies default rows (insert, skip if the key is
	// already present) on every connection open, even when the table already
	// existed. Keys whose values have been modified are left untouched.
	ReseedAlways
)

func (p ReseedPolicy) String() string {
	switch p {
	case ReseedOnce:
		return "once"
	case ReseedAlways:
		return "always"
	default:
		return fmt.Sprintf("ReseedPolicy(%d)", int(p))
	}
}

// TableSchema is an immutable description of one table: its creation
// statement, optional default rows, and a reseed policy. Schemas are
// registered on a Domain and materialized into each scope's database the
// first time that scope is opened.
type TableSchema struct {
	createStmt string
	tableName  string
	columns    []string // shared column set of the default rows, sorted
	defaults   []Row
	reseed     ReseedPolicy
	keyValue   bool
}

var createTablePattern = regexp.MustCompile(
	`(?is)^\s*CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// NewTableSchema builds a schema from a raw CREATE TABLE statement. The
// statement must begin with a CREATE TABLE clause naming exactly one table;
// anything else fails with ErrSchemaDefinition before any storage is touched.
// Default rows, if any, must all share an identical column set.
func NewTableSchema(createStmt string, defaults []Row, policy ReseedPolicy) (*TableSchema, error) {
	m := createTablePattern.FindStringSubmatch(createStmt)
	if m == nil {
		return nil, fmt.Errorf("%w: statement must begin with a CREATE TABLE clause", ErrSchemaDefinition)
	}

	columns, err := uniformColumns(defaults)
	if err != nil {
		return nil, err
	}

	return &TableSchema{
		createStmt: createStmt,
		tableName:  m[1],
		columns:    columns,
		defaults:   defaults,
		reseed:     policy,
	}, nil
}

// NewKeyValueSchema builds a key/value schema: a two-column (key TEXT, value
// TEXT) table whose creation statement is synthesized from the name. Default
// values are rendered to their canonical text form at construction time, so a
// value that cannot be rendered fails here rather than at bootstrap.
func NewKeyValueSchema(name string, defaults map[string]any, policy ReseedPolicy) (*TableSchema, error) {
	if !tableNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: invalid table name %q", ErrSchemaDefinition, name)
	}

	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		text, err := encodeValue(defaults[k])
		if err != nil {
			return nil, fmt.Errorf("%w: default %q: %v", ErrSchemaDefinition, k, err)
		}
		rows = append(rows, Row{"key": k, "value": text})
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT)", name)
	schema, err := NewTableSchema(stmt, rows, policy)
	if err != nil {
		return nil, err
	}
	schema.keyValue = true
	return schema, nil
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CreateStatement returns the raw CREATE TABLE statement.
func (s *TableSchema) CreateStatement() string { return s.createStmt }

// TableName returns the table name extracted from the creation statement.
func (s *TableSchema) TableName() string { return s.tableName }

// Reseed returns the schema's reseed policy.
func (s *TableSchema) Reseed() ReseedPolicy { return s.reseed }

// KeyValue reports whether the schema was built with NewKeyValueSchema.
func (s *TableSchema) KeyValue() bool { return s.keyValue }

// Defaults returns a copy of the default rows in insertion order.
func (s *TableSchema) Defaults() []Row {
	out := make([]Row, len(s.defaults))
	for i, r := range s.defaults {
		c := make(Row, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

// seedStatement returns the INSERT OR IGNORE statement and bound argument
// rows used to apply the default rows, or "" when there are none.
func (s *TableSchema) seedStatement() (string, [][]any) {
	if len(s.defaults) == 0 {
		return "", nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.columns)), ", ")
	stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		s.tableName, strings.Join(s.columns, ", "), placeholders)

	rows := make([][]any, len(s.defaults))
	for i, d := range s.defaults {
		args := make([]any, len(s.columns))
		for j, col := range s.columns {
			args[j] = bindValue(d[col])
		}
		rows[i] = args
	}
	return stmt, rows
}

// uniformColumns returns the sorted shared column set of the rows, failing
// with ErrSchemaDefinition when the rows disagree.
func uniformColumns(rows []Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, r := range rows[1:] {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("%w: default rows must share an identical column set", ErrSchemaDefinition)
		}
		for _, col := range columns {
			if _, ok := r[col]; !ok {
				return nil, fmt.Errorf("%w: default rows must share an identical column set", ErrSchemaDefinition)
			}
		}
	}
	return columns, nil
}
