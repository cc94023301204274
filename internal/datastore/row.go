// ABOUTME: Generic result row type returned by Fetch/FetchAll/Evaluate
// ABOUTME: Column-name keyed with loose typed accessors for SQLite values

package datastore

import "strconv"

// Row is a single query result keyed by column name. SQLite values surface as
// int64, float64, string, []byte (normalized to string on scan) or nil.
type Row map[string]any

// Has reports whether the row contains the named column.
func (r Row) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// Text returns the column rendered as a string, or "" for NULL or a missing
// column.
func (r Row) Text(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

// Int returns the column as an int64, parsing text forms, or 0 when the
// column is NULL, missing, or unparseable.
func (r Row) Int(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Float returns the column as a float64, or 0 when NULL, missing, or
// unparseable.
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	default:
		return 0
	}
}

// Bool returns the column as a bool. Numeric values are true when non-zero;
// text values accept the strconv.ParseBool forms plus "1"/"0".
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case []byte:
		b, _ := strconv.ParseBool(string(v))
		return b
	default:
		return false
	}
}
