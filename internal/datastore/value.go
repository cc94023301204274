// ABOUTME: Canonical text encoding for key/value storage and typed reads
// ABOUTME: Booleans are stored as "1"/"0"; ValueAs casts stored text back

package datastore

import (
	"context"
	"fmt"
	"strconv"
)

// encodeValue renders a value to the canonical text form stored in key/value
// tables. Booleans normalize to "1"/"0". Unsupported types fail with
// ErrUnsupportedValue.
func encodeValue(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int:
		return strconv.Itoa(v), nil
	case int8, int16, int32:
		return fmt.Sprintf("%d", v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// bindValue normalizes a default-row value for statement binding. Booleans
// become 0/1 so general tables round-trip the same way key/value tables do;
// everything else passes through to the driver unchanged.
func bindValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

// Scalar is the set of types a stored key/value text can be cast back to.
type Scalar interface {
	bool | int | int64 | float64 | string
}

// ValueAs reads the value for key in a key/value table and casts it to T.
// A missing key returns the zero value and false, not an error. A stored
// text that cannot be parsed as T is an error.
func ValueAs[T Scalar](ctx context.Context, c *Conn, table, key string) (T, bool, error) {
	var out T

	raw, ok, err := c.GetValue(ctx, table, key)
	if err != nil || !ok {
		return out, false, err
	}

	switch p := any(&out).(type) {
	case *string:
		*p = raw
	case *bool:
		b, err := parseStoredBool(raw)
		if err != nil {
			return out, false, err
		}
		*p = b
	case *int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return out, false, fmt.Errorf("casting %q to int: %w", raw, err)
		}
		*p = n
	case *int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return out, false, fmt.Errorf("casting %q to int64: %w", raw, err)
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return out, false, fmt.Errorf("casting %q to float64: %w", raw, err)
		}
		*p = f
	}
	return out, true, nil
}

// parseStoredBool interprets the "1"/"0" forms written by SetValue, falling
// back to strconv.ParseBool for values written by other tooling.
func parseStoredBool(raw string) (bool, error) {
	switch raw {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("casting %q to bool: %w", raw, err)
	}
	return b, nil
}
