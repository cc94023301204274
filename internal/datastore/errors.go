// ABOUTME: Error taxonomy for the datastore broker
// ABOUTME: Sentinel errors callers can match with errors.Is

package datastore

import "errors"

// ErrSchemaDefinition is returned when a table schema cannot be constructed,
// either because the statement does not begin with a CREATE TABLE clause or
// because the default rows do not share an identical column set.
var ErrSchemaDefinition = errors.New("invalid schema definition")

// ErrUnknownTable is returned when a key/value operation targets a table that
// does not exist in the scope's database.
var ErrUnknownTable = errors.New("table does not exist")

// ErrNotKeyValue is returned when a key/value operation targets a table whose
// columns are not exactly (key, value).
var ErrNotKeyValue = errors.New("not a key/value table")

// ErrInvalidScope is returned when a scope is malformed: an empty or
// non-identifier kind on a typed scope, or an empty named scope.
var ErrInvalidScope = errors.New("invalid scope")

// ErrUnsupportedValue is returned when a value passed to SetValue cannot be
// rendered to its canonical text form.
var ErrUnsupportedValue = errors.New("unsupported value type")

// ErrClosed is returned by any operation on a connection that has been closed.
var ErrClosed = errors.New("connection is closed")
