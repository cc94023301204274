// Package config handles configuration loading for the datastore broker.
//
// Configuration is loaded from YAML files with environment variable
// expansion and sensible defaults:
//
//	data:
//	  root: "${WNDR_DATA_ROOT}"
//
//	logging:
//	  level: "info"
//	  format: "text"
//
// Syntax for expansion is ${VAR_NAME}; unset variables expand to the empty
// string. Validation rejects unknown logging levels and formats.
package config
