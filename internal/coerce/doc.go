// Package coerce converts script-side values into Go values of a requested
// reflect.Type and calls Go functions with script-supplied argument lists.
//
// Script values arrive in the shapes produced by payload decoders: bool,
// string, int64/uint64/float64 numbers, []any sequences and map[string]any
// records. Numbers are range-checked against the target kind.
package coerce
