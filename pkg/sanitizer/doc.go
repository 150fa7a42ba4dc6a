// Package sanitizer normalizes free-text input before validation and storage.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input is reduced to an empty value rather than
// rejected; rejecting is the validator's job.
//
// Normalization includes:
//   - Free text (names, purposes, descriptions): trim and collapse whitespace
//   - Identifiers and categories: lowercase with runs of other characters folded to "_"
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
