// Package filesystem provides the afero-backed filesystem used by the rename workflow
// together with whole-tree copy and forced removal helpers.
package filesystem
