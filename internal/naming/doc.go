// Package naming derives new top-level package directory names when a library is renamed.
package naming
