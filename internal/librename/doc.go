// Package librename renames a Python library project in place.
//
// The workflow copies the library root to a sibling directory named after the new
// library, rewrites setup.cfg and the generated Sphinx configuration in the copy, drops
// stale egg-info metadata, renames every top-level package directory, and finally deletes
// the original tree. Any failure after the copy exists removes the copy again, so the
// original tree is never modified unless the whole workflow succeeds.
//
// Concurrent renames targeting the same destination are not guarded against. Copying is
// not cancellable; a process killed mid-copy leaves a partial destination directory that
// must be removed by hand.
package librename
