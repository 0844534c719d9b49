// Package setupcfg loads, edits, and atomically saves section-keyed setup.cfg documents.
//
// Documents are parsed with gopkg.in/ini.v1 using the Python configparser conventions that
// setuptools relies on (case-insensitive keys, indented multi-line values, no inline
// comments) and rendered back in the same layout configparser writes, keeping section
// and key order stable.
package setupcfg
