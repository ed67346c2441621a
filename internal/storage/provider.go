// Package storage defines the vault file-system abstraction.
package storage

import "io"

// Entry is one directory listing item.
type Entry struct {
	Name  string
	IsDir bool
}

// Provider is the interface for vault file operations. Every path is
// relative to the vault root.
type Provider interface {
	// Root returns the absolute vault root.
	Root() string
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// Open streams the file at path.
	Open(path string) (io.ReadCloser, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Move renames oldPath to newPath. It never overwrites an existing file.
	Move(oldPath, newPath string) error
	// ReadDir lists dir sorted by name. Symbolic links report their target's kind.
	ReadDir(dir string) ([]Entry, error)
	// RealPath resolves symbolic links in dir; used for cycle detection.
	RealPath(dir string) (string, error)
}
