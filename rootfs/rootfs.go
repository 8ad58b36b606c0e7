// Package rootfs exposes the served directory tree as a read-only
// billy.Filesystem shared by every transport.
package rootfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

var (
	// ErrEscapesRoot is returned when a name climbs above the served root.
	ErrEscapesRoot = errors.New("path escapes served root")
	// ErrInvalidName is returned for names no filesystem can hold.
	ErrInvalidName = errors.New("invalid file name")
)

// New opens dir as the served root. Paths are resolved with BoundOS so
// symlinks cannot lead outside of it either.
func New(dir string) (billy.Filesystem, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", dir, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("served root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("served root %q is not a directory", abs)
	}
	return ReadOnly(osfs.New(abs, osfs.WithBoundOS())), nil
}

// Clean canonicalizes a client supplied name into a slash separated path
// relative to the root. "" names the root itself. Both '/' and '\' split
// segments, so Windows-style escapes are caught as well.
func Clean(name string) (string, error) {
	if strings.IndexByte(name, 0) >= 0 {
		return "", ErrInvalidName
	}
	parts := make([]string, 0, 8)
	for _, seg := range strings.FieldsFunc(name, isSeparator) {
		switch seg {
		case ".":
		case "..":
			if len(parts) == 0 {
				return "", ErrEscapesRoot
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/"), nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
