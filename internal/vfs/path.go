// Package vfs implements the generic virtual filesystem layer: the path
// parser and the flat open-file-descriptor table that dispatches to a
// registered filesystem driver (spec.md §4.5 "File API (VFS)" and "Path
// parser"). Grounded in the teacher's bpath package, which performs the
// same drive-prefixed path parsing for biscuit's own file namespace.
package vfs

import (
	"strings"

	"github.com/RyanStan/ConiferOS/internal/config"
	"github.com/RyanStan/ConiferOS/internal/defs"
)

// Path_t is a parsed absolute path: a drive number and the sequence of
// parts between slashes.
type Path_t struct {
	Drive int
	Parts []string
}

// Parse validates format ^[0-9]:/... and splits the remainder on '/'.
// Anything else -- no digit drive, missing separator, or a path over
// config.MaxFilePathChars -- fails with BAD_PATH.
func Parse(path string) (Path_t, defs.Err_t) {
	if len(path) == 0 || len(path) > config.MaxFilePathChars {
		return Path_t{}, defs.EBADPATH
	}
	if path[0] < '0' || path[0] > '9' {
		return Path_t{}, defs.EBADPATH
	}
	if len(path) < 2 || path[1] != ':' {
		return Path_t{}, defs.EBADPATH
	}
	if len(path) < 3 || path[2] != '/' {
		return Path_t{}, defs.EBADPATH
	}
	drive := int(path[0] - '0')
	rest := path[3:]
	if rest == "" {
		return Path_t{}, defs.EBADPATH
	}
	parts := strings.Split(rest, "/")
	for _, p := range parts {
		if p == "" {
			return Path_t{}, defs.EBADPATH
		}
	}
	return Path_t{Drive: drive, Parts: parts}, 0
}
