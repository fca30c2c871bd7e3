// SPDX-License-Identifier: MPL-2.0

// Package destpath computes collision-free destination paths and decides
// whether an archive member path may be written under an extraction root.
package destpath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/clock"
)

// MaxSuffixAttempts bounds the numbered-suffix search before the
// timestamp fallback is used.
const MaxSuffixAttempts = 9999

// Resolver finds free names on a filesystem.
type Resolver struct {
	Fs    afero.Fs
	Clock clock.Clock
}

// ResolveConflict returns candidate if nothing exists there, otherwise the
// first free "<stem>_<n><ext>" for n in 1..MaxSuffixAttempts, otherwise
// "<stem>_<unix-seconds><ext>".
func ResolveConflict(fs afero.Fs, candidate string) string {
	return Resolver{Fs: fs}.Resolve(candidate)
}

// Resolve implements ResolveConflict using the resolver's clock.
func (r Resolver) Resolve(candidate string) string {
	if !r.exists(candidate) {
		return candidate
	}

	dir, base := filepath.Split(candidate)
	stem, ext := splitExt(base)

	for i := 1; i <= MaxSuffixAttempts; i++ {
		next := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !r.exists(next) {
			return next
		}
	}

	ts := clock.OrReal(r.Clock).Now().Unix()
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, ts, ext))
}

// exists treats any Lstat answer other than "not exist" as occupied so a
// dangling symlink is never overwritten.
func (r Resolver) exists(path string) bool {
	var err error
	if lst, ok := r.Fs.(afero.Lstater); ok {
		_, _, err = lst.LstatIfPossible(path)
	} else {
		_, err = r.Fs.Stat(path)
	}
	return err == nil || !isNotExist(err)
}

// splitExt splits off the final extension. A leading dot starts a hidden
// name, not an extension.
func splitExt(base string) (stem, ext string) {
	ext = filepath.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	if stem == "" {
		return base, ""
	}
	return stem, ext
}

// IsSafeMemberPath reports whether a member path stays inside the
// extraction root. Rooted paths, drive-qualified paths and any ".."
// segment under either separator are rejected.
func IsSafeMemberPath(raw string) bool {
	if raw == "" {
		return false
	}
	if raw[0] == '/' || raw[0] == '\\' {
		return false
	}
	if len(raw) >= 2 && raw[1] == ':' && isDriveLetter(raw[0]) {
		return false
	}
	for _, seg := range strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return false
		}
	}
	return true
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
