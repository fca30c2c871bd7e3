// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"path/filepath"
	"strings"
)

// Format identifies which extractor handles an archive.
type Format int

const (
	// FormatUnknown is returned for paths without a supported extension.
	FormatUnknown Format = iota
	// FormatZip is a PKZIP archive.
	FormatZip
	// FormatRar is a RAR (v1.5 through v5) archive.
	FormatRar
	// FormatSevenZip is a 7-Zip archive.
	FormatSevenZip
	// FormatTarAny is a tar archive, plain or wrapped in any detected compression.
	FormatTarAny
)

// Extension maps a filename suffix to the format that handles it.
type Extension struct {
	Suffix      string
	Format      Format
	Description string
}

// Extensions lists every recognized suffix. Compound suffixes come first so
// DetectFormat matches ".tar.gz" before a bare ".gz" could be considered.
var Extensions = []Extension{
	{".tar.gz", FormatTarAny, "gzip-compressed tar archive"},
	{".tar.bz2", FormatTarAny, "bzip2-compressed tar archive"},
	{".tar.xz", FormatTarAny, "xz-compressed tar archive"},
	{".zip", FormatZip, "ZIP archive"},
	{".rar", FormatRar, "RAR archive"},
	{".7z", FormatSevenZip, "7-Zip archive"},
	{".tar", FormatTarAny, "tar archive"},
	{".tgz", FormatTarAny, "gzip-compressed tar archive (short form)"},
	{".tbz2", FormatTarAny, "bzip2-compressed tar archive (short form)"},
	{".txz", FormatTarAny, "xz-compressed tar archive (short form)"},
}

// String returns the format's short name.
func (f Format) String() string {
	switch f {
	case FormatZip:
		return "zip"
	case FormatRar:
		return "rar"
	case FormatSevenZip:
		return "7z"
	case FormatTarAny:
		return "tar"
	default:
		return "unknown"
	}
}

// MatchExtension returns the recognized suffix of path, case-insensitively.
func MatchExtension(path string) (Extension, bool) {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext.Suffix) && len(name) > len(ext.Suffix) {
			return ext, true
		}
	}
	return Extension{}, false
}

// DetectFormat classifies path by its extension.
func DetectFormat(path string) (Format, bool) {
	ext, ok := MatchExtension(path)
	if !ok {
		return FormatUnknown, false
	}
	return ext.Format, true
}

// Stem returns the base name of path without its recognized archive suffix,
// so "inner.tar.gz" yields "inner". Unrecognized names lose their last
// extension only.
func Stem(path string) string {
	base := filepath.Base(path)
	if ext, ok := MatchExtension(base); ok {
		return base[:len(base)-len(ext.Suffix)]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
