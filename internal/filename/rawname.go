// SPDX-License-Identifier: MPL-2.0

package filename

import (
	"bytes"
	"strings"
)

// RawName is an archive member name as the archive format handed it over.
// Formats that flag names as UTF-8 (or always store UTF-16) produce text
// names; legacy ZIP and RAR entries produce byte names whose encoding is
// unknown and must be guessed by a Recoverer.
type RawName struct {
	text    string
	raw     []byte
	isBytes bool
}

// TextName wraps a name that the archive format already decoded.
func TextName(s string) RawName {
	return RawName{text: s}
}

// BytesName wraps a name in an unknown byte encoding.
func BytesName(b []byte) RawName {
	return RawName{raw: b, isBytes: true}
}

// IsBytes reports whether the name still needs decoding.
func (n RawName) IsBytes() bool {
	return n.isBytes
}

// Bytes returns the underlying bytes for byte names, or the UTF-8 bytes of text names.
func (n RawName) Bytes() []byte {
	if n.isBytes {
		return n.raw
	}
	return []byte(n.text)
}

// String returns a best-effort rendering used in log lines only.
func (n RawName) String() string {
	if n.isBytes {
		return strings.ToValidUTF8(string(n.raw), "�")
	}
	return n.text
}

// IsEmpty reports whether the name has no content at all.
func (n RawName) IsEmpty() bool {
	if n.isBytes {
		return len(n.raw) == 0
	}
	return n.text == ""
}

// Segments splits the name on '/' and drops empty and "." components.
// Splitting happens before decoding: '/' is 0x2F in every supported
// encoding and never appears as a trail byte of a multi-byte sequence
// in GBK, Big5 or Shift_JIS.
func (n RawName) Segments() []RawName {
	var out []RawName
	if n.isBytes {
		for part := range bytes.SplitSeq(n.raw, []byte{'/'}) {
			if len(part) == 0 || bytes.Equal(part, []byte{'.'}) {
				continue
			}
			out = append(out, BytesName(part))
		}
		return out
	}
	for part := range strings.SplitSeq(n.text, "/") {
		if part == "" || part == "." {
			continue
		}
		out = append(out, TextName(part))
	}
	return out
}

// Base returns the last non-empty segment, or the zero RawName.
func (n RawName) Base() RawName {
	segs := n.Segments()
	if len(segs) == 0 {
		return RawName{}
	}
	return segs[len(segs)-1]
}
