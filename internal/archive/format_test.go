// SPDX-License-Identifier: MPL-2.0

package archive

import "testing"

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		want   Format
		wantOK bool
	}{
		{"a.zip", FormatZip, true},
		{"A.ZIP", FormatZip, true},
		{"dir/b.rar", FormatRar, true},
		{"c.7z", FormatSevenZip, true},
		{"d.tar", FormatTarAny, true},
		{"e.tar.gz", FormatTarAny, true},
		{"e.tgz", FormatTarAny, true},
		{"f.tar.bz2", FormatTarAny, true},
		{"f.tbz2", FormatTarAny, true},
		{"g.tar.xz", FormatTarAny, true},
		{"g.txz", FormatTarAny, true},
		{"plain.gz", FormatUnknown, false},
		{"notes.txt", FormatUnknown, false},
		{".zip", FormatUnknown, false},
		{"zip", FormatUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, ok := DetectFormat(tt.path)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DetectFormat(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestMatchExtension_CompoundFirst(t *testing.T) {
	t.Parallel()

	ext, ok := MatchExtension("/data/inner.tar.gz")
	if !ok || ext.Suffix != ".tar.gz" {
		t.Errorf("MatchExtension() = %+v, %v; want .tar.gz", ext, ok)
	}
}

func TestStem(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"inner.tar.gz":    "inner",
		"photos.zip":      "photos",
		"Backup.TAR.XZ":   "Backup",
		"v1.2.release.7z": "v1.2.release",
		"/x/y/a.b.tbz2":   "a.b",
		"readme.txt":      "readme",
	}

	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSniffCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		head []byte
		want compression
	}{
		{"gzip", []byte{0x1F, 0x8B, 0x08}, compressionGzip},
		{"bzip2", []byte("BZh91AY"), compressionBzip2},
		{"xz", []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}, compressionXz},
		{"zstd", []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}, compressionZstd},
		{"lz4", []byte{0x04, 0x22, 0x4D, 0x18}, compressionLz4},
		{"plain tar", []byte("hello.txt\x00\x00"), compressionNone},
		{"short", []byte{0x1F}, compressionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := sniffCompression(tt.head); got != tt.want {
				t.Errorf("sniffCompression() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	if KindPasswordProtected.String() != "password-protected" {
		t.Errorf("unexpected label %q", KindPasswordProtected)
	}
	if Kind(99).String() != "other" {
		t.Errorf("unknown kind should render as other")
	}
}
