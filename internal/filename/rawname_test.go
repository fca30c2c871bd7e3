// SPDX-License-Identifier: MPL-2.0

package filename

import (
	"slices"
	"testing"
)

func TestRawName_Segments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  RawName
		want []string
	}{
		{"simple", TextName("a/b/c.txt"), []string{"a", "b", "c.txt"}},
		{"directory entry", TextName("docs/"), []string{"docs"}},
		{"dot and empty segments dropped", TextName("./a//b/./c"), []string{"a", "b", "c"}},
		{"bytes", BytesName([]byte("x/\xD6\xD0")), []string{"x", "\xD6\xD0"}},
		{"empty", TextName(""), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got []string
			for _, seg := range tt.raw.Segments() {
				got = append(got, string(seg.Bytes()))
				if seg.IsBytes() != tt.raw.IsBytes() {
					t.Errorf("segment %q lost its byte/text kind", seg.Bytes())
				}
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Segments() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRawName_Base(t *testing.T) {
	t.Parallel()

	if got := TextName("dir/sub/file.bin").Base().String(); got != "file.bin" {
		t.Errorf("Base() = %q, want file.bin", got)
	}
	if !TextName("/").Base().IsEmpty() {
		t.Error("Base() of root should be empty")
	}
}
