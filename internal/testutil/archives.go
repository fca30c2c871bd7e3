// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Entry describes one member of a fixture archive.
type Entry struct {
	// Name is the member path. Names ending in "/" become directory entries.
	Name string
	Body string
	// Encrypted sets the ZIP encryption flag without encrypting the data.
	Encrypted bool
	// NonUTF8 stores a ZIP name without the UTF-8 flag.
	NonUTF8 bool
	// Link makes a tar entry a symlink to this target.
	Link string
}

// Files builds entries from name/body pairs.
func Files(pairs ...string) []Entry {
	if len(pairs)%2 != 0 {
		panic("testutil.Files: odd number of arguments")
	}
	entries := make([]Entry, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, Entry{Name: pairs[i], Body: pairs[i+1]})
	}
	return entries
}

var fixtureTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// ZipBytes returns a ZIP archive holding entries.
func ZipBytes(t testing.TB, entries []Entry) []byte {
	t.Helper()
	data, err := BuildZip(entries)
	if err != nil {
		t.Fatalf("building zip fixture: %v", err)
	}
	return data
}

// TarBytes returns a tar stream holding entries, wrapped in the named
// compression: "", "gzip", "xz", "zstd" or "lz4".
func TarBytes(t testing.TB, compression string, entries []Entry) []byte {
	t.Helper()
	data, err := BuildTar(compression, entries)
	if err != nil {
		t.Fatalf("building tar fixture: %v", err)
	}
	return data
}

// BuildZip is ZipBytes for callers without a testing.TB, such as
// testscript commands.
func BuildZip(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		fh := &zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: fixtureTime, NonUTF8: e.NonUTF8}
		if strings.HasSuffix(e.Name, "/") {
			fh.Method = zip.Store
		}
		if e.Encrypted {
			fh.Flags |= 0x1
		}
		w, err := zw.CreateHeader(fh)
		if err != nil {
			return nil, fmt.Errorf("zip header %q: %w", e.Name, err)
		}
		if _, err := io.WriteString(w, e.Body); err != nil {
			return nil, fmt.Errorf("zip write %q: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip close: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildTar is TarBytes for callers without a testing.TB.
func BuildTar(compression string, entries []Entry) ([]byte, error) {
	var plain bytes.Buffer
	tw := tar.NewWriter(&plain)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: 0o644, ModTime: fixtureTime, Format: tar.FormatPAX}
		switch {
		case e.Link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Link
		case strings.HasSuffix(e.Name, "/"):
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("tar header %q: %w", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.WriteString(tw, e.Body); err != nil {
				return nil, fmt.Errorf("tar write %q: %w", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("tar close: %w", err)
	}
	return CompressBytes(compression, plain.Bytes())
}

// CompressBytes wraps data in the named compression format.
func CompressBytes(compression string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch compression {
	case "":
		return data, nil
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "xz":
		w, err = xz.NewWriter(&buf)
	case "zstd":
		w, err = zstd.NewWriter(&buf)
	case "lz4":
		w = lz4.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
	if err != nil {
		return nil, fmt.Errorf("%s writer: %w", compression, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%s write: %w", compression, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s close: %w", compression, err)
	}
	return buf.Bytes(), nil
}

// WriteZip writes a ZIP fixture to path and returns path.
func WriteZip(t testing.TB, path string, entries []Entry) string {
	t.Helper()
	writeBytes(t, path, ZipBytes(t, entries))
	return path
}

// WriteTar writes a tar fixture to path and returns path.
func WriteTar(t testing.TB, path, compression string, entries []Entry) string {
	t.Helper()
	writeBytes(t, path, TarBytes(t, compression, entries))
	return path
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
