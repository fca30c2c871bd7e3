// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"

	"github.com/unnest/unnest/internal/filename"
)

// compression identifies the stream wrapped around a tar archive.
type compression string

const (
	compressionNone  compression = "none"
	compressionGzip  compression = "gzip"
	compressionBzip2 compression = "bzip2"
	compressionXz    compression = "xz"
	compressionZstd  compression = "zstd"
	compressionLz4   compression = "lz4"
)

var magics = []struct {
	kind  compression
	magic []byte
}{
	{compressionGzip, []byte{0x1F, 0x8B}},
	{compressionBzip2, []byte("BZh")},
	{compressionXz, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}},
	{compressionZstd, []byte{0x28, 0xB5, 0x2F, 0xFD}},
	{compressionLz4, []byte{0x04, 0x22, 0x4D, 0x18}},
}

// sniffCompression inspects the leading bytes of a stream. Anything
// unrecognized is assumed to be a bare tar stream.
func sniffCompression(head []byte) compression {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.kind
		}
	}
	return compressionNone
}

// decompress wraps r according to kind. The returned close func is never nil.
func decompress(r io.Reader, kind compression) (io.Reader, func(), error) {
	noop := func() {}
	switch kind {
	case compressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return gr, func() { _ = gr.Close() }, nil
	case compressionBzip2:
		return bzip2.NewReader(r), noop, nil
	case compressionXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return xr, noop, nil
	case compressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, noop, err
		}
		return zr, zr.Close, nil
	case compressionLz4:
		return lz4.NewReader(r), noop, nil
	default:
		return r, noop, nil
	}
}

type (
	tarMember struct {
		hdr *tar.Header
		tr  *tar.Reader
	}

	tarSource struct {
		tr      *tar.Reader
		pending *tar.Header
		skipped int
		release func()
		file    afero.File
	}
)

func (m tarMember) RawName() filename.RawName { return filename.TextName(m.hdr.Name) }
func (m tarMember) IsDir() bool               { return m.hdr.Typeflag == tar.TypeDir }
func (m tarMember) Size() int64               { return m.hdr.Size }

// Open returns the current entry's data. It is only readable until the
// source advances.
func (m tarMember) Open() (io.ReadCloser, error) {
	return io.NopCloser(m.tr), nil
}

func (s *tarSource) Next() (Member, error) {
	for {
		hdr := s.pending
		s.pending = nil
		if hdr == nil {
			var err error
			// A header returned with an error only reports an insecure
			// name, which the walker rejects.
			if hdr, err = s.tr.Next(); err != nil && hdr == nil {
				return nil, err
			}
		}
		if hdr.Typeflag == tar.TypeDir || hdr.FileInfo().Mode().IsRegular() {
			return tarMember{hdr: hdr, tr: s.tr}, nil
		}
		s.skipped++
	}
}

func (s *tarSource) Skipped() int {
	return s.skipped
}

func (s *tarSource) Close() error {
	s.release()
	return s.file.Close()
}

func tarOpener(afs afero.Fs) opener {
	return func(archivePath string) (memberSource, error) {
		f, err := afs.Open(archivePath)
		if err != nil {
			return nil, newError(KindOther, archivePath, err)
		}
		src, err := openTar(f, archivePath)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		return src, nil
	}
}

func openTar(f afero.File, archivePath string) (*tarSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, newError(KindOther, archivePath, err)
	}
	if info.Size() == 0 {
		return nil, newError(KindCorrupted, archivePath, errors.New("empty file"))
	}

	br := bufio.NewReader(f)
	// Short files yield fewer bytes and an error; the prefix check copes.
	head, _ := br.Peek(6)
	kind := sniffCompression(head)

	stream, release, err := decompress(br, kind)
	if err != nil {
		return nil, newError(KindCorrupted, archivePath, fmt.Errorf("%s stream: %w", kind, err))
	}

	tr := tar.NewReader(stream)
	first, err := tr.Next()
	switch {
	case errors.Is(err, io.EOF):
		// An archive holding only the end-of-archive marker is valid and empty.
	case err != nil && first == nil:
		release()
		return nil, newError(KindCorrupted, archivePath, fmt.Errorf("reading first %s tar header: %w", kind, err))
	}

	return &tarSource{tr: tr, pending: first, release: release, file: f}, nil
}
