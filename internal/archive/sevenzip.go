// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bodgit/sevenzip"

	"github.com/unnest/unnest/internal/filename"
)

type (
	sevenZipMember struct {
		f    *sevenzip.File
		path string
	}

	// sevenZipReader turns mid-stream decryption failures into archive errors.
	sevenZipReader struct {
		io.ReadCloser
		path string
	}
)

func (m sevenZipMember) RawName() filename.RawName { return filename.TextName(m.f.Name) }
func (m sevenZipMember) IsDir() bool               { return m.f.FileInfo().IsDir() }
func (m sevenZipMember) Size() int64               { return int64(m.f.UncompressedSize) }

func (m sevenZipMember) Open() (io.ReadCloser, error) {
	rc, err := m.f.Open()
	if err != nil {
		if reportsEncryption(err) {
			return nil, newError(KindPasswordProtected, m.path, err)
		}
		return nil, err
	}
	return sevenZipReader{ReadCloser: rc, path: m.path}, nil
}

func (r sevenZipReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && reportsEncryption(err) {
		return n, newError(KindPasswordProtected, r.path, err)
	}
	return n, err
}

var (
	// aesMethod is the 7z coder ID for AES-256 with SHA-256 key derivation.
	aesMethod = []byte{0x06, 0xf1, 0x07, 0x01}

	errEncryptedFolder = errors.New("7z folder is encrypted")

	refuseAESOnce sync.Once
)

// refusedStream stands in for the AES coder. The stock coder derives a key
// from the empty password and yields garbage for stored entries.
type refusedStream struct {
	io.ReadCloser
}

func (refusedStream) Read([]byte) (int, error) {
	return 0, errEncryptedFolder
}

func newRefusedStream(_ []byte, _ uint64, readers []io.ReadCloser) (io.ReadCloser, error) {
	if len(readers) != 1 {
		return nil, fmt.Errorf("aes coder takes one input, got %d", len(readers))
	}
	return refusedStream{ReadCloser: readers[0]}, nil
}

// reportsEncryption reports whether err comes from an encrypted folder: either
// the refused AES coder, or a ReadError the reader flagged as Encrypted (the
// wrapped cause is then often a plain checksum or block error). Message
// matching covers failures raised outside a ReadError.
func reportsEncryption(err error) bool {
	if errors.Is(err, errEncryptedFolder) {
		return true
	}
	var re *sevenzip.ReadError
	if errors.As(err, &re) && re.Encrypted {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

func openSevenZip(archivePath string) (memberSource, error) {
	refuseAESOnce.Do(func() {
		sevenzip.RegisterDecompressor(aesMethod, newRefusedStream)
	})

	rc, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		if reportsEncryption(err) {
			return nil, newError(KindPasswordProtected, archivePath, err)
		}
		return nil, newError(KindCorrupted, archivePath, err)
	}

	src := &sliceSource{members: make([]Member, 0, len(rc.File)), closer: rc}
	for _, f := range rc.File {
		mode := f.FileInfo().Mode()
		if !mode.IsRegular() && !mode.IsDir() {
			src.skipped++
			continue
		}
		src.members = append(src.members, sevenZipMember{f: f, path: archivePath})
	}
	return src, nil
}
