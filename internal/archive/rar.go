// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/javi11/rarlist"
	"github.com/nwaples/rardecode/v2"

	"github.com/unnest/unnest/internal/filename"
)

type (
	rarMember struct {
		hdr  *rardecode.FileHeader
		rc   *rardecode.ReadCloser
		path string
	}

	rarSource struct {
		rc      *rardecode.ReadCloser
		pending *rardecode.FileHeader
		skipped int
		path    string
	}

	// rarReader surfaces encryption failures met mid-stream as archive errors.
	rarReader struct {
		r    io.Reader
		path string
	}
)

func isRarPasswordError(err error) bool {
	return errors.Is(err, rardecode.ErrArchiveEncrypted) ||
		errors.Is(err, rardecode.ErrArchivedFileEncrypted) ||
		errors.Is(err, rarlist.ErrPasswordProtected)
}

func classifyRar(path string, err error) error {
	if isRarPasswordError(err) {
		return newError(KindPasswordProtected, path, err)
	}
	return newError(KindCorrupted, path, err)
}

// RAR names are decoded by the format (UTF-16 or UTF-8 in RAR5); names from
// old non-Unicode archives arrive as raw OEM bytes inside the string and are
// re-decoded by the recoverer because they are not valid UTF-8.
func (m rarMember) RawName() filename.RawName { return filename.TextName(m.hdr.Name) }
func (m rarMember) IsDir() bool               { return m.hdr.IsDir }
func (m rarMember) Size() int64               { return m.hdr.UnPackedSize }

func (m rarMember) Open() (io.ReadCloser, error) {
	if m.hdr.Encrypted {
		return nil, newError(KindPasswordProtected, m.path, fmt.Errorf("entry %q is encrypted", m.hdr.Name))
	}
	return io.NopCloser(rarReader{r: m.rc, path: m.path}), nil
}

func (r rarReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && isRarPasswordError(err) {
		return n, newError(KindPasswordProtected, r.path, err)
	}
	return n, err
}

func (s *rarSource) Next() (Member, error) {
	for {
		hdr := s.pending
		s.pending = nil
		if hdr == nil {
			var err error
			if hdr, err = s.rc.Next(); err != nil {
				if errors.Is(err, io.EOF) {
					return nil, io.EOF
				}
				if isRarPasswordError(err) {
					return nil, newError(KindPasswordProtected, s.path, err)
				}
				return nil, err
			}
		}
		if hdr.IsDir || hdr.Mode()&(fs.ModeSymlink|fs.ModeNamedPipe|fs.ModeDevice) == 0 {
			return rarMember{hdr: hdr, rc: s.rc, path: s.path}, nil
		}
		s.skipped++
	}
}

func (s *rarSource) Skipped() int {
	return s.skipped
}

func (s *rarSource) Close() error {
	return s.rc.Close()
}

// openRar refuses encrypted archives before extraction starts. rarlist walks
// the headers of stored archives without decoding and reports header or entry
// encryption; when it cannot index the archive (compressed entries, old
// formats) a rardecode header pass takes over. Entries the index missed are
// still refused by rarMember.Open.
func openRar(archivePath string) (memberSource, error) {
	_, err := rarlist.ListFiles(archivePath)
	switch {
	case errors.Is(err, rarlist.ErrPasswordProtected):
		return nil, newError(KindPasswordProtected, archivePath, err)
	case err != nil:
		if err := scanRarHeaders(archivePath); err != nil {
			return nil, err
		}
	}

	rc, err := rardecode.OpenReader(archivePath)
	if err != nil {
		return nil, classifyRar(archivePath, err)
	}
	return &rarSource{rc: rc, path: archivePath}, nil
}

// scanRarHeaders lists the archive without extracting and fails on the first
// encrypted entry.
func scanRarHeaders(archivePath string) error {
	files, err := rardecode.List(archivePath)
	if err != nil {
		return classifyRar(archivePath, err)
	}
	for _, f := range files {
		if f.Encrypted {
			return newError(KindPasswordProtected, archivePath, fmt.Errorf("entry %q is encrypted", f.Name))
		}
	}
	return nil
}
