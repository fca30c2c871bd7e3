// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/unnest/unnest/internal/filename"
)

// zipEncryptedFlag is general-purpose bit 0, set on every encrypted entry.
const zipEncryptedFlag = 0x1

type zipMember struct {
	f *zip.File
}

func (m zipMember) RawName() filename.RawName {
	if m.f.NonUTF8 {
		return filename.BytesName([]byte(m.f.Name))
	}
	return filename.TextName(m.f.Name)
}

func (m zipMember) IsDir() bool                  { return m.f.FileInfo().IsDir() }
func (m zipMember) Size() int64                  { return int64(m.f.UncompressedSize64) }
func (m zipMember) Open() (io.ReadCloser, error) { return m.f.Open() }

func zipOpener(afs afero.Fs) opener {
	return func(archivePath string) (memberSource, error) {
		f, err := afs.Open(archivePath)
		if err != nil {
			return nil, newError(KindOther, archivePath, err)
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, newError(KindOther, archivePath, err)
		}

		// A reader returned alongside an error only reports insecure member
		// names, which the walker rejects per member.
		zr, err := zip.NewReader(f, info.Size())
		if err != nil && zr == nil {
			_ = f.Close()
			return nil, newError(KindCorrupted, archivePath, err)
		}

		src := &sliceSource{members: make([]Member, 0, len(zr.File)), closer: f}
		for _, zf := range zr.File {
			if zf.Flags&zipEncryptedFlag != 0 {
				_ = f.Close()
				return nil, newError(KindPasswordProtected, archivePath,
					fmt.Errorf("entry %q is encrypted", zf.Name))
			}
			if !zf.Mode().IsRegular() && !zf.Mode().IsDir() {
				src.skipped++
				continue
			}
			src.members = append(src.members, zipMember{f: zf})
		}
		return src, nil
	}
}

