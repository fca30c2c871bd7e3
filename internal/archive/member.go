// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"io"

	"github.com/unnest/unnest/internal/filename"
)

type (
	// Member is one entry of an open archive. It is only valid until the
	// archive handle that produced it is closed.
	Member interface {
		RawName() filename.RawName
		IsDir() bool
		Size() int64
		Open() (io.ReadCloser, error)
	}

	// memberSource yields the regular-file and directory members of one
	// open archive. Next returns io.EOF after the last member. Links and
	// special files are never yielded; Skipped counts them so far.
	memberSource interface {
		Next() (Member, error)
		Skipped() int
		Close() error
	}

	// opener opens archivePath and performs the format's password and
	// corruption checks before any member is read.
	opener func(archivePath string) (memberSource, error)

	// sliceSource adapts random-access formats to memberSource.
	sliceSource struct {
		members []Member
		skipped int
		pos     int
		closer  io.Closer
	}
)

func (s *sliceSource) Next() (Member, error) {
	if s.pos >= len(s.members) {
		return nil, io.EOF
	}
	m := s.members[s.pos]
	s.pos++
	return m, nil
}

func (s *sliceSource) Skipped() int {
	return s.skipped
}

func (s *sliceSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
