// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"errors"
	"fmt"
)

// Kind classifies why an archive as a whole could not be extracted.
type Kind int

const (
	// KindOther covers I/O and unexpected failures.
	KindOther Kind = iota
	// KindPasswordProtected means the archive or one of its entries is encrypted.
	KindPasswordProtected
	// KindCorrupted means the archive could not be opened or yielded nothing readable.
	KindCorrupted
	// KindUnsupportedFormat means no extractor handles the archive.
	KindUnsupportedFormat
)

var (
	// ErrPasswordProtected is the sentinel matched by errors.Is for KindPasswordProtected.
	ErrPasswordProtected = errors.New("archive is password protected")
	// ErrCorrupted is the sentinel matched by errors.Is for KindCorrupted.
	ErrCorrupted = errors.New("archive is corrupted")
	// ErrUnsupportedFormat is the sentinel matched by errors.Is for KindUnsupportedFormat.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
)

// Error is the only error type an Extractor returns for archive-level failures.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

// String returns a lowercase label for the kind, used in logs and reports.
func (k Kind) String() string {
	switch k {
	case KindPasswordProtected:
		return "password-protected"
	case KindCorrupted:
		return "corrupted"
	case KindUnsupportedFormat:
		return "unsupported-format"
	default:
		return "other"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrPasswordProtected:
		return e.Kind == KindPasswordProtected
	case ErrCorrupted:
		return e.Kind == KindCorrupted
	case ErrUnsupportedFormat:
		return e.Kind == KindUnsupportedFormat
	}
	return false
}

// KindOf returns the kind of err, or KindOther when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindOther
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
