// SPDX-License-Identifier: MPL-2.0

// Package filename turns archive member names of unknown encoding into
// valid, filesystem-safe Unicode names.
package filename

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/unnest/unnest/internal/clock"
)

const (
	// illegalChars are replaced with '_' in every recovered name.
	illegalChars = `<>:"/\|?*`

	// trimChars are stripped from both ends of a recovered name.
	trimChars = ". "

	fallbackPrefix = "unnamed_file_"
)

type (
	// Recoverer decodes, normalizes and sanitizes member names.
	// It is safe for sequential reuse across archives.
	Recoverer struct {
		encodings []namedEncoding
		clock     clock.Clock
		logger    *slog.Logger
	}

	// Option configures a Recoverer.
	Option func(*Recoverer)
)

// WithClock sets the clock used for fallback names.
func WithClock(c clock.Clock) Option {
	return func(r *Recoverer) {
		r.clock = clock.OrReal(c)
	}
}

// WithLogger sets the logger that receives recovery warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recoverer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecoverer builds a Recoverer trying the given encodings in order.
// An empty list selects DefaultEncodings.
func NewRecoverer(encodings []string, opts ...Option) (*Recoverer, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	resolved, err := resolveEncodings(encodings)
	if err != nil {
		return nil, err
	}

	r := &Recoverer{
		encodings: resolved,
		clock:     clock.Real{},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Recover returns a non-empty, filesystem-safe name for raw. It never fails;
// internal errors are logged and answered with a generated fallback name.
func (r *Recoverer) Recover(raw RawName) (name string) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("filename recovery failed, using generated name",
				"raw", raw.String(), "error", fmt.Sprint(p))
			name = r.fallback()
		}
	}()

	var decoded string
	switch {
	case raw.IsBytes():
		decoded = r.decode(raw.Bytes())
	case !utf8.ValidString(raw.String()):
		// Text names carrying invalid UTF-8 are treated as undecoded bytes.
		decoded = r.decode([]byte(raw.String()))
	default:
		decoded = raw.String()
	}

	cleaned := Sanitize(norm.NFC.String(decoded))
	if cleaned == "" {
		return r.fallback()
	}
	return cleaned
}

// decode tries every configured encoding and returns the first strict
// decoding, falling back to lossy UTF-8.
func (r *Recoverer) decode(b []byte) string {
	for _, ne := range r.encodings {
		if s, ok := decodeStrict(ne, b); ok {
			if ne.enc != nil {
				r.logger.Debug("decoded member name", "encoding", ne.name, "name", s)
			}
			return s
		}
	}
	return strings.ToValidUTF8(string(b), "�")
}

// decodeStrict reports a decoding only when no byte was substituted.
// x/text decoders replace invalid sequences with U+FFFD rather than
// failing, so any replacement rune in the output means rejection.
func decodeStrict(ne namedEncoding, b []byte) (string, bool) {
	if ne.enc == nil {
		if utf8.Valid(b) {
			return string(b), true
		}
		return "", false
	}
	out, err := ne.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	s := string(out)
	if strings.ContainsRune(s, utf8.RuneError) || !utf8.ValidString(s) {
		return "", false
	}
	return s, true
}

func (r *Recoverer) fallback() string {
	return fmt.Sprintf("%s%d", fallbackPrefix, r.clock.Now().Unix())
}

// Sanitize replaces filesystem-illegal characters with '_' and trims
// leading and trailing dots and spaces. It may return "".
func Sanitize(s string) string {
	s = strings.Map(func(c rune) rune {
		if strings.ContainsRune(illegalChars, c) {
			return '_'
		}
		return c
	}, s)
	return strings.Trim(s, trimChars)
}
