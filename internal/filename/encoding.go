// SPDX-License-Identifier: MPL-2.0

package filename

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncodings is the candidate order tried for byte names. The order
// matters: the first encoding that decodes strictly wins.
var DefaultEncodings = []string{"utf-8", "gbk", "gb2312", "big5", "shift_jis", "cp932", "latin1"}

// ErrUnknownEncoding is returned when an encoding label cannot be resolved.
var ErrUnknownEncoding = errors.New("unknown encoding")

// aliases pins labels whose HTML-standard mapping differs from the
// conventional meaning in archive tooling. HTML maps "latin1" to
// windows-1252, which leaves five bytes undefined; ISO-8859-1 decodes
// every byte and is the intended last resort.
var aliases = map[string]encoding.Encoding{
	"latin1":     charmap.ISO8859_1,
	"latin-1":    charmap.ISO8859_1,
	"iso-8859-1": charmap.ISO8859_1,
	"iso8859-1":  charmap.ISO8859_1,
	"gbk":        simplifiedchinese.GBK,
	"cp936":      simplifiedchinese.GBK,
	"gb2312":     simplifiedchinese.GBK,
	"gb18030":    simplifiedchinese.GB18030,
	"big5":       traditionalchinese.Big5,
	"cp950":      traditionalchinese.Big5,
	"shift_jis":  japanese.ShiftJIS,
	"sjis":       japanese.ShiftJIS,
	"cp932":      japanese.ShiftJIS,
	"euc-jp":     japanese.EUCJP,
}

type namedEncoding struct {
	name string
	// enc is nil for UTF-8, which is validated without transcoding.
	enc encoding.Encoding
}

// LookupEncoding resolves an encoding label. UTF-8 labels resolve to a nil
// encoding with a nil error.
func LookupEncoding(label string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	switch key {
	case "utf-8", "utf8":
		return nil, nil
	case "":
		return nil, fmt.Errorf("%w: empty label", ErrUnknownEncoding)
	}

	if enc, ok := aliases[key]; ok {
		return enc, nil
	}
	if enc, err := htmlindex.Get(key); err == nil {
		return utf8AsNil(enc), nil
	}
	if enc, err := ianaindex.IANA.Encoding(key); err == nil && enc != nil {
		return utf8AsNil(enc), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
}

// utf8AsNil maps every UTF-8 alias ("unicode-1-1-utf-8", "UTF8", ...) to the
// validating branch, which accepts names that legitimately contain U+FFFD.
func utf8AsNil(enc encoding.Encoding) encoding.Encoding {
	if enc == unicode.UTF8 {
		return nil
	}
	if name, err := htmlindex.Name(enc); err == nil && name == "utf-8" {
		return nil
	}
	return enc
}

func resolveEncodings(labels []string) ([]namedEncoding, error) {
	out := make([]namedEncoding, 0, len(labels))
	for _, label := range labels {
		enc, err := LookupEncoding(label)
		if err != nil {
			return nil, err
		}
		out = append(out, namedEncoding{name: strings.ToLower(strings.TrimSpace(label)), enc: enc})
	}
	return out, nil
}
