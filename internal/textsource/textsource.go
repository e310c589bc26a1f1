// Package textsource reads lines of text from files or streams in a
// configurable character encoding.
package textsource

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/lequel/internal/trigram"
)

// DefaultEncoding is used when Options.Encoding is empty.
const DefaultEncoding = "utf-8"

// ErrInvalidUTF8 is returned in strict mode when a line is not valid UTF-8
// after decoding.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

var encodings = map[string]encoding.Encoding{
	"utf-8":    encoding.Nop,
	"utf8":     encoding.Nop,
	"utf-16":   unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"utf-16be": unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"utf-16le": unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),

	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"iso-8859-5":   charmap.ISO8859_5,
	"iso-8859-7":   charmap.ISO8859_7,
	"iso-8859-9":   charmap.ISO8859_9,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"windows-1253": charmap.Windows1253,
	"windows-1254": charmap.Windows1254,
	"cp1252":       charmap.Windows1252,
	"koi8-r":       charmap.KOI8R,
	"koi8-u":       charmap.KOI8U,

	"shift_jis": japanese.ShiftJIS,
	"euc-jp":    japanese.EUCJP,
	"euc-kr":    korean.EUCKR,
	"gbk":       simplifiedchinese.GBK,
	"gb18030":   simplifiedchinese.GB18030,
	"big5":      traditionalchinese.Big5,
}

// Options controls decoding.
type Options struct {
	// Encoding names the input character set (see Encodings).
	Encoding string
	// Strict rejects input containing invalid UTF-8 instead of letting it
	// decode to U+FFFD.
	Strict bool
	// NFC composes each line to Unicode normalization form C, so that
	// precomposed and decomposed spellings yield the same trigrams.
	NFC bool
}

// Encodings returns the supported encoding names.
func Encodings() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}
	return names
}

// CheckEncoding reports whether name is a supported encoding.
func CheckEncoding(name string) error {
	_, err := lookup(name)
	return err
}

func lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, ok := encodings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}
	return enc, nil
}

// Read decodes r and splits it into lines on '\n'. A trailing '\r' is left on
// each line; the trigram builder strips it. A UTF-8 byte order mark at the
// start of the input is dropped.
func Read(r io.Reader, opts Options) (trigram.Text, error) {
	enc, err := lookup(opts.Encoding)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(transform.NewReader(r, enc.NewDecoder()))

	var text trigram.Text
	for lineNo := 1; ; lineNo++ {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("failed to read line %d: %w", lineNo, readErr)
		}
		if line == "" && readErr == io.EOF {
			break
		}

		line = strings.TrimSuffix(line, "\n")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if opts.Strict && !utf8.ValidString(line) {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrInvalidUTF8)
		}
		if opts.NFC {
			line = norm.NFC.String(line)
		}
		text = append(text, line)

		if readErr == io.EOF {
			break
		}
	}

	return text, nil
}

// ReadFile reads the lines of the file at path.
func ReadFile(path string, opts Options) (trigram.Text, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, opts)
}

// FromString splits s into lines the same way Read does, without decoding.
func FromString(s string, opts Options) (trigram.Text, error) {
	return Read(strings.NewReader(s), Options{Encoding: DefaultEncoding, Strict: opts.Strict, NFC: opts.NFC})
}
