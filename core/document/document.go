// Package document reports the document info entries of PDF files.
//
// The info dictionary is found with a tolerant byte scan, not a PDF object
// parser. Structural removal would need the cross-reference table and
// trailer rewritten, so Strip writes a byte-for-byte copy: entries are
// reported, not removed.
package document

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/ankit-chaubey/metastrip/core"
	"github.com/ankit-chaubey/metastrip/core/fsx"
	"github.com/ankit-chaubey/metastrip/core/logger"
)

var log = logger.WithName("document")

// infoKeys are the document info entries reported, in report order.
var infoKeys = []struct {
	key   string
	label string
}{
	{"Title", "Title"},
	{"Author", "Author"},
	{"Subject", "Subject"},
	{"Keywords", "Keywords"},
	{"Creator", "Creator"},
	{"Producer", "Producer"},
	{"CreationDate", "Creation Date"},
	{"ModDate", "Modification Date"},
}

var fallbackItems = []string{
	"Title (if present)",
	"Author (if present)",
	"Subject (if present)",
	"Keywords (if present)",
	"Creator application (if present)",
	"Producer (if present)",
	"Creation date (if present)",
	"Modification date (if present)",
}

// Longest name-delimited value kept; longer runs are cut at this length.
const maxBareValue = 256

// ──────────────────────────────────────────────────────────────────────────────
// Handler
// ──────────────────────────────────────────────────────────────────────────────

// Handler implements core.Stripper for PDF files.
type Handler struct{}

func New() *Handler { return &Handler{} }

// Strip reports input's info entries and copies it unchanged to output.
func (h *Handler) Strip(ctx context.Context, input, output string) (core.StripResult, error) {
	if ext := core.Ext(input); ext != ".pdf" {
		return core.StripResult{}, fmt.Errorf("%w: document extension %q", core.ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return core.StripResult{}, core.IOError("read", input, err)
	}
	items, degraded := ExtractOrDefault(data)

	if err := ctx.Err(); err != nil {
		return core.StripResult{}, err
	}
	if err := fsx.CopyAtomic(input, output); err != nil {
		return core.StripResult{}, core.IOError("copy", output, err)
	}

	log.WithField("path", input).WithField("items", len(items)).Debug("PDF info entries reported, bytes copied unchanged")
	return core.StripResult{Items: items, Degraded: degraded}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Extract
// ──────────────────────────────────────────────────────────────────────────────

var errNoInfo = errors.New("no document info entries found")

// Extract scans the raw bytes of a PDF for the eight info entries and
// returns one "<Label>: <value>" item per entry found.
func Extract(data []byte) ([]string, error) {
	items := scanInfo(data)
	if len(items) == 0 {
		return nil, errNoInfo
	}
	return items, nil
}

// ExtractOrDefault returns Extract's items, or the generic fallback items
// with degraded set when nothing was found.
func ExtractOrDefault(data []byte) (items []string, degraded bool) {
	items, err := Extract(data)
	if err != nil {
		log.WithError(err).Debug("PDF extraction failed, reporting generic categories")
		return append([]string(nil), fallbackItems...), true
	}
	return items, false
}

func scanInfo(data []byte) []string {
	var items []string
	for _, k := range infoKeys {
		if v, ok := findValue(data, k.key); ok {
			items = append(items, k.label+": "+v)
		}
	}
	return items
}

// findValue returns the first non-empty value following "/key". Longer
// names sharing the prefix ("/Titles") are skipped.
func findValue(data []byte, key string) (string, bool) {
	needle := []byte("/" + key)
	for off := 0; off < len(data); {
		i := bytes.Index(data[off:], needle)
		if i < 0 {
			return "", false
		}
		start := off + i + len(needle)
		off += i + 1
		if start < len(data) && isRegular(data[start]) {
			continue
		}
		if v := valueAt(data, start); v != "" {
			return v, true
		}
	}
	return "", false
}

// ─── Values ──────────────────────────────────────────────────────────────────

func valueAt(data []byte, pos int) string {
	for pos < len(data) && isSpace(data[pos]) {
		pos++
	}
	if pos >= len(data) {
		return ""
	}

	switch {
	case data[pos] == '(':
		raw, ok := literal(data, pos)
		if !ok {
			return ""
		}
		return decodeText(raw)
	case data[pos] == '<' && (pos+1 >= len(data) || data[pos+1] != '<'):
		raw, ok := hexString(data, pos)
		if !ok {
			return ""
		}
		return decodeText(raw)
	default:
		return bareValue(data, pos)
	}
}

// literal reads a parenthesised string starting at data[pos] == '('.
// Nested parentheses are kept; escaped ones do not change the depth. A
// backslash before an end of line joins the lines, \ddd is an octal byte
// and a backslash before any other character is dropped.
func literal(data []byte, pos int) ([]byte, bool) {
	var out []byte
	depth := 0
	for i := pos; i < len(data); i++ {
		c := data[i]
		switch c {
		case '\\':
			if i+1 >= len(data) {
				return nil, false
			}
			i++
			switch e := data[i]; e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if i+1 < len(data) && data[i+1] == '\n' {
					i++
				}
			case '\n':
			case '0', '1', '2', '3', '4', '5', '6', '7':
				v := int(e - '0')
				for n := 1; n < 3 && i+1 < len(data) && isOctal(data[i+1]); n++ {
					i++
					v = v*8 + int(data[i]-'0')
				}
				out = append(out, byte(v))
			default:
				out = append(out, e)
			}
		case '(':
			if depth > 0 {
				out = append(out, c)
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				return out, true
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return nil, false
}

// hexString reads a <...> string starting at data[pos] == '<'. An odd
// digit count is padded with a trailing zero.
func hexString(data []byte, pos int) ([]byte, bool) {
	end := bytes.IndexByte(data[pos+1:], '>')
	if end < 0 {
		return nil, false
	}
	digits := make([]byte, 0, end)
	for _, c := range data[pos+1 : pos+1+end] {
		if !isSpace(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, false
	}
	return out, true
}

// bareValue runs to the next '/' or the '>>' closing the dictionary, line
// breaks included, and is cut at maxBareValue bytes.
func bareValue(data []byte, pos int) string {
	end := pos
	for end < len(data) && end-pos < maxBareValue {
		c := data[end]
		if c == '/' || (c == '>' && end+1 < len(data) && data[end+1] == '>') {
			break
		}
		end++
	}
	return strings.TrimSpace(decodeText(data[pos:end]))
}

// decodeText turns PDF string bytes into UTF-8: UTF-16BE when the bytes
// start with a byte order mark, UTF-8 when valid, Windows-1252 otherwise.
func decodeText(b []byte) string {
	var s string
	switch {
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(b)
		if err != nil {
			return ""
		}
		s = string(out)
	case utf8.Valid(b):
		s = string(bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF}))
	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil {
			return ""
		}
		s = string(out)
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

// isRegular reports whether c may continue a PDF name.
func isRegular(c byte) bool {
	if isSpace(c) {
		return false
	}
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return false
	}
	return true
}
