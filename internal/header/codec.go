package header

import (
	"slices"
	"strings"

	"github.com/handiism/ultrastar-library/internal/model"
)

// Field is a single decoded header entry.
type Field struct {
	Key   string
	Value string
}

// Document is a song or playlist file split into lines, with the header
// block (the leading run of lines starting with '#') marked out.
//
// Document never touches body lines; Encode returns them as they were
// decoded.
type Document struct {
	lines     []string
	headerLen int
}

// Normalize converts CRLF line endings to LF.
func Normalize(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// Decode splits text into a Document.
func Decode(text string) *Document {
	lines := strings.Split(Normalize(text), "\n")

	headerLen := 0
	for _, line := range lines {
		if !strings.HasPrefix(line, "#") {
			break
		}
		headerLen++
	}

	return &Document{lines: lines, headerLen: headerLen}
}

// Encode joins the document lines back with '\n'.
func (d *Document) Encode() string {
	return strings.Join(d.lines, "\n")
}

// HeaderLen returns the number of header lines.
func (d *Document) HeaderLen() int {
	return d.headerLen
}

// Header returns the decoded header fields in file order. Duplicate keys
// are kept.
func (d *Document) Header() []Field {
	fields := make([]Field, 0, d.headerLen)
	for _, line := range d.lines[:d.headerLen] {
		key, value := DecodeLine(line)
		fields = append(fields, Field{Key: key, Value: value})
	}
	return fields
}

// Set rewrites every header line whose key matches field (case-insensitive)
// to "#FIELD:value". Lines of other keys and the body are left untouched.
// It returns the number of rewritten lines; when no line matched nothing is
// added.
func (d *Document) Set(field, value string) int {
	key := strings.ToLower(field)
	line := EncodeLine(key, LocalizeNumber(key, value))

	count := 0
	for i := range d.lines[:d.headerLen] {
		if k, _ := DecodeLine(d.lines[i]); k == key {
			d.lines[i] = line
			count++
		}
	}
	return count
}

// Prepend inserts each field's header line at the top of the document in
// turn, so the last field becomes the first line.
func (d *Document) Prepend(fields ...Field) {
	if len(fields) == 0 {
		return
	}

	lines := make([]string, 0, len(fields)+len(d.lines))
	for _, field := range slices.Backward(fields) {
		lines = append(lines, EncodeLine(field.Key, field.Value))
	}

	d.lines = append(lines, d.lines...)
	d.headerLen += len(fields)
}

// DecodeLine splits a header line into its lower-cased key and value.
//
// The text after '#' is split on ':'; the first token is the key and the
// remaining tokens are concatenated without separator, so any ':' inside a
// value is dropped. bpm and videogap values get ',' replaced by '.'.
func DecodeLine(line string) (key, value string) {
	key, rest, _ := strings.Cut(strings.TrimPrefix(line, "#"), ":")
	key = strings.ToLower(key)
	value = strings.ReplaceAll(rest, ":", "")

	if isLocalizedNumber(key) {
		value = strings.ReplaceAll(value, ",", ".")
	}

	return key, value
}

// EncodeLine renders a header line with the key upper-cased.
func EncodeLine(key, value string) string {
	return "#" + strings.ToUpper(key) + ":" + value
}

// LocalizeNumber converts the decimal point of bpm and videogap values back
// to the comma used in song files. Other keys are returned unchanged.
func LocalizeNumber(key, value string) string {
	if isLocalizedNumber(strings.ToLower(key)) {
		return strings.ReplaceAll(value, ".", ",")
	}
	return value
}

func isLocalizedNumber(key string) bool {
	return key == model.KeyBPM || key == model.KeyVideoGap
}
