package ioutils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the encoding UltraStar song files are usually saved in.
const DefaultEncoding = "iso-8859-15"

// ErrUnencodable is returned for text the codec's encoding cannot represent.
var ErrUnencodable = errors.New("text not representable in encoding")

// TextCodec reads and writes text files in a fixed character encoding,
// converting to and from UTF-8 strings.
type TextCodec struct {
	name string
	enc  encoding.Encoding
}

// NewTextCodec returns a codec for the named encoding. Names follow the
// WHATWG encoding labels ("utf-8", "iso-8859-15", "windows-1252", ...).
func NewTextCodec(name string) (*TextCodec, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultEncoding
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown text encoding %q: %w", name, err)
	}

	return &TextCodec{name: name, enc: enc}, nil
}

// Name returns the encoding label the codec was created with.
func (c *TextCodec) Name() string {
	return c.name
}

// ReadFile reads path and decodes it to a UTF-8 string.
func (c *TextCodec) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	text, err := c.Decode(data)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return text, nil
}

// Decode converts data from the codec's encoding to a UTF-8 string.
func (c *TextCodec) Decode(data []byte) (string, error) {
	text, _, err := transform.Bytes(c.enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode as %s: %w", c.name, err)
	}
	return string(text), nil
}

// Encode converts text to the codec's encoding. Characters the encoding
// cannot represent yield an error wrapping ErrUnencodable.
func (c *TextCodec) Encode(text string) ([]byte, error) {
	data, _, err := transform.Bytes(c.enc.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %q as %s: %w", ErrUnencodable, text, c.name, err)
	}
	return data, nil
}

// WriteFile encodes text and writes it to path with mode 0644, truncating
// an existing file. Nothing is written when the text cannot be encoded.
func (c *TextCodec) WriteFile(path, text string) error {
	data, err := c.Encode(text)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return os.WriteFile(path, data, 0644)
}
