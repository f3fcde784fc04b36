package bytenc

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/htmlindex"
)

// Encode encodes the whole data at once.
//
// It uses a fresh encoder derived from this one (same strategy settings and config, no listener),
// so the state of this encoder is not affected.
func (e *Encoder) Encode(data []byte) ([]byte, error) {
	enc := newEncoder(e.strategy.Derive(), e.cfg.derive())

	buf := new(bytes.Buffer)
	buf.Grow(len(data))

	w := enc.NewWriter(buf)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}

	return buf.Bytes(), nil
}

// EncodeString encodes the UTF-8 bytes of s, and interprets the result as UTF-8.
func (e *Encoder) EncodeString(s string) (string, error) {
	return e.EncodeText(s, "utf-8")
}

// EncodeText encodes the bytes of s in the named text encoding, and interprets the result in the
// same encoding. Names are resolved as in the WHATWG Encoding Standard, e.g. "utf-8",
// "windows-1252" or "shift_jis".
//
// Returns [ErrUnknownEncoding] if the name isn't known.
func (e *Encoder) EncodeText(s string, name string) (string, error) {
	encoding, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}

	data, err := encoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return "", fmt.Errorf("encode text: %w", err)
	}

	data, err = e.Encode(data)
	if err != nil {
		return "", err
	}

	data, err = encoding.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}

	return string(data), nil
}
