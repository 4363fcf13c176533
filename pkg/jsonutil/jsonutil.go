// Package jsonutil wraps github.com/go-json-experiment/json for the report
// store, the event journal and the exporters.
//
// Usage:
//
//	data, err := jsonutil.MarshalIndent(r, "", "  ")
//	err = jsonutil.Unmarshal(data, &r)
package jsonutil

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// ErrTooLarge is returned by ReadLimited when the input exceeds the limit.
var ErrTooLarge = errors.New("jsonutil: input exceeds size limit")

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// UnmarshalStrict is Unmarshal but rejects members that do not map to a
// field of v. Used when reading files written by other versions.
func UnmarshalStrict(data []byte, v any) error {
	return json.Unmarshal(data, v, json.RejectUnknownMembers(true))
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent returns the indented JSON encoding of v.
// The prefix is accepted for encoding/json parity and ignored.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.Marshal(v, jsontext.WithIndent(indent))
}

// ReadLimited decodes at most limit bytes from r into v.
func ReadLimited(r io.Reader, limit int64, v any) error {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return fmt.Errorf("jsonutil: read: %w", err)
	}
	if int64(len(data)) > limit {
		return ErrTooLarge
	}
	return json.Unmarshal(data, v)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}

// Encoder writes one JSON value per Encode call, each followed by a newline.
type Encoder struct {
	w      io.Writer
	indent string
}

// NewStreamEncoder creates an encoder that writes to w.
func NewStreamEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the JSON encoding of v to the stream, followed by a newline.
func (e *Encoder) Encode(v any) error {
	var err error
	if e.indent != "" {
		err = json.MarshalWrite(e.w, v, jsontext.WithIndent(e.indent))
	} else {
		err = json.MarshalWrite(e.w, v)
	}
	if err != nil {
		return err
	}
	_, err = e.w.Write([]byte{'\n'})
	return err
}

// SetIndent instructs the encoder to format each subsequent encoded value
// with the given indentation.
func (e *Encoder) SetIndent(prefix, indent string) {
	e.indent = indent
}

// Decoder reads a stream of JSON values, such as a JSON Lines journal.
type Decoder struct {
	dec *jsontext.Decoder
}

// NewStreamDecoder creates a decoder that reads from r.
func NewStreamDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: jsontext.NewDecoder(r)}
}

// Decode reads the next JSON value from the stream and stores it in v.
// It returns io.EOF when the stream is exhausted.
func (d *Decoder) Decode(v any) error {
	if d.dec.PeekKind() == 0 {
		// Surface io.EOF or the syntax error unwrapped.
		_, err := d.dec.ReadToken()
		return err
	}
	return json.UnmarshalDecode(d.dec, v)
}
