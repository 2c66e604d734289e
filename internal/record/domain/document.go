package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Document is an open field map. Numbers are kept as json.Number so a
// document written back to storage is byte-for-byte what the client sent.
type Document map[string]any

// DecodeDocument parses a single JSON object.
func DecodeDocument(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document must be a JSON object", ErrMalformedDocument)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformedDocument)
	}
	return doc, nil
}

// ParseDocument parses raw JSON bytes.
func ParseDocument(raw []byte) (Document, error) {
	return DecodeDocument(bytes.NewReader(raw))
}

// Encode renders the document the way it is persisted: two-space indented JSON.
func (d Document) Encode() ([]byte, error) {
	if d == nil {
		d = Document{}
	}
	return json.MarshalIndent(d, "", "  ")
}

// Clone returns a shallow copy.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// String returns the field rendered as text. Strings are trimmed, numbers
// keep their literal form, booleans render as true/false.
func (d Document) String(field string) (string, bool) {
	value, ok := d[field]
	if !ok || value == nil {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case float64, float32, int, int64, int32, uint64:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

// Identity returns the kind's identity field as text.
func (d Document) Identity(kind Kind) string {
	value, _ := d.String(kind.IdentityField)
	return value
}

// SetIdentity stores the identity as a string field.
func (d Document) SetIdentity(kind Kind, identity string) {
	d[kind.IdentityField] = identity
}
