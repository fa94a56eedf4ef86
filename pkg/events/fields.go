package events

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ps2-census/census-stream/pkg/census"
)

// fields reads typed values out of a service message payload. The first
// failing accessor records its error; later accessors return zero values,
// so a decoder can read every field and check err once at the end.
type fields struct {
	raw map[string]json.RawMessage
	err error
}

func newFields(payload json.RawMessage) (*fields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, census.Wrap(census.KindProtocol, "service message payload is not an object", err)
	}
	return &fields{raw: raw}, nil
}

func (f *fields) fail(key string) {
	if f.err == nil {
		f.err = census.FieldError(key)
	}
}

// scalar returns the field as text. JSON strings are unquoted, JSON numbers
// and booleans are returned verbatim; objects, arrays and null are rejected.
func (f *fields) scalar(key string) (string, bool) {
	if f.err != nil {
		return "", false
	}
	v := bytes.TrimSpace(f.raw[key])
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", false
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		return string(v), true
	}
}

func (f *fields) String(key string) string {
	if f.err != nil {
		return ""
	}
	v := bytes.TrimSpace(f.raw[key])
	var s string
	if len(v) == 0 || v[0] != '"' || json.Unmarshal(v, &s) != nil {
		f.fail(key)
		return ""
	}
	return s
}

func (f *fields) uint(key string, bits int) uint64 {
	s, ok := f.scalar(key)
	if !ok {
		f.fail(key)
		return 0
	}
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		f.fail(key)
		return 0
	}
	return n
}

func (f *fields) Uint8(key string) uint8 {
	return uint8(f.uint(key, 8))
}

func (f *fields) Uint32(key string) uint32 {
	return uint32(f.uint(key, 32))
}

func (f *fields) Uint64(key string) uint64 {
	return f.uint(key, 64)
}

func (f *fields) Float(key string) float64 {
	s, ok := f.scalar(key)
	if !ok {
		f.fail(key)
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		f.fail(key)
		return 0
	}
	return n
}

// Bool accepts "0"/"1", "true"/"false" (either as strings or JSON literals)
// and the integers 0 and 1.
func (f *fields) Bool(key string) bool {
	s, ok := f.scalar(key)
	if !ok {
		f.fail(key)
		return false
	}
	switch strings.ToLower(s) {
	case "1", "true":
		return true
	case "0", "false":
		return false
	}
	f.fail(key)
	return false
}

// OptString returns "" when the field is absent.
func (f *fields) OptString(key string) string {
	if _, present := f.raw[key]; !present {
		return ""
	}
	return f.String(key)
}

// OptUint32 returns 0 when the field is absent.
func (f *fields) OptUint32(key string) uint32 {
	if _, present := f.raw[key]; !present {
		return 0
	}
	return f.Uint32(key)
}

func (f *fields) Err() error {
	return f.err
}
