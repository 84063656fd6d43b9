package dynastate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec converts a field value to and from the textual form stored in the
// backing table. Implementations must be stateless and safe for concurrent
// use, and Decode must be the exact inverse of Encode for every value in the
// codec's domain.
type Codec interface {
	Encode(value any) (string, error)
	Decode(encoded string) (any, error)
}

// MalformedRecordError is returned by RecordStore.Get when a stored field
// cannot be decoded, which normally means the record is corrupt or was
// written by an incompatible codec.
type MalformedRecordError struct {
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: cannot decode field %q: %s", e.Field, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// DefaultCodec returns the JSON codec used unless StoreBuilder.Codec
// overrides it.
//
// Its value domain is Go's JSON-compatible set: nil, bool, float64, string,
// []any and map[string]any, nested arbitrarily. All JSON numbers decode as
// float64.
func DefaultCodec() Codec {
	return jsonCodec{}
}

type jsonCodec struct{}

func (jsonCodec) Encode(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (jsonCodec) Decode(encoded string) (any, error) {
	var value any
	dec := json.NewDecoder(bytes.NewReader([]byte(encoded)))
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	// A valid encoding is a single JSON value with nothing after it.
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return value, nil
}
