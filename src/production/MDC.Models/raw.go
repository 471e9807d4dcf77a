package mdcmodels

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// RawFields is the JSON object a record was decoded from. It is kept whole so
// the record encodes back exactly as the dashboard sent it; the typed fields
// next to it are views for reading.
type RawFields map[string]json.RawMessage

// Clone returns a deep copy of r. A nil r stays nil.
func (r RawFields) Clone() RawFields {
	if r == nil {
		return nil
	}
	c := make(RawFields, len(r))
	for k, v := range r {
		c[k] = bytes.Clone(v)
	}
	return c
}

// decodeRecord decodes a JSON object and fills each view from its key. A view
// whose value has an unexpected type is left at its zero value instead of
// failing the whole record.
func decodeRecord(data []byte, views map[string]interface{}) (RawFields, error) {
	var raw RawFields
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for key, dst := range views {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			reflect.ValueOf(dst).Elem().SetZero()
		}
	}
	return raw, nil
}

// encodeRecord writes raw when the record was decoded and the typed view v
// when it was built in code. Fields in override are set on top.
func encodeRecord(v interface{}, raw RawFields, override map[string]interface{}) ([]byte, error) {
	if raw == nil && len(override) == 0 {
		return json.Marshal(v)
	}

	fields := make(map[string]json.RawMessage, len(raw)+len(override))
	if raw != nil {
		for k, value := range raw {
			fields[k] = value
		}
	} else {
		typed, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(typed, &fields); err != nil {
			return nil, err
		}
	}

	for k, val := range override {
		value, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		fields[k] = value
	}
	return json.Marshal(fields)
}
