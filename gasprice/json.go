package gasprice

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Envelope is the {result, error} wrapper of every REST response.
type Envelope struct {
	Result json.RawMessage
	Error  json.RawMessage
}

// DecodeEnvelope splits a response body into its result and error parts.
// Either part may be empty when the body does not carry it.
func DecodeEnvelope(body []byte) (Envelope, error) {
	obj, err := decodeObject(body, "")
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Result: obj["result"], Error: obj["error"]}, nil
}

// Failed reports whether the envelope's error field is truthy and returns the
// decoded error value when it is.
func (e Envelope) Failed() (payload any, failed bool, err error) {
	if len(bytes.TrimSpace(e.Error)) == 0 {
		return nil, false, nil
	}
	v, err := DecodeAny(e.Error)
	if err != nil {
		return nil, false, wrongType("error", err)
	}
	if failed, err = truthyValue(v); err != nil {
		return nil, false, wrongType("error", err)
	}
	if !failed {
		return nil, false, nil
	}
	return v, true, nil
}

// Truthy applies JSON truthiness: absent, null, false, 0, "", [] and {} are false.
func Truthy(raw json.RawMessage) (bool, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	v, err := DecodeAny(raw)
	if err != nil {
		return false, err
	}
	return truthyValue(v)
}

func truthyValue(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return false, err
		}
		return !d.IsZero(), nil
	case string:
		return t != "", nil
	case []any:
		return len(t) > 0, nil
	case map[string]any:
		return len(t) > 0, nil
	}
	return true, nil
}

// DecodeAny decodes raw into plain Go values, keeping numbers as json.Number so
// large integers survive intact.
func DecodeAny(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

type object map[string]json.RawMessage

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	if strings.HasPrefix(key, "[") {
		return path + key
	}
	return path + "." + key
}

func decodeObject(raw json.RawMessage, path string) (object, error) {
	if isNull(raw) {
		return nil, missing(path)
	}
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, wrongType(path, err)
	}
	return obj, nil
}

func decodeArray(raw json.RawMessage, path string) ([]json.RawMessage, error) {
	if isNull(raw) {
		return nil, missing(path)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, wrongType(path, err)
	}
	return items, nil
}

func (o object) object(key, path string) (object, error) {
	return decodeObject(o[key], joinPath(path, key))
}

func (o object) decimal(key, path string) (decimal.Decimal, error) {
	raw := o[key]
	if isNull(raw) {
		return decimal.Zero, missing(joinPath(path, key))
	}
	return parseDecimal(raw, joinPath(path, key))
}

func (o object) uint64(key, path string) (uint64, error) {
	raw := o[key]
	if isNull(raw) {
		return 0, missing(joinPath(path, key))
	}
	var v uint64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, wrongType(joinPath(path, key), err)
	}
	return v, nil
}

func (o object) int64(key, path string) (int64, error) {
	raw := o[key]
	if isNull(raw) {
		return 0, missing(joinPath(path, key))
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, wrongType(joinPath(path, key), err)
	}
	return v, nil
}

// optionalDecimal returns nil unless key is present with a truthy value.
func (o object) optionalDecimal(key, path string) (*decimal.Decimal, error) {
	raw, ok := o[key]
	if !ok {
		return nil, nil
	}
	truthy, err := Truthy(raw)
	if err != nil {
		return nil, wrongType(joinPath(path, key), err)
	}
	if !truthy {
		return nil, nil
	}
	d, err := parseDecimal(raw, joinPath(path, key))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseDecimal accepts a JSON number or a numeric string.
func parseDecimal(raw json.RawMessage, path string) (decimal.Decimal, error) {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(bytes.TrimSpace(raw)); err != nil {
		return decimal.Zero, wrongType(path, err)
	}
	return d, nil
}
