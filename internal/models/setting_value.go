package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Setting value type discriminators. The settings table stores every
// value as text; Type says how to interpret it.
const (
	SettingTypeString  = "string"
	SettingTypeNumber  = "number"
	SettingTypeBoolean = "boolean"
	SettingTypeJSON    = "json"
)

// SettingValue is a tagged union over the stringly-typed settings
// store: the raw text column plus its type discriminator.
type SettingValue struct {
	Type string
	Raw  string
}

// Decode interprets Raw per Type. A raw value that does not parse for
// its declared type falls back to the raw string, matching how the
// original API tolerated stale values instead of failing reads.
func (v SettingValue) Decode() any {
	switch v.Type {
	case SettingTypeJSON:
		var out any
		if err := json.Unmarshal([]byte(v.Raw), &out); err != nil {
			return v.Raw
		}
		return out
	case SettingTypeBoolean:
		return v.Raw == "true"
	case SettingTypeNumber:
		n, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return v.Raw
		}
		return n
	default:
		return v.Raw
	}
}

// EncodeSettingValue renders a client-supplied value into the text form
// stored for the given type.
func EncodeSettingValue(typ string, value any) (string, error) {
	switch typ {
	case SettingTypeJSON:
		if s, ok := value.(string); ok {
			return s, nil
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("encode json setting: %w", err)
		}
		return string(raw), nil
	case SettingTypeBoolean:
		b, ok := value.(bool)
		if !ok {
			b = value != nil && value != false && value != "" && value != "false"
		}
		return strconv.FormatBool(b), nil
	case SettingTypeNumber:
		switch n := value.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(n), nil
		case int64:
			return strconv.FormatInt(n, 10), nil
		case string:
			if _, err := strconv.ParseFloat(n, 64); err != nil {
				return "", fmt.Errorf("encode number setting: %q is not numeric", n)
			}
			return n, nil
		default:
			return "", fmt.Errorf("encode number setting: unsupported type %T", value)
		}
	default:
		return fmt.Sprintf("%v", value), nil
	}
}
