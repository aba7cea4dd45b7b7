package mvc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type converter func(s string) (any, error)

// converters is the closed string -> declared type table used for query and
// form values.
var converters = map[Kind]converter{
	KindString: func(s string) (any, error) { return s, nil },
	KindBytes:  func(s string) (any, error) { return []byte(s), nil },
	KindInt: func(s string) (any, error) {
		return strconv.Atoi(s)
	},
	KindInt64: func(s string) (any, error) {
		return strconv.ParseInt(s, 10, 64)
	},
	KindUint: func(s string) (any, error) {
		v, err := strconv.ParseUint(s, 10, 0)
		return uint(v), err
	},
	KindFloat: func(s string) (any, error) {
		return strconv.ParseFloat(s, 64)
	},
	KindBool: func(s string) (any, error) {
		return strconv.ParseBool(s)
	},
}

// Convert parses s into the Go value used for kind.
func Convert(kind Kind, s string) (any, error) {
	conv, ok := converters[kind]
	if !ok {
		return nil, fmt.Errorf("cannot convert a string to %s", kind)
	}
	v, err := conv(s)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %q to %s", s, kind)
	}
	return v, nil
}

// defaultMatches reports whether v has the Go type Args hands out for kind.
func defaultMatches(kind Kind, v any) bool {
	switch kind {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInt:
		_, ok := v.(int)
		return ok
	case KindInt64:
		_, ok := v.(int64)
		return ok
	case KindUint:
		_, ok := v.(uint)
		return ok
	case KindFloat:
		_, ok := v.(float64)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindBytes:
		_, ok := v.([]byte)
		return ok
	}
	// files and models have no sensible literal default other than nil
	return v == nil
}

func decodeAs[T any](data []byte) (any, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeJSON parses data into the declared type of p. The codec's error is
// returned untouched so callers can surface its message.
func decodeJSON(p Param, data []byte) (any, error) {
	switch p.Kind {
	case KindModel:
		if p.model == nil {
			return nil, fmt.Errorf("parameter %q has no model type", p.Name)
		}
		v := p.model()
		if err := json.Unmarshal(data, v); err != nil {
			return nil, err
		}
		return v, nil
	case KindString:
		return decodeAs[string](data)
	case KindInt:
		return decodeAs[int](data)
	case KindInt64:
		return decodeAs[int64](data)
	case KindUint:
		return decodeAs[uint](data)
	case KindFloat:
		return decodeAs[float64](data)
	case KindBool:
		return decodeAs[bool](data)
	case KindBytes:
		return decodeAs[[]byte](data)
	}
	return nil, fmt.Errorf("parameter %q of type %s cannot be decoded from JSON", p.Name, p.Kind)
}
