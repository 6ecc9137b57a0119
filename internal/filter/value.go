package filter

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/Tomlord1122/todo-items/internal/domain"
)

// Kind is the type of the column behind a filterable field. Where values are
// converted to it before they are bound, so a malformed value is reported
// as a filter error instead of failing in the database.
type Kind int

const (
	Text Kind = iota
	Integer
	Boolean
	Timestamp
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	case Timestamp:
		return "timestamp"
	default:
		return "text"
	}
}

func (k Kind) convert(v any, path string) (any, error) {
	var (
		out any
		ok  bool
	)
	switch k {
	case Integer:
		out, ok = toInt64(v)
	case Boolean:
		out, ok = toBool(v)
	case Timestamp:
		out, ok = toTime(v)
	default:
		out, ok = toText(v)
	}
	if !ok {
		return nil, &domain.FilterError{Path: path, Reason: "must be a " + k.String()}
	}
	return out, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), n == float64(int64(n))
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	}
	return false, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

func toText(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	}
	return "", false
}
