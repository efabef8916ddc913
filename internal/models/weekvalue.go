package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// WeekValue is a weekly incident count that round-trips both encodings
// found in stored documents: a JSON number, or a string such as "3".
// A non-empty string counts as present even when it reads "0"; a number
// counts as present only when greater than zero. This mirrors how
// existing documents were interpreted and must not be "fixed" without a
// data migration.
type WeekValue struct {
	num   float64
	str   string
	isStr bool
	set   bool
}

// WeekNumber returns a numeric week value.
func WeekNumber(n float64) WeekValue {
	return WeekValue{num: n, set: true}
}

// WeekString returns a string-encoded week value.
func WeekString(s string) WeekValue {
	return WeekValue{str: s, isStr: true, set: true}
}

// WeekFromAny converts a decoded JSON value into a WeekValue.
func WeekFromAny(v any) WeekValue {
	switch t := v.(type) {
	case nil:
		return WeekValue{}
	case float64:
		return WeekNumber(t)
	case int:
		return WeekNumber(float64(t))
	case int64:
		return WeekNumber(float64(t))
	case string:
		return WeekString(t)
	case WeekValue:
		return t
	}
	return WeekValue{}
}

// Present reports whether this value counts as "has week data".
func (w WeekValue) Present() bool {
	if !w.set {
		return false
	}
	if w.isStr {
		return strings.TrimSpace(w.str) != ""
	}
	return w.num > 0
}

// Num returns the numeric value, parsing string forms best-effort.
// Unparseable strings contribute zero to aggregates.
func (w WeekValue) Num() float64 {
	if !w.set {
		return 0
	}
	if w.isStr {
		n, err := strconv.ParseFloat(strings.TrimSpace(w.str), 64)
		if err != nil {
			return 0
		}
		return n
	}
	return w.num
}

// IsString reports whether the stored form was a JSON string.
func (w WeekValue) IsString() bool { return w.isStr }

func (w WeekValue) MarshalJSON() ([]byte, error) {
	if w.isStr {
		return json.Marshal(w.str)
	}
	if !w.set {
		return []byte("0"), nil
	}
	return []byte(strconv.FormatFloat(w.num, 'f', -1, 64)), nil
}

func (w *WeekValue) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*w = WeekValue{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*w = WeekString(str)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*w = WeekNumber(n)
	return nil
}
