package dqk

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/pkg/errors"
)

// The predicate builders in this file cover the common shapes of
// data-quality rules over map-like records. They accept both the
// map[string]string records produced by the csv source and the
// map[string]interface{} records produced by the json-based sources, coercing
// field values as needed. A builder's predicate returns an error (reported as
// a predicate fault, not a violation) when the record has no such field or
// the value cannot be coerced.

// FieldValue pulls a named field out of a record. The second return reports
// whether the field is present; an error means the record is not a shape any
// built-in predicate understands.
func FieldValue(rec interface{}, name string) (interface{}, bool, error) {
	switch m := rec.(type) {
	case map[string]interface{}:
		v, ok := m[name]
		return v, ok, nil
	case map[string]string:
		v, ok := m[name]
		return v, ok, nil
	}
	return nil, false, errors.Errorf("unsupported record type %T", rec)
}

// Float64 coerces a field value to a float64. Strings are parsed, which makes
// numeric rules work against csv records.
func Float64(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, errors.Wrapf(err, "parsing '%s' as float", v)
	}
	return 0, errors.Errorf("cannot interpret %v of type %T as a number", val, val)
}

// String coerces a field value to a string.
func String(val interface{}) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", errors.Errorf("cannot interpret %v of type %T as a string", val, val)
}

func numField(rec interface{}, field string) (float64, error) {
	val, ok, err := FieldValue(rec, field)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errors.Errorf("record has no field '%s'", field)
	}
	return Float64(val)
}

func strField(rec interface{}, field string) (string, error) {
	val, ok, err := FieldValue(rec, field)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Errorf("record has no field '%s'", field)
	}
	return String(val)
}

// Exists returns a predicate which is satisfied when the record has the named
// field with a non-nil, non-empty value. A missing field is an ordinary
// violation here, not a fault.
func Exists(field string) Predicate {
	return func(rec interface{}) (bool, error) {
		val, ok, err := FieldValue(rec, field)
		if err != nil {
			return false, err
		}
		if !ok || val == nil {
			return false, nil
		}
		if s, isStr := val.(string); isStr && strings.TrimSpace(s) == "" {
			return false, nil
		}
		return true, nil
	}
}

// GT returns a predicate satisfied when the named numeric field is strictly
// greater than threshold.
func GT(field string, threshold float64) Predicate {
	return func(rec interface{}) (bool, error) {
		f, err := numField(rec, field)
		return err == nil && f > threshold, err
	}
}

// GE is like GT but inclusive.
func GE(field string, threshold float64) Predicate {
	return func(rec interface{}) (bool, error) {
		f, err := numField(rec, field)
		return err == nil && f >= threshold, err
	}
}

// LT returns a predicate satisfied when the named numeric field is strictly
// less than threshold.
func LT(field string, threshold float64) Predicate {
	return func(rec interface{}) (bool, error) {
		f, err := numField(rec, field)
		return err == nil && f < threshold, err
	}
}

// LE is like LT but inclusive.
func LE(field string, threshold float64) Predicate {
	return func(rec interface{}) (bool, error) {
		f, err := numField(rec, field)
		return err == nil && f <= threshold, err
	}
}

// Between returns a predicate satisfied when min <= field <= max.
func Between(field string, min, max float64) Predicate {
	return func(rec interface{}) (bool, error) {
		f, err := numField(rec, field)
		return err == nil && f >= min && f <= max, err
	}
}

// Eq returns a predicate satisfied when the field equals value. Numbers
// compare numerically, everything else compares as strings.
func Eq(field string, value interface{}) Predicate {
	return equality(field, value, true)
}

// Ne returns a predicate satisfied when the field does not equal value.
func Ne(field string, value interface{}) Predicate {
	return equality(field, value, false)
}

func equality(field string, value interface{}, want bool) Predicate {
	return func(rec interface{}) (bool, error) {
		val, ok, err := FieldValue(rec, field)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, errors.Errorf("record has no field '%s'", field)
		}
		if num, err := Float64(value); err == nil {
			f, ferr := Float64(val)
			if ferr == nil {
				return (f == num) == want, nil
			}
		}
		vs, err := String(val)
		if err != nil {
			return false, err
		}
		ws, err := String(value)
		if err != nil {
			return false, err
		}
		return (vs == ws) == want, nil
	}
}

// In returns a predicate satisfied when the field's string form is one of the
// given values.
func In(field string, values ...string) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(rec interface{}) (bool, error) {
		s, err := strField(rec, field)
		if err != nil {
			return false, err
		}
		_, ok := set[s]
		return ok, nil
	}
}

// Matches returns a predicate satisfied when the field's string form matches
// the given regular expression.
func Matches(field string, pattern string) (Predicate, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling pattern '%s'", pattern)
	}
	return func(rec interface{}) (bool, error) {
		s, err := strField(rec, field)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	}, nil
}

// TimeParses returns a predicate satisfied when the field parses as a
// timestamp in the given layout.
func TimeParses(field string, layout string) Predicate {
	return func(rec interface{}) (bool, error) {
		s, err := strField(rec, field)
		if err != nil {
			return false, err
		}
		_, err = time.Parse(layout, s)
		return err == nil, nil
	}
}

// WithinGeohash returns a predicate satisfied when the record's lat/lon pair
// is a valid coordinate whose geohash begins with prefix. An empty prefix
// just checks coordinate validity.
func WithinGeohash(latField, lonField, prefix string) Predicate {
	return func(rec interface{}) (bool, error) {
		lat, err := numField(rec, latField)
		if err != nil {
			return false, err
		}
		lon, err := numField(rec, lonField)
		if err != nil {
			return false, err
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return false, nil
		}
		return strings.HasPrefix(geohash.Encode(lat, lon), prefix), nil
	}
}

// Unique returns a predicate satisfied the first time each value of the
// named field is seen by the tracker under the given rule name. Note that a
// tracker-backed predicate is deliberately stateful, unlike every other
// builder in this package; see Tracker.
func Unique(field, rule string, t *Tracker) Predicate {
	return func(rec interface{}) (bool, error) {
		s, err := strField(rec, field)
		if err != nil {
			return false, err
		}
		seen, err := t.Seen(rule, s)
		if err != nil {
			return false, errors.Wrap(err, "consulting tracker")
		}
		return !seen, nil
	}
}
