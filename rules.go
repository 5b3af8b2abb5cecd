package dqk

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Rule is the declarative, file-friendly form of an Expectation. Rule files
// are JSON arrays of these; CompileRules turns them into predicates. The
// set of ops mirrors the predicate builders in predicate.go.
type Rule struct {
	Name   string `json:"name"`
	Field  string `json:"field,omitempty"`
	Op     string `json:"op"`
	Action string `json:"action"`

	// Value is used by the comparison ops (eq, ne, gt, ge, lt, le).
	Value interface{} `json:"value,omitempty"`
	// Min and Max are used by the between op.
	Min float64 `json:"min,omitempty"`
	Max float64 `json:"max,omitempty"`
	// Values is used by the in op.
	Values []string `json:"values,omitempty"`
	// Pattern is used by the matches op.
	Pattern string `json:"pattern,omitempty"`
	// Layout is used by the time op.
	Layout string `json:"layout,omitempty"`
	// Lat, Lon and Prefix are used by the geohash op.
	Lat    string `json:"lat,omitempty"`
	Lon    string `json:"lon,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

// ReadRules decodes a JSON array of rules.
func ReadRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	err := json.NewDecoder(r).Decode(&rules)
	return rules, errors.Wrap(err, "decoding rules")
}

// LoadRules reads rules from the file at path.
func LoadRules(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening rules file")
	}
	defer f.Close()
	rules, err := ReadRules(f)
	return rules, errors.Wrapf(err, "reading rules from '%s'", path)
}

// CompileRules turns rules into expectations, in order. The tracker may be
// nil if no rule uses the unique op.
func CompileRules(rules []Rule, t *Tracker) ([]Expectation, error) {
	exps := make([]Expectation, len(rules))
	for i, rule := range rules {
		exp, err := compileRule(rule, t)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling rule '%s'", rule.Name)
		}
		exps[i] = exp
	}
	return exps, nil
}

func compileRule(r Rule, t *Tracker) (Expectation, error) {
	exp := Expectation{Name: r.Name}
	action, err := ParseAction(r.Action)
	if err != nil {
		return exp, err
	}
	exp.Action = action

	needField := r.Op != "geohash"
	if needField && r.Field == "" {
		return exp, errors.Errorf("op '%s' needs a field", r.Op)
	}

	switch r.Op {
	case "exists":
		exp.Predicate = Exists(r.Field)
	case "eq":
		exp.Predicate = Eq(r.Field, r.Value)
	case "ne":
		exp.Predicate = Ne(r.Field, r.Value)
	case "gt", "ge", "lt", "le":
		threshold, err := Float64(r.Value)
		if err != nil {
			return exp, errors.Wrapf(err, "op '%s' needs a numeric value", r.Op)
		}
		switch r.Op {
		case "gt":
			exp.Predicate = GT(r.Field, threshold)
		case "ge":
			exp.Predicate = GE(r.Field, threshold)
		case "lt":
			exp.Predicate = LT(r.Field, threshold)
		case "le":
			exp.Predicate = LE(r.Field, threshold)
		}
	case "between":
		if r.Min > r.Max {
			return exp, errors.Errorf("between has min %v > max %v", r.Min, r.Max)
		}
		exp.Predicate = Between(r.Field, r.Min, r.Max)
	case "in":
		if len(r.Values) == 0 {
			return exp, errors.New("op 'in' needs values")
		}
		exp.Predicate = In(r.Field, r.Values...)
	case "matches":
		exp.Predicate, err = Matches(r.Field, r.Pattern)
		if err != nil {
			return exp, err
		}
	case "time":
		if r.Layout == "" {
			return exp, errors.New("op 'time' needs a layout")
		}
		exp.Predicate = TimeParses(r.Field, r.Layout)
	case "geohash":
		if r.Lat == "" || r.Lon == "" {
			return exp, errors.New("op 'geohash' needs lat and lon fields")
		}
		exp.Predicate = WithinGeohash(r.Lat, r.Lon, r.Prefix)
	case "unique":
		if t == nil {
			return exp, errors.New("op 'unique' needs a tracker")
		}
		exp.Predicate = Unique(r.Field, r.Name, t)
	default:
		return exp, errors.Errorf("unknown op '%s'", r.Op)
	}
	return exp, nil
}
