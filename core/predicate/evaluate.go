// Package predicate evaluates compiled rules.Predicate trees against a fact
// map. A missing attribute or any other evaluator fault is
// reported through MissingAttrError/error return values so the caller (the
// execution engine) can reduce it to a non-fatal "-" token rather than
// aborting the batch.
package predicate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/mova-engine/rulekit/core/rules"
)

// FactMap is the input to evaluation: string keys to scalar or list values.
// Nested attributes (containing "." or "[") are resolved via JSONPath
// against the whole map before falling back to a flat key lookup.
type FactMap map[string]interface{}

// MissingAttrError indicates the fact map has no value for the referenced
// attribute. It is not fatal: the rule yields "-" instead of aborting.
type MissingAttrError struct {
	Attribute string
	Available []string
}

func (e *MissingAttrError) Error() string {
	return fmt.Sprintf("attribute %q not present in fact map (available: %v)", e.Attribute, e.Available)
}

// Evaluate walks a compiled predicate tree and returns its boolean result.
// A missing attribute or malformed operand surfaces as an error; the
// caller (core/engine) treats any error the same way: emit "-", log, and
// move on. This function itself never panics on bad input.
func Evaluate(p rules.Predicate, facts FactMap) (bool, error) {
	if p.Leaf != nil {
		return evalLeaf(*p.Leaf, facts)
	}

	if len(p.Children) == 0 {
		return false, fmt.Errorf("predicate has neither leaf nor children")
	}

	switch p.Mode {
	case rules.ModeAnd:
		for _, c := range p.Children {
			ok, err := Evaluate(c, facts)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case rules.ModeOr:
		var firstErr error
		for _, c := range p.Children {
			ok, err := Evaluate(c, facts)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if ok {
				return true, nil
			}
		}
		if firstErr != nil {
			return false, firstErr
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown predicate mode %q", p.Mode)
	}
}

func evalLeaf(l rules.Leaf, facts FactMap) (bool, error) {
	fieldValue, ok := lookup(l.Attribute, facts)
	if !ok {
		return false, &MissingAttrError{Attribute: l.Attribute, Available: keys(facts)}
	}

	switch l.Operator {
	case "equal":
		return toString(fieldValue) == toString(parseScalar(l.Value)), nil
	case "not_equal":
		return toString(fieldValue) != toString(parseScalar(l.Value)), nil
	case "greater_than", "greater_than_or_equal", "less_than", "less_than_or_equal":
		return compareNumeric(l.Operator, fieldValue, l.Value)
	case "in":
		return membership(fieldValue, l.Value, true)
	case "not_in":
		return membership(fieldValue, l.Value, false)
	case "range":
		return inRange(fieldValue, l.Value)
	case "contains":
		return contains(fieldValue, l.Value)
	case "regex":
		return matchRegex(fieldValue, l.Value)
	default:
		return false, fmt.Errorf("unsupported operator %q", l.Operator)
	}
}

// lookup resolves an attribute name against the fact map. Names containing
// "." or "[" are first treated as a JSONPath expression over the whole map
// via jsonpath.Get, falling back to a flat key lookup when that fails;
// everything else is a flat key lookup.
func lookup(attribute string, facts FactMap) (interface{}, bool) {
	if strings.ContainsAny(attribute, ".[") {
		expr := attribute
		if !strings.HasPrefix(expr, "$") {
			expr = "$." + expr
		}
		if v, err := jsonpath.Get(expr, map[string]interface{}(facts)); err == nil {
			return v, true
		}
	}
	v, ok := facts[attribute]
	return v, ok
}

func keys(facts FactMap) []string {
	out := make([]string, 0, len(facts))
	for k := range facts {
		out = append(out, k)
	}
	return out
}

func parseScalar(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func parseList(raw string) ([]interface{}, error) {
	var v []interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("value %q is not a valid JSON list: %w", raw, err)
	}
	return v, nil
}

// compareNumeric coerces strings that parse as numbers; non-numeric
// operands on a numeric comparison yield false rather than an error.
func compareNumeric(op string, fieldValue interface{}, raw string) (bool, error) {
	a, aok := toFloat(fieldValue)
	b, bok := toFloat(parseScalar(raw))
	if !aok || !bok {
		return false, nil
	}
	switch op {
	case "greater_than":
		return a > b, nil
	case "greater_than_or_equal":
		return a >= b, nil
	case "less_than":
		return a < b, nil
	case "less_than_or_equal":
		return a <= b, nil
	}
	return false, fmt.Errorf("unreachable operator %q", op)
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return float64(rv.Int()), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return float64(rv.Uint()), true
		case reflect.Float32, reflect.Float64:
			return rv.Float(), true
		}
		return 0, false
	}
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// membership checks fieldValue against a JSON-list-encoded RHS.
func membership(fieldValue interface{}, raw string, wantIn bool) (bool, error) {
	list, err := parseList(raw)
	if err != nil {
		return false, err
	}
	found := false
	for _, item := range list {
		if toString(item) == toString(fieldValue) {
			found = true
			break
		}
	}
	if wantIn {
		return found, nil
	}
	return !found, nil
}

// inRange is inclusive on both endpoints; RHS must be a two-element
// ordered list.
func inRange(fieldValue interface{}, raw string) (bool, error) {
	list, err := parseList(raw)
	if err != nil {
		return false, err
	}
	if len(list) != 2 {
		return false, fmt.Errorf("range operator requires a two-element list, got %d", len(list))
	}
	v, vok := toFloat(fieldValue)
	lo, lok := toFloat(list[0])
	hi, hok := toFloat(list[1])
	if !vok || !lok || !hok {
		return false, nil
	}
	return v >= lo && v <= hi, nil
}

// contains is substring for strings, element-of for lists.
func contains(fieldValue interface{}, raw string) (bool, error) {
	if list, ok := fieldValue.([]interface{}); ok {
		target := parseScalar(raw)
		for _, item := range list {
			if toString(item) == toString(target) {
				return true, nil
			}
		}
		return false, nil
	}
	return strings.Contains(toString(fieldValue), raw), nil
}

// matchRegex compiles the RHS as a regular expression at evaluation time; a
// compile failure is an error, not a silent false.
func matchRegex(fieldValue interface{}, pattern string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
	}
	return re.MatchString(toString(fieldValue)), nil
}
