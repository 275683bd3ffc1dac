package predicate

import (
	"testing"

	"github.com/mova-engine/rulekit/core/rules"
)

func leafPredicate(attribute, operator, value string) rules.Predicate {
	return rules.Predicate{Leaf: &rules.Leaf{Attribute: attribute, Operator: operator, Value: value}}
}

func TestEvaluateEqual(t *testing.T) {
	p := leafPredicate("region", "equal", `"EU"`)
	ok, err := Evaluate(p, FactMap{"region": "EU"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected match")
	}
}

func TestEvaluateGreaterThan(t *testing.T) {
	p := leafPredicate("order_total", "greater_than", "1000")
	ok, err := Evaluate(p, FactMap{"order_total": 1500.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected 1500 > 1000 to match")
	}
}

func TestEvaluateMissingAttributeIsNotFatal(t *testing.T) {
	p := leafPredicate("missing_field", "equal", `"x"`)
	_, err := Evaluate(p, FactMap{})
	if _, ok := err.(*MissingAttrError); !ok {
		t.Fatalf("expected *MissingAttrError, got %T (%v)", err, err)
	}
}

func TestEvaluateNestedAttributeViaJSONPath(t *testing.T) {
	p := leafPredicate("customer.tier", "equal", `"gold"`)
	facts := FactMap{"customer": map[string]interface{}{"tier": "gold"}}
	ok, err := Evaluate(p, facts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected nested attribute lookup to match")
	}
}

func TestEvaluateIn(t *testing.T) {
	p := leafPredicate("country", "in", `["US", "CA", "MX"]`)
	ok, err := Evaluate(p, FactMap{"country": "CA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected CA to be in the list")
	}
}

func TestEvaluateRange(t *testing.T) {
	p := leafPredicate("age", "range", `[18, 65]`)
	ok, err := Evaluate(p, FactMap{"age": 30.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected 30 to be in [18, 65]")
	}
}

func TestEvaluateAndRequiresAllChildren(t *testing.T) {
	p := rules.Predicate{
		Mode: rules.ModeAnd,
		Children: []rules.Predicate{
			leafPredicate("a", "equal", `"1"`),
			leafPredicate("b", "equal", `"2"`),
		},
	}
	ok, err := Evaluate(p, FactMap{"a": "1", "b": "3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected AND to fail when one child fails")
	}
}

func TestEvaluateOrShortCircuitsOnFirstMatch(t *testing.T) {
	p := rules.Predicate{
		Mode: rules.ModeOr,
		Children: []rules.Predicate{
			leafPredicate("missing", "equal", `"x"`),
			leafPredicate("b", "equal", `"2"`),
		},
	}
	ok, err := Evaluate(p, FactMap{"b": "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected OR to match via the second child despite the first erroring")
	}
}

func TestEvaluateRegexInvalidPatternIsError(t *testing.T) {
	p := leafPredicate("name", "regex", "[")
	_, err := Evaluate(p, FactMap{"name": "anything"})
	if err == nil {
		t.Fatal("expected an error for an invalid regex pattern")
	}
}
