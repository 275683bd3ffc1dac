package validator

import (
	"testing"
)

func TestNewValidator(t *testing.T) {
	v, err := NewValidator("../../schemas")
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	if v == nil {
		t.Fatal("Validator should not be nil")
	}
}

func TestValidateBytes_Valid(t *testing.T) {
	v, err := NewValidator("../../schemas")
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	doc := []byte(`{
		"id": "rs-1",
		"name": "fraud_screen",
		"status": "active",
		"rules": [
			{
				"rule_id": "r1",
				"rule_name": "high_amount",
				"conditions": {"item": "c1"},
				"action_result": "A",
				"status": "active"
			}
		],
		"actionset": [
			{"pattern_key": "A", "action_recommendation": "flag_for_review"}
		]
	}`)

	valid, errs := v.ValidateBytes(doc)
	if !valid {
		t.Errorf("expected valid document, got errors: %v", errs)
	}
}

func TestValidateBytes_MissingRequiredField(t *testing.T) {
	v, err := NewValidator("../../schemas")
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	doc := []byte(`{"id": "rs-1", "status": "active", "rules": []}`)

	valid, errs := v.ValidateBytes(doc)
	if valid {
		t.Fatal("expected invalid document (missing name)")
	}
	if len(errs) == 0 {
		t.Error("expected at least one validation error")
	}
}
