// Package validator provides JSON Schema validation for on-disk ruleset
// documents, gating the filestore RuleStore backend before a candidate
// document ever reaches the compiler.
package validator

import (
	"fmt"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
)

// Validator loads the ruleset JSON Schema once and validates candidate
// documents against it.
type Validator struct {
	schemaDir     string
	rulesetSchema *gojsonschema.Schema
}

// NewValidator creates a validator pointing at a schemas directory
// containing ruleset.json.
func NewValidator(schemaDir string) (*Validator, error) {
	absSchemaDir, err := filepath.Abs(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema dir: %w", err)
	}

	rulesetSchemaPath := filepath.Join(absSchemaDir, "ruleset.json")
	schemaLoader := gojsonschema.NewReferenceLoader("file://" + rulesetSchemaPath)
	rulesetSchema, err := gojsonschema.NewSchema(schemaLoader)
	if err != nil {
		return nil, fmt.Errorf("failed to load ruleset schema: %w", err)
	}

	return &Validator{
		schemaDir:     absSchemaDir,
		rulesetSchema: rulesetSchema,
	}, nil
}

// ValidateFile validates a ruleset JSON document on disk against the
// schema.
func (v *Validator) ValidateFile(file string) (bool, []error) {
	absFile, err := filepath.Abs(file)
	if err != nil {
		return false, []error{fmt.Errorf("failed to resolve ruleset file: %w", err)}
	}

	docLoader := gojsonschema.NewReferenceLoader("file://" + absFile)
	return v.validate(docLoader)
}

// ValidateBytes validates an in-memory ruleset JSON document against the
// schema.
func (v *Validator) ValidateBytes(data []byte) (bool, []error) {
	docLoader := gojsonschema.NewBytesLoader(data)
	return v.validate(docLoader)
}

func (v *Validator) validate(docLoader gojsonschema.JSONLoader) (bool, []error) {
	res, err := v.rulesetSchema.Validate(docLoader)
	if err != nil {
		return false, []error{fmt.Errorf("validation failed: %w", err)}
	}

	if res.Valid() {
		return true, nil
	}

	errs := make([]error, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		errs = append(errs, fmt.Errorf("%s: %s", e.Field(), e.Description()))
	}
	return false, errs
}
