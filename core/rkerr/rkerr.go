// Package rkerr defines the stable error shape surfaced across the rule
// engine: error_type, message, error_code, context. Evaluator faults never
// reach this type; they are contained and reduced to a "-" token per the
// engine's error handling design.
package rkerr

import "fmt"

// Kind groups error codes into the taxonomy the engine exposes to callers.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindCompilation   Kind = "compilation"
	KindConfiguration Kind = "configuration"
)

// Error is the structured error every caller-visible failure uses.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Context map[string]interface{}
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Context)
}

// New builds a validation-kind error, the most common caller-visible case.
func New(code, message string, ctx map[string]interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Context: ctx}
}

// Compilation builds a compilation-kind error per the rule compiler's
// failure taxonomy: always carries the offending rule name.
func Compilation(code, message string, ctx map[string]interface{}) *Error {
	return &Error{Kind: KindCompilation, Code: code, Message: message, Context: ctx}
}

// Configuration wraps a collaborator fault (store unavailable, etc.).
func Configuration(code, message string, ctx map[string]interface{}) *Error {
	return &Error{Kind: KindConfiguration, Code: code, Message: message, Context: ctx}
}

// Is supports errors.Is comparisons keyed on Code, so callers can test for
// a specific error_code without type-asserting the whole struct.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel error codes shared across the compiler, versioning, and
// A/B test routers.
const (
	CodeRuleEmpty              = "RULE_EMPTY"
	CodeRuleInvalidType        = "RULE_INVALID_TYPE"
	CodeRuleInvalidConditions  = "RULE_INVALID_CONDITIONS"
	CodeRuleMissingConditionIt = "RULE_MISSING_CONDITION_ITEM"
	CodeRuleMissingConditions  = "RULE_MISSING_CONDITIONS_ITEMS"
	CodeRuleEmptyConditions    = "RULE_EMPTY_CONDITIONS"
	CodeRuleMissingMode        = "RULE_MISSING_MODE"
	CodeConditionNotFound      = "CONDITION_NOT_FOUND"
	CodeConditionEmpty         = "CONDITION_EMPTY"

	CodeDataInvalidType    = "DATA_INVALID_TYPE"
	CodeDataValidation     = "DATA_VALIDATION_ERROR"
	CodeVersionNotFound    = "VERSION_NOT_FOUND"
	CodeRuleNotFound       = "RULE_NOT_FOUND"
	CodeRulesetNotFound    = "RULESET_NOT_FOUND"
	CodeInvalidTestState   = "INVALID_TEST_STATE"
	CodeInvalidTrafficSplit = "INVALID_TRAFFIC_SPLIT"
	CodeInvalidConfidence  = "INVALID_CONFIDENCE_LEVEL"
	CodeInvalidWinner      = "INVALID_WINNING_VARIANT"
	CodeValidationError    = "VALIDATION_ERROR"
)
