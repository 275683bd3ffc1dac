// Package engine implements the execution engine: the hot evaluation
// path. It never compiles rules itself (it only reads PreparedRules
// from the registry) and never surfaces per-rule evaluator faults to
// the caller.
package engine

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/mova-engine/rulekit/core/abtest"
	"github.com/mova-engine/rulekit/core/feel"
	"github.com/mova-engine/rulekit/core/predicate"
	"github.com/mova-engine/rulekit/core/registry"
	"github.com/mova-engine/rulekit/core/rkerr"
	"github.com/mova-engine/rulekit/core/rules"
)

// Options carries per-evaluation knobs from the evaluation request.
type Options struct {
	RulesetName    string
	ABTestID       string
	AssignmentKey  string
	ConsumerID     string
	DryRun         bool
}

// RuleMatch is a dry-run trace entry: a {rule_name, would_match, points}
// tuple.
type RuleMatch struct {
	RuleName    string
	WouldMatch  bool
	Points      float64
}

// Result is the public EvaluationResult shape.
type Result struct {
	TotalPoints         float64
	PatternResult       string
	ActionRecommendation *string
	RulesExecuted       int
	RulesMatched        int
	ExecutionTimeMs     float64
	RegistryVersion     int

	ExecutionID string
	ABTestID    string
	ABVariant   string

	DryRunTrace []RuleMatch
}

// Logger is the subset of logging the engine needs; satisfied by the api's
// engineLoggerAdapter (which forwards to LogRuleFault) or NopLogger.
type Logger interface {
	RuleFault(ruleID, missingAttr string, available []string)
}

// NopLogger discards all log calls.
type NopLogger struct{}

func (NopLogger) RuleFault(string, string, []string) {}

// ExecutionLogSink receives an append-only ExecutionLog record per
// non-dry-run evaluation. The engine calls Append synchronously on the
// evaluating goroutine and does not buffer, batch or drop entries itself.
type ExecutionLogSink interface {
	Append(entry ExecutionLogEntry)
}

// ExecutionLogEntry mirrors the ExecutionLog entity's fields.
type ExecutionLogEntry struct {
	ExecutionID     string
	RulesetID       string
	TotalPoints     float64
	PatternResult   string
	ExecutionTimeMs float64
	Success         bool
	ABTestID        string
	ABVariant       string
	Timestamp       time.Time
}

// Engine evaluates a fact map against the active ruleset.
type Engine struct {
	registry *registry.Registry
	abRouter *abtest.Router
	logger   Logger
	sink     ExecutionLogSink
	tracer   trace.Tracer
}

// New constructs an Engine. abRouter, logger, sink and tracer may be nil;
// sane no-op defaults are substituted.
func New(reg *registry.Registry, abRouter *abtest.Router, logger Logger, sink ExecutionLogSink, tracer trace.Tracer) *Engine {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Engine{registry: reg, abRouter: abRouter, logger: logger, sink: sink, tracer: tracer}
}

// Evaluate validates facts, resolves a ruleset, applies any A/B variant,
// runs each prepared rule's predicate, and accumulates matched points.
func (e *Engine) Evaluate(ctx context.Context, facts predicate.FactMap, opts Options) (Result, error) {
	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "engine.evaluate")
		defer span.End()
	}

	if facts == nil {
		return Result{}, rkerr.New(rkerr.CodeDataInvalidType, "fact map is nil", nil)
	}

	start := time.Now()

	rs, ok := e.resolveRuleset(opts.RulesetName)
	if !ok {
		return Result{}, rkerr.New(rkerr.CodeDataInvalidType,
			"no ruleset resolved: name not found and no default ruleset configured",
			map[string]interface{}{"ruleset_name": opts.RulesetName})
	}

	prepared := e.registry.ListRules(rs.ID)

	variant := ""
	if e.abRouter != nil && opts.ABTestID != "" {
		if opts.AssignmentKey == "" {
			opts.AssignmentKey = derivedAssignmentKey(facts)
		}
		if v, err := e.applyABVariant(ctx, opts); err == nil {
			variant = v
		}
	}

	var totalPoints float64
	var patternResult string
	matched := 0
	var dryRunTrace []RuleMatch

	for _, pr := range prepared {
		ok, err := predicate.Evaluate(pr.Predicate, facts)
		if err != nil {
			if missing, isMissing := err.(*predicate.MissingAttrError); isMissing {
				e.logger.RuleFault(pr.RuleID, missing.Attribute, missing.Available)
			} else {
				e.logger.RuleFault(pr.RuleID, "", nil)
			}
			patternResult += "-"
			if opts.DryRun {
				dryRunTrace = append(dryRunTrace, RuleMatch{RuleName: pr.RuleName, WouldMatch: false})
			}
			continue
		}

		if opts.ConsumerID != "" {
			e.registry.RecordConsumerUsage(opts.ConsumerID, pr.RuleID)
		}

		if !ok {
			patternResult += "-"
			if opts.DryRun {
				dryRunTrace = append(dryRunTrace, RuleMatch{RuleName: pr.RuleName, WouldMatch: false})
			}
			continue
		}

		matched++
		token := pr.ActionResult
		if feel.IsTemplate(token) {
			token = feel.Eval(token, facts)
		}
		patternResult += token
		points := pr.CalculatedPoints()
		totalPoints += points
		if opts.DryRun {
			dryRunTrace = append(dryRunTrace, RuleMatch{RuleName: pr.RuleName, WouldMatch: true, Points: points})
		}
	}

	recommendation := lookupRecommendation(rs, patternResult)

	elapsed := time.Since(start)
	result := Result{
		TotalPoints:          totalPoints,
		PatternResult:        patternResult,
		ActionRecommendation: recommendation,
		RulesExecuted:        len(prepared),
		RulesMatched:         matched,
		ExecutionTimeMs:      float64(elapsed.Microseconds()) / 1000.0,
		RegistryVersion:      e.registry.Version(),
		ExecutionID:          uuid.NewString(),
		ABTestID:             opts.ABTestID,
		ABVariant:            variant,
	}
	if opts.DryRun {
		result.DryRunTrace = dryRunTrace
	}

	if !opts.DryRun && e.sink != nil {
		e.sink.Append(ExecutionLogEntry{
			ExecutionID:     result.ExecutionID,
			RulesetID:       rs.ID,
			TotalPoints:     totalPoints,
			PatternResult:   patternResult,
			ExecutionTimeMs: result.ExecutionTimeMs,
			Success:         true,
			ABTestID:        opts.ABTestID,
			ABVariant:       variant,
			Timestamp:       time.Now().UTC(),
		})
	}

	if !opts.DryRun && e.abRouter != nil && opts.ABTestID != "" && variant != "" {
		e.abRouter.RecordOutcome(opts.ABTestID, abtest.Variant(variant), true, result.ExecutionTimeMs, totalPoints)
	}

	return result, nil
}

// resolveRuleset implements the ruleset-resolution half of step 1: by
// name if given, else default-selection (first active is_default).
func (e *Engine) resolveRuleset(name string) (rules.RuleSet, bool) {
	if name != "" {
		for _, rs := range e.registry.ListRulesets() {
			if rs.Name == name {
				return rs, true
			}
		}
		return rules.RuleSet{}, false
	}
	return e.registry.DefaultRuleset()
}

// applyABVariant resolves a running test's variant for this evaluation key
// and returns it for tagging on the result and outcome recording. It does
// not substitute a different rule snapshot for the assigned variant: the
// registry retains only the current compiled PreparedRule set, not the raw
// Conditions needed to recompile Test.VariantAVersion/VariantBVersion, so
// both variants evaluate against the same rules until the registry keeps
// that material around too.
func (e *Engine) applyABVariant(ctx context.Context, opts Options) (string, error) {
	key := opts.AssignmentKey
	if key == "" {
		return "", nil
	}
	variant, err := e.abRouter.AssignVariant(ctx, opts.ABTestID, key)
	if err != nil {
		return "", err
	}
	return string(variant), nil
}

// derivedAssignmentKey picks an A/B assignment key when none is supplied
// explicitly, in priority order: user_id > session_id >
// correlation_id > customer_id > a stable hash of the canonicalized fact
// map.
func derivedAssignmentKey(facts predicate.FactMap) string {
	for _, k := range []string{"user_id", "session_id", "correlation_id", "customer_id"} {
		if v, ok := facts[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return stableHash(facts)
}

func stableHash(facts predicate.FactMap) string {
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v;", k, facts[k])
	}
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func lookupRecommendation(rs rules.RuleSet, pattern string) *string {
	for _, entry := range rs.Actionset {
		if entry.PatternKey == pattern {
			rec := entry.ActionRecommendation
			return &rec
		}
	}
	return nil
}
