// Package abtest implements the A/B test router: deterministic variant
// assignment, per-variant metric accumulation, and a preserved
// chi-square-style significance approximation, grounded on
// services/ab_testing.py.
package abtest

import (
	"context"
	"crypto/md5"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/mova-engine/rulekit/core/rkerr"
)

// Status is an ABTest lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// Variant is one of the two arms of a test.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// Test is the ABTest entity.
type Test struct {
	TestID              string
	RuleID              string
	RulesetID           string
	VariantAVersion     int
	VariantBVersion     int
	TrafficSplitA       float64
	TrafficSplitB       float64
	Status              Status
	StartTime           time.Time
	EndTime             time.Time
	DurationHours       float64
	MinSampleSize       int
	ConfidenceLevel     float64
	WinningVariant      *Variant
	StatisticalSignificance float64
}

// Assignment is the TestAssignment entity.
type Assignment struct {
	ABTestID        string
	AssignmentKey   string
	Variant         Variant
	ExecutionCount  int
	LastExecutionAt time.Time
}

// VariantTally accumulates per-variant execution outcomes for significance
// and metrics computation.
type VariantTally struct {
	Total       int
	Successful  int
	Failed      int
	TotalTimeMs float64
	TotalPoints float64
}

// Router owns tests, assignments and tallies. All mutation is guarded by a
// single mutex; assignment is idempotent per (test_id, assignment_key),
// grounded on services/ab_testing.py's unique-constraint semantics (here
// modeled as first-writer-wins under the lock rather than a DB-level
// unique constraint race, since the router is the sole process-wide owner).
type Router struct {
	mu          sync.Mutex
	tests       map[string]*Test
	assignments map[string]map[string]*Assignment // test_id -> key -> assignment
	tallies     map[string]map[Variant]*VariantTally
}

// New constructs an empty Router.
func New() *Router {
	return &Router{
		tests:       make(map[string]*Test),
		assignments: make(map[string]map[string]*Assignment),
		tallies:     make(map[string]map[Variant]*VariantTally),
	}
}

// CreateTest validates and registers a new draft test.
func (r *Router) CreateTest(t Test) error {
	if t.TestID == "" || t.RuleID == "" {
		return rkerr.New(rkerr.CodeDataValidation, "test_id and rule_id are required", nil)
	}
	if t.TrafficSplitA < 0 || t.TrafficSplitA > 1 || t.TrafficSplitB < 0 || t.TrafficSplitB > 1 {
		return rkerr.New(rkerr.CodeInvalidTrafficSplit, "traffic splits must be in [0,1]", nil)
	}
	if diff := t.TrafficSplitA + t.TrafficSplitB - 1; diff > 0.01 || diff < -0.01 {
		return rkerr.New(rkerr.CodeInvalidTrafficSplit, "traffic splits must sum to 1 (+/- 0.01)",
			map[string]interface{}{"traffic_split_a": t.TrafficSplitA, "traffic_split_b": t.TrafficSplitB})
	}
	if t.ConfidenceLevel <= 0 || t.ConfidenceLevel > 1 {
		return rkerr.New(rkerr.CodeInvalidConfidence, "confidence_level must be in (0,1]", nil)
	}

	t.Status = StatusDraft

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tests[t.TestID]; exists {
		return rkerr.New(rkerr.CodeDataValidation, "test_id already exists", map[string]interface{}{"test_id": t.TestID})
	}
	r.tests[t.TestID] = &t
	r.assignments[t.TestID] = make(map[string]*Assignment)
	r.tallies[t.TestID] = map[Variant]*VariantTally{VariantA: {}, VariantB: {}}
	return nil
}

// StartTest transitions a draft test to running.
func (r *Router) StartTest(testID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tests[testID]
	if !ok {
		return rkerr.New(rkerr.CodeRuleNotFound, "test not found", map[string]interface{}{"test_id": testID})
	}
	if t.Status != StatusDraft {
		return rkerr.New(rkerr.CodeInvalidTestState, "only draft tests may be started",
			map[string]interface{}{"test_id": testID, "status": t.Status})
	}
	t.Status = StatusRunning
	t.StartTime = time.Now().UTC()
	return nil
}

// StopTest transitions a running or draft test to completed. If
// winningVariant is non-nil, statistical significance is computed and
// persisted on stop.
func (r *Router) StopTest(testID string, winningVariant *Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tests[testID]
	if !ok {
		return rkerr.New(rkerr.CodeRuleNotFound, "test not found", map[string]interface{}{"test_id": testID})
	}
	if t.Status != StatusRunning && t.Status != StatusDraft {
		return rkerr.New(rkerr.CodeInvalidTestState, "only running or draft tests may be stopped",
			map[string]interface{}{"test_id": testID, "status": t.Status})
	}
	if winningVariant != nil && *winningVariant != VariantA && *winningVariant != VariantB {
		return rkerr.New(rkerr.CodeInvalidWinner, "winning_variant must be A or B", nil)
	}

	t.Status = StatusCompleted
	t.EndTime = time.Now().UTC()
	t.WinningVariant = winningVariant

	if winningVariant != nil {
		t.StatisticalSignificance = significance(r.tallies[testID][VariantA], r.tallies[testID][VariantB])
	}
	return nil
}

// AssignVariant performs deterministic, idempotent assignment:
// variant = A iff hash(test_id:key) mod 100 < floor(100 *
// traffic_split_a). Once assigned, further calls return the stored
// variant and increment execution_count.
func (r *Router) AssignVariant(_ context.Context, testID, assignmentKey string) (Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tests[testID]
	if !ok {
		return "", rkerr.New(rkerr.CodeRuleNotFound, "test not found", map[string]interface{}{"test_id": testID})
	}
	if t.Status != StatusRunning {
		return "", rkerr.New(rkerr.CodeInvalidTestState, "test is not running",
			map[string]interface{}{"test_id": testID, "status": t.Status})
	}

	if existing, ok := r.assignments[testID][assignmentKey]; ok {
		existing.ExecutionCount++
		existing.LastExecutionAt = time.Now().UTC()
		return existing.Variant, nil
	}

	variant := deterministicVariant(testID, assignmentKey, t.TrafficSplitA)
	r.assignments[testID][assignmentKey] = &Assignment{
		ABTestID:        testID,
		AssignmentKey:   assignmentKey,
		Variant:         variant,
		ExecutionCount:  1,
		LastExecutionAt: time.Now().UTC(),
	}
	return variant, nil
}

// deterministicVariant hashes testID:assignmentKey into a stable 128-bit
// digest truncated to an integer, mod 100, compared to
// floor(100 * traffic_split_a).
func deterministicVariant(testID, assignmentKey string, trafficSplitA float64) Variant {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%s", testID, assignmentKey)))
	n := new(big.Int).SetBytes(sum[:])
	mod := new(big.Int).Mod(n, big.NewInt(100)).Int64()
	threshold := int64(trafficSplitA * 100)
	if mod < threshold {
		return VariantA
	}
	return VariantB
}

// RecordOutcome feeds an execution outcome into a test's variant tally,
// used by get_test_metrics / stop-time significance.
func (r *Router) RecordOutcome(testID string, variant Variant, success bool, executionTimeMs, totalPoints float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tally, ok := r.tallies[testID][variant]
	if !ok {
		return
	}
	tally.Total++
	if success {
		tally.Successful++
	} else {
		tally.Failed++
	}
	tally.TotalTimeMs += executionTimeMs
	tally.TotalPoints += totalPoints
}

// VariantMetrics is one row of get_test_metrics' per-variant aggregation.
type VariantMetrics struct {
	TotalExecutions     int
	SuccessfulExecutions int
	FailedExecutions    int
	SuccessRate         float64
	AvgExecutionTimeMs  float64
	AvgTotalPoints      float64
	AssignmentCount     int
}

// Metrics is the full get_test_metrics(test_id) result.
type Metrics struct {
	VariantA                VariantMetrics
	VariantB                VariantMetrics
	StatisticalSignificance float64
	SampleSizeMet           bool
}

// GetTestMetrics aggregates per-variant metrics and computes significance.
func (r *Router) GetTestMetrics(testID string) (Metrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tests[testID]
	if !ok {
		return Metrics{}, rkerr.New(rkerr.CodeRuleNotFound, "test not found", map[string]interface{}{"test_id": testID})
	}

	assignCounts := map[Variant]int{}
	for _, a := range r.assignments[testID] {
		assignCounts[a.Variant]++
	}

	a := r.tallies[testID][VariantA]
	b := r.tallies[testID][VariantB]

	m := Metrics{
		VariantA: toVariantMetrics(a, assignCounts[VariantA]),
		VariantB: toVariantMetrics(b, assignCounts[VariantB]),
	}
	m.StatisticalSignificance = significance(a, b)
	m.SampleSizeMet = assignCounts[VariantA] >= t.MinSampleSize && assignCounts[VariantB] >= t.MinSampleSize
	return m, nil
}

// significance preserves services/ab_testing.py's non-standard chi-square
// approximation verbatim for behavioral parity: a chi-square statistic
// over the 2x2 success/failure contingency table,
// then p = exp(-chi_square/2) / sqrt(2*pi*chi_square), significance =
// 1-p. This is not a textbook chi-square p-value; it is reproduced
// exactly as the original computes it.
func significance(a, b *VariantTally) float64 {
	if a == nil || b == nil || a.Total == 0 || b.Total == 0 {
		return 0
	}

	aSuccess, aFail := float64(a.Successful), float64(a.Failed)
	bSuccess, bFail := float64(b.Successful), float64(b.Failed)
	total := aSuccess + aFail + bSuccess + bFail
	if total == 0 {
		return 0
	}

	rowA := aSuccess + aFail
	rowB := bSuccess + bFail
	colSuccess := aSuccess + bSuccess
	colFail := aFail + bFail

	expected := [4]float64{
		rowA * colSuccess / total,
		rowA * colFail / total,
		rowB * colSuccess / total,
		rowB * colFail / total,
	}
	observed := [4]float64{aSuccess, aFail, bSuccess, bFail}

	var chiSquare float64
	for i, exp := range expected {
		if exp == 0 {
			continue
		}
		diff := observed[i] - exp
		chiSquare += (diff * diff) / exp
	}

	if chiSquare <= 0 {
		return 0
	}
	p := math.Exp(-chiSquare/2) / math.Sqrt(2*math.Pi*chiSquare)
	return 1 - p
}

func toVariantMetrics(tally *VariantTally, assignmentCount int) VariantMetrics {
	if tally == nil || tally.Total == 0 {
		return VariantMetrics{AssignmentCount: assignmentCount}
	}
	return VariantMetrics{
		TotalExecutions:      tally.Total,
		SuccessfulExecutions: tally.Successful,
		FailedExecutions:     tally.Failed,
		SuccessRate:          float64(tally.Successful) / float64(tally.Total),
		AvgExecutionTimeMs:   tally.TotalTimeMs / float64(tally.Total),
		AvgTotalPoints:       tally.TotalPoints / float64(tally.Total),
		AssignmentCount:      assignmentCount,
	}
}
