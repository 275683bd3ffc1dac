package reload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mova-engine/rulekit/core/registry"
	"github.com/mova-engine/rulekit/core/rkerr"
	"github.com/mova-engine/rulekit/core/rules"
	"github.com/mova-engine/rulekit/core/store/memstore"
)

func seededStore() *memstore.Store {
	st := memstore.New()
	st.SeedCondition(rules.Condition{ConditionID: "C1", Attribute: "order_total", Operator: ">", Value: "1000"})
	_ = st.UpsertRuleset(context.Background(), rules.RuleSet{ID: "RS1", Name: "checkout", Version: 1, Status: "active", IsDefault: true})
	_ = st.UpsertRule(context.Background(), rules.Rule{
		RuleID: "R1", RuleName: "high_value", RulesetID: "RS1", Status: "active",
		Conditions: rules.Conditions{Item: "C1"}, RulePoint: 10, Weight: 1,
	})
	return st
}

func TestReloadLoadsActiveRulesIntoRegistry(t *testing.T) {
	reg := registry.New()
	c := New(reg, seededStore(), nil)

	result, err := c.Reload(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 1, result.RulesLoaded)
	assert.Equal(t, 1, result.RulesetsLoaded)
	assert.Equal(t, 3, result.RegistryVersion)

	_, ok := reg.GetRule("R1")
	assert.True(t, ok)
}

func TestReloadFullResetsRegistryFirst(t *testing.T) {
	reg := registry.New()
	c := New(reg, seededStore(), nil)

	// Seed the registry with a rule that the store no longer knows about.
	reg.AddRule("stale-ruleset", 1, rules.PreparedRule{RuleID: "stale"})

	_, err := c.Reload(context.Background(), Request{})
	require.NoError(t, err)

	_, ok := reg.GetRule("stale")
	assert.False(t, ok, "expected a full reload to clear stale rules")
}

func TestReloadScopedToRulesetDoesNotClearRegistry(t *testing.T) {
	reg := registry.New()
	c := New(reg, seededStore(), nil)

	reg.AddRule("other-ruleset", 1, rules.PreparedRule{RuleID: "kept"})

	_, err := c.Reload(context.Background(), Request{RulesetID: "RS1"})
	require.NoError(t, err)

	_, ok := reg.GetRule("kept")
	assert.True(t, ok, "a scoped reload must not clear rules outside its filter")
}

func TestReloadValidateAbortsOnCompileError(t *testing.T) {
	st := memstore.New()
	// No conditions seeded: the rule's Item reference can't resolve.
	_ = st.UpsertRuleset(context.Background(), rules.RuleSet{ID: "RS1", Status: "active"})
	_ = st.UpsertRule(context.Background(), rules.Rule{
		RuleID: "R1", RuleName: "broken", RulesetID: "RS1", Status: "active",
		Conditions: rules.Conditions{Item: "missing"},
	})

	reg := registry.New()
	c := New(reg, st, nil)

	result, err := c.Reload(context.Background(), Request{Validate: true})
	require.Error(t, err)
	assert.Equal(t, "failed", result.Status)

	rkErr, ok := err.(*rkerr.Error)
	require.True(t, ok)
	assert.Equal(t, rkerr.CodeValidationError, rkErr.Code)
}

func TestReloadWithoutValidateSkipsBrokenRulesetButSucceeds(t *testing.T) {
	st := memstore.New()
	_ = st.UpsertRuleset(context.Background(), rules.RuleSet{ID: "RS1", Status: "active"})
	_ = st.UpsertRule(context.Background(), rules.Rule{
		RuleID: "R1", RuleName: "broken", RulesetID: "RS1", Status: "active",
		Conditions: rules.Conditions{Item: "missing"},
	})

	reg := registry.New()
	c := New(reg, st, nil)

	result, err := c.Reload(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, 0, result.RulesetsLoaded, "the unresolvable ruleset should be skipped, not fatal")
}

func TestHistoryRetainsMostRecentResultsInOrder(t *testing.T) {
	reg := registry.New()
	c := New(reg, seededStore(), nil)

	for i := 0; i < 3; i++ {
		_, err := c.Reload(context.Background(), Request{})
		require.NoError(t, err)
	}

	history := c.History(2)
	assert.Len(t, history, 2)

	full := c.History(0)
	assert.Len(t, full, 3)
}

func TestValidateFromSourceReportsInvalidRulesWithoutTouchingRegistry(t *testing.T) {
	st := memstore.New()
	_ = st.UpsertRuleset(context.Background(), rules.RuleSet{ID: "RS1", Status: "active"})
	_ = st.UpsertRule(context.Background(), rules.Rule{
		RuleID: "R1", RuleName: "broken", RulesetID: "RS1", Status: "active",
		Conditions: rules.Conditions{Item: "missing"},
	})

	reg := registry.New()
	c := New(reg, st, nil)

	summary, err := c.ValidateFromSource(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, summary.IsValid)
	assert.Equal(t, 1, summary.InvalidRules)
	assert.Equal(t, "database", summary.SourceType)
	assert.Equal(t, 0, reg.Version(), "validate_from_source must not mutate the registry")
}

func TestStartRejectsIntervalOutOfRange(t *testing.T) {
	c := New(registry.New(), seededStore(), nil)

	err := c.Start(1, nil)
	require.Error(t, err)
	rkErr, ok := err.(*rkerr.Error)
	require.True(t, ok)
	assert.Equal(t, rkerr.CodeValidationError, rkErr.Code)

	err = c.Start(3601, nil)
	require.Error(t, err)
}

func TestStartRejectsDoubleStart(t *testing.T) {
	c := New(registry.New(), seededStore(), nil)

	require.NoError(t, c.Start(5, nil))
	defer c.Stop()

	err := c.Start(5, nil)
	require.Error(t, err)
}

func TestStopIsIdempotentWhenNeverStarted(t *testing.T) {
	c := New(registry.New(), seededStore(), nil)
	c.Stop() // must not panic or block
}

func TestStatusReflectsMonitoringLifecycle(t *testing.T) {
	c := New(registry.New(), seededStore(), nil)

	status := c.Status()
	assert.False(t, status.MonitoringActive)

	require.NoError(t, c.Start(5, nil))
	status = c.Status()
	assert.True(t, status.MonitoringActive)
	assert.True(t, status.AutoReloadEnabled)
	assert.Equal(t, 5, status.ReloadIntervalSeconds)

	c.Stop()
	status = c.Status()
	assert.False(t, status.MonitoringActive)
}
