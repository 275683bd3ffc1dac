package registry

import (
	"testing"

	"github.com/mova-engine/rulekit/core/rules"
)

func TestAddRuleBumpsVersionAndIndexesByRuleset(t *testing.T) {
	r := New()
	r.AddRule("RS1", 1, rules.PreparedRule{RuleID: "R1", Priority: 1})

	if r.Version() != 1 {
		t.Errorf("expected version 1, got %d", r.Version())
	}
	if _, ok := r.GetRule("R1"); !ok {
		t.Fatal("expected rule R1 to be present")
	}
	rs := r.ListRules("RS1")
	if len(rs) != 1 || rs[0].RuleID != "R1" {
		t.Errorf("expected ruleset RS1 to contain R1, got %+v", rs)
	}
}

func TestAddRuleReplacesExistingAndRaisesUpdatedEvent(t *testing.T) {
	r := New()
	var lastEvent EventType
	r.Subscribe(func(event EventType, payload interface{}) { lastEvent = event })

	r.AddRule("RS1", 1, rules.PreparedRule{RuleID: "R1", Priority: 1})
	if lastEvent != EventRuleAdded {
		t.Fatalf("expected rule_added, got %s", lastEvent)
	}

	r.AddRule("RS1", 2, rules.PreparedRule{RuleID: "R1", Priority: 5})
	if lastEvent != EventRuleUpdated {
		t.Fatalf("expected rule_updated, got %s", lastEvent)
	}

	trail := r.VersionTrail("R1")
	if len(trail) != 2 || trail[0] != 1 || trail[1] != 2 {
		t.Errorf("expected version trail [1 2], got %v", trail)
	}
}

func TestListRulesSortsAscendingByPriority(t *testing.T) {
	r := New()
	r.AddRule("", 1, rules.PreparedRule{RuleID: "low", Priority: 10})
	r.AddRule("", 2, rules.PreparedRule{RuleID: "high", Priority: 1})

	all := r.ListRules("")
	if len(all) != 2 || all[0].RuleID != "high" {
		t.Errorf("expected high-priority (lower value) rule first, got %+v", all)
	}
}

func TestRemoveRule(t *testing.T) {
	r := New()
	r.AddRule("RS1", 1, rules.PreparedRule{RuleID: "R1"})

	if ok := r.RemoveRule("RS1", "R1"); !ok {
		t.Fatal("expected removal to succeed")
	}
	if _, ok := r.GetRule("R1"); ok {
		t.Fatal("expected rule to be gone")
	}
	if ok := r.RemoveRule("RS1", "R1"); ok {
		t.Fatal("expected second removal to report false")
	}
}

func TestDefaultRulesetRequiresActiveAndDefault(t *testing.T) {
	r := New()
	r.AddRuleset(rules.RuleSet{ID: "RS1", IsDefault: true, Status: "inactive"})
	r.AddRuleset(rules.RuleSet{ID: "RS2", IsDefault: true, Status: "active"})

	rs, ok := r.DefaultRuleset()
	if !ok || rs.ID != "RS2" {
		t.Fatalf("expected RS2 as the default ruleset, got %+v (ok=%v)", rs, ok)
	}
}

func TestRemoveRulesetDeletesOwnedRules(t *testing.T) {
	r := New()
	r.AddRule("RS1", 1, rules.PreparedRule{RuleID: "R1"})
	r.AddRuleset(rules.RuleSet{ID: "RS1"})

	r.RemoveRuleset("RS1")

	if _, ok := r.GetRule("R1"); ok {
		t.Fatal("expected R1 to be deleted along with its ruleset")
	}
	if _, ok := r.GetRuleset("RS1"); ok {
		t.Fatal("expected RS1 to be gone")
	}
}

func TestClearBumpsVersionAndResetsState(t *testing.T) {
	r := New()
	r.AddRule("RS1", 1, rules.PreparedRule{RuleID: "R1"})
	r.Clear()

	if r.Version() != 2 {
		t.Errorf("expected version 2 after clear, got %d", r.Version())
	}
	if len(r.ListRules("")) != 0 {
		t.Error("expected no rules after clear")
	}
}

func TestSubscriberPanicIsIsolated(t *testing.T) {
	r := New()
	called := false
	r.Subscribe(func(event EventType, payload interface{}) { panic("boom") })
	r.Subscribe(func(event EventType, payload interface{}) { called = true })

	r.AddRule("RS1", 1, rules.PreparedRule{RuleID: "R1"})

	if !called {
		t.Error("expected the second subscriber to still run after the first panicked")
	}
}

func TestRecordAndReadConsumerUsage(t *testing.T) {
	r := New()
	r.RecordConsumerUsage("consumer-1", "R1")
	r.RecordConsumerUsage("consumer-1", "R1")
	r.RecordConsumerUsage("consumer-1", "R2")

	stats := r.ConsumerStats("consumer-1")
	if stats["R1"] != 2 || stats["R2"] != 1 {
		t.Errorf("unexpected consumer stats: %+v", stats)
	}
}

func TestRecordConsumerUsageIgnoresEmptyConsumerID(t *testing.T) {
	r := New()
	r.RecordConsumerUsage("", "R1")
	if len(r.ConsumerStats("")) != 0 {
		t.Error("expected no stats recorded for an empty consumer id")
	}
}
