// Package registry implements the process-wide, concurrency-safe,
// versioned in-memory rule registry. Reads never block under read
// contention; writes are mutually exclusive and publish a new coherent
// snapshot atomically, following the same RWMutex discipline as
// core/budget.Manager.
package registry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mova-engine/rulekit/core/rules"
)

var (
	registryVersionGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rulekit_registry_version",
		Help: "Current registry version, bumped on every rule/ruleset mutation.",
	})

	droppedNotificationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rulekit_dropped_notifications_total",
		Help: "Registry change notifications dropped because a subscriber panicked.",
	})
)

// EventType enumerates the registry change notifications subscribers can
// receive.
type EventType string

const (
	EventRuleAdded       EventType = "rule_added"
	EventRuleUpdated     EventType = "rule_updated"
	EventRuleRemoved     EventType = "rule_removed"
	EventRulesetAdded    EventType = "ruleset_added"
	EventRulesetRemoved  EventType = "ruleset_removed"
	EventRegistryCleared EventType = "registry_cleared"
	EventRulesReloaded   EventType = "rules_reloaded"
)

// Subscriber receives registry change notifications. A panicking or
// erroring subscriber is isolated: it never blocks other subscribers or
// the write that triggered it.
type Subscriber func(event EventType, payload interface{})

// Stats is the snapshot returned by Stats().
type Stats struct {
	RuleCount       int
	RulesetCount    int
	Version         int
	LastReload      time.Time
	SubscriberCount int
}

// Registry is the in-memory store of PreparedRules and RuleSets consumed
// by the execution engine's hot path.
type Registry struct {
	mu sync.RWMutex

	rules        map[string]rules.PreparedRule
	rulesetRules map[string][]string // ruleset_id -> ordered rule_ids
	rulesets     map[string]rules.RuleSet

	ruleVersionTrail map[string][]int // rule_id -> observed numeric db ids

	consumerStats map[string]map[string]int // consumer_id -> rule_id -> count

	version    int
	lastReload time.Time

	subscribers []Subscriber
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		rules:            make(map[string]rules.PreparedRule),
		rulesetRules:     make(map[string][]string),
		rulesets:         make(map[string]rules.RuleSet),
		ruleVersionTrail: make(map[string][]int),
		consumerStats:    make(map[string]map[string]int),
	}
}

// GetRule returns a PreparedRule by id. Non-blocking under read
// contention.
func (r *Registry) GetRule(id string) (rules.PreparedRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pr, ok := r.rules[id]
	return pr, ok
}

// ListRules returns the ascending-priority-sorted rule list for a ruleset,
// or every rule in the registry if rulesetID is empty.
func (r *Registry) ListRules(rulesetID string) []rules.PreparedRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rulesetID == "" {
		out := make([]rules.PreparedRule, 0, len(r.rules))
		for _, pr := range r.rules {
			out = append(out, pr)
		}
		return sortedByPriority(out)
	}

	ids := r.rulesetRules[rulesetID]
	out := make([]rules.PreparedRule, 0, len(ids))
	for _, id := range ids {
		if pr, ok := r.rules[id]; ok {
			out = append(out, pr)
		}
	}
	return sortedByPriority(out)
}

func sortedByPriority(in []rules.PreparedRule) []rules.PreparedRule {
	out := make([]rules.PreparedRule, len(in))
	copy(out, in)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Priority < out[j-1].Priority; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// GetRuleset returns a RuleSet by id.
func (r *Registry) GetRuleset(id string) (rules.RuleSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rs, ok := r.rulesets[id]
	return rs, ok
}

// ListRulesets returns every ruleset in the registry.
func (r *Registry) ListRulesets() []rules.RuleSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]rules.RuleSet, 0, len(r.rulesets))
	for _, rs := range r.rulesets {
		out = append(out, rs)
	}
	return out
}

// DefaultRuleset returns the ruleset chosen when an evaluation does not
// name one: the first active ruleset flagged is_default.
func (r *Registry) DefaultRuleset() (rules.RuleSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rs := range r.rulesets {
		if rs.IsDefault && rs.Status == "active" {
			return rs, true
		}
	}
	return rules.RuleSet{}, false
}

// AddRule inserts or replaces a rule under its ruleset's ordered index and
// bumps the registry version.
func (r *Registry) AddRule(rulesetID string, numericID int, pr rules.PreparedRule) {
	r.mu.Lock()
	_, existed := r.rules[pr.RuleID]
	r.rules[pr.RuleID] = pr
	if !contains(r.rulesetRules[rulesetID], pr.RuleID) {
		r.rulesetRules[rulesetID] = append(r.rulesetRules[rulesetID], pr.RuleID)
	}
	r.ruleVersionTrail[pr.RuleID] = append(r.ruleVersionTrail[pr.RuleID], numericID)
	r.version++
	registryVersionGauge.Set(float64(r.version))
	event := EventRuleAdded
	if existed {
		event = EventRuleUpdated
	}
	r.mu.Unlock()

	r.notify(event, pr)
}

// RemoveRule deletes a rule from the registry and its ruleset index.
func (r *Registry) RemoveRule(rulesetID, ruleID string) bool {
	r.mu.Lock()
	pr, ok := r.rules[ruleID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.rules, ruleID)
	r.rulesetRules[rulesetID] = remove(r.rulesetRules[rulesetID], ruleID)
	r.version++
	registryVersionGauge.Set(float64(r.version))
	r.mu.Unlock()

	r.notify(EventRuleRemoved, pr)
	return true
}

// AddRuleset inserts or replaces a ruleset.
func (r *Registry) AddRuleset(rs rules.RuleSet) {
	r.mu.Lock()
	r.rulesets[rs.ID] = rs
	r.version++
	registryVersionGauge.Set(float64(r.version))
	r.mu.Unlock()

	r.notify(EventRulesetAdded, rs)
}

// RemoveRuleset deletes a ruleset and every rule it owns.
func (r *Registry) RemoveRuleset(rulesetID string) bool {
	r.mu.Lock()
	if _, ok := r.rulesets[rulesetID]; !ok {
		r.mu.Unlock()
		return false
	}
	for _, ruleID := range r.rulesetRules[rulesetID] {
		delete(r.rules, ruleID)
	}
	delete(r.rulesetRules, rulesetID)
	delete(r.rulesets, rulesetID)
	r.version++
	registryVersionGauge.Set(float64(r.version))
	r.mu.Unlock()

	r.notify(EventRulesetRemoved, rulesetID)
	return true
}

// Clear empties the registry and bumps the version. Used by full hot
// reloads before re-adding.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.rules = make(map[string]rules.PreparedRule)
	r.rulesetRules = make(map[string][]string)
	r.rulesets = make(map[string]rules.RuleSet)
	r.ruleVersionTrail = make(map[string][]int)
	r.version++
	version := r.version
	r.lastReload = time.Time{}
	r.mu.Unlock()

	registryVersionGauge.Set(float64(version))
	r.notify(EventRegistryCleared, nil)
}

// Version returns the current monotonically increasing registry version.
func (r *Registry) Version() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// LastReload returns the timestamp of the most recent reload.
func (r *Registry) LastReload() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastReload
}

// SetLastReload stamps the last reload time. Called by the hot-reload
// controller at the end of a successful reload.
func (r *Registry) SetLastReload(t time.Time) {
	r.mu.Lock()
	r.lastReload = t
	r.mu.Unlock()
}

// Stats returns registry-wide counters.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		RuleCount:       len(r.rules),
		RulesetCount:    len(r.rulesets),
		Version:         r.version,
		LastReload:      r.lastReload,
		SubscriberCount: len(r.subscribers),
	}
}

// VersionTrail returns the ordered list of numeric ids observed for a
// rule_id, a lightweight version trail used by the versioning component.
func (r *Registry) VersionTrail(ruleID string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trail := r.ruleVersionTrail[ruleID]
	out := make([]int, len(trail))
	copy(out, trail)
	return out
}

// Subscribe registers a callback for registry change notifications.
func (r *Registry) Subscribe(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, sub)
}

// Notify fans out a caller-originated event, e.g. the hot-reload
// controller's rules_reloaded notification after a batch of AddRule/
// AddRuleset calls completes.
func (r *Registry) Notify(event EventType, payload interface{}) {
	r.notify(event, payload)
}

// notify fans out an event to every subscriber synchronously from the
// writer's goroutine. Each callback is isolated with a recover so a
// panicking subscriber never aborts the write or later subscribers.
func (r *Registry) notify(event EventType, payload interface{}) {
	r.mu.RLock()
	subs := make([]Subscriber, len(r.subscribers))
	copy(subs, r.subscribers)
	r.mu.RUnlock()

	for _, sub := range subs {
		callSubscriber(sub, event, payload)
	}
}

func callSubscriber(sub Subscriber, event EventType, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			droppedNotificationsTotal.Inc()
		}
	}()
	sub(event, payload)
}

// RecordConsumerUsage increments the (consumer_id, rule_id) execution
// counter used for per-consumer usage tracking.
func (r *Registry) RecordConsumerUsage(consumerID, ruleID string) {
	if consumerID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumerStats[consumerID] == nil {
		r.consumerStats[consumerID] = make(map[string]int)
	}
	r.consumerStats[consumerID][ruleID]++
}

// ConsumerStats returns a copy of the per-rule execution counts recorded
// for a consumer.
func (r *Registry) ConsumerStats(consumerID string) map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int, len(r.consumerStats[consumerID]))
	for k, v := range r.consumerStats[consumerID] {
		out[k] = v
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
