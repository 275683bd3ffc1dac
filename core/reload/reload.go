// Package reload implements the Hot-Reload Controller: a reload lock
// around atomic registry rebuilds, plus an optional background
// monitoring loop, grounded on core/budget.Manager's
// context/ticker/WaitGroup lifecycle.
package reload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"

	"github.com/mova-engine/rulekit/core/registry"
	"github.com/mova-engine/rulekit/core/rkerr"
	"github.com/mova-engine/rulekit/core/rules"
	"github.com/mova-engine/rulekit/core/store"
)

const (
	minIntervalSeconds = 5
	maxIntervalSeconds = 3600
	defaultHistorySize = 50
	shutdownGrace      = 5 * time.Second
)

var (
	reloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rulekit_reload_total",
		Help: "Total hot reloads, labeled by outcome.",
	}, []string{"status"})

	reloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rulekit_reload_duration_seconds",
		Help:    "Hot reload wall-clock duration.",
		Buckets: prometheus.DefBuckets,
	})
)

// Request is the reload() argument shape.
type Request struct {
	RulesetID string
	RuleID    string
	Force     bool
	Validate  bool
}

// Result is the ReloadResult shape.
type Result struct {
	Status          string
	RulesLoaded     int
	RulesetsLoaded  int
	ReloadTimeMs    float64
	RegistryVersion int
	Error           string
	Timestamp       time.Time
}

// ValidationSummary is validate_from_source()'s report.
type ValidationSummary struct {
	IsValid      bool
	InvalidRules int
	Errors       []string
	SourceType   string
}

// Status is the controller's status() shape.
type Status struct {
	MonitoringActive      bool
	AutoReloadEnabled     bool
	ReloadIntervalSeconds int
	LastReload            time.Time
	ReloadCount           int
	RegistryStats         registry.Stats
}

// Controller owns the reload lock and the optional background monitor.
type Controller struct {
	reloadMu sync.Mutex // exclusive for the duration of a reload

	reg    *registry.Registry
	store  store.Reader
	tracer trace.Tracer

	statusMu        sync.Mutex
	reloadCount     int
	monitoring      bool
	autoReload      bool
	intervalSeconds int

	history []Result

	stopCh chan struct{}
	doneCh chan struct{}

	lastObservedRules map[string]struct{}
}

// New constructs a Controller bound to a registry and a read-only store.
// tracer may be nil.
func New(reg *registry.Registry, st store.Reader, tracer trace.Tracer) *Controller {
	return &Controller{reg: reg, store: st, tracer: tracer}
}

// Reload runs the reload operation: under the reload lock, query the
// store for active rules/rulesets, optionally validate, then swap the
// registry either wholesale or scoped to the requested filter.
func (c *Controller) Reload(ctx context.Context, req Request) (Result, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "reload.reload")
		defer span.End()
	}

	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	start := time.Now()

	conditions, err := c.store.ListConditions(ctx)
	if err != nil {
		return c.fail(start, err)
	}
	condByID := make(map[string]rules.Condition, len(conditions))
	for _, cond := range conditions {
		condByID[cond.ConditionID] = cond
	}

	rulesets, err := c.store.ListActiveRulesets(ctx, store.Filter{RulesetID: req.RulesetID})
	if err != nil {
		return c.fail(start, err)
	}

	activeRules, err := c.store.ListActiveRules(ctx, store.Filter{RulesetID: req.RulesetID, RuleID: req.RuleID})
	if err != nil {
		return c.fail(start, err)
	}

	rulesByRuleset := make(map[string][]rules.Rule)
	for _, r := range activeRules {
		rulesByRuleset[r.RulesetID] = append(rulesByRuleset[r.RulesetID], r)
	}

	actionsets, err := c.store.ListActionset(ctx, req.RulesetID)
	if err != nil {
		return c.fail(start, err)
	}
	actionsetsByRuleset := make(map[string][]rules.ActionsetEntry)
	for _, a := range actionsets {
		actionsetsByRuleset[a.RulesetID] = append(actionsetsByRuleset[a.RulesetID], a)
	}

	type compiled struct {
		rs       rules.RuleSet
		prepared []rules.PreparedRule
	}
	var results []compiled
	var validationErrors []string

	for _, rs := range rulesets {
		rs.Rules = rulesByRuleset[rs.ID]
		rs.Actionset = actionsetsByRuleset[rs.ID]

		prepared, err := rules.CompileRuleSet(rs, condByID)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("ruleset %s: %s", rs.Name, err.Error()))
			continue
		}
		results = append(results, compiled{rs: rs, prepared: prepared})
	}

	if req.Validate && len(validationErrors) > 0 {
		return c.fail(start, rkerr.New(rkerr.CodeValidationError,
			"reload aborted: one or more rules failed validation",
			map[string]interface{}{"errors": validationErrors}))
	}

	full := req.RulesetID == "" && req.RuleID == ""
	if full {
		c.reg.Clear()
	}

	rulesLoaded, rulesetsLoaded := 0, 0
	for _, cr := range results {
		c.reg.AddRuleset(cr.rs)
		rulesetsLoaded++
		for _, pr := range cr.prepared {
			c.reg.AddRule(cr.rs.ID, cr.rs.Version, pr)
			rulesLoaded++
		}
	}

	c.reg.SetLastReload(time.Now().UTC())
	c.reg.Notify(registry.EventRulesReloaded, rulesLoaded)

	c.statusMu.Lock()
	c.reloadCount++
	c.statusMu.Unlock()

	result := Result{
		Status:          "success",
		RulesLoaded:     rulesLoaded,
		RulesetsLoaded:  rulesetsLoaded,
		ReloadTimeMs:    float64(time.Since(start).Microseconds()) / 1000.0,
		RegistryVersion: c.reg.Version(),
		Timestamp:       time.Now().UTC(),
	}
	c.recordHistory(result)
	reloadTotal.WithLabelValues(result.Status).Inc()
	reloadDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

func (c *Controller) fail(start time.Time, err error) (Result, error) {
	result := Result{
		Status:       "failed",
		Error:        err.Error(),
		ReloadTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:    time.Now().UTC(),
	}
	c.recordHistory(result)
	reloadTotal.WithLabelValues(result.Status).Inc()
	reloadDuration.Observe(time.Since(start).Seconds())
	return result, err
}

func (c *Controller) recordHistory(r Result) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.history = append(c.history, r)
	if len(c.history) > defaultHistorySize {
		c.history = c.history[len(c.history)-defaultHistorySize:]
	}
}

// History returns up to limit of the most recent ReloadResults, newest
// last. limit<=0 returns the full retained buffer.
func (c *Controller) History(limit int) []Result {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if limit <= 0 || limit >= len(c.history) {
		out := make([]Result, len(c.history))
		copy(out, c.history)
		return out
	}
	out := make([]Result, limit)
	copy(out, c.history[len(c.history)-limit:])
	return out
}

// ValidateFromSource dry-runs compilation of the store's current active
// rules without touching the registry.
func (c *Controller) ValidateFromSource(ctx context.Context, rulesetID string) (ValidationSummary, error) {
	conditions, err := c.store.ListConditions(ctx)
	if err != nil {
		return ValidationSummary{}, err
	}
	condByID := make(map[string]rules.Condition, len(conditions))
	for _, cond := range conditions {
		condByID[cond.ConditionID] = cond
	}

	rulesets, err := c.store.ListActiveRulesets(ctx, store.Filter{RulesetID: rulesetID})
	if err != nil {
		return ValidationSummary{}, err
	}
	activeRules, err := c.store.ListActiveRules(ctx, store.Filter{RulesetID: rulesetID})
	if err != nil {
		return ValidationSummary{}, err
	}
	rulesByRuleset := make(map[string][]rules.Rule)
	for _, r := range activeRules {
		rulesByRuleset[r.RulesetID] = append(rulesByRuleset[r.RulesetID], r)
	}

	summary := ValidationSummary{IsValid: true, SourceType: c.store.SourceType()}
	for _, rs := range rulesets {
		rs.Rules = rulesByRuleset[rs.ID]
		if _, err := rules.CompileRuleSet(rs, condByID); err != nil {
			summary.IsValid = false
			summary.InvalidRules++
			summary.Errors = append(summary.Errors, err.Error())
		}
	}
	return summary, nil
}

// Start spawns the background monitoring loop: every intervalSeconds,
// snapshot active rule IDs from the store and trigger a full reload on
// any detected delta. A reload failure is logged by the caller-supplied
// onError and the loop continues.
func (c *Controller) Start(intervalSeconds int, onError func(error)) error {
	if intervalSeconds < minIntervalSeconds || intervalSeconds > maxIntervalSeconds {
		return rkerr.New(rkerr.CodeValidationError,
			fmt.Sprintf("reload_interval_seconds must be between %d and %d", minIntervalSeconds, maxIntervalSeconds),
			map[string]interface{}{"interval_seconds": intervalSeconds})
	}

	c.statusMu.Lock()
	if c.monitoring {
		c.statusMu.Unlock()
		return rkerr.New(rkerr.CodeValidationError, "monitoring is already active", nil)
	}
	c.monitoring = true
	c.autoReload = true
	c.intervalSeconds = intervalSeconds
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.statusMu.Unlock()

	go c.monitorLoop(time.Duration(intervalSeconds)*time.Second, onError)
	return nil
}

// Stop signals the monitoring loop and waits up to 5 seconds for
// graceful exit before abandoning the worker.
func (c *Controller) Stop() {
	c.statusMu.Lock()
	if !c.monitoring {
		c.statusMu.Unlock()
		return
	}
	stopCh := c.stopCh
	doneCh := c.doneCh
	c.monitoring = false
	c.autoReload = false
	c.statusMu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
	case <-time.After(shutdownGrace):
	}
}

func (c *Controller) monitorLoop(interval time.Duration, onError func(error)) {
	defer close(c.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if c.detectDelta() {
				if _, err := c.Reload(context.Background(), Request{Validate: true}); err != nil && onError != nil {
					onError(err)
				}
			}
		}
	}
}

// detectDelta snapshots the store's active rule IDs and compares against
// the previously observed set.
func (c *Controller) detectDelta() bool {
	activeRules, err := c.store.ListActiveRules(context.Background(), store.Filter{})
	if err != nil {
		return false
	}
	current := make(map[string]struct{}, len(activeRules))
	for _, r := range activeRules {
		current[r.RuleID] = struct{}{}
	}

	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	changed := len(current) != len(c.lastObservedRules)
	if !changed {
		for id := range current {
			if _, ok := c.lastObservedRules[id]; !ok {
				changed = true
				break
			}
		}
	}
	c.lastObservedRules = current
	return changed
}

// Status reports the controller's current status() shape.
func (c *Controller) Status() Status {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return Status{
		MonitoringActive:      c.monitoring,
		AutoReloadEnabled:     c.autoReload,
		ReloadIntervalSeconds: c.intervalSeconds,
		LastReload:            c.reg.LastReload(),
		ReloadCount:           c.reloadCount,
		RegistryStats:         c.reg.Stats(),
	}
}
