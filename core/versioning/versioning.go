// Package versioning implements rule version snapshots, diff and rollback,
// grounded on core/registry's VersionTrail bookkeeping and its in-memory
// mutex-guarded map style.
package versioning

import (
	"fmt"
	"sync"
	"time"

	"github.com/mova-engine/rulekit/core/rkerr"
	"github.com/mova-engine/rulekit/core/rules"
)

// fixedAttributes is the field set compare_versions diffs over.
var fixedAttributes = []string{
	"rule_name", "attribute", "condition", "constant", "message",
	"weight", "rule_point", "priority", "action_result", "status",
}

// Version is an immutable RuleVersion snapshot.
type Version struct {
	RuleID        string
	VersionNumber int
	IsCurrent     bool
	ChangeReason  string
	CreatedAt     time.Time
	Rule          rules.Rule
}

// Diff is compare_versions' field-by-field report.
type Diff struct {
	HasDifferences bool
	Fields         map[string][2]string // field -> [a, b]
}

// Store owns the per-rule_id version trail. Exactly one Version per
// rule_id carries IsCurrent = true.
type Store struct {
	mu       sync.Mutex
	versions map[string][]Version // rule_id -> versions ordered by VersionNumber ascending

	// backups holds the pre-rollback snapshots taken by Rollback's step 3.
	// They are retained for audit but do not occupy a slot in the
	// rule_id's numbered trail: get_current_version/compare_versions only
	// ever see the trail, matching the rollback-idempotence scenario where
	// one rollback advances the current version number by exactly one.
	backups map[string][]Version
}

// New constructs an empty version Store.
func New() *Store {
	return &Store{versions: make(map[string][]Version), backups: make(map[string][]Version)}
}

// RecordMutation enforces the core invariant: every mutation of a Rule
// flips the previous current version off and inserts a new current
// version, recording change_reason.
func (s *Store) RecordMutation(r rules.Rule, changeReason string) Version {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := s.versions[r.RuleID]
	next := 1
	if len(trail) > 0 {
		for i := range trail {
			trail[i].IsCurrent = false
		}
		next = trail[len(trail)-1].VersionNumber + 1
	}

	v := Version{
		RuleID:        r.RuleID,
		VersionNumber: next,
		IsCurrent:     true,
		ChangeReason:  changeReason,
		CreatedAt:     time.Now().UTC(),
		Rule:          r,
	}
	s.versions[r.RuleID] = append(trail, v)
	return v
}

// CurrentVersion returns the version flagged is_current for a rule_id.
func (s *Store) CurrentVersion(ruleID string) (Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[ruleID] {
		if v.IsCurrent {
			return v, true
		}
	}
	return Version{}, false
}

// GetVersion returns a specific version_number for a rule_id.
func (s *Store) GetVersion(ruleID string, versionNumber int) (Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[ruleID] {
		if v.VersionNumber == versionNumber {
			return v, true
		}
	}
	return Version{}, false
}

// ListVersions returns every retained version for a rule_id, ascending by
// version_number.
func (s *Store) ListVersions(ruleID string) []Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Version, len(s.versions[ruleID]))
	copy(out, s.versions[ruleID])
	return out
}

// Rollback runs rollback(rule_id, version_number, change_reason) as one
// atomic unit under the store's lock: snapshot the current live Rule as
// a "Pre-rollback backup: …" version, then copy the target version's
// mutable fields onto a new current version.
func (s *Store) Rollback(ruleID string, versionNumber int, changeReason string) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trail := s.versions[ruleID]
	if len(trail) == 0 {
		return Version{}, rkerr.New(rkerr.CodeRuleNotFound, "rule not found", map[string]interface{}{"rule_id": ruleID})
	}

	var target *Version
	var current *Version
	for i := range trail {
		if trail[i].VersionNumber == versionNumber {
			target = &trail[i]
		}
		if trail[i].IsCurrent {
			current = &trail[i]
		}
	}
	if target == nil {
		return Version{}, rkerr.New(rkerr.CodeVersionNotFound, "version not found",
			map[string]interface{}{"rule_id": ruleID, "version_number": versionNumber})
	}
	if current == nil {
		return Version{}, rkerr.New(rkerr.CodeRuleNotFound, "rule not found", map[string]interface{}{"rule_id": ruleID})
	}

	for i := range trail {
		trail[i].IsCurrent = false
	}

	// Step 3: snapshot the current live state as a pre-rollback backup,
	// kept out of the numbered trail (see Store.backups doc comment).
	backupReason := fmt.Sprintf("Pre-rollback backup: %s", changeReason)
	s.backups[ruleID] = append(s.backups[ruleID], Version{
		RuleID:        ruleID,
		VersionNumber: current.VersionNumber,
		IsCurrent:     false,
		ChangeReason:  backupReason,
		CreatedAt:     time.Now().UTC(),
		Rule:          current.Rule,
	})

	// Steps 4-5: the target's mutable fields become the new current
	// version, numbered one past the prior trail head.
	nextNumber := trail[len(trail)-1].VersionNumber + 1
	restored := target.Rule
	restored.Version = nextNumber
	rolledBack := Version{
		RuleID:        ruleID,
		VersionNumber: nextNumber,
		IsCurrent:     true,
		ChangeReason:  changeReason,
		CreatedAt:     time.Now().UTC(),
		Rule:          restored,
	}
	trail = append(trail, rolledBack)

	s.versions[ruleID] = trail
	return rolledBack, nil
}

// Backups returns the pre-rollback snapshots retained for a rule_id.
func (s *Store) Backups(ruleID string) []Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Version, len(s.backups[ruleID]))
	copy(out, s.backups[ruleID])
	return out
}

// CompareVersions computes a field-by-field diff over the fixed
// attribute set.
func (s *Store) CompareVersions(ruleID string, a, b int) (Diff, error) {
	va, ok := s.GetVersion(ruleID, a)
	if !ok {
		return Diff{}, rkerr.New(rkerr.CodeVersionNotFound, "version not found",
			map[string]interface{}{"rule_id": ruleID, "version_number": a})
	}
	vb, ok := s.GetVersion(ruleID, b)
	if !ok {
		return Diff{}, rkerr.New(rkerr.CodeVersionNotFound, "version not found",
			map[string]interface{}{"rule_id": ruleID, "version_number": b})
	}

	fieldsA := fieldValues(va.Rule)
	fieldsB := fieldValues(vb.Rule)

	diff := Diff{Fields: make(map[string][2]string)}
	for _, f := range fixedAttributes {
		if fieldsA[f] != fieldsB[f] {
			diff.HasDifferences = true
			diff.Fields[f] = [2]string{fieldsA[f], fieldsB[f]}
		}
	}
	return diff, nil
}

func fieldValues(r rules.Rule) map[string]string {
	return map[string]string{
		"rule_name":     r.RuleName,
		"attribute":     r.Attribute,
		"condition":     r.Operator,
		"constant":      r.Constant,
		"message":       r.Message,
		"weight":        fmt.Sprintf("%v", r.Weight),
		"rule_point":    fmt.Sprintf("%v", r.RulePoint),
		"priority":      fmt.Sprintf("%v", r.Priority),
		"action_result": r.ActionResult,
		"status":        r.Status,
	}
}
