package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mova-engine/rulekit/core/rkerr"
	"github.com/mova-engine/rulekit/core/rules"
)

func TestRecordMutationFlipsPreviousCurrentAndIncrementsNumber(t *testing.T) {
	s := New()
	v1 := s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 1}, "initial")
	assert.Equal(t, 1, v1.VersionNumber)
	assert.True(t, v1.IsCurrent)

	v2 := s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 2}, "weight bump")
	assert.Equal(t, 2, v2.VersionNumber)
	assert.True(t, v2.IsCurrent)

	trail := s.ListVersions("R1")
	require.Len(t, trail, 2)
	assert.False(t, trail[0].IsCurrent, "the earlier version must no longer be current")
}

func TestCurrentVersionReturnsFalseWhenUnknown(t *testing.T) {
	s := New()
	_, ok := s.CurrentVersion("missing")
	assert.False(t, ok)
}

func TestRollbackUnknownRuleFails(t *testing.T) {
	s := New()
	_, err := s.Rollback("missing", 1, "because")
	require.Error(t, err)
	rkErr, ok := err.(*rkerr.Error)
	require.True(t, ok)
	assert.Equal(t, rkerr.CodeRuleNotFound, rkErr.Code)
}

func TestRollbackUnknownVersionFails(t *testing.T) {
	s := New()
	s.RecordMutation(rules.Rule{RuleID: "R1"}, "initial")

	_, err := s.Rollback("R1", 99, "because")
	require.Error(t, err)
	rkErr, ok := err.(*rkerr.Error)
	require.True(t, ok)
	assert.Equal(t, rkerr.CodeVersionNotFound, rkErr.Code)
}

func TestRollbackRestoresTargetFieldsAsNewCurrentVersion(t *testing.T) {
	s := New()
	s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 1, Status: "active"}, "v1")
	s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 2, Status: "active"}, "v2")
	s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 3, Status: "disabled"}, "v3")

	rolledBack, err := s.Rollback("R1", 1, "bad deploy")
	require.NoError(t, err)
	assert.Equal(t, 4, rolledBack.VersionNumber, "rollback appends, it never reuses a version number")
	assert.Equal(t, 1.0, rolledBack.Rule.Weight)
	assert.True(t, rolledBack.IsCurrent)

	current, ok := s.CurrentVersion("R1")
	require.True(t, ok)
	assert.Equal(t, rolledBack.VersionNumber, current.VersionNumber)
}

func TestRollbackRecordsPreRollbackBackup(t *testing.T) {
	s := New()
	s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 1}, "v1")
	s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 2}, "v2")

	_, err := s.Rollback("R1", 1, "bad deploy")
	require.NoError(t, err)

	backups := s.Backups("R1")
	require.Len(t, backups, 1)
	assert.Equal(t, "Pre-rollback backup: bad deploy", backups[0].ChangeReason)
	assert.Equal(t, 2.0, backups[0].Rule.Weight, "the backup must capture the live state before rollback")
}

func TestRollbackDoesNotConsumeATrailSlotForTheBackup(t *testing.T) {
	s := New()
	s.RecordMutation(rules.Rule{RuleID: "R1"}, "v1")
	s.RecordMutation(rules.Rule{RuleID: "R1"}, "v2")

	_, err := s.Rollback("R1", 1, "reason")
	require.NoError(t, err)

	assert.Len(t, s.ListVersions("R1"), 3, "rollback adds exactly one new current version to the trail")
}

func TestCompareVersionsReportsFieldDifferences(t *testing.T) {
	s := New()
	s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 1, Status: "active"}, "v1")
	s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 2, Status: "active"}, "v2")

	diff, err := s.CompareVersions("R1", 1, 2)
	require.NoError(t, err)
	assert.True(t, diff.HasDifferences)
	assert.Contains(t, diff.Fields, "weight")
	assert.NotContains(t, diff.Fields, "status")
}

func TestCompareVersionsNoDifferences(t *testing.T) {
	s := New()
	s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 1}, "v1")
	s.RecordMutation(rules.Rule{RuleID: "R1", Weight: 1}, "v2")

	diff, err := s.CompareVersions("R1", 1, 2)
	require.NoError(t, err)
	assert.False(t, diff.HasDifferences)
}

func TestCompareVersionsUnknownVersionFails(t *testing.T) {
	s := New()
	s.RecordMutation(rules.Rule{RuleID: "R1"}, "v1")

	_, err := s.CompareVersions("R1", 1, 5)
	require.Error(t, err)
}
