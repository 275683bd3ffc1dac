package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTestServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	prev := APIServer
	APIServer = srv.URL
	t.Cleanup(func() { APIServer = prev })
}

func TestEvaluateCmdMetadataAndFlags(t *testing.T) {
	assert.Equal(t, "evaluate", EvaluateCmd.Use)
	assert.NotNil(t, EvaluateCmd.RunE)
	assert.NotNil(t, EvaluateCmd.Flags().Lookup("facts"))
	assert.NotNil(t, EvaluateCmd.Flags().Lookup("ruleset"))
}

func TestEvaluateCmdPostsFactsFileToEvaluateEndpoint(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"TotalPoints": 10})
	})

	factsFile := filepath.Join(t.TempDir(), "facts.json")
	require.NoError(t, os.WriteFile(factsFile, []byte(`{"order_total": 1500}`), 0o644))

	evalFactsFile = factsFile
	evalRulesetName = "checkout"
	defer func() { evalFactsFile = ""; evalRulesetName = "" }()

	err := EvaluateCmd.RunE(EvaluateCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "/evaluate", gotPath)
	assert.Equal(t, "checkout", gotBody["ruleset_name"])
}

func TestEvaluateCmdReturnsErrorOnNonOKStatus(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"DATA_INVALID_TYPE"}`))
	})

	factsFile := filepath.Join(t.TempDir(), "facts.json")
	require.NoError(t, os.WriteFile(factsFile, []byte(`{}`), 0o644))
	evalFactsFile = factsFile
	defer func() { evalFactsFile = "" }()

	err := EvaluateCmd.RunE(EvaluateCmd, nil)
	require.Error(t, err)
}

func TestReloadCmdMetadataAndFlags(t *testing.T) {
	assert.Equal(t, "reload", ReloadCmd.Use)
	assert.NotNil(t, ReloadCmd.Flags().Lookup("ruleset-id"))
	assert.NotNil(t, ReloadCmd.Flags().Lookup("force"))
}

func TestReloadCmdPostsToReloadEndpoint(t *testing.T) {
	var gotPath string
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Status":"success"}`))
	})

	err := ReloadCmd.RunE(ReloadCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "/reload", gotPath)
}

func TestStatusCmdGetsStatusEndpoint(t *testing.T) {
	var gotPath string
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	err := StatusCmd.RunE(StatusCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "/status", gotPath)
}

func TestStatusCmdReturnsErrorOnServerFailure(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := StatusCmd.RunE(StatusCmd, nil)
	require.Error(t, err)
}

func TestValidateCmdAppendsRulesetIDQueryParam(t *testing.T) {
	var gotQuery string
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	validateRulesetID = "RS1"
	defer func() { validateRulesetID = "" }()

	err := ValidateCmd.RunE(ValidateCmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "ruleset_id=RS1", gotQuery)
}

func TestABTestCmdHasAllLifecycleSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range ABTestCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"create", "start", "stop", "metrics"} {
		assert.True(t, names[want], "expected abtest subcommand %q", want)
	}
}

func TestABCreateCmdPostsToAbtestEndpoint(t *testing.T) {
	var gotBody map[string]interface{}
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})

	abCreateTestID = "T1"
	abCreateSplitA = 0.5
	abCreateSplitB = 0.5
	defer func() { abCreateTestID = "" }()

	cmd, _, err := ABTestCmd.Find([]string{"create"})
	require.NoError(t, err)
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Equal(t, "T1", gotBody["test_id"])
}
