package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mova-engine/rulekit/core/abtest"
	"github.com/mova-engine/rulekit/core/engine"
	"github.com/mova-engine/rulekit/core/registry"
	"github.com/mova-engine/rulekit/core/reload"
	"github.com/mova-engine/rulekit/core/rules"
	"github.com/mova-engine/rulekit/core/store/memstore"
)

func setupTestRouter() (*gin.Engine, *registry.Registry, *abtest.Router) {
	gin.SetMode(gin.TestMode)

	reg := registry.New()
	reg.AddRuleset(rules.RuleSet{ID: "RS1", Name: "checkout", IsDefault: true, Status: "active"})
	reg.AddRule("RS1", 1, rules.PreparedRule{
		RuleID:   "R1",
		RuleName: "high_value",
		Predicate: rules.Predicate{
			Leaf: &rules.Leaf{Attribute: "order_total", Operator: "greater_than", Value: "1000"},
		},
		RulePoint:    10,
		Weight:       1,
		ActionResult: "M",
	})

	abRouter := abtest.New()
	eng := engine.New(reg, abRouter, nil, nil, nil)

	st := memstore.New()
	_ = st.UpsertRuleset(context.Background(), rules.RuleSet{ID: "RS1", Status: "active"})
	reloadCtrl := reload.New(reg, st, nil)

	router := gin.New()
	registerRoutes(router, eng, reloadCtrl, abRouter, st, reg)
	return router, reg, abRouter
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleHealthzReturnsOK(t *testing.T) {
	router, _, _ := setupTestRouter()
	w := doRequest(router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleEvaluateMatchesRuleAgainstFacts(t *testing.T) {
	router, _, _ := setupTestRouter()
	w := doRequest(router, http.MethodPost, "/evaluate", map[string]interface{}{
		"facts": map[string]interface{}{"order_total": 1500},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["RulesMatched"].(float64))
	assert.Equal(t, float64(10), body["TotalPoints"].(float64))
}

func TestHandleEvaluateRejectsMissingFacts(t *testing.T) {
	router, _, _ := setupTestRouter()
	w := doRequest(router, http.MethodPost, "/evaluate", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleReloadLoadsFromStore(t *testing.T) {
	router, _, _ := setupTestRouter()
	w := doRequest(router, http.MethodPost, "/reload", map[string]interface{}{})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["Status"])
}

func TestHandleStatusReportsRegistryStats(t *testing.T) {
	router, _, _ := setupTestRouter()
	w := doRequest(router, http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleCreateABTestThenStartThenMetrics(t *testing.T) {
	router, _, _ := setupTestRouter()

	w := doRequest(router, http.MethodPost, "/abtest", map[string]interface{}{
		"test_id":          "T1",
		"rule_id":          "R1",
		"traffic_split_a":  0.5,
		"traffic_split_b":  0.5,
		"confidence_level": 0.95,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(router, http.MethodPost, "/abtest/T1/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/abtest/T1/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleCreateABTestRejectsMissingTestID(t *testing.T) {
	router, _, _ := setupTestRouter()
	w := doRequest(router, http.MethodPost, "/abtest", map[string]interface{}{
		"traffic_split_a": 0.5,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStartABTestUnknownIDReturnsBadRequestWithRKErrorShape(t *testing.T) {
	router, _, _ := setupTestRouter()
	w := doRequest(router, http.MethodPost, "/abtest/does-not-exist/start", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "error_code")
}

func TestHandleValidateFromSourceReportsSummary(t *testing.T) {
	router, _, _ := setupTestRouter()
	w := doRequest(router, http.MethodGet, "/validate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleIntrospectListsEndpoints(t *testing.T) {
	router, _, _ := setupTestRouter()
	w := doRequest(router, http.MethodGet, "/introspect", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rulekit", body["name"])
}
