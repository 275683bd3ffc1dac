package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mova-engine/rulekit/core/abtest"
	"github.com/mova-engine/rulekit/core/engine"
	"github.com/mova-engine/rulekit/core/predicate"
	"github.com/mova-engine/rulekit/core/registry"
	"github.com/mova-engine/rulekit/core/reload"
	"github.com/mova-engine/rulekit/core/rkerr"
	"github.com/mova-engine/rulekit/core/store"
)

// registerRoutes wires the narrow route set this server exposes:
// /evaluate, /reload, /reload/history, /validate, /status, /healthz,
// /introspect, /metrics (registered by main), /abtest/*. The full CRUD surface over rules/rulesets is deliberately
// out of scope.
func registerRoutes(router *gin.Engine, eng *engine.Engine, reloadCtrl *reload.Controller, abRouter *abtest.Router, st store.Reader, reg *registry.Registry) {
	router.GET("/healthz", handleHealthz)
	router.GET("/status", handleStatus(reloadCtrl))
	router.GET("/introspect", handleIntrospect)

	router.POST("/evaluate", handleEvaluate(eng))

	router.POST("/reload", handleReload(reloadCtrl))
	router.GET("/reload/history", handleReloadHistory(reloadCtrl))
	router.GET("/validate", handleValidateFromSource(reloadCtrl))

	abGroup := router.Group("/abtest")
	{
		abGroup.POST("", handleCreateABTest(abRouter))
		abGroup.POST("/:id/start", handleStartABTest(abRouter))
		abGroup.POST("/:id/stop", handleStopABTest(abRouter))
		abGroup.GET("/:id/metrics", handleABTestMetrics(abRouter))
	}
}

func handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

func handleStatus(reloadCtrl *reload.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, reloadCtrl.Status())
	}
}

func handleIntrospect(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "rulekit",
		"version":     "1.0.0",
		"description": "Business-rule execution and lifecycle platform",
		"endpoints": []gin.H{
			{"method": "POST", "path": "/evaluate", "description": "Evaluate a fact map against a ruleset"},
			{"method": "POST", "path": "/reload", "description": "Trigger a hot reload from the RuleStore"},
			{"method": "GET", "path": "/reload/history", "description": "Recent reload results"},
			{"method": "GET", "path": "/validate", "description": "Dry-run compile the store's active rules"},
			{"method": "GET", "path": "/status", "description": "Reload controller and registry status"},
			{"method": "GET", "path": "/healthz", "description": "Liveness probe"},
			{"method": "GET", "path": "/metrics", "description": "Prometheus metrics"},
			{"method": "POST", "path": "/abtest", "description": "Create an A/B test"},
			{"method": "POST", "path": "/abtest/:id/start", "description": "Start an A/B test"},
			{"method": "POST", "path": "/abtest/:id/stop", "description": "Stop an A/B test"},
			{"method": "GET", "path": "/abtest/:id/metrics", "description": "A/B test metrics"},
		},
	})
}

// evaluateRequest is the wire shape of an /evaluate request body.
type evaluateRequest struct {
	RulesetName   string                 `json:"ruleset_name"`
	Facts         map[string]interface{} `json:"facts" binding:"required"`
	ABTestID      string                 `json:"ab_test_id"`
	AssignmentKey string                 `json:"assignment_key"`
	ConsumerID    string                 `json:"consumer_id"`
	DryRun        bool                   `json:"dry_run"`
}

func handleEvaluate(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req evaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}

		start := time.Now()
		ctx, span := StartEvaluationSpan(c.Request.Context(), req.RulesetName)
		defer span.End()

		result, err := eng.Evaluate(ctx, predicate.FactMap(req.Facts), engine.Options{
			RulesetName:   req.RulesetName,
			ABTestID:      req.ABTestID,
			AssignmentKey: req.AssignmentKey,
			ConsumerID:    req.ConsumerID,
			DryRun:        req.DryRun,
		})
		if err != nil {
			SetSpanError(ctx, err)
			RecordEvaluationMetrics(req.RulesetName, "error", time.Since(start))
			writeRKError(c, err)
			return
		}

		RecordEvaluationMetrics(req.RulesetName, "success", time.Since(start))
		if result.ABTestID != "" && result.ABVariant != "" {
			RecordABTestAssignment(result.ABTestID, result.ABVariant)
		}
		LogEvaluationComplete(req.RulesetName, result.PatternResult, result.TotalPoints, time.Since(start))
		c.JSON(http.StatusOK, result)
	}
}

type reloadRequest struct {
	RulesetID string `json:"ruleset_id"`
	RuleID    string `json:"rule_id"`
	Force     bool   `json:"force"`
	Validate  bool   `json:"validate"`
}

func handleReload(reloadCtrl *reload.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reloadRequest
		_ = c.ShouldBindJSON(&req)

		ctx, span := StartReloadSpan(c.Request.Context(), req.RulesetID, req.RuleID)
		defer span.End()

		LogReloadStart(req.RulesetID, req.RuleID, req.Force)
		start := time.Now()
		result, err := reloadCtrl.Reload(ctx, reload.Request{
			RulesetID: req.RulesetID,
			RuleID:    req.RuleID,
			Force:     req.Force,
			Validate:  req.Validate,
		})
		LogReloadComplete(result.Status, result.RulesLoaded, result.RulesetsLoaded, time.Since(start))
		if err != nil {
			SetSpanError(ctx, err)
			writeRKError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func handleReloadHistory(reloadCtrl *reload.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		c.JSON(http.StatusOK, gin.H{"history": reloadCtrl.History(limit)})
	}
}

func handleValidateFromSource(reloadCtrl *reload.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		rulesetID := c.Query("ruleset_id")
		summary, err := reloadCtrl.ValidateFromSource(c.Request.Context(), rulesetID)
		if err != nil {
			writeRKError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

type createABTestRequest struct {
	TestID          string  `json:"test_id" binding:"required"`
	RuleID          string  `json:"rule_id"`
	RulesetID       string  `json:"ruleset_id"`
	VariantAVersion int     `json:"variant_a_version"`
	VariantBVersion int     `json:"variant_b_version"`
	TrafficSplitA   float64 `json:"traffic_split_a"`
	TrafficSplitB   float64 `json:"traffic_split_b"`
	DurationHours   float64 `json:"duration_hours"`
	MinSampleSize   int     `json:"min_sample_size"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

func handleCreateABTest(abRouter *abtest.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createABTestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}

		err := abRouter.CreateTest(abtest.Test{
			TestID:          req.TestID,
			RuleID:          req.RuleID,
			RulesetID:       req.RulesetID,
			VariantAVersion: req.VariantAVersion,
			VariantBVersion: req.VariantBVersion,
			TrafficSplitA:   req.TrafficSplitA,
			TrafficSplitB:   req.TrafficSplitB,
			Status:          abtest.StatusDraft,
			DurationHours:   req.DurationHours,
			MinSampleSize:   req.MinSampleSize,
			ConfidenceLevel: req.ConfidenceLevel,
		})
		if err != nil {
			writeRKError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"test_id": req.TestID, "status": abtest.StatusDraft})
	}
}

func handleStartABTest(abRouter *abtest.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		testID := c.Param("id")
		if err := abRouter.StartTest(testID); err != nil {
			writeRKError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"test_id": testID, "status": abtest.StatusRunning})
	}
}

type stopABTestRequest struct {
	WinningVariant string `json:"winning_variant"`
}

func handleStopABTest(abRouter *abtest.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		testID := c.Param("id")
		var req stopABTestRequest
		_ = c.ShouldBindJSON(&req)

		var winner *abtest.Variant
		if req.WinningVariant != "" {
			v := abtest.Variant(req.WinningVariant)
			winner = &v
		}

		if err := abRouter.StopTest(testID, winner); err != nil {
			writeRKError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"test_id": testID, "status": abtest.StatusCompleted})
	}
}

func handleABTestMetrics(abRouter *abtest.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		testID := c.Param("id")
		metrics, err := abRouter.GetTestMetrics(testID)
		if err != nil {
			writeRKError(c, err)
			return
		}
		c.JSON(http.StatusOK, metrics)
	}
}

// writeRKError renders a *rkerr.Error as {error_type, message, error_code,
// context}, or falls back to a generic 500.
func writeRKError(c *gin.Context, err error) {
	if rk, ok := err.(*rkerr.Error); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_type": string(rk.Kind),
			"message":    rk.Message,
			"error_code": rk.Code,
			"context":    rk.Context,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error_type": "internal",
		"message":    err.Error(),
		"error_code": "INTERNAL_ERROR",
	})
}
