package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

func init() {
	logger = logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	level := os.Getenv("RULEKIT_LOG_LEVEL")
	switch level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.SetOutput(os.Stdout)
}

// StructuredLoggingMiddleware creates a structured logging middleware
func StructuredLoggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		fields := logrus.Fields{
			"method":       param.Method,
			"path":         param.Path,
			"status":       param.StatusCode,
			"latency":      param.Latency.Nanoseconds(),
			"latency_ms":   param.Latency.Milliseconds(),
			"client_ip":    param.ClientIP,
			"user_agent":   param.Request.UserAgent(),
			"request_id":   param.Request.Header.Get("X-Request-ID"),
			"content_type": param.Request.Header.Get("Content-Type"),
		}

		if param.ErrorMessage != "" {
			fields["error"] = param.ErrorMessage
			logger.WithFields(fields).Error("HTTP request completed with error")
		} else {
			logger.WithFields(fields).Info("HTTP request completed")
		}

		return ""
	})
}

// LogEvaluationStart logs the start of a rule evaluation.
func LogEvaluationStart(rulesetName string, ruleCount int) {
	logger.WithFields(logrus.Fields{
		"event":      "evaluation_start",
		"ruleset":    rulesetName,
		"rule_count": ruleCount,
	}).Debug("Evaluation started")
}

// LogEvaluationComplete logs the completion of a rule evaluation.
func LogEvaluationComplete(rulesetName, patternResult string, totalPoints float64, duration time.Duration) {
	logger.WithFields(logrus.Fields{
		"event":              "evaluation_complete",
		"ruleset":            rulesetName,
		"pattern_result":     patternResult,
		"total_points":       totalPoints,
		"execution_time_ms":  duration.Milliseconds(),
	}).Info("Evaluation completed")
}

// LogRuleFault logs a non-fatal per-rule evaluation fault: the rule
// still yields "-" and the batch continues.
func LogRuleFault(ruleID, missingAttr string, available []string) {
	logger.WithFields(logrus.Fields{
		"event":        "rule_fault",
		"rule_id":      ruleID,
		"missing_attr": missingAttr,
		"available":    available,
	}).Warn("Rule evaluation fault, emitting '-'")
}

// LogReloadStart logs the start of a hot-reload.
func LogReloadStart(rulesetID, ruleID string, force bool) {
	logger.WithFields(logrus.Fields{
		"event":      "reload_start",
		"ruleset_id": rulesetID,
		"rule_id":    ruleID,
		"force":      force,
	}).Info("Hot reload started")
}

// LogReloadComplete logs the completion of a hot reload.
func LogReloadComplete(status string, rulesLoaded, rulesetsLoaded int, duration time.Duration) {
	logger.WithFields(logrus.Fields{
		"event":           "reload_complete",
		"status":          status,
		"rules_loaded":    rulesLoaded,
		"rulesets_loaded": rulesetsLoaded,
		"reload_time_ms":  duration.Milliseconds(),
	}).Info("Hot reload completed")
}

// LogError logs application errors
func LogError(component, operation string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}

	fields["component"] = component
	fields["operation"] = operation
	fields["error"] = err.Error()

	logger.WithFields(fields).Error("Application error occurred")
}

// LogValidationError logs validation errors
func LogValidationError(context, validationType string, errors []string) {
	logger.WithFields(logrus.Fields{
		"event":           "validation_error",
		"context":         context,
		"validation_type": validationType,
		"errors":          errors,
		"error_count":     len(errors),
	}).Warn("Validation failed")
}

// LogSystemEvent logs system-level events
func LogSystemEvent(event string, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}

	fields["event"] = "system_" + event

	logger.WithFields(fields).Info("System event")
}
